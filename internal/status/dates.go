// Package status derives human-facing status from vehicle records: days
// until a date, urgency colors, maintenance states and fuel averages.
//
// Everything here is pure. The current time is always passed in.
package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ukydev/engineeye/internal/models"
)

// Color is an urgency level rendered as a color by clients.
type Color string

const (
	ColorNeutral Color = "neutral"
	ColorDanger  Color = "danger"
	ColorWarning Color = "warning"
	ColorOK      Color = "ok"
)

// Hex returns the display color used by the mobile client.
func (c Color) Hex() string {
	switch c {
	case ColorDanger:
		return "#FF6B6B"
	case ColorWarning:
		return "#FFD700"
	case ColorOK:
		return "#4ECDC4"
	default:
		return "#666666"
	}
}

// DueSoonDays is the window in which a date counts as approaching.
const DueSoonDays = 30

// MaintenanceInterval is how long after a service it is considered due again.
const MaintenanceInterval = 6 // months

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses a stored date string. Date-only values are UTC midnight.
// ok is false for empty or malformed input.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysUntil returns the whole days from now until date, rounded up, or nil
// when date is unset or unparseable. Negative values are in the past.
func DaysUntil(date string, now time.Time) *int {
	t, ok := ParseDate(date)
	if !ok {
		return nil
	}
	days := int(math.Ceil(t.Sub(now).Hours() / 24))
	return &days
}

// ColorFor maps a day count to an urgency color.
func ColorFor(days *int) Color {
	switch {
	case days == nil:
		return ColorNeutral
	case *days < 0:
		return ColorDanger
	case *days < DueSoonDays:
		return ColorWarning
	default:
		return ColorOK
	}
}

// Text renders a day count for display.
func Text(days *int) string {
	switch {
	case days == nil:
		return "unspecified"
	case *days < 0:
		return fmt.Sprintf("%d days overdue", -*days)
	default:
		return fmt.Sprintf("%d days remaining", *days)
	}
}

// IsMaintenanceDue reports whether a last-service date is more than six
// calendar months before now. Unset or malformed dates are never due.
func IsMaintenanceDue(date string, now time.Time) bool {
	t, ok := ParseDate(date)
	if !ok {
		return false
	}
	return t.Before(now.AddDate(0, -MaintenanceInterval, 0))
}

// IsExpired reports whether an expiry date has passed.
func IsExpired(date string, now time.Time) bool {
	t, ok := ParseDate(date)
	if !ok {
		return false
	}
	return t.Before(now)
}

// IssueColor maps an issue status to a color.
func IssueColor(s models.IssueStatus) Color {
	switch s {
	case models.IssueOpen:
		return ColorDanger
	case models.IssueMonitoring:
		return ColorWarning
	case models.IssueResolved:
		return ColorOK
	default:
		return ColorNeutral
	}
}

// HealthColor maps a 0-100 health score to a color.
func HealthColor(pct float64) Color {
	switch {
	case pct > 70:
		return ColorOK
	case pct > 40:
		return ColorWarning
	default:
		return ColorDanger
	}
}
