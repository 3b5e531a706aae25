package status

import (
	"strconv"
	"strings"
	"time"

	"github.com/ukydev/engineeye/internal/models"
)

// MaintenanceState classifies a maintenance record by its next due date.
type MaintenanceState string

const (
	MaintenanceOverdue  MaintenanceState = "overdue"
	MaintenanceUpcoming MaintenanceState = "upcoming"
	MaintenanceOK       MaintenanceState = "ok"
	MaintenanceUnknown  MaintenanceState = "unknown"
)

// ParseMileage reads the leading integer of a mileage string ("10500 km"
// is 10500). ok is false when there is none.
func ParseMileage(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || end == 0 && (s[end] == '-' || s[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// AverageFuelConsumption returns liters per 100 distance units across
// records in the order given: total liters over the distance between the
// first and last record. It is nil for fewer than two records, unparseable
// mileages, or a distance that is not positive.
func AverageFuelConsumption(records []models.FuelRecord) *float64 {
	if len(records) < 2 {
		return nil
	}
	first, ok := ParseMileage(records[0].Mileage)
	if !ok {
		return nil
	}
	last, ok := ParseMileage(records[len(records)-1].Mileage)
	if !ok {
		return nil
	}
	distance := last - first
	if distance <= 0 {
		return nil
	}

	var liters float64
	for _, r := range records {
		liters += r.Liters
	}
	avg := liters / float64(distance) * 100
	return &avg
}

// MaintenanceStatus classifies rec by its next due date relative to now.
// A record with only a due mileage is ok; mileage is not compared.
func MaintenanceStatus(rec models.MaintenanceRecord, now time.Time) MaintenanceState {
	if strings.TrimSpace(rec.NextDueDate) == "" && strings.TrimSpace(rec.NextDueMileage) == "" {
		return MaintenanceUnknown
	}
	next, ok := ParseDate(rec.NextDueDate)
	if !ok {
		return MaintenanceOK
	}
	if next.Before(now) {
		return MaintenanceOverdue
	}
	if next.Sub(now) < DueSoonDays*24*time.Hour {
		return MaintenanceUpcoming
	}
	return MaintenanceOK
}
