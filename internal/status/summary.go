package status

import (
	"time"

	"github.com/ukydev/engineeye/internal/models"
)

// DateBadge is the rendered state of a legal expiry date.
type DateBadge struct {
	Name    string `json:"name"`
	Date    string `json:"date"`
	Days    *int   `json:"days"`
	Color   Color  `json:"color"`
	Hex     string `json:"hex"`
	Text    string `json:"text"`
	Expired bool   `json:"expired"`
}

// ServiceCue flags a component whose last service is older than the interval.
type ServiceCue struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Due  bool   `json:"due"`
}

// MaintenanceLine is one maintenance record with its derived state.
type MaintenanceLine struct {
	Type        string           `json:"type"`
	Date        string           `json:"date"`
	NextDueDate string           `json:"next_due_date,omitempty"`
	State       MaintenanceState `json:"state"`
}

// IssueLine is one active issue with its status color.
type IssueLine struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Status   models.IssueStatus   `json:"status"`
	Priority models.IssuePriority `json:"priority"`
	Color    Color                `json:"color"`
	Hex      string               `json:"hex"`
}

// HealthBar is one performance score with its bar color.
type HealthBar struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
	Color   Color   `json:"color"`
}

// VehicleSummary is everything the vehicle dashboard derives from a record.
type VehicleSummary struct {
	VehicleID              string            `json:"vehicle_id"`
	LegalDates             []DateBadge       `json:"legal_dates"`
	ServiceCues            []ServiceCue      `json:"service_cues"`
	Maintenance            []MaintenanceLine `json:"maintenance"`
	AverageFuelConsumption *float64          `json:"average_fuel_consumption"`
	OpenIssues             int               `json:"open_issues"`
	Issues                 []IssueLine       `json:"issues"`
	Health                 []HealthBar       `json:"health"`
	GeneratedAt            time.Time         `json:"generated_at"`
}

func badge(name, date string, now time.Time) DateBadge {
	days := DaysUntil(date, now)
	c := ColorFor(days)
	return DateBadge{
		Name:    name,
		Date:    date,
		Days:    days,
		Color:   c,
		Hex:     c.Hex(),
		Text:    Text(days),
		Expired: IsExpired(date, now),
	}
}

// Summarize derives the dashboard view of rec at now.
func Summarize(rec models.VehicleRecord, now time.Time) VehicleSummary {
	s := VehicleSummary{
		VehicleID: rec.ID.Hex(),
		LegalDates: []DateBadge{
			badge("insurance", rec.InsuranceDate, now),
			badge("traffic_insurance", rec.TrafficInsuranceDate, now),
			badge("inspection", rec.InspectionDate, now),
		},
		AverageFuelConsumption: AverageFuelConsumption(rec.FuelRecords),
		OpenIssues:             len(rec.ActiveIssues),
		GeneratedAt:            now,
	}

	for _, c := range []struct{ name, date string }{
		{"oil", rec.LastOilChange.Date},
		{"tires", rec.LastTireChange.Date},
		{"brakes", rec.LastBrakeService.Date},
		{"battery", rec.LastBatteryChange},
		{"filter", rec.LastFilterChange},
	} {
		s.ServiceCues = append(s.ServiceCues, ServiceCue{Name: c.name, Date: c.date, Due: IsMaintenanceDue(c.date, now)})
	}

	s.Maintenance = make([]MaintenanceLine, 0, len(rec.MaintenanceHistory))
	for _, m := range rec.MaintenanceHistory {
		s.Maintenance = append(s.Maintenance, MaintenanceLine{
			Type:        m.Type,
			Date:        m.Date,
			NextDueDate: m.NextDueDate,
			State:       MaintenanceStatus(m, now),
		})
	}

	s.Issues = make([]IssueLine, 0, len(rec.ActiveIssues))
	for _, issue := range rec.ActiveIssues {
		c := IssueColor(issue.Status)
		s.Issues = append(s.Issues, IssueLine{
			ID:       issue.ID,
			Title:    issue.Title,
			Status:   issue.Status,
			Priority: issue.Priority,
			Color:    c,
			Hex:      c.Hex(),
		})
	}

	pm := rec.PerformanceMetrics
	s.Health = []HealthBar{
		{Name: "engine", Percent: pm.EngineHealth, Color: HealthColor(pm.EngineHealth)},
		{Name: "battery", Percent: pm.BatteryHealth, Color: HealthColor(pm.BatteryHealth)},
		{Name: "brakes", Percent: pm.BrakesHealth, Color: HealthColor(pm.BrakesHealth)},
	}
	return s
}
