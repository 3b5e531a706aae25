// Package vehicle implements the vehicle record lifecycle and the
// owner-scoped repository facade over the vehicle store.
//
// Transitions are pure functions over a models.VehicleRecord. Each one
// mutates the in-memory record and returns the db.VehicleUpdate that writes
// exactly the same change, so a caller's copy never drifts from what was
// sent to the store.
package vehicle

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/db"
	"github.com/ukydev/engineeye/internal/models"
	"github.com/ukydev/engineeye/internal/status"
)

// baselineHealth is the health score of a newly added vehicle.
const baselineHealth = 100

// Maintenance types that also refresh a last-service snapshot.
const (
	TypeOilChange     = "oil_change"
	TypeTireChange    = "tire_change"
	TypeBrakeService  = "brake_service"
	TypeBatteryChange = "battery_change"
	TypeFilterChange  = "filter_change"
)

// New builds a vehicle for owner with empty histories and baseline metrics.
func New(details models.VehicleDetails, owner models.Identity, now time.Time) models.VehicleRecord {
	return models.VehicleRecord{
		OwnerUserID:    owner.UserID,
		OwnerEmail:     owner.Email,
		VehicleDetails: details,
		Histories: models.Histories{
			MaintenanceHistory: []models.MaintenanceRecord{},
			FuelRecords:        []models.FuelRecord{},
			ActiveIssues:       []models.IssueRecord{},
			IssueHistory:       []models.IssueRecord{},
		},
		PerformanceMetrics: models.PerformanceMetrics{
			EngineHealth:  baselineHealth,
			BatteryHealth: baselineHealth,
			BrakesHealth:  baselineHealth,
			LastUpdated:   now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply performs an edit. Histories are only replaced when u.Histories is
// set, whatever the mode.
func Apply(rec *models.VehicleRecord, u Update, now time.Time) (db.VehicleUpdate, error) {
	set := bson.M{}

	switch u.Mode {
	case ModeReplaceAll:
		if u.Details == nil {
			return db.VehicleUpdate{}, apperr.Validation("replace_all requires details")
		}
		doc, err := toDocument(u.Details)
		if err != nil {
			return db.VehicleUpdate{}, apperr.Internal("encode vehicle details", err)
		}
		for k, v := range doc {
			set[k] = v
		}
		rec.VehicleDetails = *u.Details
	case ModePatchFields:
		if u.Patch == nil || u.Patch.empty() {
			return db.VehicleUpdate{}, apperr.Validation("patch_fields requires at least one field")
		}
		u.Patch.apply(&rec.VehicleDetails, set)
	default:
		return db.VehicleUpdate{}, apperr.Validation("unknown update mode " + string(u.Mode))
	}

	if u.Histories != nil {
		h := normalizeHistories(*u.Histories)
		rec.Histories = h
		set["maintenance_history"] = h.MaintenanceHistory
		set["fuel_records"] = h.FuelRecords
		set["active_issues"] = h.ActiveIssues
		set["issue_history"] = h.IssueHistory
		refreshFuelAverage(rec, set, now)
	}

	rec.UpdatedAt = now
	set["updated_at"] = now
	return db.VehicleUpdate{Set: set}, nil
}

// ToggleFavorite flips IsFavorite and nothing else.
func ToggleFavorite(rec *models.VehicleRecord, now time.Time) db.VehicleUpdate {
	rec.IsFavorite = !rec.IsFavorite
	rec.UpdatedAt = now
	return db.VehicleUpdate{Set: bson.M{"is_favorite": rec.IsFavorite, "updated_at": now}}
}

// AppendMaintenance adds a maintenance record. Records of a tracked type
// also move the matching last-service snapshot forward.
func AppendMaintenance(rec *models.VehicleRecord, m models.MaintenanceRecord, now time.Time) db.VehicleUpdate {
	rec.MaintenanceHistory = append(rec.MaintenanceHistory, m)
	set := bson.M{"updated_at": now}

	snapshot := models.ServiceSnapshot{Date: m.Date, Mileage: m.Mileage}
	switch m.Type {
	case TypeOilChange:
		if newer(m.Date, rec.LastOilChange.Date) {
			rec.LastOilChange = snapshot
			set["last_oil_change"] = snapshot
		}
	case TypeTireChange:
		if newer(m.Date, rec.LastTireChange.Date) {
			rec.LastTireChange = snapshot
			set["last_tire_change"] = snapshot
		}
	case TypeBrakeService:
		if newer(m.Date, rec.LastBrakeService.Date) {
			rec.LastBrakeService = snapshot
			set["last_brake_service"] = snapshot
		}
	case TypeBatteryChange:
		if newer(m.Date, rec.LastBatteryChange) {
			rec.LastBatteryChange = m.Date
			set["last_battery_change"] = m.Date
		}
	case TypeFilterChange:
		if newer(m.Date, rec.LastFilterChange) {
			rec.LastFilterChange = m.Date
			set["last_filter_change"] = m.Date
		}
	}

	rec.UpdatedAt = now
	return db.VehicleUpdate{Set: set, Push: bson.M{"maintenance_history": m}}
}

// AppendFuel adds a fuel record, stamps it with the running consumption
// average and refreshes the vehicle's average.
func AppendFuel(rec *models.VehicleRecord, f models.FuelRecord, now time.Time) (models.FuelRecord, db.VehicleUpdate) {
	all := append(slices.Clone(rec.FuelRecords), f)
	f.AverageConsumption = status.AverageFuelConsumption(all)
	all[len(all)-1] = f
	rec.FuelRecords = all

	set := bson.M{"updated_at": now}
	refreshFuelAverage(rec, set, now)
	rec.UpdatedAt = now
	return f, db.VehicleUpdate{Set: set, Push: bson.M{"fuel_records": f}}
}

// OpenIssue adds an issue to the active list with a fresh id.
func OpenIssue(rec *models.VehicleRecord, issue models.IssueRecord, now time.Time) (models.IssueRecord, db.VehicleUpdate) {
	issue.ID = uuid.NewString()
	if issue.Status == "" || issue.Status == models.IssueResolved {
		issue.Status = models.IssueOpen
	}
	if issue.Date == "" {
		issue.Date = now.Format("2006-01-02")
	}
	issue.Symptoms = dedupe(issue.Symptoms)

	rec.ActiveIssues = append(rec.ActiveIssues, issue)
	rec.UpdatedAt = now
	return issue, db.VehicleUpdate{
		Set:  bson.M{"updated_at": now},
		Push: bson.M{"active_issues": issue},
	}
}

// ResolveIssue moves an active issue into the history as resolved.
func ResolveIssue(rec *models.VehicleRecord, issueID, resolution string, now time.Time) (models.IssueRecord, db.VehicleUpdate, error) {
	idx := slices.IndexFunc(rec.ActiveIssues, func(i models.IssueRecord) bool { return i.ID == issueID })
	if idx < 0 {
		return models.IssueRecord{}, db.VehicleUpdate{}, apperr.NotFound("issue not found")
	}

	issue := rec.ActiveIssues[idx]
	issue.Status = models.IssueResolved
	if resolution != "" {
		issue.Resolution = resolution
	}

	rec.ActiveIssues = slices.Delete(slices.Clone(rec.ActiveIssues), idx, idx+1)
	rec.IssueHistory = append(rec.IssueHistory, issue)
	rec.UpdatedAt = now
	return issue, db.VehicleUpdate{
		Set:  bson.M{"updated_at": now},
		Pull: bson.M{"active_issues": bson.M{"id": issueID}},
		Push: bson.M{"issue_history": issue},
	}, nil
}

func refreshFuelAverage(rec *models.VehicleRecord, set bson.M, now time.Time) {
	avg := 0.0
	if a := status.AverageFuelConsumption(rec.FuelRecords); a != nil {
		avg = *a
	}
	rec.PerformanceMetrics.AverageFuelConsumption = avg
	rec.PerformanceMetrics.LastUpdated = now
	set["performance_metrics.average_fuel_consumption"] = avg
	set["performance_metrics.last_updated"] = now
}

func normalizeHistories(h models.Histories) models.Histories {
	if h.MaintenanceHistory == nil {
		h.MaintenanceHistory = []models.MaintenanceRecord{}
	}
	if h.FuelRecords == nil {
		h.FuelRecords = []models.FuelRecord{}
	}
	if h.ActiveIssues == nil {
		h.ActiveIssues = []models.IssueRecord{}
	}
	if h.IssueHistory == nil {
		h.IssueHistory = []models.IssueRecord{}
	}
	return h
}

// newer reports whether date a is after b. An unparseable a never wins; an
// unparseable b always loses.
func newer(a, b string) bool {
	ta, ok := status.ParseDate(a)
	if !ok {
		return false
	}
	tb, ok := status.ParseDate(b)
	if !ok {
		return true
	}
	return ta.After(tb)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func toDocument(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
