package vehicle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/models"
)

var (
	testNow   = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	testOwner = models.Identity{UserID: "user-1", Email: "ayse@example.com", Username: "ayse"}
)

func corolla() models.VehicleDetails {
	return models.VehicleDetails{
		Brand:       "Toyota",
		Model:       "Corolla",
		Year:        "2020",
		Mileage:     "45000",
		PlateNumber: "34 ABC 123",
		FuelType:    models.FuelGasoline,
	}
}

func strPtr(s string) *string { return &s }

func TestNew(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)

	assert.Equal(t, "user-1", rec.OwnerUserID)
	assert.Equal(t, "ayse@example.com", rec.OwnerEmail)
	assert.Equal(t, "Toyota", rec.Brand)
	assert.NotNil(t, rec.MaintenanceHistory)
	assert.Empty(t, rec.MaintenanceHistory)
	assert.Empty(t, rec.FuelRecords)
	assert.Empty(t, rec.ActiveIssues)
	assert.Empty(t, rec.IssueHistory)
	assert.Equal(t, 100.0, rec.PerformanceMetrics.EngineHealth)
	assert.Equal(t, 100.0, rec.PerformanceMetrics.BatteryHealth)
	assert.Equal(t, 100.0, rec.PerformanceMetrics.BrakesHealth)
	assert.Zero(t, rec.PerformanceMetrics.AverageFuelConsumption)
	assert.Zero(t, rec.PerformanceMetrics.AverageSpeed)
	assert.Equal(t, testNow, rec.CreatedAt)
}

func TestApply_ReplaceAllKeepsHistories(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)
	rec.FuelRecords = []models.FuelRecord{{Date: "2025-01-01", Mileage: "1000", Liters: 40}}

	details := corolla()
	details.Mileage = "46000"
	upd, err := Apply(&rec, Update{Mode: ModeReplaceAll, Details: &details}, testNow)
	require.NoError(t, err)

	assert.Equal(t, "46000", upd.Set["mileage"])
	assert.NotContains(t, upd.Set, "fuel_records")
	assert.NotContains(t, upd.Set, "maintenance_history")
	assert.Len(t, rec.FuelRecords, 1)
	assert.Equal(t, "46000", rec.Mileage)
}

func TestApply_ReplaceAllClearsOptionalFields(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)
	rec.InsuranceDate = "2025-06-01"

	details := corolla()
	upd, err := Apply(&rec, Update{Mode: ModeReplaceAll, Details: &details}, testNow)
	require.NoError(t, err)

	assert.Contains(t, upd.Set, "insurance_date")
	assert.Equal(t, "", upd.Set["insurance_date"])
	assert.Empty(t, rec.InsuranceDate)
}

func TestApply_PatchFields(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)
	rec.InsuranceDate = "2025-06-01"

	upd, err := Apply(&rec, Update{Mode: ModePatchFields, Patch: &Patch{Mileage: strPtr("47000")}}, testNow)
	require.NoError(t, err)

	assert.Equal(t, bson.M{"mileage": "47000", "updated_at": testNow}, upd.Set)
	assert.Equal(t, "2025-06-01", rec.InsuranceDate)
	assert.Equal(t, "47000", rec.Mileage)
}

func TestApply_ExplicitHistoriesReplace(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)
	rec.FuelRecords = []models.FuelRecord{{Date: "2025-01-01", Mileage: "1000", Liters: 40}}

	upd, err := Apply(&rec, Update{
		Mode:      ModePatchFields,
		Patch:     &Patch{Color: strPtr("red")},
		Histories: &models.Histories{},
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, []models.FuelRecord{}, upd.Set["fuel_records"])
	assert.Empty(t, rec.FuelRecords)
	assert.Equal(t, 0.0, upd.Set["performance_metrics.average_fuel_consumption"])
}

func TestApply_Errors(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)

	tests := []struct {
		name string
		u    Update
	}{
		{"replace without details", Update{Mode: ModeReplaceAll}},
		{"patch without patch", Update{Mode: ModePatchFields}},
		{"empty patch", Update{Mode: ModePatchFields, Patch: &Patch{}}},
		{"unknown mode", Update{Mode: "merge"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(&rec, tt.u, testNow)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Equal(t, "Toyota", rec.Brand)
}

func TestToggleFavorite_Twice(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)
	before := rec

	upd := ToggleFavorite(&rec, testNow)
	assert.True(t, rec.IsFavorite)
	assert.Equal(t, true, upd.Set["is_favorite"])

	ToggleFavorite(&rec, testNow)
	assert.False(t, rec.IsFavorite)
	assert.Equal(t, before.VehicleDetails, rec.VehicleDetails)
}

func TestAppendMaintenance_UpdatesSnapshot(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)
	rec.LastOilChange = models.ServiceSnapshot{Date: "2024-01-10", Mileage: "30000"}

	upd := AppendMaintenance(&rec, models.MaintenanceRecord{
		Date: "2025-03-01", Mileage: "45000", Type: TypeOilChange, Cost: 1500,
	}, testNow)

	assert.Len(t, rec.MaintenanceHistory, 1)
	assert.Equal(t, models.ServiceSnapshot{Date: "2025-03-01", Mileage: "45000"}, rec.LastOilChange)
	assert.Equal(t, rec.LastOilChange, upd.Set["last_oil_change"])
	assert.Contains(t, upd.Push, "maintenance_history")
}

func TestAppendMaintenance_OlderRecordKeepsSnapshot(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)
	rec.LastBatteryChange = "2025-01-01"

	upd := AppendMaintenance(&rec, models.MaintenanceRecord{Date: "2023-05-01", Type: TypeBatteryChange}, testNow)

	assert.Equal(t, "2025-01-01", rec.LastBatteryChange)
	assert.NotContains(t, upd.Set, "last_battery_change")
	assert.Len(t, rec.MaintenanceHistory, 1)
}

func TestAppendFuel(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)

	first, _ := AppendFuel(&rec, models.FuelRecord{Date: "2025-03-01", Mileage: "10000", Liters: 2}, testNow)
	assert.Nil(t, first.AverageConsumption)
	assert.Zero(t, rec.PerformanceMetrics.AverageFuelConsumption)

	second, upd := AppendFuel(&rec, models.FuelRecord{Date: "2025-03-10", Mileage: "10100", Liters: 4}, testNow)
	require.NotNil(t, second.AverageConsumption)
	assert.InDelta(t, 6.0, *second.AverageConsumption, 1e-9)
	assert.InDelta(t, 6.0, rec.PerformanceMetrics.AverageFuelConsumption, 1e-9)
	assert.Equal(t, second, upd.Push["fuel_records"])
	assert.Len(t, rec.FuelRecords, 2)
}

func TestOpenAndResolveIssue(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)

	issue, upd := OpenIssue(&rec, models.IssueRecord{
		Title:    "Squeaking brakes",
		Symptoms: []string{"noise", " noise ", ""},
		Priority: models.PriorityMedium,
		Category: models.CategoryMechanical,
	}, testNow)

	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, models.IssueOpen, issue.Status)
	assert.Equal(t, "2025-03-15", issue.Date)
	assert.Equal(t, []string{"noise"}, issue.Symptoms)
	assert.Equal(t, issue, upd.Push["active_issues"])
	require.Len(t, rec.ActiveIssues, 1)

	resolved, upd, err := ResolveIssue(&rec, issue.ID, "pads replaced", testNow)
	require.NoError(t, err)
	assert.Equal(t, models.IssueResolved, resolved.Status)
	assert.Equal(t, "pads replaced", resolved.Resolution)
	assert.Empty(t, rec.ActiveIssues)
	assert.Len(t, rec.IssueHistory, 1)
	assert.Equal(t, bson.M{"active_issues": bson.M{"id": issue.ID}}, upd.Pull)
}

func TestOpenIssue_KeepsMonitoring(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)
	issue, _ := OpenIssue(&rec, models.IssueRecord{Title: "Rattle", Status: models.IssueMonitoring, Date: "2025-02-01"}, testNow)
	assert.Equal(t, models.IssueMonitoring, issue.Status)
	assert.Equal(t, "2025-02-01", issue.Date)
}

func TestResolveIssue_Unknown(t *testing.T) {
	rec := New(corolla(), testOwner, testNow)
	_, _, err := ResolveIssue(&rec, "missing", "", testNow)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
