package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FuelType is the fuel a vehicle runs on.
type FuelType string

const (
	FuelGasoline FuelType = "gasoline"
	FuelDiesel   FuelType = "diesel"
	FuelLPG      FuelType = "lpg"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
)

// Transmission is the gearbox type of a vehicle.
type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
)

// ServiceSnapshot records when and at what mileage a part was last serviced.
type ServiceSnapshot struct {
	Date    string `bson:"date" json:"date"`
	Mileage string `bson:"mileage" json:"mileage"`
}

// VehicleDetails holds the user-editable descriptive fields of a vehicle.
// Dates are ISO strings as entered; an empty string means unset.
type VehicleDetails struct {
	Brand        string       `bson:"brand" json:"brand" validate:"required,max=50"`
	Model        string       `bson:"model" json:"model" validate:"required,max=50"`
	Year         string       `bson:"year" json:"year"`
	Mileage      string       `bson:"mileage" json:"mileage"`
	PlateNumber  string       `bson:"plate_number" json:"plate_number"`
	IsFavorite   bool         `bson:"is_favorite" json:"is_favorite"`
	FuelType     FuelType     `bson:"fuel_type" json:"fuel_type" validate:"omitempty,oneof=gasoline diesel lpg electric hybrid"`
	Transmission Transmission `bson:"transmission" json:"transmission" validate:"omitempty,oneof=manual automatic"`

	// Legal dates mean "expires on".
	InsuranceDate        string `bson:"insurance_date" json:"insurance_date"`
	TrafficInsuranceDate string `bson:"traffic_insurance_date" json:"traffic_insurance_date"`
	InspectionDate       string `bson:"inspection_date" json:"inspection_date"`

	LastOilChange     ServiceSnapshot `bson:"last_oil_change" json:"last_oil_change"`
	LastTireChange    ServiceSnapshot `bson:"last_tire_change" json:"last_tire_change"`
	LastBrakeService  ServiceSnapshot `bson:"last_brake_service" json:"last_brake_service"`
	LastBatteryChange string          `bson:"last_battery_change" json:"last_battery_change"`
	LastFilterChange  string          `bson:"last_filter_change" json:"last_filter_change"`

	EngineSize      string  `bson:"engine_size" json:"engine_size,omitempty"`
	EnginePower     string  `bson:"engine_power" json:"engine_power,omitempty"`
	VIN             string  `bson:"vin" json:"vin,omitempty"`
	Color           string  `bson:"color" json:"color,omitempty"`
	PurchaseDate    string  `bson:"purchase_date" json:"purchase_date,omitempty"`
	PurchaseMileage string  `bson:"purchase_mileage" json:"purchase_mileage,omitempty"`
	PurchasePrice   float64 `bson:"purchase_price" json:"purchase_price,omitempty" validate:"gte=0"`
	EstimatedValue  float64 `bson:"estimated_value" json:"estimated_value,omitempty" validate:"gte=0"`
}

// Histories groups the append-only record sequences of a vehicle.
type Histories struct {
	MaintenanceHistory []MaintenanceRecord `bson:"maintenance_history" json:"maintenance_history" validate:"dive"`
	FuelRecords        []FuelRecord        `bson:"fuel_records" json:"fuel_records" validate:"dive"`
	ActiveIssues       []IssueRecord       `bson:"active_issues" json:"active_issues" validate:"dive"`
	IssueHistory       []IssueRecord       `bson:"issue_history" json:"issue_history" validate:"dive"`
}

// PerformanceMetrics are the derived health figures shown on the dashboard.
type PerformanceMetrics struct {
	EngineHealth           float64   `bson:"engine_health" json:"engine_health" validate:"gte=0,lte=100"`
	BatteryHealth          float64   `bson:"battery_health" json:"battery_health" validate:"gte=0,lte=100"`
	BrakesHealth           float64   `bson:"brakes_health" json:"brakes_health" validate:"gte=0,lte=100"`
	AverageFuelConsumption float64   `bson:"average_fuel_consumption" json:"average_fuel_consumption"`
	AverageSpeed           float64   `bson:"average_speed" json:"average_speed"`
	LastUpdated            time.Time `bson:"last_updated" json:"last_updated"`
}

// VehicleRecord is one owned vehicle with its histories. It is exclusively
// owned by OwnerUserID.
type VehicleRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerUserID string             `bson:"owner_user_id" json:"owner_user_id"`
	OwnerEmail  string             `bson:"owner_email" json:"owner_email"`

	VehicleDetails `bson:",inline"`
	Histories      `bson:",inline"`

	PerformanceMetrics PerformanceMetrics `bson:"performance_metrics" json:"performance_metrics"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}
