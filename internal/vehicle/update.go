package vehicle

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ukydev/engineeye/internal/models"
)

// Mode selects how an edit is applied.
type Mode string

const (
	// ModeReplaceAll replaces every descriptive field with Details.
	ModeReplaceAll Mode = "replace_all"
	// ModePatchFields sets only the fields present in Patch.
	ModePatchFields Mode = "patch_fields"
)

// Update is an edit of a vehicle. The caller picks the mode explicitly.
// Histories are replaced only when Histories is non-nil.
type Update struct {
	Mode      Mode                   `json:"mode" validate:"required,oneof=replace_all patch_fields"`
	Details   *models.VehicleDetails `json:"details,omitempty"`
	Patch     *Patch                 `json:"patch,omitempty"`
	Histories *models.Histories      `json:"histories,omitempty"`
}

// Patch lists optional new values for descriptive fields. Nil means keep.
type Patch struct {
	Brand                *string                 `json:"brand,omitempty" validate:"omitempty,min=1,max=50"`
	Model                *string                 `json:"model,omitempty" validate:"omitempty,min=1,max=50"`
	Year                 *string                 `json:"year,omitempty"`
	Mileage              *string                 `json:"mileage,omitempty"`
	PlateNumber          *string                 `json:"plate_number,omitempty"`
	IsFavorite           *bool                   `json:"is_favorite,omitempty"`
	FuelType             *models.FuelType        `json:"fuel_type,omitempty" validate:"omitempty,oneof=gasoline diesel lpg electric hybrid"`
	Transmission         *models.Transmission    `json:"transmission,omitempty" validate:"omitempty,oneof=manual automatic"`
	InsuranceDate        *string                 `json:"insurance_date,omitempty"`
	TrafficInsuranceDate *string                 `json:"traffic_insurance_date,omitempty"`
	InspectionDate       *string                 `json:"inspection_date,omitempty"`
	LastOilChange        *models.ServiceSnapshot `json:"last_oil_change,omitempty"`
	LastTireChange       *models.ServiceSnapshot `json:"last_tire_change,omitempty"`
	LastBrakeService     *models.ServiceSnapshot `json:"last_brake_service,omitempty"`
	LastBatteryChange    *string                 `json:"last_battery_change,omitempty"`
	LastFilterChange     *string                 `json:"last_filter_change,omitempty"`
	EngineSize           *string                 `json:"engine_size,omitempty"`
	EnginePower          *string                 `json:"engine_power,omitempty"`
	VIN                  *string                 `json:"vin,omitempty"`
	Color                *string                 `json:"color,omitempty"`
	PurchaseDate         *string                 `json:"purchase_date,omitempty"`
	PurchaseMileage      *string                 `json:"purchase_mileage,omitempty"`
	PurchasePrice        *float64                `json:"purchase_price,omitempty" validate:"omitempty,gte=0"`
	EstimatedValue       *float64                `json:"estimated_value,omitempty" validate:"omitempty,gte=0"`
}

func patchField[T any](set bson.M, key string, dst *T, v *T) {
	if v == nil {
		return
	}
	*dst = *v
	set[key] = *v
}

func (p *Patch) apply(d *models.VehicleDetails, set bson.M) {
	patchField(set, "brand", &d.Brand, p.Brand)
	patchField(set, "model", &d.Model, p.Model)
	patchField(set, "year", &d.Year, p.Year)
	patchField(set, "mileage", &d.Mileage, p.Mileage)
	patchField(set, "plate_number", &d.PlateNumber, p.PlateNumber)
	patchField(set, "is_favorite", &d.IsFavorite, p.IsFavorite)
	patchField(set, "fuel_type", &d.FuelType, p.FuelType)
	patchField(set, "transmission", &d.Transmission, p.Transmission)
	patchField(set, "insurance_date", &d.InsuranceDate, p.InsuranceDate)
	patchField(set, "traffic_insurance_date", &d.TrafficInsuranceDate, p.TrafficInsuranceDate)
	patchField(set, "inspection_date", &d.InspectionDate, p.InspectionDate)
	patchField(set, "last_oil_change", &d.LastOilChange, p.LastOilChange)
	patchField(set, "last_tire_change", &d.LastTireChange, p.LastTireChange)
	patchField(set, "last_brake_service", &d.LastBrakeService, p.LastBrakeService)
	patchField(set, "last_battery_change", &d.LastBatteryChange, p.LastBatteryChange)
	patchField(set, "last_filter_change", &d.LastFilterChange, p.LastFilterChange)
	patchField(set, "engine_size", &d.EngineSize, p.EngineSize)
	patchField(set, "engine_power", &d.EnginePower, p.EnginePower)
	patchField(set, "vin", &d.VIN, p.VIN)
	patchField(set, "color", &d.Color, p.Color)
	patchField(set, "purchase_date", &d.PurchaseDate, p.PurchaseDate)
	patchField(set, "purchase_mileage", &d.PurchaseMileage, p.PurchaseMileage)
	patchField(set, "purchase_price", &d.PurchasePrice, p.PurchasePrice)
	patchField(set, "estimated_value", &d.EstimatedValue, p.EstimatedValue)
}

func (p *Patch) empty() bool {
	changes := bson.M{}
	scratch := models.VehicleDetails{}
	p.apply(&scratch, changes)
	return len(changes) == 0
}
