package models

// MaintenanceRecord is one service entry in a vehicle's maintenance history.
type MaintenanceRecord struct {
	Date               string  `bson:"date" json:"date" validate:"required"`
	Mileage            string  `bson:"mileage" json:"mileage"`
	Type               string  `bson:"type" json:"type" validate:"required"` // "oil_change", "tire_change", "brake_service", ...
	Description        string  `bson:"description" json:"description"`
	Cost               float64 `bson:"cost" json:"cost" validate:"gte=0"` // in local currency
	PartReplaced       string  `bson:"part_replaced,omitempty" json:"part_replaced,omitempty"`
	PartLifeExpectancy int     `bson:"part_life_expectancy,omitempty" json:"part_life_expectancy,omitempty" validate:"gte=0"` // in months
	NextDueDate        string  `bson:"next_due_date,omitempty" json:"next_due_date,omitempty"`
	NextDueMileage     string  `bson:"next_due_mileage,omitempty" json:"next_due_mileage,omitempty"`
	PerformedBy        string  `bson:"performed_by" json:"performed_by"`
	ReceiptPhoto       string  `bson:"receipt_photo,omitempty" json:"receipt_photo,omitempty"`
}

// FuelRecord is one refuelling. The order of a vehicle's fuel records is the
// order they were added, which is what the consumption average relies on.
type FuelRecord struct {
	Date               string   `bson:"date" json:"date" validate:"required"`
	Mileage            string   `bson:"mileage" json:"mileage" validate:"required"`
	Liters             float64  `bson:"liters" json:"liters" validate:"gt=0"`
	Cost               float64  `bson:"cost" json:"cost" validate:"gte=0"`
	FuelType           FuelType `bson:"fuel_type" json:"fuel_type" validate:"omitempty,oneof=gasoline diesel lpg electric hybrid"`
	FullTank           bool     `bson:"full_tank" json:"full_tank"`
	Station            string   `bson:"station,omitempty" json:"station,omitempty"`
	AverageConsumption *float64 `bson:"average_consumption,omitempty" json:"average_consumption,omitempty"` // l/100km
}

// IssueStatus is the lifecycle state of a reported issue.
type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueResolved   IssueStatus = "resolved"
	IssueMonitoring IssueStatus = "monitoring"
)

// IssuePriority ranks how urgent an issue is.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
)

// IssueCategory groups issues by vehicle system.
type IssueCategory string

const (
	CategoryMechanical IssueCategory = "mechanical"
	CategoryElectrical IssueCategory = "electrical"
	CategoryBody       IssueCategory = "body"
	CategoryInterior   IssueCategory = "interior"
	CategoryOther      IssueCategory = "other"
)

// IssueRecord is a fault report, kept in either active issues or issue history.
type IssueRecord struct {
	ID           string        `bson:"id" json:"id"`
	Date         string        `bson:"date" json:"date"`
	Mileage      string        `bson:"mileage" json:"mileage"`
	Title        string        `bson:"title" json:"title" validate:"required,max=120"`
	Description  string        `bson:"description" json:"description"`
	Symptoms     []string      `bson:"symptoms" json:"symptoms"`
	Status       IssueStatus   `bson:"status" json:"status" validate:"omitempty,oneof=open resolved monitoring"`
	Resolution   string        `bson:"resolution,omitempty" json:"resolution,omitempty"`
	Cost         float64       `bson:"cost,omitempty" json:"cost,omitempty" validate:"gte=0"`
	RelatedParts []string      `bson:"related_parts,omitempty" json:"related_parts,omitempty"`
	Priority     IssuePriority `bson:"priority" json:"priority" validate:"required,oneof=low medium high"`
	Category     IssueCategory `bson:"category" json:"category" validate:"required,oneof=mechanical electrical body interior other"`
}
