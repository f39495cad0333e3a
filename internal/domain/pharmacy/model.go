package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

const (
	StockAdd      = "add"
	StockSubtract = "subtract"
)

// Drug maps to the drug table.
type Drug struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	GenericName  string     `db:"generic_name" json:"generic_name"`
	Manufacturer string     `db:"manufacturer" json:"manufacturer"`
	DosageForm   string     `db:"dosage_form" json:"dosage_form"`
	Strength     string     `db:"strength" json:"strength"`
	Price        float64    `db:"price" json:"price"`
	CurrentStock int        `db:"current_stock" json:"current_stock"`
	MinStock     int        `db:"min_stock" json:"min_stock"`
	MaxStock     int        `db:"max_stock" json:"max_stock"`
	ExpiryDate   *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// LowStock reports whether the drug is at or below its reorder level.
func (d *Drug) LowStock() bool {
	return d.CurrentStock <= d.MinStock
}

// Dispense maps to the pharmacy_dispense table.
type Dispense struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DrugID      uuid.UUID `db:"drug_id" json:"drug_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitPrice   float64   `db:"unit_price" json:"unit_price"`
	TotalPrice  float64   `db:"total_price" json:"total_price"`
	DispensedBy string    `db:"dispensed_by" json:"dispensed_by"`
	Notes       string    `db:"notes" json:"notes,omitempty"`
	DispensedAt time.Time `db:"dispensed_at" json:"dispensed_at"`

	DrugName    string `json:"drug_name,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
	PatientMRN  string `json:"patient_mrn,omitempty"`
}

// HistoryFilter narrows DispenseHistory. Zero values match everything.
type HistoryFilter struct {
	PatientID *uuid.UUID
	DrugID    *uuid.UUID
	Start     *time.Time
	End       *time.Time
}

type Stats struct {
	TotalDrugs    int `json:"total_drugs"`
	LowStockCount int `json:"low_stock_count"`
	TotalItems    int `json:"total_items"`
	OutOfStock    int `json:"out_of_stock"`
}

type DrugInput struct {
	Name         string  `json:"name" validate:"required"`
	GenericName  string  `json:"generic_name" validate:"required"`
	Manufacturer string  `json:"manufacturer" validate:"required"`
	DosageForm   string  `json:"dosage_form" validate:"required"`
	Strength     string  `json:"strength" validate:"required"`
	Price        float64 `json:"price" validate:"gt=0"`
	CurrentStock int     `json:"current_stock" validate:"gte=0"`
	MinStock     int     `json:"min_stock" validate:"gte=0"`
	MaxStock     int     `json:"max_stock" validate:"gte=0"`
	ExpiryDate   string  `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
}

type StockInput struct {
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Operation string `json:"operation" validate:"required,oneof=add subtract"`
}

type DispenseInput struct {
	DrugID    uuid.UUID `json:"drug_id" validate:"required"`
	PatientID uuid.UUID `json:"patient_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
	Notes     string    `json:"notes"`
}

type DispenseLine struct {
	DrugID   uuid.UUID `json:"drug_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"gt=0"`
}

type BatchDispenseInput struct {
	PatientID uuid.UUID      `json:"patient_id" validate:"required"`
	Items     []DispenseLine `json:"items" validate:"min=1,dive"`
	Notes     string         `json:"notes"`
}
