package ward

import (
	"time"

	"github.com/google/uuid"
)

const (
	AdmissionAdmitted   = "admitted"
	AdmissionDischarged = "discharged"

	DefaultBedPrice = 500
)

type Ward struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	WardType  string    `db:"ward_type" json:"ward_type"`
	TotalBeds int       `db:"total_beds" json:"total_beds"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Beds          []*Bed `json:"beds"`
	OccupiedBeds  int    `json:"occupied_beds"`
	AvailableBeds int    `json:"available_beds"`
}

type Bed struct {
	ID          uuid.UUID `db:"id" json:"id"`
	WardID      uuid.UUID `db:"ward_id" json:"ward_id"`
	BedNumber   string    `db:"bed_number" json:"bed_number"`
	BedType     string    `db:"bed_type" json:"bed_type"`
	PricePerDay float64   `db:"price_per_day" json:"price_per_day"`
	IsOccupied  bool      `db:"is_occupied" json:"is_occupied"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	WardName  string     `json:"ward_name,omitempty"`
	Admission *Admission `json:"current_admission,omitempty"`
}

type Admission struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	PatientID             uuid.UUID  `db:"patient_id" json:"patient_id"`
	BedID                 uuid.UUID  `db:"bed_id" json:"bed_id"`
	AdmittingDoctorID     *uuid.UUID `db:"admitting_doctor_id" json:"admitting_doctor_id,omitempty"`
	Reason                string     `db:"reason" json:"reason"`
	AdmissionDate         time.Time  `db:"admission_date" json:"admission_date"`
	ExpectedDischargeDate *time.Time `db:"expected_discharge_date" json:"expected_discharge_date,omitempty"`
	DischargeDate         *time.Time `db:"discharge_date" json:"discharge_date,omitempty"`
	TotalBedCharges       float64    `db:"total_bed_charges" json:"total_bed_charges"`
	Status                string     `db:"status" json:"status"`
	Notes                 string     `db:"notes" json:"notes,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`

	PatientName string `json:"patient_name,omitempty"`
	PatientMRN  string `json:"patient_mrn,omitempty"`
	BedNumber   string `json:"bed_number,omitempty"`
	WardName    string `json:"ward_name,omitempty"`
}

type CreateWardInput struct {
	Name      string `json:"name" validate:"required,min=2"`
	WardType  string `json:"ward_type" validate:"required"`
	TotalBeds int    `json:"total_beds" validate:"gte=0"`
}

type UpdateWardInput struct {
	Name      *string `json:"name" validate:"omitempty,min=2"`
	WardType  *string `json:"ward_type" validate:"omitempty,min=1"`
	TotalBeds *int    `json:"total_beds" validate:"omitempty,gte=0"`
	IsActive  *bool   `json:"is_active"`
}

type CreateBedInput struct {
	WardID      uuid.UUID `json:"ward_id" validate:"required"`
	BedNumber   string    `json:"bed_number" validate:"required"`
	BedType     string    `json:"bed_type" validate:"required"`
	PricePerDay *float64  `json:"price_per_day" validate:"omitempty,gte=0"`
}

type AdmissionInput struct {
	PatientID         uuid.UUID `json:"patient_id" validate:"required"`
	BedID             uuid.UUID `json:"bed_id" validate:"required"`
	Reason            string    `json:"reason" validate:"required"`
	AdmittingDoctorID uuid.UUID `json:"admitting_doctor_id" validate:"required"`
	ExpectedDays      int       `json:"expected_days" validate:"gte=0"`
	Notes             string    `json:"notes"`
}
