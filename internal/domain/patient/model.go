package patient

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/domain/ward"
)

const (
	SearchByName  = "name"
	SearchByMRN   = "mrn"
	SearchByPhone = "phone"
	SearchByEmail = "email"
)

// Patient maps to the patient table.
type Patient struct {
	ID               uuid.UUID `db:"id" json:"id"`
	MRN              string    `db:"mrn" json:"mrn"`
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	DateOfBirth      time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender           string    `db:"gender" json:"gender"`
	PhoneNumber      string    `db:"phone_number" json:"phone_number"`
	Email            string    `db:"email" json:"email,omitempty"`
	Address          string    `db:"address" json:"address"`
	EmergencyContact string    `db:"emergency_contact" json:"emergency_contact"`
	EmergencyPhone   string    `db:"emergency_phone" json:"emergency_phone"`
	BloodGroup       string    `db:"blood_group" json:"blood_group,omitempty"`
	Allergies        string    `db:"allergies" json:"allergies,omitempty"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Age in whole years on the given day.
func (p *Patient) Age(on time.Time) int {
	dob := p.DateOfBirth
	years := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		years--
	}
	return years
}

// FormatMRN renders a sequence value as a medical record number, padded to
// at least three digits.
func FormatMRN(seq int64) string {
	return fmt.Sprintf("MRN%03d", seq)
}

// Details is the patient page: the record plus recent activity across modules.
type Details struct {
	*Patient
	Appointments []*scheduling.Appointment `json:"appointments"`
	Billing      []*billing.Charge         `json:"billing"`
	Admissions   []*ward.Admission         `json:"admissions"`
}

type Input struct {
	FirstName        string `json:"first_name" validate:"required,min=2"`
	LastName         string `json:"last_name" validate:"required,min=2"`
	DateOfBirth      string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender           string `json:"gender" validate:"required,oneof=male female other"`
	PhoneNumber      string `json:"phone_number" validate:"required,min=10"`
	Email            string `json:"email" validate:"omitempty,email"`
	Address          string `json:"address" validate:"required,min=5"`
	EmergencyContact string `json:"emergency_contact" validate:"required,min=2"`
	EmergencyPhone   string `json:"emergency_phone" validate:"required,min=10"`
	BloodGroup       string `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies        string `json:"allergies"`
}
