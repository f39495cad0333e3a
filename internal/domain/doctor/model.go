package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is the clinical profile attached to a doctor-role user.
type Doctor struct {
	ID                uuid.UUID `db:"id" json:"id"`
	UserID            uuid.UUID `db:"user_id" json:"user_id"`
	LicenseNumber     string    `db:"license_number" json:"license_number"`
	Specialization    string    `db:"specialization" json:"specialization"`
	Qualification     string    `db:"qualification" json:"qualification"`
	Experience        int       `db:"experience" json:"experience"`
	ConsultationFee   float64   `db:"consultation_fee" json:"consultation_fee"`
	AvailableFrom     string    `db:"available_from" json:"available_from"`
	AvailableTo       string    `db:"available_to" json:"available_to"`
	Department        string    `db:"department" json:"department"`
	MaxPatientsPerDay int       `db:"max_patients_per_day" json:"max_patients_per_day"`
	Phone             string    `db:"phone" json:"phone,omitempty"`
	Email             string    `db:"email" json:"email,omitempty"`
	IsAvailable       bool      `db:"is_available" json:"is_available"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`

	// From app_user.
	Name      string `json:"name"`
	UserEmail string `json:"user_email"`

	Schedules []*Schedule `json:"schedules,omitempty"`
}

// Schedule is a doctor's working hours for one weekday (0 = Sunday).
type Schedule struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	IsActive  bool      `db:"is_active" json:"is_active"`
}

type CreateDoctorInput struct {
	Name              string  `json:"name" validate:"required,min=2"`
	Email             string  `json:"email" validate:"required,email"`
	Password          string  `json:"password" validate:"required,min=6"`
	LicenseNumber     string  `json:"license_number" validate:"required,min=5"`
	Specialization    string  `json:"specialization" validate:"required,min=2"`
	Qualification     string  `json:"qualification" validate:"required,min=2"`
	Experience        int     `json:"experience" validate:"gte=0"`
	ConsultationFee   float64 `json:"consultation_fee" validate:"gte=0"`
	AvailableFrom     string  `json:"available_from" validate:"required,clock"`
	AvailableTo       string  `json:"available_to" validate:"required,clock"`
	Department        string  `json:"department" validate:"required,min=2"`
	MaxPatientsPerDay int     `json:"max_patients_per_day" validate:"gte=1"`
	Phone             string  `json:"phone"`
	DoctorEmail       string  `json:"doctor_email" validate:"omitempty,email"`
	WorkingDays       []int   `json:"working_days" validate:"dive,gte=0,lte=6"`
}

// UpdateDoctorInput carries the full profile. An empty password keeps the
// current one and a nil WorkingDays keeps the current schedules.
type UpdateDoctorInput struct {
	Name              string  `json:"name" validate:"required,min=2"`
	Email             string  `json:"email" validate:"required,email"`
	Password          string  `json:"password"`
	LicenseNumber     string  `json:"license_number" validate:"required,min=5"`
	Specialization    string  `json:"specialization" validate:"required,min=2"`
	Qualification     string  `json:"qualification" validate:"required,min=2"`
	Experience        int     `json:"experience" validate:"gte=0"`
	ConsultationFee   float64 `json:"consultation_fee" validate:"gte=0"`
	AvailableFrom     string  `json:"available_from" validate:"required,clock"`
	AvailableTo       string  `json:"available_to" validate:"required,clock"`
	Department        string  `json:"department" validate:"required,min=2"`
	MaxPatientsPerDay int     `json:"max_patients_per_day" validate:"gte=1"`
	Phone             string  `json:"phone"`
	DoctorEmail       string  `json:"doctor_email" validate:"omitempty,email"`
	WorkingDays       []int   `json:"working_days" validate:"omitempty,dive,gte=0,lte=6"`
}
