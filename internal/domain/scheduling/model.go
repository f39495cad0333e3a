package scheduling

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

var validStatuses = map[string]bool{
	StatusScheduled:  true,
	StatusConfirmed:  true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusNoShow:     true,
}

// Final statuses accept no further status change or reschedule.
var finalStatuses = map[string]bool{
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

const (
	DefaultDuration = 30
	dateLayout      = "2006-01-02"
)

type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	AppointmentDate time.Time `db:"appointment_date" json:"appointment_date"`
	AppointmentTime string    `db:"appointment_time" json:"appointment_time"`
	Duration        int       `db:"duration" json:"duration"`
	Reason          string    `db:"reason" json:"reason"`
	Notes           string    `db:"notes" json:"notes,omitempty"`
	Fee             float64   `db:"fee" json:"fee"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`

	// Joined on reads.
	PatientName    string `json:"patient_name,omitempty"`
	PatientMRN     string `json:"patient_mrn,omitempty"`
	PatientPhone   string `json:"patient_phone,omitempty"`
	DoctorName     string `json:"doctor_name,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// Interval returns the clock range the appointment occupies on its date.
func (a *Appointment) Interval() (Interval, error) {
	return NewInterval(a.AppointmentTime, a.Duration)
}

type CreateInput struct {
	PatientID       uuid.UUID `json:"patient_id" validate:"required"`
	DoctorID        uuid.UUID `json:"doctor_id" validate:"required"`
	AppointmentDate string    `json:"appointment_date" validate:"required,datetime=2006-01-02"`
	AppointmentTime string    `json:"appointment_time" validate:"required,clock"`
	Duration        int       `json:"duration" validate:"omitempty,gte=15,lte=240"`
	Reason          string    `json:"reason" validate:"required"`
	Notes           string    `json:"notes"`
}

type RescheduleInput struct {
	DoctorID uuid.UUID `json:"doctor_id" validate:"required"`
	NewDate  string    `json:"new_date" validate:"required,datetime=2006-01-02"`
	NewTime  string    `json:"new_time" validate:"required,clock"`
	Duration int       `json:"duration" validate:"omitempty,gte=15,lte=240"`
	Reason   string    `json:"reason"`
}

type Stats struct {
	Total          int `json:"total"`
	Today          int `json:"today"`
	ThisMonth      int `json:"this_month"`
	Upcoming       int `json:"upcoming"`
	ScheduledToday int `json:"scheduled_today"`
	CompletedToday int `json:"completed_today"`
	CancelledToday int `json:"cancelled_today"`
}

// Visits is a doctor's own worklist.
type Visits struct {
	Today    []*Appointment `json:"today"`
	Upcoming []*Appointment `json:"upcoming"`
}
