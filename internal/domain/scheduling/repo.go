package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// Reschedule persists doctor, date, time, duration and reason.
	Reschedule(ctx context.Context, a *Appointment) error

	// Booked lists the doctor's non-cancelled appointments on a date,
	// skipping exclude when it is not uuid.Nil.
	Booked(ctx context.Context, doctorID uuid.UUID, date time.Time, exclude uuid.UUID) ([]*Appointment, error)

	ListByDateRange(ctx context.Context, start, end time.Time) ([]*Appointment, error)
	// ListByDoctor returns the doctor's appointments dated in [from, to]. A
	// zero to means no upper bound.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error)
	Search(ctx context.Context, query string, limit int) ([]*Appointment, error)
	RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Appointment, error)
	Stats(ctx context.Context, today, monthStart, monthEnd time.Time) (*Stats, error)
}
