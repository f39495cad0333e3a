package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	Update(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	List(ctx context.Context, availableOnly bool) ([]*Doctor, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error

	// ReplaceSchedules deletes every schedule of the doctor and inserts the
	// given ones.
	ReplaceSchedules(ctx context.Context, doctorID uuid.UUID, schedules []*Schedule) error
	ListSchedules(ctx context.Context, doctorID uuid.UUID) ([]*Schedule, error)
	// ActiveSchedule returns the active schedule for a weekday or
	// ErrScheduleNotFound.
	ActiveSchedule(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) (*Schedule, error)
}
