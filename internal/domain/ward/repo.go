package ward

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	ListWards(ctx context.Context) ([]*Ward, error)
	GetWard(ctx context.Context, id uuid.UUID) (*Ward, error)
	CreateWard(ctx context.Context, w *Ward) error
	UpdateWard(ctx context.Context, w *Ward) error

	// ListBeds returns active beds with their current admission. A nil wardID
	// lists every ward.
	ListBeds(ctx context.Context, wardID *uuid.UUID) ([]*Bed, error)
	GetBed(ctx context.Context, id uuid.UUID) (*Bed, error)
	CreateBed(ctx context.Context, b *Bed) error
	SetBedOccupied(ctx context.Context, id uuid.UUID, occupied bool) error
	// OccupyBed flags an active, free bed as occupied and reports whether it did.
	OccupyBed(ctx context.Context, id uuid.UUID) (bool, error)

	CreateAdmission(ctx context.Context, a *Admission) error
	GetAdmission(ctx context.Context, id uuid.UUID) (*Admission, error)
	Discharge(ctx context.Context, id uuid.UUID, at time.Time) error
	ListAdmissions(ctx context.Context, status string) ([]*Admission, error)
	RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Admission, error)
}
