package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// NextMRN draws the next value of the MRN sequence.
	NextMRN(ctx context.Context) (int64, error)
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	// ContactTaken reports whether an active patient other than exclude uses
	// phone, or email when email is non-empty.
	ContactTaken(ctx context.Context, phone, email string, exclude uuid.UUID) (bool, error)
	Search(ctx context.Context, by, query string, limit int) ([]*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
