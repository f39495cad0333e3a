package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Charge) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Charge, int, error)
	ListAll(ctx context.Context, f Filter) ([]*Charge, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Charge, error)
	// MarkPaid flags the unpaid rows among ids as paid at the given time and
	// returns how many rows changed.
	MarkPaid(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)
	// Stats totals the ledger; today's revenue counts rows paid in [dayStart, dayEnd).
	Stats(ctx context.Context, dayStart, dayEnd time.Time) (*Stats, error)
}
