package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	ListDrugs(ctx context.Context) ([]*Drug, error)
	GetDrug(ctx context.Context, id uuid.UUID) (*Drug, error)
	// LockDrugs loads the active drugs among ids and holds their rows until
	// the surrounding transaction ends.
	LockDrugs(ctx context.Context, ids []uuid.UUID) ([]*Drug, error)
	SearchDrugs(ctx context.Context, query string, limit int) ([]*Drug, error)
	CreateDrug(ctx context.Context, d *Drug) error
	UpdateDrug(ctx context.Context, d *Drug) error
	DeactivateDrug(ctx context.Context, id uuid.UUID) error
	// AdjustStock adds delta to the stock, clamping at zero, and returns the new level.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error)
	// TakeStock decrements stock only when at least qty units remain.
	TakeStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	LowStock(ctx context.Context) ([]*Drug, error)
	Stats(ctx context.Context) (*Stats, error)

	CreateDispense(ctx context.Context, d *Dispense) error
	ListDispenses(ctx context.Context, f HistoryFilter, limit, offset int) ([]*Dispense, int, error)
}
