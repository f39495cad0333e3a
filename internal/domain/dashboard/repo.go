package dashboard

import (
	"context"
	"time"
)

// Repository reads counts across the clinical tables. Dates are calendar
// days at UTC midnight; per-day maps are keyed "2006-01-02".
type Repository interface {
	ActivePatients(ctx context.Context) (int, error)
	AppointmentsOn(ctx context.Context, day time.Time) (int, error)
	LowStockDrugs(ctx context.Context) (int, error)
	Beds(ctx context.Context) (active, occupied int, err error)
	UnpaidBills(ctx context.Context) (int, error)
	AppointmentsPerDay(ctx context.Context, from, to time.Time) (map[string]int, error)
	// RevenuePerDay sums paid rows by the day they were paid in loc.
	RevenuePerDay(ctx context.Context, from, to time.Time, loc *time.Location) (map[string]float64, error)
}
