package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

const dayLayout = "2006-01-02"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

func (r *repoPG) ActivePatients(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM patient WHERE is_active`)
}

func (r *repoPG) AppointmentsOn(ctx context.Context, day time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM appointment WHERE appointment_date = $1`, day)
}

func (r *repoPG) LowStockDrugs(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM drug WHERE is_active AND current_stock <= min_stock`)
}

func (r *repoPG) Beds(ctx context.Context) (int, int, error) {
	var active, occupied int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_occupied)
		FROM bed WHERE is_active`).Scan(&active, &occupied)
	return active, occupied, err
}

func (r *repoPG) UnpaidBills(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM patient_billing WHERE NOT is_paid`)
}

func (r *repoPG) AppointmentsPerDay(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT appointment_date, COUNT(*)
		FROM appointment
		WHERE appointment_date BETWEEN $1 AND $2
		GROUP BY appointment_date`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var day time.Time
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		out[day.Format(dayLayout)] = n
	}
	return out, rows.Err()
}

func (r *repoPG) RevenuePerDay(ctx context.Context, from, to time.Time, loc *time.Location) (map[string]float64, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT (paid_at AT TIME ZONE $3)::date AS day, SUM(amount)::float8
		FROM patient_billing
		WHERE is_paid AND (paid_at AT TIME ZONE $3)::date BETWEEN $1 AND $2
		GROUP BY day`, from, to, loc.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var day time.Time
		var amount float64
		if err := rows.Scan(&day, &amount); err != nil {
			return nil, err
		}
		out[day.Format(dayLayout)] = amount
	}
	return out, rows.Err()
}
