package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const chargeCols = `b.id, b.patient_id, b.description, b.charge_type, b.amount, b.is_paid,
	b.paid_at, b.related_id, b.created_at,
	p.first_name || ' ' || p.last_name, p.mrn`

const chargeFrom = ` FROM patient_billing b JOIN patient p ON p.id = b.patient_id`

func scanCharge(row pgx.Row) (*Charge, error) {
	var c Charge
	err := row.Scan(&c.ID, &c.PatientID, &c.Description, &c.ChargeType, &c.Amount, &c.IsPaid,
		&c.PaidAt, &c.RelatedID, &c.CreatedAt,
		&c.PatientName, &c.PatientMRN)
	return &c, err
}

func collect(rows pgx.Rows) ([]*Charge, error) {
	defer rows.Close()
	var items []*Charge
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, c *Charge) error {
	c.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_billing (id, patient_id, description, charge_type, amount, is_paid, paid_at, related_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		c.ID, c.PatientID, c.Description, c.ChargeType, c.Amount, c.IsPaid, c.PaidAt, c.RelatedID,
	).Scan(&c.CreatedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrPatientNotFound
	}
	return err
}

func where(f Filter) (string, []interface{}) {
	clause := ` WHERE 1=1`
	var args []interface{}
	idx := 1
	if f.PatientID != nil {
		clause += fmt.Sprintf(` AND b.patient_id = $%d`, idx)
		args = append(args, *f.PatientID)
		idx++
	}
	if f.IsPaid != nil {
		clause += fmt.Sprintf(` AND b.is_paid = $%d`, idx)
		args = append(args, *f.IsPaid)
		idx++
	}
	if f.ChargeType != "" {
		clause += fmt.Sprintf(` AND b.charge_type = $%d`, idx)
		args = append(args, f.ChargeType)
	}
	return clause, args
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Charge, int, error) {
	clause, args := where(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+chargeFrom+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT ` + chargeCols + chargeFrom + clause +
		fmt.Sprintf(` ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

func (r *repoPG) ListAll(ctx context.Context, f Filter) ([]*Charge, error) {
	clause, args := where(f)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+chargeCols+chargeFrom+clause+` ORDER BY p.last_name, p.first_name, b.created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Charge, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+chargeCols+chargeFrom+` WHERE b.patient_id = $1 ORDER BY b.created_at DESC LIMIT $2`,
		patientID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) MarkPaid(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_billing SET is_paid = TRUE, paid_at = $2
		WHERE id = ANY($1) AND NOT is_paid`, ids, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) Stats(ctx context.Context, dayStart, dayEnd time.Time) (*Stats, error) {
	var s Stats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE is_paid), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE NOT is_paid), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE is_paid AND paid_at >= $1 AND paid_at < $2), 0)::float8,
			COUNT(*) FILTER (WHERE NOT is_paid)
		FROM patient_billing`, dayStart, dayEnd,
	).Scan(&s.TotalRevenue, &s.TotalOutstanding, &s.TodayRevenue, &s.PendingCount)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
