package pharmacy

import (
	"context"
	"fmt"

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

const drugCols = `id, name, generic_name, manufacturer, dosage_form, strength, price::float8,
	current_stock, min_stock, max_stock, expiry_date, is_active, created_at, updated_at`

func scanDrug(row pgx.Row) (*Drug, error) {
	var d Drug
	err := row.Scan(&d.ID, &d.Name, &d.GenericName, &d.Manufacturer, &d.DosageForm, &d.Strength, &d.Price,
		&d.CurrentStock, &d.MinStock, &d.MaxStock, &d.ExpiryDate, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func collectDrugs(rows pgx.Rows) ([]*Drug, error) {
	defer rows.Close()
	var items []*Drug
	for rows.Next() {
		d, err := scanDrug(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) ListDrugs(ctx context.Context) ([]*Drug, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+drugCols+` FROM drug WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectDrugs(rows)
}

func (r *repoPG) GetDrug(ctx context.Context, id uuid.UUID) (*Drug, error) {
	d, err := scanDrug(r.conn(ctx).QueryRow(ctx, `SELECT `+drugCols+` FROM drug WHERE id = $1 AND is_active`, id))
	if db.IsNoRows(err) {
		return nil, ErrDrugNotFound
	}
	return d, err
}

func (r *repoPG) LockDrugs(ctx context.Context, ids []uuid.UUID) ([]*Drug, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+drugCols+` FROM drug WHERE id = ANY($1) AND is_active ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	return collectDrugs(rows)
}

func (r *repoPG) SearchDrugs(ctx context.Context, query string, limit int) ([]*Drug, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+drugCols+` FROM drug
		WHERE is_active AND (name ILIKE $1 OR generic_name ILIKE $1 OR manufacturer ILIKE $1 OR dosage_form ILIKE $1)
		ORDER BY name LIMIT $2`, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	return collectDrugs(rows)
}

func (r *repoPG) CreateDrug(ctx context.Context, d *Drug) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO drug (id, name, generic_name, manufacturer, dosage_form, strength, price,
			current_stock, min_stock, max_stock, expiry_date, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		d.ID, d.Name, d.GenericName, d.Manufacturer, d.DosageForm, d.Strength, d.Price,
		d.CurrentStock, d.MinStock, d.MaxStock, d.ExpiryDate, d.IsActive,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDrugExists
	}
	return err
}

func (r *repoPG) UpdateDrug(ctx context.Context, d *Drug) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE drug SET name = $2, generic_name = $3, manufacturer = $4, dosage_form = $5, strength = $6,
			price = $7, current_stock = $8, min_stock = $9, max_stock = $10, expiry_date = $11, updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING updated_at`,
		d.ID, d.Name, d.GenericName, d.Manufacturer, d.DosageForm, d.Strength,
		d.Price, d.CurrentStock, d.MinStock, d.MaxStock, d.ExpiryDate,
	).Scan(&d.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return ErrDrugNotFound
	case db.IsUniqueViolation(err):
		return ErrDrugExists
	}
	return err
}

func (r *repoPG) DeactivateDrug(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE drug SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDrugNotFound
	}
	return nil
}

func (r *repoPG) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var stock int
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE drug SET current_stock = GREATEST(current_stock + $2, 0), updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING current_stock`, id, delta,
	).Scan(&stock)
	if db.IsNoRows(err) {
		return 0, ErrDrugNotFound
	}
	return stock, err
}

func (r *repoPG) TakeStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE drug SET current_stock = current_stock - $2, updated_at = NOW()
		WHERE id = $1 AND current_stock >= $2`, id, qty)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) LowStock(ctx context.Context) ([]*Drug, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+drugCols+` FROM drug
		WHERE is_active AND current_stock <= min_stock
		ORDER BY current_stock, name`)
	if err != nil {
		return nil, err
	}
	return collectDrugs(rows)
}

func (r *repoPG) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE current_stock <= min_stock),
			COALESCE(SUM(current_stock), 0),
			COUNT(*) FILTER (WHERE current_stock = 0)
		FROM drug WHERE is_active`,
	).Scan(&s.TotalDrugs, &s.LowStockCount, &s.TotalItems, &s.OutOfStock)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// -- Dispenses --

const dispenseCols = `x.id, x.drug_id, x.patient_id, x.quantity, x.unit_price::float8, x.total_price::float8,
	x.dispensed_by, x.notes, x.dispensed_at,
	d.name, p.first_name || ' ' || p.last_name, p.mrn`

const dispenseFrom = ` FROM pharmacy_dispense x
	JOIN drug d ON d.id = x.drug_id
	JOIN patient p ON p.id = x.patient_id`

func scanDispense(row pgx.Row) (*Dispense, error) {
	var d Dispense
	err := row.Scan(&d.ID, &d.DrugID, &d.PatientID, &d.Quantity, &d.UnitPrice, &d.TotalPrice,
		&d.DispensedBy, &d.Notes, &d.DispensedAt,
		&d.DrugName, &d.PatientName, &d.PatientMRN)
	return &d, err
}

func (r *repoPG) CreateDispense(ctx context.Context, d *Dispense) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO pharmacy_dispense (id, drug_id, patient_id, quantity, unit_price, total_price, dispensed_by, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING dispensed_at`,
		d.ID, d.DrugID, d.PatientID, d.Quantity, d.UnitPrice, d.TotalPrice, d.DispensedBy, d.Notes,
	).Scan(&d.DispensedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrPatientNotFound
	}
	return err
}

func (r *repoPG) ListDispenses(ctx context.Context, f HistoryFilter, limit, offset int) ([]*Dispense, int, error) {
	clause := ` WHERE 1=1`
	var args []interface{}
	idx := 1
	if f.PatientID != nil {
		clause += fmt.Sprintf(` AND x.patient_id = $%d`, idx)
		args = append(args, *f.PatientID)
		idx++
	}
	if f.DrugID != nil {
		clause += fmt.Sprintf(` AND x.drug_id = $%d`, idx)
		args = append(args, *f.DrugID)
		idx++
	}
	if f.Start != nil {
		clause += fmt.Sprintf(` AND x.dispensed_at >= $%d`, idx)
		args = append(args, *f.Start)
		idx++
	}
	if f.End != nil {
		clause += fmt.Sprintf(` AND x.dispensed_at < $%d`, idx)
		args = append(args, *f.End)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*)`+dispenseFrom+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + dispenseCols + dispenseFrom + clause +
		fmt.Sprintf(` ORDER BY x.dispensed_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Dispense
	for rows.Next() {
		d, err := scanDispense(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}
