package patient

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

const patientCols = `id, mrn, first_name, last_name, date_of_birth, gender, phone_number, email,
	address, emergency_contact, emergency_phone, blood_group, allergies, is_active, created_at, updated_at`

// searchExprs maps a search type to the column expression it matches.
var searchExprs = map[string]string{
	SearchByName:  `first_name || ' ' || last_name`,
	SearchByMRN:   `mrn`,
	SearchByPhone: `phone_number`,
	SearchByEmail: `email`,
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.MRN, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.PhoneNumber, &p.Email,
		&p.Address, &p.EmergencyContact, &p.EmergencyPhone, &p.BloodGroup, &p.Allergies, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func collect(rows pgx.Rows) ([]*Patient, error) {
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) NextMRN(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT nextval('patient_mrn_seq')`).Scan(&n)
	return n, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (id, mrn, first_name, last_name, date_of_birth, gender, phone_number, email,
			address, emergency_contact, emergency_phone, blood_group, allergies, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		p.ID, p.MRN, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.PhoneNumber, p.Email,
		p.Address, p.EmergencyContact, p.EmergencyPhone, p.BloodGroup, p.Allergies, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET first_name = $2, last_name = $3, date_of_birth = $4, gender = $5,
			phone_number = $6, email = $7, address = $8, emergency_contact = $9, emergency_phone = $10,
			blood_group = $11, allergies = $12, updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING updated_at`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender,
		p.PhoneNumber, p.Email, p.Address, p.EmergencyContact, p.EmergencyPhone,
		p.BloodGroup, p.Allergies,
	).Scan(&p.UpdatedAt)
	if db.IsNoRows(err) {
		return ErrPatientNotFound
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrPatientNotFound
	}
	return p, err
}

func (r *repoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *repoPG) ContactTaken(ctx context.Context, phone, email string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM patient
			WHERE is_active AND id <> $3
			  AND (phone_number = $1 OR ($2 <> '' AND lower(email) = lower($2)))
		)`, phone, email, exclude,
	).Scan(&taken)
	return taken, err
}

func (r *repoPG) Search(ctx context.Context, by, query string, limit int) ([]*Patient, error) {
	expr, ok := searchExprs[by]
	if !ok {
		return nil, fmt.Errorf("unknown search type %q", by)
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient
		WHERE is_active AND `+expr+` ILIKE $1
		ORDER BY created_at DESC LIMIT $2`, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient
		WHERE is_active ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}
