package ward

import (
	"context"
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

// -- Ward --

const wardCols = `id, name, ward_type, total_beds, is_active, created_at, updated_at`

func scanWard(row pgx.Row) (*Ward, error) {
	var w Ward
	err := row.Scan(&w.ID, &w.Name, &w.WardType, &w.TotalBeds, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	return &w, err
}

func (r *repoPG) ListWards(ctx context.Context) ([]*Ward, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+wardCols+` FROM ward WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Ward
	for rows.Next() {
		w, err := scanWard(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

func (r *repoPG) GetWard(ctx context.Context, id uuid.UUID) (*Ward, error) {
	w, err := scanWard(r.conn(ctx).QueryRow(ctx, `SELECT `+wardCols+` FROM ward WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrWardNotFound
	}
	return w, err
}

func (r *repoPG) CreateWard(ctx context.Context, w *Ward) error {
	w.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO ward (id, name, ward_type, total_beds, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		w.ID, w.Name, w.WardType, w.TotalBeds, w.IsActive,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrWardExists
	}
	return err
}

func (r *repoPG) UpdateWard(ctx context.Context, w *Ward) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE ward SET name = $2, ward_type = $3, total_beds = $4, is_active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		w.ID, w.Name, w.WardType, w.TotalBeds, w.IsActive,
	).Scan(&w.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return ErrWardNotFound
	case db.IsUniqueViolation(err):
		return ErrWardExists
	}
	return err
}

// -- Bed --

const bedCols = `b.id, b.ward_id, b.bed_number, b.bed_type, b.price_per_day, b.is_occupied, b.is_active,
	b.created_at, b.updated_at, w.name`

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.WardID, &b.BedNumber, &b.BedType, &b.PricePerDay, &b.IsOccupied, &b.IsActive,
		&b.CreatedAt, &b.UpdatedAt, &b.WardName)
	return &b, err
}

func (r *repoPG) ListBeds(ctx context.Context, wardID *uuid.UUID) ([]*Bed, error) {
	query := `SELECT ` + bedCols + `,
			a.id, a.patient_id, a.reason, a.admission_date, a.expected_discharge_date,
			p.first_name || ' ' || p.last_name, p.mrn
		FROM bed b
		JOIN ward w ON w.id = b.ward_id
		LEFT JOIN admission a ON a.bed_id = b.id AND a.status = 'admitted'
		LEFT JOIN patient p ON p.id = a.patient_id
		WHERE b.is_active`
	var args []interface{}
	if wardID != nil {
		query += ` AND b.ward_id = $1`
		args = append(args, *wardID)
	}
	query += ` ORDER BY w.name, b.bed_number`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Bed
	for rows.Next() {
		var (
			b                   Bed
			admID, patientID    *uuid.UUID
			reason, name, mrn   *string
			admitted            *time.Time
			expectedDischargeAt *time.Time
		)
		if err := rows.Scan(&b.ID, &b.WardID, &b.BedNumber, &b.BedType, &b.PricePerDay, &b.IsOccupied, &b.IsActive,
			&b.CreatedAt, &b.UpdatedAt, &b.WardName,
			&admID, &patientID, &reason, &admitted, &expectedDischargeAt, &name, &mrn); err != nil {
			return nil, err
		}
		if admID != nil {
			b.Admission = &Admission{
				ID:                    *admID,
				PatientID:             *patientID,
				BedID:                 b.ID,
				Reason:                deref(reason),
				AdmissionDate:         *admitted,
				ExpectedDischargeDate: expectedDischargeAt,
				Status:                AdmissionAdmitted,
				PatientName:           deref(name),
				PatientMRN:            deref(mrn),
				BedNumber:             b.BedNumber,
				WardName:              b.WardName,
			}
		}
		items = append(items, &b)
	}
	return items, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *repoPG) GetBed(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bedCols+` FROM bed b JOIN ward w ON w.id = b.ward_id WHERE b.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrBedNotFound
	}
	return b, err
}

func (r *repoPG) CreateBed(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bed (id, ward_id, bed_number, bed_type, price_per_day, is_occupied, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		b.ID, b.WardID, b.BedNumber, b.BedType, b.PricePerDay, b.IsOccupied, b.IsActive,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	switch {
	case db.IsUniqueViolation(err):
		return ErrBedExists
	case db.IsForeignKeyViolation(err):
		return ErrWardNotFound
	}
	return err
}

func (r *repoPG) SetBedOccupied(ctx context.Context, id uuid.UUID, occupied bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bed SET is_occupied = $2, updated_at = NOW() WHERE id = $1`, id, occupied)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBedNotFound
	}
	return nil
}

func (r *repoPG) OccupyBed(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bed SET is_occupied = TRUE, updated_at = NOW()
		WHERE id = $1 AND is_active AND NOT is_occupied`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// -- Admission --

const admissionCols = `a.id, a.patient_id, a.bed_id, a.admitting_doctor_id, a.reason, a.admission_date,
	a.expected_discharge_date, a.discharge_date, a.total_bed_charges, a.status, a.notes,
	a.created_at, a.updated_at,
	p.first_name || ' ' || p.last_name, p.mrn, b.bed_number, w.name`

const admissionFrom = ` FROM admission a
	JOIN patient p ON p.id = a.patient_id
	JOIN bed b ON b.id = a.bed_id
	JOIN ward w ON w.id = b.ward_id`

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(&a.ID, &a.PatientID, &a.BedID, &a.AdmittingDoctorID, &a.Reason, &a.AdmissionDate,
		&a.ExpectedDischargeDate, &a.DischargeDate, &a.TotalBedCharges, &a.Status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
		&a.PatientName, &a.PatientMRN, &a.BedNumber, &a.WardName)
	return &a, err
}

func collectAdmissions(rows pgx.Rows) ([]*Admission, error) {
	defer rows.Close()
	var items []*Admission
	for rows.Next() {
		a, err := scanAdmission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) CreateAdmission(ctx context.Context, a *Admission) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO admission (id, patient_id, bed_id, admitting_doctor_id, reason, admission_date,
			expected_discharge_date, total_bed_charges, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.BedID, a.AdmittingDoctorID, a.Reason, a.AdmissionDate,
		a.ExpectedDischargeDate, a.TotalBedCharges, a.Status, a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	switch {
	case db.IsForeignKeyViolation(err):
		return ErrReferenceNotFound
	case db.IsUniqueViolation(err):
		return ErrBedUnavailable
	}
	return err
}

func (r *repoPG) GetAdmission(ctx context.Context, id uuid.UUID) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx, `SELECT `+admissionCols+admissionFrom+` WHERE a.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrAdmissionNotFound
	}
	return a, err
}

func (r *repoPG) Discharge(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission SET status = 'discharged', discharge_date = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'admitted'`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyDischarged
	}
	return nil
}

func (r *repoPG) ListAdmissions(ctx context.Context, status string) ([]*Admission, error) {
	query := `SELECT ` + admissionCols + admissionFrom
	var args []interface{}
	if status != "" {
		query += ` WHERE a.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY a.admission_date DESC`
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectAdmissions(rows)
}

func (r *repoPG) RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Admission, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+admissionCols+admissionFrom+`
		WHERE a.patient_id = $1 ORDER BY a.admission_date DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	return collectAdmissions(rows)
}
