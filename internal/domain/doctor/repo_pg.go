package doctor

import (
	"context"
	"strings"

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

const doctorCols = `d.id, d.user_id, d.license_number, d.specialization, d.qualification, d.experience,
	d.consultation_fee, d.available_from, d.available_to, d.department, d.max_patients_per_day,
	d.phone, d.email, d.is_available, d.created_at, d.updated_at, u.name, u.email`

const doctorFrom = ` FROM doctor d JOIN app_user u ON u.id = d.user_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.LicenseNumber, &d.Specialization, &d.Qualification, &d.Experience,
		&d.ConsultationFee, &d.AvailableFrom, &d.AvailableTo, &d.Department, &d.MaxPatientsPerDay,
		&d.Phone, &d.Email, &d.IsAvailable, &d.CreatedAt, &d.UpdatedAt, &d.Name, &d.UserEmail)
	d.AvailableFrom = strings.TrimSpace(d.AvailableFrom)
	d.AvailableTo = strings.TrimSpace(d.AvailableTo)
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor (id, user_id, license_number, specialization, qualification, experience,
			consultation_fee, available_from, available_to, department, max_patients_per_day,
			phone, email, is_available)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		d.ID, d.UserID, d.LicenseNumber, d.Specialization, d.Qualification, d.Experience,
		d.ConsultationFee, d.AvailableFrom, d.AvailableTo, d.Department, d.MaxPatientsPerDay,
		d.Phone, d.Email, d.IsAvailable,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrLicenseExists
	}
	return err
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE doctor SET license_number = $2, specialization = $3, qualification = $4, experience = $5,
			consultation_fee = $6, available_from = $7, available_to = $8, department = $9,
			max_patients_per_day = $10, phone = $11, email = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		d.ID, d.LicenseNumber, d.Specialization, d.Qualification, d.Experience,
		d.ConsultationFee, d.AvailableFrom, d.AvailableTo, d.Department,
		d.MaxPatientsPerDay, d.Phone, d.Email,
	).Scan(&d.UpdatedAt)
	switch {
	case db.IsNoRows(err):
		return ErrDoctorNotFound
	case db.IsUniqueViolation(err):
		return ErrLicenseExists
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+doctorFrom+` WHERE d.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrDoctorNotFound
	}
	return d, err
}

func (r *repoPG) GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+doctorFrom+` WHERE d.user_id = $1`, userID))
	if db.IsNoRows(err) {
		return nil, ErrDoctorNotFound
	}
	return d, err
}

func (r *repoPG) List(ctx context.Context, availableOnly bool) ([]*Doctor, error) {
	query := `SELECT ` + doctorCols + doctorFrom + ` WHERE u.is_active`
	if availableOnly {
		query += ` AND d.is_available`
	}
	query += ` ORDER BY d.specialization, u.name`

	rows, err := r.conn(ctx).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *repoPG) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE doctor SET is_available = $2, updated_at = NOW() WHERE id = $1`, id, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *repoPG) ReplaceSchedules(ctx context.Context, doctorID uuid.UUID, schedules []*Schedule) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor_schedule WHERE doctor_id = $1`, doctorID); err != nil {
		return err
	}
	for _, s := range schedules {
		s.ID = uuid.New()
		s.DoctorID = doctorID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO doctor_schedule (id, doctor_id, day_of_week, start_time, end_time, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			s.ID, s.DoctorID, s.DayOfWeek, s.StartTime, s.EndTime, s.IsActive)
		if err != nil {
			return err
		}
	}
	return nil
}

const scheduleCols = `id, doctor_id, day_of_week, start_time, end_time, is_active`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.DoctorID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsActive)
	s.StartTime = strings.TrimSpace(s.StartTime)
	s.EndTime = strings.TrimSpace(s.EndTime)
	return &s, err
}

func (r *repoPG) ListSchedules(ctx context.Context, doctorID uuid.UUID) ([]*Schedule, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+scheduleCols+` FROM doctor_schedule WHERE doctor_id = $1 ORDER BY day_of_week`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) ActiveSchedule(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) (*Schedule, error) {
	s, err := scanSchedule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+scheduleCols+` FROM doctor_schedule WHERE doctor_id = $1 AND day_of_week = $2 AND is_active`,
		doctorID, dayOfWeek))
	if db.IsNoRows(err) {
		return nil, ErrScheduleNotFound
	}
	return s, err
}
