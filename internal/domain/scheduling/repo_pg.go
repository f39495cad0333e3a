package scheduling

import (
	"context"
	"fmt"
	"strings"
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

const apptCols = `a.id, a.patient_id, a.doctor_id, a.appointment_date, a.appointment_time, a.duration,
	a.reason, a.notes, a.fee, a.status, a.created_at, a.updated_at,
	p.first_name || ' ' || p.last_name, p.mrn, p.phone_number, u.name, d.specialization`

const apptFrom = ` FROM appointment a
	JOIN patient p ON p.id = a.patient_id
	JOIN doctor d ON d.id = a.doctor_id
	JOIN app_user u ON u.id = d.user_id`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDate, &a.AppointmentTime, &a.Duration,
		&a.Reason, &a.Notes, &a.Fee, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		&a.PatientName, &a.PatientMRN, &a.PatientPhone, &a.DoctorName, &a.Specialization)
	a.AppointmentTime = strings.TrimSpace(a.AppointmentTime)
	return &a, err
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, appointment_date, appointment_time, duration,
			reason, notes, fee, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentDate, a.AppointmentTime, a.Duration,
		a.Reason, a.Notes, a.Fee, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrPatientNotFound
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+apptFrom+` WHERE a.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrAppointmentNotFound
	}
	return a, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *repoPG) Reschedule(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET doctor_id = $2, appointment_date = $3, appointment_time = $4,
			duration = $5, reason = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.DoctorID, a.AppointmentDate, a.AppointmentTime, a.Duration, a.Reason,
	).Scan(&a.UpdatedAt)
	if db.IsNoRows(err) {
		return ErrAppointmentNotFound
	}
	return err
}

func (r *repoPG) Booked(ctx context.Context, doctorID uuid.UUID, date time.Time, exclude uuid.UUID) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+apptFrom+`
		WHERE a.doctor_id = $1 AND a.appointment_date = $2 AND a.status <> 'cancelled' AND a.id <> $3
		ORDER BY a.appointment_time`, doctorID, date, exclude)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) ListByDateRange(ctx context.Context, start, end time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+apptFrom+`
		WHERE a.appointment_date BETWEEN $1 AND $2
		ORDER BY a.appointment_date, a.appointment_time`, start, end)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	query := `SELECT ` + apptCols + apptFrom + ` WHERE a.doctor_id = $1 AND a.appointment_date >= $2`
	args := []interface{}{doctorID, from}
	if !to.IsZero() {
		query += ` AND a.appointment_date <= $3`
		args = append(args, to)
	}
	query += ` ORDER BY a.appointment_date, a.appointment_time`
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) Search(ctx context.Context, query string, limit int) ([]*Appointment, error) {
	sql := `SELECT ` + apptCols + apptFrom
	var args []interface{}
	if query != "" {
		sql += ` WHERE p.first_name ILIKE $1 OR p.last_name ILIKE $1 OR p.mrn ILIKE $1 OR a.reason ILIKE $1`
		args = append(args, "%"+query+"%")
	}
	sql += ` ORDER BY a.appointment_date DESC, a.appointment_time DESC`
	args = append(args, limit)
	sql += fmt.Sprintf(` LIMIT $%d`, len(args))

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+apptFrom+`
		WHERE a.patient_id = $1
		ORDER BY a.appointment_date DESC, a.appointment_time DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repoPG) Stats(ctx context.Context, today, monthStart, monthEnd time.Time) (*Stats, error) {
	var s Stats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE appointment_date = $1),
			COUNT(*) FILTER (WHERE appointment_date >= $2 AND appointment_date < $3),
			COUNT(*) FILTER (WHERE appointment_date >= $1 AND status IN ('scheduled', 'confirmed')),
			COUNT(*) FILTER (WHERE appointment_date = $1 AND status = 'scheduled'),
			COUNT(*) FILTER (WHERE appointment_date = $1 AND status = 'completed'),
			COUNT(*) FILTER (WHERE appointment_date = $1 AND status = 'cancelled')
		FROM appointment`, today, monthStart, monthEnd,
	).Scan(&s.Total, &s.Today, &s.ThisMonth, &s.Upcoming, &s.ScheduledToday, &s.CompletedToday, &s.CancelledToday)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
