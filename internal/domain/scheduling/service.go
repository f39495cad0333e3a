package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/activity"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/validate"
)

const searchLimit = 50

// Doctors is the slice of the doctor service that booking depends on.
type Doctors interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	ScheduleForDay(ctx context.Context, doctorID uuid.UUID, weekday int) (*doctor.Schedule, error)
	ForUser(ctx context.Context, userID uuid.UUID) (*doctor.Doctor, error)
}

// Charger posts ledger rows.
type Charger interface {
	AddCharge(ctx context.Context, in billing.ChargeInput) (*billing.Charge, error)
}

type Service struct {
	repo     Repository
	doctors  Doctors
	billing  Charger
	tx       db.Transactor
	activity *activity.Service
	loc      *time.Location
	now      func() time.Time
	lock     func(ctx context.Context, key string) error
}

func NewService(repo Repository, doctors Doctors, charger Charger, tx db.Transactor, act *activity.Service, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		doctors:  doctors,
		billing:  charger,
		tx:       tx,
		activity: act,
		loc:      loc,
		now:      time.Now,
		lock:     db.AdvisoryXactLock,
	}
}

// today is the current calendar date in the hospital zone, at UTC midnight
// like every stored appointment date.
func (s *Service) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func lockKey(doctorID uuid.UUID, date time.Time) string {
	return "appointment:" + doctorID.String() + ":" + date.Format(dateLayout)
}

// workingHours resolves the doctor's hours on date's weekday.
func (s *Service) workingHours(ctx context.Context, doctorID uuid.UUID, date time.Time) (Interval, *doctor.Schedule, error) {
	sched, err := s.doctors.ScheduleForDay(ctx, doctorID, int(date.Weekday()))
	if err != nil {
		return Interval{}, nil, err
	}
	start, err := validate.ParseClock(sched.StartTime)
	if err != nil {
		return Interval{}, nil, fmt.Errorf("schedule start: %w", err)
	}
	end, err := validate.ParseClock(sched.EndTime)
	if err != nil {
		return Interval{}, nil, fmt.Errorf("schedule end: %w", err)
	}
	return Interval{Start: start, End: end}, sched, nil
}

// busy returns the intervals taken on the doctor's date, except exclude.
func (s *Service) busy(ctx context.Context, doctorID uuid.UUID, date time.Time, exclude uuid.UUID) ([]Interval, error) {
	appts, err := s.repo.Booked(ctx, doctorID, date, exclude)
	if err != nil {
		return nil, err
	}
	out := make([]Interval, 0, len(appts))
	for _, a := range appts {
		iv, err := a.Interval()
		if err != nil {
			return nil, fmt.Errorf("appointment %s: %w", a.ID, err)
		}
		out = append(out, iv)
	}
	return out, nil
}

// checkSlot applies the working-hour and overlap rules for iv on date.
func (s *Service) checkSlot(ctx context.Context, doctorID uuid.UUID, date time.Time, iv Interval, exclude uuid.UUID, conflict error) error {
	work, sched, err := s.workingHours(ctx, doctorID, date)
	if err != nil {
		return err
	}
	if !iv.Within(work) {
		return validate.Fail("appointment_time", "Appointment time must be between %s and %s", sched.StartTime, sched.EndTime)
	}
	busy, err := s.busy(ctx, doctorID, date, exclude)
	if err != nil {
		return err
	}
	if iv.OverlapsAny(busy) {
		return conflict
	}
	return nil
}

func (s *Service) CreateAppointment(ctx context.Context, in CreateInput) (*Appointment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	date, err := validate.ParseDate(in.AppointmentDate)
	if err != nil {
		return nil, validate.Fail("appointment_date", "appointment_date must be a date in YYYY-MM-DD format")
	}
	if in.Duration == 0 {
		in.Duration = DefaultDuration
	}
	iv, err := NewInterval(in.AppointmentTime, in.Duration)
	if err != nil {
		return nil, validate.Fail("appointment_time", "appointment_time must be a time in HH:MM format")
	}

	doc, err := s.doctors.GetDoctor(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:       in.PatientID,
		DoctorID:        in.DoctorID,
		AppointmentDate: date,
		AppointmentTime: in.AppointmentTime,
		Duration:        in.Duration,
		Reason:          strings.TrimSpace(in.Reason),
		Notes:           strings.TrimSpace(in.Notes),
		Fee:             billing.RoundAmount(doc.ConsultationFee),
		Status:          StatusScheduled,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, lockKey(in.DoctorID, date)); err != nil {
			return err
		}
		if err := s.checkSlot(ctx, in.DoctorID, date, iv, uuid.Nil, ErrSlotConflict); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		if a.Fee > 0 {
			related := a.ID
			_, err := s.billing.AddCharge(ctx, billing.ChargeInput{
				PatientID:   a.PatientID,
				Description: "Consultation - Dr. " + doc.Name,
				ChargeType:  billing.ChargeAppointment,
				Amount:      a.Fee,
				RelatedID:   &related,
			})
			if errors.Is(err, billing.ErrPatientNotFound) {
				return ErrPatientNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if full, err := s.repo.GetByID(ctx, a.ID); err == nil {
		a = full
	}
	s.activity.Record(ctx, activity.ActionCreate, "appointment", a.ID.String(),
		fmt.Sprintf("Created appointment for %s with Dr. %s", a.PatientName, doc.Name))
	return a, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus moves an open appointment to any status. Completed,
// cancelled and no-show appointments are final.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	if !validStatuses[status] {
		return nil, validate.Fail("status",
			"status must be one of: scheduled, confirmed, in_progress, completed, cancelled, no_show")
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if finalStatuses[a.Status] {
		return nil, fmt.Errorf("%w: status is %s", ErrFinalStatus, a.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status

	s.activity.Record(ctx, activity.ActionUpdate, "appointment", a.ID.String(),
		fmt.Sprintf("Updated appointment status to %s for %s", status, a.PatientName))
	return a, nil
}

// Reschedule moves an open appointment, re-checking the new doctor's working
// hours and conflicts while ignoring the appointment itself.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, in RescheduleInput) (*Appointment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	date, err := validate.ParseDate(in.NewDate)
	if err != nil {
		return nil, validate.Fail("new_date", "new_date must be a date in YYYY-MM-DD format")
	}
	if in.Duration == 0 {
		in.Duration = DefaultDuration
	}
	iv, err := NewInterval(in.NewTime, in.Duration)
	if err != nil {
		return nil, validate.Fail("new_time", "new_time must be a time in HH:MM format")
	}

	var a *Appointment
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if finalStatuses[a.Status] {
			return fmt.Errorf("%w: status is %s", ErrFinalStatus, a.Status)
		}
		if err := s.lock(ctx, lockKey(in.DoctorID, date)); err != nil {
			return err
		}
		if err := s.checkSlot(ctx, in.DoctorID, date, iv, a.ID, ErrRescheduleConflict); err != nil {
			return err
		}
		a.DoctorID = in.DoctorID
		a.AppointmentDate = date
		a.AppointmentTime = in.NewTime
		a.Duration = in.Duration
		if r := strings.TrimSpace(in.Reason); r != "" {
			a.Reason = r
		}
		return s.repo.Reschedule(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.ActionUpdate, "appointment", a.ID.String(),
		fmt.Sprintf("Rescheduled appointment for %s to %s at %s", a.PatientName, in.NewDate, in.NewTime))
	return a, nil
}

func (s *Service) TodayAppointments(ctx context.Context) ([]*Appointment, error) {
	today := s.today()
	return s.repo.ListByDateRange(ctx, today, today)
}

func (s *Service) ByDateRange(ctx context.Context, start, end time.Time) ([]*Appointment, error) {
	if end.Before(start) {
		return nil, validate.Fail("end", "end date must not be before start date")
	}
	return s.repo.ListByDateRange(ctx, start, end)
}

// Search matches patient names, MRN and reason. An empty query returns the
// latest appointments.
func (s *Service) Search(ctx context.Context, query string) ([]*Appointment, error) {
	return s.repo.Search(ctx, strings.TrimSpace(query), searchLimit)
}

func (s *Service) RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Appointment, error) {
	return s.repo.RecentForPatient(ctx, patientID, limit)
}

// AvailableSlots lays the doctor's day out on the SlotStep grid.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, duration int) ([]Slot, error) {
	if duration == 0 {
		duration = DefaultDuration
	}
	if duration < 15 || duration > 240 {
		return nil, validate.Fail("duration", "duration must be between 15 and 240 minutes")
	}
	work, _, err := s.workingHours(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	busy, err := s.busy(ctx, doctorID, date, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return SlotGrid(work, duration, busy), nil
}

func (s *Service) Statistics(ctx context.Context) (*Stats, error) {
	today := s.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	return s.repo.Stats(ctx, today, monthStart, monthStart.AddDate(0, 1, 0))
}

// DoctorVisits returns today's and later appointments of the calling doctor.
func (s *Service) DoctorVisits(ctx context.Context) (*Visits, error) {
	userID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return nil, ErrNotADoctor
	}
	doc, err := s.doctors.ForUser(ctx, userID)
	if errors.Is(err, doctor.ErrDoctorNotFound) {
		return nil, ErrNotADoctor
	}
	if err != nil {
		return nil, err
	}

	today := s.today()
	todays, err := s.repo.ListByDoctor(ctx, doc.ID, today, today)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.repo.ListByDoctor(ctx, doc.ID, today.AddDate(0, 0, 1), time.Time{})
	if err != nil {
		return nil, err
	}
	if todays == nil {
		todays = []*Appointment{}
	}
	if upcoming == nil {
		upcoming = []*Appointment{}
	}
	return &Visits{Today: todays, Upcoming: upcoming}, nil
}
