package scheduling

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/validate"
)

type mockRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.PatientName = "John Doe"
	m.appts[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

func (m *mockRepo) Reschedule(_ context.Context, a *Appointment) error {
	if _, ok := m.appts[a.ID]; !ok {
		return ErrAppointmentNotFound
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) sorted(keep func(*Appointment) bool) []*Appointment {
	var out []*Appointment
	for _, a := range m.appts {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppointmentDate.Equal(out[j].AppointmentDate) {
			return out[i].AppointmentDate.Before(out[j].AppointmentDate)
		}
		return out[i].AppointmentTime < out[j].AppointmentTime
	})
	return out
}

func (m *mockRepo) Booked(_ context.Context, doctorID uuid.UUID, date time.Time, exclude uuid.UUID) ([]*Appointment, error) {
	return m.sorted(func(a *Appointment) bool {
		return a.DoctorID == doctorID && a.AppointmentDate.Equal(date) && a.Status != StatusCancelled && a.ID != exclude
	}), nil
}

func (m *mockRepo) ListByDateRange(_ context.Context, start, end time.Time) ([]*Appointment, error) {
	return m.sorted(func(a *Appointment) bool {
		return !a.AppointmentDate.Before(start) && !a.AppointmentDate.After(end)
	}), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	return m.sorted(func(a *Appointment) bool {
		return a.DoctorID == doctorID && !a.AppointmentDate.Before(from) && (to.IsZero() || !a.AppointmentDate.After(to))
	}), nil
}

func (m *mockRepo) Search(_ context.Context, query string, limit int) ([]*Appointment, error) {
	out := m.sorted(func(a *Appointment) bool {
		return query == "" || strings.Contains(strings.ToLower(a.PatientName+" "+a.Reason), strings.ToLower(query))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepo) RecentForPatient(_ context.Context, patientID uuid.UUID, limit int) ([]*Appointment, error) {
	return m.sorted(func(a *Appointment) bool { return a.PatientID == patientID }), nil
}

func (m *mockRepo) Stats(_ context.Context, today, monthStart, monthEnd time.Time) (*Stats, error) {
	var s Stats
	for _, a := range m.appts {
		s.Total++
		if a.AppointmentDate.Equal(today) {
			s.Today++
			switch a.Status {
			case StatusScheduled:
				s.ScheduledToday++
			case StatusCompleted:
				s.CompletedToday++
			case StatusCancelled:
				s.CancelledToday++
			}
		}
		if !a.AppointmentDate.Before(monthStart) && a.AppointmentDate.Before(monthEnd) {
			s.ThisMonth++
		}
		if !a.AppointmentDate.Before(today) && (a.Status == StatusScheduled || a.Status == StatusConfirmed) {
			s.Upcoming++
		}
	}
	return &s, nil
}

type mockDoctors struct {
	doctors   map[uuid.UUID]*doctor.Doctor
	schedules map[uuid.UUID]map[int]*doctor.Schedule
}

func (m *mockDoctors) GetDoctor(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

func (m *mockDoctors) ScheduleForDay(_ context.Context, doctorID uuid.UUID, weekday int) (*doctor.Schedule, error) {
	s, ok := m.schedules[doctorID][weekday]
	if !ok {
		return nil, doctor.ErrScheduleNotFound
	}
	return s, nil
}

func (m *mockDoctors) ForUser(_ context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	for _, d := range m.doctors {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

type mockCharger struct {
	charges []billing.ChargeInput
}

func (m *mockCharger) AddCharge(_ context.Context, in billing.ChargeInput) (*billing.Charge, error) {
	m.charges = append(m.charges, in)
	return &billing.Charge{ID: uuid.New(), PatientID: in.PatientID, Amount: in.Amount}, nil
}

type inlineTx struct{}

func (inlineTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	charger *mockCharger
	doc     *doctor.Doctor
	locks   []string
}

// 2026-10-19 is a Monday.
const monday = "2026-10-19"

func newFixture(t *testing.T, fee float64) *fixture {
	t.Helper()
	doc := &doctor.Doctor{ID: uuid.New(), UserID: uuid.New(), Name: "Gregory House", ConsultationFee: fee}
	days := map[int]*doctor.Schedule{}
	for d := 1; d <= 5; d++ {
		days[d] = &doctor.Schedule{DoctorID: doc.ID, DayOfWeek: d, StartTime: "09:00", EndTime: "17:00", IsActive: true}
	}
	docs := &mockDoctors{
		doctors:   map[uuid.UUID]*doctor.Doctor{doc.ID: doc},
		schedules: map[uuid.UUID]map[int]*doctor.Schedule{doc.ID: days},
	}
	f := &fixture{repo: newMockRepo(), charger: &mockCharger{}, doc: doc}
	f.svc = NewService(f.repo, docs, f.charger, inlineTx{}, nil, time.UTC)
	f.svc.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }
	f.svc.lock = func(_ context.Context, key string) error {
		f.locks = append(f.locks, key)
		return nil
	}
	return f
}

func (f *fixture) book(t *testing.T, date, clock string, duration int) (*Appointment, error) {
	t.Helper()
	return f.svc.CreateAppointment(context.Background(), CreateInput{
		PatientID:       uuid.New(),
		DoctorID:        f.doc.ID,
		AppointmentDate: date,
		AppointmentTime: clock,
		Duration:        duration,
		Reason:          "Checkup",
	})
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture(t, 500)
	a, err := f.book(t, monday, "10:00", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusScheduled || a.Duration != DefaultDuration || a.Fee != 500 {
		t.Errorf("unexpected appointment: %+v", a)
	}
	if len(f.locks) != 1 || !strings.HasSuffix(f.locks[0], ":"+monday) {
		t.Errorf("expected a per-doctor-day lock, got %v", f.locks)
	}
	if len(f.charger.charges) != 1 {
		t.Fatalf("expected a billing row, got %d", len(f.charger.charges))
	}
	c := f.charger.charges[0]
	if c.Description != "Consultation - Dr. Gregory House" || c.ChargeType != billing.ChargeAppointment ||
		c.Amount != 500 || c.RelatedID == nil || *c.RelatedID != a.ID {
		t.Errorf("unexpected charge: %+v", c)
	}
}

func TestCreateAppointment_FreeConsultationHasNoCharge(t *testing.T) {
	f := newFixture(t, 0)
	if _, err := f.book(t, monday, "10:00", 30); err != nil {
		t.Fatal(err)
	}
	if len(f.charger.charges) != 0 {
		t.Errorf("expected no billing row, got %d", len(f.charger.charges))
	}
}

func TestCreateAppointment_Rules(t *testing.T) {
	f := newFixture(t, 500)
	if _, err := f.book(t, monday, "10:00", 30); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		date  string
		clock string
		dur   int
		want  string
	}{
		{"day off", "2026-10-18", "10:00", 30, "Doctor is not available on this day"},
		{"before opening", monday, "08:45", 30, "Appointment time must be between 09:00 and 17:00"},
		{"past closing", monday, "16:45", 30, "Appointment time must be between 09:00 and 17:00"},
		{"overlap", monday, "09:45", 30, "This time slot conflicts with another appointment"},
		{"too short", monday, "12:00", 10, "duration"},
		{"bad clock", monday, "12h", 30, "appointment_time"},
		{"bad date", "19/10/2026", "12:00", 30, "appointment_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.book(t, tt.date, tt.clock, tt.dur)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateAppointment_AdjacentAndCancelledAllowed(t *testing.T) {
	f := newFixture(t, 500)
	first, _ := f.book(t, monday, "10:00", 30)
	if _, err := f.book(t, monday, "10:30", 30); err != nil {
		t.Fatalf("back-to-back booking must be allowed: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), first.ID, StatusCancelled); err != nil {
		t.Fatal(err)
	}
	if _, err := f.book(t, monday, "10:00", 30); err != nil {
		t.Fatalf("cancelled slot must be free again: %v", err)
	}
}

func TestCreateAppointment_UnknownDoctor(t *testing.T) {
	f := newFixture(t, 500)
	_, err := f.svc.CreateAppointment(context.Background(), CreateInput{
		PatientID: uuid.New(), DoctorID: uuid.New(), AppointmentDate: monday, AppointmentTime: "10:00", Reason: "x",
	})
	if !errors.Is(err, doctor.ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, 0)
	a, _ := f.book(t, monday, "10:00", 30)
	ctx := context.Background()

	if _, err := f.svc.UpdateStatus(ctx, a.ID, "bogus"); !validate.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, a.ID, StatusConfirmed); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateStatus(ctx, a.ID, StatusCompleted); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateStatus(ctx, a.ID, StatusScheduled); !errors.Is(err, ErrFinalStatus) {
		t.Errorf("expected ErrFinalStatus after completion, got %v", err)
	}
}

func TestReschedule(t *testing.T) {
	f := newFixture(t, 0)
	a, _ := f.book(t, monday, "10:00", 30)
	_, _ = f.book(t, monday, "11:00", 30)
	ctx := context.Background()

	// Moving within its own slot must not conflict with itself.
	got, err := f.svc.Reschedule(ctx, a.ID, RescheduleInput{DoctorID: f.doc.ID, NewDate: monday, NewTime: "10:15", Duration: 30})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if got.AppointmentTime != "10:15" {
		t.Errorf("expected 10:15, got %s", got.AppointmentTime)
	}

	_, err = f.svc.Reschedule(ctx, a.ID, RescheduleInput{DoctorID: f.doc.ID, NewDate: monday, NewTime: "10:45", Duration: 30})
	if !errors.Is(err, ErrRescheduleConflict) {
		t.Errorf("expected conflict, got %v", err)
	}

	_, err = f.svc.Reschedule(ctx, a.ID, RescheduleInput{DoctorID: f.doc.ID, NewDate: monday, NewTime: "16:30", Duration: 60})
	if !validate.IsValidation(err) {
		t.Errorf("expected working-hours error, got %v", err)
	}

	got, err = f.svc.Reschedule(ctx, a.ID, RescheduleInput{DoctorID: f.doc.ID, NewDate: "2026-10-20", NewTime: "09:00", Duration: 90, Reason: "Follow-up"})
	if err != nil {
		t.Fatal(err)
	}
	stored := f.repo.appts[a.ID]
	if stored.Duration != 90 || stored.Reason != "Follow-up" || stored.AppointmentDate.Format(dateLayout) != "2026-10-20" {
		t.Errorf("reschedule not persisted: %+v", stored)
	}
}

func TestReschedule_Cancelled(t *testing.T) {
	f := newFixture(t, 0)
	a, _ := f.book(t, monday, "10:00", 30)
	_, _ = f.svc.UpdateStatus(context.Background(), a.ID, StatusCancelled)
	_, err := f.svc.Reschedule(context.Background(), a.ID, RescheduleInput{DoctorID: f.doc.ID, NewDate: monday, NewTime: "12:00"})
	if !errors.Is(err, ErrFinalStatus) {
		t.Fatalf("expected ErrFinalStatus, got %v", err)
	}
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t, 0)
	_, _ = f.book(t, monday, "09:30", 30)

	date, _ := validate.ParseDate(monday)
	slots, err := f.svc.AvailableSlots(context.Background(), f.doc.ID, date, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 half-hour slots, got %d", len(slots))
	}
	if !slots[0].Available || slots[1].Available || slots[1].Time != "09:30" {
		t.Errorf("unexpected first slots: %+v", slots[:2])
	}

	sunday, _ := validate.ParseDate("2026-10-18")
	if _, err := f.svc.AvailableSlots(context.Background(), f.doc.ID, sunday, 30); !errors.Is(err, doctor.ErrScheduleNotFound) {
		t.Errorf("expected ErrScheduleNotFound, got %v", err)
	}
}

func TestStatisticsAndToday(t *testing.T) {
	f := newFixture(t, 0)
	a, _ := f.book(t, monday, "09:00", 30)
	_, _ = f.book(t, monday, "10:00", 30)
	_, _ = f.book(t, "2026-10-20", "10:00", 30)
	_, _ = f.svc.UpdateStatus(context.Background(), a.ID, StatusCompleted)

	st, err := f.svc.Statistics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Total != 3 || st.Today != 2 || st.ThisMonth != 3 || st.Upcoming != 2 || st.CompletedToday != 1 || st.ScheduledToday != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}

	today, _ := f.svc.TodayAppointments(context.Background())
	if len(today) != 2 || today[0].AppointmentTime != "09:00" {
		t.Errorf("unexpected today list: %+v", today)
	}
}

func TestDoctorVisits(t *testing.T) {
	f := newFixture(t, 0)
	_, _ = f.book(t, monday, "09:00", 30)
	_, _ = f.book(t, "2026-10-21", "09:00", 30)

	ctx := auth.WithPrincipal(context.Background(), f.doc.UserID.String(), auth.RoleDoctor)
	v, err := f.svc.DoctorVisits(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Today) != 1 || len(v.Upcoming) != 1 {
		t.Errorf("unexpected visits: today=%d upcoming=%d", len(v.Today), len(v.Upcoming))
	}

	other := auth.WithPrincipal(context.Background(), uuid.NewString(), auth.RoleDoctor)
	if _, err := f.svc.DoctorVisits(other); !errors.Is(err, ErrNotADoctor) {
		t.Errorf("expected ErrNotADoctor, got %v", err)
	}
}
