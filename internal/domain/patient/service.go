package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hms/hms/internal/domain/activity"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/scheduling"
	"github.com/hms/hms/internal/domain/ward"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/validate"
)

const (
	searchLimit = 50

	recentAppointments = 10
	recentCharges      = 5
	recentAdmissions   = 5

	// Registrations and contact changes serialise on this key so the
	// duplicate check and the write see the same data.
	contactLockKey = "patient:contact"
)

type Appointments interface {
	RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*scheduling.Appointment, error)
}

type Charges interface {
	RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*billing.Charge, error)
}

type Admissions interface {
	RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*ward.Admission, error)
}

type Service struct {
	repo         Repository
	appointments Appointments
	charges      Charges
	admissions   Admissions
	tx           db.Transactor
	activity     *activity.Service
	loc          *time.Location
	now          func() time.Time
	lock         func(ctx context.Context, key string) error
}

func NewService(repo Repository, appts Appointments, charges Charges, admissions Admissions,
	tx db.Transactor, act *activity.Service, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:         repo,
		appointments: appts,
		charges:      charges,
		admissions:   admissions,
		tx:           tx,
		activity:     act,
		loc:          loc,
		now:          time.Now,
		lock:         db.AdvisoryXactLock,
	}
}

func normalize(in *Input) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address = strings.TrimSpace(in.Address)
	in.EmergencyContact = strings.TrimSpace(in.EmergencyContact)
	in.EmergencyPhone = strings.TrimSpace(in.EmergencyPhone)
	in.BloodGroup = strings.ToUpper(strings.TrimSpace(in.BloodGroup))
	in.Allergies = strings.TrimSpace(in.Allergies)
	in.Gender = strings.ToLower(strings.TrimSpace(in.Gender))
}

// check validates in and returns the parsed date of birth.
func (s *Service) check(in Input) (time.Time, error) {
	if err := validate.Struct(in); err != nil {
		return time.Time{}, err
	}
	dob, err := validate.ParseDate(in.DateOfBirth)
	if err != nil {
		return time.Time{}, validate.Fail("date_of_birth", "date_of_birth must be a date in YYYY-MM-DD format")
	}
	y, m, d := s.now().In(s.loc).Date()
	if dob.After(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		return time.Time{}, validate.Fail("date_of_birth", "date_of_birth cannot be in the future")
	}
	return dob, nil
}

func apply(p *Patient, in Input, dob time.Time) {
	p.FirstName = in.FirstName
	p.LastName = in.LastName
	p.DateOfBirth = dob
	p.Gender = in.Gender
	p.PhoneNumber = in.PhoneNumber
	p.Email = in.Email
	p.Address = in.Address
	p.EmergencyContact = in.EmergencyContact
	p.EmergencyPhone = in.EmergencyPhone
	p.BloodGroup = in.BloodGroup
	p.Allergies = in.Allergies
}

// CreatePatient registers a patient under the next MRN.
func (s *Service) CreatePatient(ctx context.Context, in Input) (*Patient, error) {
	normalize(&in)
	dob, err := s.check(in)
	if err != nil {
		return nil, err
	}

	p := &Patient{IsActive: true}
	apply(p, in, dob)

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, contactLockKey); err != nil {
			return err
		}
		taken, err := s.repo.ContactTaken(ctx, p.PhoneNumber, p.Email, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicate
		}
		seq, err := s.repo.NextMRN(ctx)
		if err != nil {
			return fmt.Errorf("next mrn: %w", err)
		}
		p.MRN = FormatMRN(seq)
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.ActionCreate, "patient", p.ID.String(),
		fmt.Sprintf("Registered patient %s (%s)", p.FullName(), p.MRN))
	return p, nil
}

// UpdatePatient rewrites a patient's details. The MRN never changes.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, in Input) (*Patient, error) {
	normalize(&in)
	dob, err := s.check(in)
	if err != nil {
		return nil, err
	}

	var p *Patient
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, contactLockKey); err != nil {
			return err
		}
		var err error
		p, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return ErrPatientNotFound
		}
		taken, err := s.repo.ContactTaken(ctx, in.PhoneNumber, in.Email, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateOther
		}
		apply(p, in, dob)
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.ActionUpdate, "patient", p.ID.String(),
		fmt.Sprintf("Updated patient %s (%s)", p.FullName(), p.MRN))
	return p, nil
}

func (s *Service) DeactivatePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.activity.Record(ctx, activity.ActionDelete, "patient", id.String(), "Deactivated patient")
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// GetPatientDetails loads the patient with its latest appointments, ledger
// rows and admissions.
func (s *Service) GetPatientDetails(ctx context.Context, id uuid.UUID) (*Details, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &Details{Patient: p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Appointments, err = s.appointments.RecentForPatient(gctx, id, recentAppointments)
		return err
	})
	g.Go(func() error {
		var err error
		d.Billing, err = s.charges.RecentForPatient(gctx, id, recentCharges)
		return err
	})
	g.Go(func() error {
		var err error
		d.Admissions, err = s.admissions.RecentForPatient(gctx, id, recentAdmissions)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if d.Appointments == nil {
		d.Appointments = []*scheduling.Appointment{}
	}
	if d.Billing == nil {
		d.Billing = []*billing.Charge{}
	}
	if d.Admissions == nil {
		d.Admissions = []*ward.Admission{}
	}
	return d, nil
}

// SearchPatients matches query case-insensitively against one field of
// active patients. by defaults to name.
func (s *Service) SearchPatients(ctx context.Context, query, by string) ([]*Patient, error) {
	by = strings.ToLower(strings.TrimSpace(by))
	if by == "" {
		by = SearchByName
	}
	switch by {
	case SearchByName, SearchByMRN, SearchByPhone, SearchByEmail:
	default:
		return nil, validate.Fail("type", "type must be one of: name, mrn, phone, email")
	}
	return s.repo.Search(ctx, by, strings.TrimSpace(query), searchLimit)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}
