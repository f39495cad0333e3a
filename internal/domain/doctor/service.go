package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/activity"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/validate"
)

// Accounts manages the login account behind a doctor profile.
type Accounts interface {
	CreateUser(ctx context.Context, in identity.CreateUserInput) (*identity.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, in identity.UpdateUserInput) (*identity.User, error)
}

type Service struct {
	repo     Repository
	accounts Accounts
	tx       db.Transactor
	activity *activity.Service
}

func NewService(repo Repository, accounts Accounts, tx db.Transactor, act *activity.Service) *Service {
	return &Service{repo: repo, accounts: accounts, tx: tx, activity: act}
}

func checkHours(from, to string) error {
	start, err := validate.ParseClock(from)
	if err != nil {
		return validate.Fail("available_from", "available_from must be a valid HH:MM time")
	}
	end, err := validate.ParseClock(to)
	if err != nil {
		return validate.Fail("available_to", "available_to must be a valid HH:MM time")
	}
	if start >= end {
		return validate.Fail("available_to", "available_from must be before available_to")
	}
	return nil
}

func buildSchedules(days []int, from, to string) []*Schedule {
	seen := make(map[int]bool, len(days))
	var out []*Schedule
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, &Schedule{DayOfWeek: d, StartTime: from, EndTime: to, IsActive: true})
	}
	return out
}

// CreateDoctor creates the doctor-role user, the profile and one schedule
// per working day in a single transaction.
func (s *Service) CreateDoctor(ctx context.Context, in CreateDoctorInput) (*Doctor, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := checkHours(in.AvailableFrom, in.AvailableTo); err != nil {
		return nil, err
	}

	d := &Doctor{
		LicenseNumber:     strings.TrimSpace(in.LicenseNumber),
		Specialization:    strings.TrimSpace(in.Specialization),
		Qualification:     strings.TrimSpace(in.Qualification),
		Experience:        in.Experience,
		ConsultationFee:   in.ConsultationFee,
		AvailableFrom:     in.AvailableFrom,
		AvailableTo:       in.AvailableTo,
		Department:        strings.TrimSpace(in.Department),
		MaxPatientsPerDay: in.MaxPatientsPerDay,
		Phone:             strings.TrimSpace(in.Phone),
		Email:             strings.TrimSpace(in.DoctorEmail),
		IsAvailable:       true,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, err := s.accounts.CreateUser(ctx, identity.CreateUserInput{
			Name:     in.Name,
			Email:    in.Email,
			Password: in.Password,
			Role:     auth.RoleDoctor,
		})
		if err != nil {
			return err
		}
		d.UserID = u.ID
		d.Name = u.Name
		d.UserEmail = u.Email

		if err := s.repo.Create(ctx, d); err != nil {
			return err
		}
		d.Schedules = buildSchedules(in.WorkingDays, in.AvailableFrom, in.AvailableTo)
		return s.repo.ReplaceSchedules(ctx, d.ID, d.Schedules)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.ActionCreate, "doctor", d.ID.String(),
		fmt.Sprintf("Created doctor: Dr. %s (%s)", d.Name, d.Specialization))
	return d, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, in UpdateDoctorInput) (*Doctor, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := checkHours(in.AvailableFrom, in.AvailableTo); err != nil {
		return nil, err
	}
	if in.Password != "" && len(in.Password) < 6 {
		return nil, validate.Fail("password", "password must be at least 6 characters")
	}

	var d *Doctor
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		d, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		name, email, password := in.Name, in.Email, in.Password
		u, err := s.accounts.UpdateUser(ctx, d.UserID, identity.UpdateUserInput{
			Name: &name, Email: &email, Password: &password,
		})
		if err != nil {
			return err
		}
		d.Name = u.Name
		d.UserEmail = u.Email

		d.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
		d.Specialization = strings.TrimSpace(in.Specialization)
		d.Qualification = strings.TrimSpace(in.Qualification)
		d.Experience = in.Experience
		d.ConsultationFee = in.ConsultationFee
		d.AvailableFrom = in.AvailableFrom
		d.AvailableTo = in.AvailableTo
		d.Department = strings.TrimSpace(in.Department)
		d.MaxPatientsPerDay = in.MaxPatientsPerDay
		d.Phone = strings.TrimSpace(in.Phone)
		d.Email = strings.TrimSpace(in.DoctorEmail)
		if err := s.repo.Update(ctx, d); err != nil {
			return err
		}

		if in.WorkingDays != nil {
			if err := s.repo.ReplaceSchedules(ctx, d.ID,
				buildSchedules(in.WorkingDays, in.AvailableFrom, in.AvailableTo)); err != nil {
				return err
			}
		}
		d.Schedules, err = s.repo.ListSchedules(ctx, d.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.ActionUpdate, "doctor", d.ID.String(), "Updated doctor: Dr. "+d.Name)
	return d, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Schedules, err = s.repo.ListSchedules(ctx, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ForUser returns the doctor profile owned by a user account.
func (s *Service) ForUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *Service) ListDoctors(ctx context.Context, availableOnly bool) ([]*Doctor, error) {
	return s.repo.List(ctx, availableOnly)
}

// ScheduleForDay returns the doctor's active working hours on a weekday.
func (s *Service) ScheduleForDay(ctx context.Context, doctorID uuid.UUID, weekday int) (*Schedule, error) {
	return s.repo.ActiveSchedule(ctx, doctorID, weekday)
}

func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		return err
	}
	s.activity.Record(ctx, activity.ActionUpdate, "doctor", id.String(),
		fmt.Sprintf("Set availability to %t", available))
	return nil
}
