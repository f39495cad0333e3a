package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/domain/pharmacy"
	"github.com/hms/hms/internal/domain/ward"
	"github.com/hms/hms/internal/platform/auth"
)

type Users interface {
	CreateUser(ctx context.Context, in identity.CreateUserInput) (*identity.User, error)
}

type Doctors interface {
	CreateDoctor(ctx context.Context, in doctor.CreateDoctorInput) (*doctor.Doctor, error)
}

type Wards interface {
	CreateWard(ctx context.Context, in ward.CreateWardInput) (*ward.Ward, error)
	CreateBed(ctx context.Context, in ward.CreateBedInput) (*ward.Bed, error)
}

type Drugs interface {
	CreateDrug(ctx context.Context, in pharmacy.DrugInput) (*pharmacy.Drug, error)
}

type Patients interface {
	CreatePatient(ctx context.Context, in patient.Input) (*patient.Patient, error)
}

// Seeder writes a Fixture through the domain services. Records that already
// exist are skipped, so running it twice is harmless.
type Seeder struct {
	Users    Users
	Doctors  Doctors
	Wards    Wards
	Drugs    Drugs
	Patients Patients
	Logger   zerolog.Logger
}

// Report counts what a run created and skipped, per record kind.
type Report struct {
	Created map[string]int
	Skipped map[string]int
}

func (r *Report) add(kind string, created bool) {
	if created {
		r.Created[kind]++
	} else {
		r.Skipped[kind]++
	}
}

// Run seeds everything in f. Activity rows are attributed to "seed".
func (s *Seeder) Run(ctx context.Context, f *Fixture) (*Report, error) {
	ctx = auth.WithPrincipal(ctx, "seed", auth.RoleAdmin)
	rep := &Report{Created: map[string]int{}, Skipped: map[string]int{}}

	for _, u := range f.Users {
		_, err := s.Users.CreateUser(ctx, identity.CreateUserInput{
			Name: u.Name, Email: u.Email, Password: u.Password, Role: u.Role,
		})
		created, err := s.outcome("user", u.Email, err, identity.ErrEmailExists)
		if err != nil {
			return rep, err
		}
		rep.add("user", created)
	}

	for _, d := range f.Doctors {
		_, err := s.Doctors.CreateDoctor(ctx, doctor.CreateDoctorInput{
			Name:              d.Name,
			Email:             d.Email,
			Password:          d.Password,
			LicenseNumber:     d.LicenseNumber,
			Specialization:    d.Specialization,
			Qualification:     d.Qualification,
			Experience:        d.Experience,
			ConsultationFee:   d.ConsultationFee,
			AvailableFrom:     d.AvailableFrom,
			AvailableTo:       d.AvailableTo,
			Department:        d.Department,
			MaxPatientsPerDay: d.MaxPatientsPerDay,
			Phone:             d.Phone,
			DoctorEmail:       d.DoctorEmail,
			WorkingDays:       d.WorkingDays,
		})
		created, err := s.outcome("doctor", d.Email, err, identity.ErrEmailExists, doctor.ErrLicenseExists)
		if err != nil {
			return rep, err
		}
		rep.add("doctor", created)
	}

	for _, w := range f.Wards {
		if err := s.seedWard(ctx, w, rep); err != nil {
			return rep, err
		}
	}

	for _, d := range f.Drugs {
		in := pharmacy.DrugInput{
			Name: d.Name, GenericName: d.GenericName, Manufacturer: d.Manufacturer,
			DosageForm: d.DosageForm, Strength: d.Strength, Price: d.Price,
			CurrentStock: d.CurrentStock, MinStock: 10, MaxStock: 1000, ExpiryDate: d.ExpiryDate,
		}
		if d.MinStock != nil {
			in.MinStock = *d.MinStock
		}
		if d.MaxStock != nil {
			in.MaxStock = *d.MaxStock
		}
		_, err := s.Drugs.CreateDrug(ctx, in)
		created, err := s.outcome("drug", d.Name, err, pharmacy.ErrDrugExists)
		if err != nil {
			return rep, err
		}
		rep.add("drug", created)
	}

	for _, p := range f.Patients {
		_, err := s.Patients.CreatePatient(ctx, patient.Input{
			FirstName:        p.FirstName,
			LastName:         p.LastName,
			DateOfBirth:      p.DateOfBirth,
			Gender:           p.Gender,
			PhoneNumber:      p.PhoneNumber,
			Email:            p.Email,
			Address:          p.Address,
			EmergencyContact: p.EmergencyContact,
			EmergencyPhone:   p.EmergencyPhone,
			BloodGroup:       p.BloodGroup,
			Allergies:        p.Allergies,
		})
		created, err := s.outcome("patient", p.FirstName+" "+p.LastName, err, patient.ErrDuplicate)
		if err != nil {
			return rep, err
		}
		rep.add("patient", created)
	}

	return rep, nil
}

// seedWard creates a ward and its numbered beds. An existing ward is left
// alone, beds included.
func (s *Seeder) seedWard(ctx context.Context, w Ward, rep *Report) error {
	created, err := s.Wards.CreateWard(ctx, ward.CreateWardInput{Name: w.Name, WardType: w.WardType, TotalBeds: w.Beds})
	ok, err := s.outcome("ward", w.Name, err, ward.ErrWardExists)
	if err != nil {
		return err
	}
	rep.add("ward", ok)
	if !ok {
		return nil
	}

	price := w.PricePerDay
	for i := 1; i <= w.Beds; i++ {
		number := BedNumber(w.Name, i)
		in := ward.CreateBedInput{WardID: created.ID, BedNumber: number, BedType: w.BedType}
		if price > 0 {
			in.PricePerDay = &price
		}
		_, err := s.Wards.CreateBed(ctx, in)
		ok, err := s.outcome("bed", w.Name+" "+number, err, ward.ErrBedExists)
		if err != nil {
			return err
		}
		rep.add("bed", ok)
	}
	return nil
}

// outcome classifies the result of one create call: created, skipped as an
// existing record, or failed.
func (s *Seeder) outcome(kind, key string, err error, exists ...error) (bool, error) {
	if err == nil {
		s.Logger.Debug().Str("kind", kind).Str("key", key).Msg("seeded")
		return true, nil
	}
	for _, e := range exists {
		if errors.Is(err, e) {
			s.Logger.Debug().Str("kind", kind).Str("key", key).Msg("already present, skipped")
			return false, nil
		}
	}
	return false, fmt.Errorf("seed %s %q: %w", kind, key, err)
}
