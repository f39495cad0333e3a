package ward

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/activity"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/validate"
)

// Charger posts ledger rows.
type Charger interface {
	AddCharge(ctx context.Context, in billing.ChargeInput) (*billing.Charge, error)
}

type Service struct {
	repo     Repository
	billing  Charger
	tx       db.Transactor
	activity *activity.Service
	now      func() time.Time
}

func NewService(repo Repository, charger Charger, tx db.Transactor, act *activity.Service) *Service {
	return &Service{repo: repo, billing: charger, tx: tx, activity: act, now: time.Now}
}

// -- Wards --

// ListWards returns active wards, each with its active beds and occupancy.
func (s *Service) ListWards(ctx context.Context) ([]*Ward, error) {
	wards, err := s.repo.ListWards(ctx)
	if err != nil {
		return nil, err
	}
	beds, err := s.repo.ListBeds(ctx, nil)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*Ward, len(wards))
	for _, w := range wards {
		w.Beds = []*Bed{}
		byID[w.ID] = w
	}
	for _, b := range beds {
		w, ok := byID[b.WardID]
		if !ok {
			continue
		}
		w.Beds = append(w.Beds, b)
		if b.IsOccupied {
			w.OccupiedBeds++
		} else {
			w.AvailableBeds++
		}
	}
	return wards, nil
}

func (s *Service) CreateWard(ctx context.Context, in CreateWardInput) (*Ward, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	w := &Ward{Name: in.Name, WardType: strings.TrimSpace(in.WardType), TotalBeds: in.TotalBeds, IsActive: true}
	if err := s.repo.CreateWard(ctx, w); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity.ActionCreate, "ward", w.ID.String(), "Created ward: "+w.Name)
	return w, nil
}

func (s *Service) UpdateWard(ctx context.Context, id uuid.UUID, in UpdateWardInput) (*Ward, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	w, err := s.repo.GetWard(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		w.Name = strings.TrimSpace(*in.Name)
	}
	if in.WardType != nil {
		w.WardType = strings.TrimSpace(*in.WardType)
	}
	if in.TotalBeds != nil {
		w.TotalBeds = *in.TotalBeds
	}
	if in.IsActive != nil {
		w.IsActive = *in.IsActive
	}
	if err := s.repo.UpdateWard(ctx, w); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity.ActionUpdate, "ward", w.ID.String(), "Updated ward: "+w.Name)
	return w, nil
}

// -- Beds --

func (s *Service) ListBeds(ctx context.Context, wardID *uuid.UUID) ([]*Bed, error) {
	return s.repo.ListBeds(ctx, wardID)
}

func (s *Service) CreateBed(ctx context.Context, in CreateBedInput) (*Bed, error) {
	in.BedNumber = strings.TrimSpace(in.BedNumber)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	price := float64(DefaultBedPrice)
	if in.PricePerDay != nil {
		price = billing.RoundAmount(*in.PricePerDay)
	}
	b := &Bed{
		WardID:      in.WardID,
		BedNumber:   in.BedNumber,
		BedType:     strings.TrimSpace(in.BedType),
		PricePerDay: price,
		IsActive:    true,
	}
	if err := s.repo.CreateBed(ctx, b); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity.ActionCreate, "bed", b.ID.String(), "Created bed "+b.BedNumber)
	return b, nil
}

func (s *Service) UpdateBedStatus(ctx context.Context, id uuid.UUID, occupied bool) error {
	if err := s.repo.SetBedOccupied(ctx, id, occupied); err != nil {
		return err
	}
	s.activity.Record(ctx, activity.ActionUpdate, "bed", id.String(), fmt.Sprintf("Set bed occupied to %t", occupied))
	return nil
}

// -- Admissions --

// CreateAdmission places a patient in a free bed. The bed is claimed with a guarded
// update so two concurrent admissions cannot share it.
func (s *Service) CreateAdmission(ctx context.Context, in AdmissionInput) (*Admission, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	doctorID := in.AdmittingDoctorID
	a := &Admission{
		PatientID:         in.PatientID,
		BedID:             in.BedID,
		AdmittingDoctorID: &doctorID,
		Reason:            strings.TrimSpace(in.Reason),
		AdmissionDate:     now,
		Status:            AdmissionAdmitted,
		Notes:             strings.TrimSpace(in.Notes),
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		bed, err := s.repo.GetBed(ctx, in.BedID)
		if errors.Is(err, ErrBedNotFound) {
			return ErrBedUnavailable
		}
		if err != nil {
			return err
		}
		if !bed.IsActive || bed.IsOccupied {
			return ErrBedUnavailable
		}

		if in.ExpectedDays > 0 {
			expected := now.Add(time.Duration(in.ExpectedDays) * 24 * time.Hour)
			a.ExpectedDischargeDate = &expected
			a.TotalBedCharges = billing.RoundAmount(bed.PricePerDay * float64(in.ExpectedDays))
		}
		a.BedNumber = bed.BedNumber
		a.WardName = bed.WardName

		ok, err := s.repo.OccupyBed(ctx, bed.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBedUnavailable
		}
		if err := s.repo.CreateAdmission(ctx, a); err != nil {
			return err
		}

		if a.TotalBedCharges > 0 {
			related := a.ID
			_, err := s.billing.AddCharge(ctx, billing.ChargeInput{
				PatientID: a.PatientID,
				Description: fmt.Sprintf("Ward Admission - %s (Bed %s) - %d day(s)",
					bed.WardName, bed.BedNumber, in.ExpectedDays),
				ChargeType: billing.ChargeAdmission,
				Amount:     a.TotalBedCharges,
				RelatedID:  &related,
			})
			if errors.Is(err, billing.ErrPatientNotFound) {
				return ErrReferenceNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.ActionCreate, "admission", a.ID.String(),
		fmt.Sprintf("Admitted patient to %s (Bed %s)", a.WardName, a.BedNumber))
	return a, nil
}

// DischargePatient closes an admission and frees its bed.
func (s *Service) DischargePatient(ctx context.Context, id uuid.UUID) (*Admission, error) {
	var a *Admission
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetAdmission(ctx, id)
		if err != nil {
			return err
		}
		if a.Status == AdmissionDischarged {
			return ErrAlreadyDischarged
		}
		now := s.now()
		if err := s.repo.Discharge(ctx, id, now); err != nil {
			return err
		}
		a.Status = AdmissionDischarged
		a.DischargeDate = &now
		return s.repo.SetBedOccupied(ctx, a.BedID, false)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.ActionUpdate, "admission", a.ID.String(),
		fmt.Sprintf("Discharged %s from %s (Bed %s)", a.PatientName, a.WardName, a.BedNumber))
	return a, nil
}

func (s *Service) ListAdmissions(ctx context.Context, status string) ([]*Admission, error) {
	if status != "" && status != AdmissionAdmitted && status != AdmissionDischarged {
		return nil, validate.Fail("status", "status must be one of: admitted, discharged")
	}
	return s.repo.ListAdmissions(ctx, status)
}

func (s *Service) RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Admission, error) {
	return s.repo.RecentForPatient(ctx, patientID, limit)
}
