package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/activity"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/validate"
)

const searchLimit = 50

// Charger posts ledger rows.
type Charger interface {
	AddCharge(ctx context.Context, in billing.ChargeInput) (*billing.Charge, error)
}

type Service struct {
	repo     Repository
	billing  Charger
	tx       db.Transactor
	activity *activity.Service
}

func NewService(repo Repository, charger Charger, tx db.Transactor, act *activity.Service) *Service {
	return &Service{repo: repo, billing: charger, tx: tx, activity: act}
}

// -- Drugs --

func (s *Service) ListDrugs(ctx context.Context) ([]*Drug, error) {
	return s.repo.ListDrugs(ctx)
}

func (s *Service) GetDrug(ctx context.Context, id uuid.UUID) (*Drug, error) {
	return s.repo.GetDrug(ctx, id)
}

func (s *Service) SearchDrugs(ctx context.Context, query string) ([]*Drug, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.ListDrugs(ctx)
	}
	return s.repo.SearchDrugs(ctx, query, searchLimit)
}

func (s *Service) CreateDrug(ctx context.Context, in DrugInput) (*Drug, error) {
	d := &Drug{IsActive: true}
	if err := applyDrugInput(d, in); err != nil {
		return nil, err
	}
	if err := s.repo.CreateDrug(ctx, d); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity.ActionCreate, "pharmacy", d.ID.String(), "Added drug: "+d.Name)
	return d, nil
}

func (s *Service) UpdateDrug(ctx context.Context, id uuid.UUID, in DrugInput) (*Drug, error) {
	d, err := s.repo.GetDrug(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyDrugInput(d, in); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDrug(ctx, d); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity.ActionUpdate, "pharmacy", d.ID.String(), "Updated drug: "+d.Name)
	return d, nil
}

func applyDrugInput(d *Drug, in DrugInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.GenericName = strings.TrimSpace(in.GenericName)
	in.Manufacturer = strings.TrimSpace(in.Manufacturer)
	in.DosageForm = strings.TrimSpace(in.DosageForm)
	in.Strength = strings.TrimSpace(in.Strength)
	if err := validate.Struct(in); err != nil {
		return err
	}

	var expiry *time.Time
	if in.ExpiryDate != "" {
		t, err := validate.ParseDate(in.ExpiryDate)
		if err != nil {
			return validate.Fail("expiry_date", "expiry_date must be a date in YYYY-MM-DD format")
		}
		expiry = &t
	}

	d.Name = in.Name
	d.GenericName = in.GenericName
	d.Manufacturer = in.Manufacturer
	d.DosageForm = in.DosageForm
	d.Strength = in.Strength
	d.Price = billing.RoundAmount(in.Price)
	d.CurrentStock = in.CurrentStock
	d.MinStock = in.MinStock
	d.MaxStock = in.MaxStock
	d.ExpiryDate = expiry
	return nil
}

// DeleteDrug retires a drug. Dispense history keeps referencing the row.
func (s *Service) DeleteDrug(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeactivateDrug(ctx, id); err != nil {
		return err
	}
	s.activity.Record(ctx, activity.ActionDelete, "pharmacy", id.String(), "Removed drug")
	return nil
}

// UpdateStock receives or writes off stock. Subtraction stops at zero.
func (s *Service) UpdateStock(ctx context.Context, id uuid.UUID, in StockInput) (*Drug, error) {
	in.Operation = strings.ToLower(strings.TrimSpace(in.Operation))
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	delta := in.Quantity
	if in.Operation == StockSubtract {
		delta = -delta
	}
	if _, err := s.repo.AdjustStock(ctx, id, delta); err != nil {
		return nil, err
	}
	d, err := s.repo.GetDrug(ctx, id)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, activity.ActionUpdate, "pharmacy", id.String(),
		fmt.Sprintf("Stock %s %d for %s (now %d)", in.Operation, in.Quantity, d.Name, d.CurrentStock))
	return d, nil
}

func (s *Service) LowStockDrugs(ctx context.Context) ([]*Drug, error) {
	return s.repo.LowStock(ctx)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// -- Dispensing --

func dispenser(ctx context.Context) string {
	if name := auth.UserNameFromContext(ctx); name != "" {
		return name
	}
	if id := auth.UserIDFromContext(ctx); id != "" {
		return id
	}
	return "system"
}

func (s *Service) charge(ctx context.Context, in billing.ChargeInput) error {
	_, err := s.billing.AddCharge(ctx, in)
	if errors.Is(err, billing.ErrPatientNotFound) {
		return ErrPatientNotFound
	}
	return err
}

// DispenseDrug hands out one drug and bills the patient for it.
func (s *Service) DispenseDrug(ctx context.Context, in DispenseInput) (*Dispense, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	var d *Dispense
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		drugs, err := s.repo.LockDrugs(ctx, []uuid.UUID{in.DrugID})
		if err != nil {
			return err
		}
		if len(drugs) == 0 {
			return ErrDrugNotFound
		}
		drug := drugs[0]
		if drug.CurrentStock < in.Quantity {
			return &StockError{Available: drug.CurrentStock}
		}

		d = &Dispense{
			DrugID:      drug.ID,
			PatientID:   in.PatientID,
			Quantity:    in.Quantity,
			UnitPrice:   drug.Price,
			TotalPrice:  billing.RoundAmount(drug.Price * float64(in.Quantity)),
			DispensedBy: dispenser(ctx),
			Notes:       in.Notes,
			DrugName:    drug.Name,
		}
		if err := s.repo.CreateDispense(ctx, d); err != nil {
			return err
		}
		ok, err := s.repo.TakeStock(ctx, drug.ID, in.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return &StockError{Available: drug.CurrentStock}
		}

		related := d.ID
		return s.charge(ctx, billing.ChargeInput{
			PatientID:   in.PatientID,
			Description: fmt.Sprintf("Pharmacy - %s (%dx)", drug.Name, in.Quantity),
			ChargeType:  billing.ChargePharmacy,
			Amount:      d.TotalPrice,
			RelatedID:   &related,
		})
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.ActionCreate, "pharmacy", d.ID.String(),
		fmt.Sprintf("Dispensed %d x %s", d.Quantity, d.DrugName))
	return d, nil
}

// DispenseMultiple hands out several drugs to one patient under a single
// ledger row for the combined total.
func (s *Service) DispenseMultiple(ctx context.Context, in BatchDispenseInput) ([]*Dispense, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	// Repeated drugs are merged so the stock check sees the full quantity.
	var order []uuid.UUID
	want := make(map[uuid.UUID]int, len(in.Items))
	for _, it := range in.Items {
		if _, seen := want[it.DrugID]; !seen {
			order = append(order, it.DrugID)
		}
		want[it.DrugID] += it.Quantity
	}

	var out []*Dispense
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		drugs, err := s.repo.LockDrugs(ctx, order)
		if err != nil {
			return err
		}
		if len(drugs) != len(order) {
			return ErrDrugsNotFound
		}
		byID := make(map[uuid.UUID]*Drug, len(drugs))
		for _, d := range drugs {
			byID[d.ID] = d
		}
		for _, id := range order {
			if d := byID[id]; d.CurrentStock < want[id] {
				return &StockError{Drug: d.Name, Available: d.CurrentStock}
			}
		}

		by := dispenser(ctx)
		var total float64
		out = make([]*Dispense, 0, len(order))
		for _, id := range order {
			drug := byID[id]
			d := &Dispense{
				DrugID:      drug.ID,
				PatientID:   in.PatientID,
				Quantity:    want[id],
				UnitPrice:   drug.Price,
				TotalPrice:  billing.RoundAmount(drug.Price * float64(want[id])),
				DispensedBy: by,
				Notes:       in.Notes,
				DrugName:    drug.Name,
			}
			if err := s.repo.CreateDispense(ctx, d); err != nil {
				return err
			}
			ok, err := s.repo.TakeStock(ctx, drug.ID, d.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &StockError{Drug: drug.Name, Available: drug.CurrentStock}
			}
			total += d.TotalPrice
			out = append(out, d)
		}

		return s.charge(ctx, billing.ChargeInput{
			PatientID:   in.PatientID,
			Description: fmt.Sprintf("Pharmacy - %d drug(s) dispensed", len(out)),
			ChargeType:  billing.ChargePharmacy,
			Amount:      billing.RoundAmount(total),
		})
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.ActionCreate, "pharmacy", in.PatientID.String(),
		fmt.Sprintf("Dispensed %d drug(s)", len(out)))
	return out, nil
}

func (s *Service) DispenseHistory(ctx context.Context, f HistoryFilter, limit, offset int) ([]*Dispense, int, error) {
	if f.Start != nil && f.End != nil && !f.Start.Before(*f.End) {
		return nil, 0, validate.Fail("end_date", "end_date must be after start_date")
	}
	return s.repo.ListDispenses(ctx, f, limit, offset)
}
