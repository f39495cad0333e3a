package billing

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx"

	"github.com/hms/hms/internal/platform/validate"
)

// ChargeInput is a new ledger row. Callers usually run inside an
// appointment, admission or dispense transaction.
type ChargeInput struct {
	PatientID   uuid.UUID  `json:"patient_id" validate:"required"`
	Description string     `json:"description" validate:"required"`
	ChargeType  string     `json:"charge_type" validate:"required,oneof=appointment admission pharmacy"`
	Amount      float64    `json:"amount" validate:"gt=0"`
	RelatedID   *uuid.UUID `json:"related_id"`
}

type Service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

func NewService(repo Repository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, now: time.Now}
}

func (s *Service) AddCharge(ctx context.Context, in ChargeInput) (*Charge, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c := &Charge{
		PatientID:   in.PatientID,
		Description: strings.TrimSpace(in.Description),
		ChargeType:  in.ChargeType,
		Amount:      RoundAmount(in.Amount),
		RelatedID:   in.RelatedID,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListCharges(ctx context.Context, f Filter, limit, offset int) ([]*Charge, int, error) {
	if f.ChargeType != "" && !validChargeTypes[f.ChargeType] {
		return nil, 0, validate.Fail("charge_type", "charge_type must be one of: appointment, admission, pharmacy")
	}
	return s.repo.List(ctx, f, limit, offset)
}

// RecentForPatient returns a patient's newest ledger rows.
func (s *Service) RecentForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Charge, error) {
	return s.repo.ListByPatient(ctx, patientID, limit)
}

func (s *Service) PatientSummaries(ctx context.Context) ([]*PatientSummary, error) {
	charges, err := s.repo.ListAll(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	return Summarize(charges), nil
}

// MarkPaid settles the given rows. Rows that are already paid keep their
// original paid_at.
func (s *Service) MarkPaid(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoCharges
	}
	return s.repo.MarkPaid(ctx, ids, s.now())
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	st, err := s.repo.Stats(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	st.TotalRevenue = RoundAmount(st.TotalRevenue)
	st.TotalOutstanding = RoundAmount(st.TotalOutstanding)
	st.TodayRevenue = RoundAmount(st.TodayRevenue)
	return st, nil
}

var exportHeader = []string{"Date", "MRN", "Patient", "Description", "Type", "Amount", "Status", "Paid At"}

// Export writes the filtered ledger to w as an xlsx workbook with one
// "Billing" sheet.
func (s *Service) Export(ctx context.Context, f Filter, w io.Writer) error {
	charges, err := s.repo.ListAll(ctx, f)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Billing")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	row := sheet.AddRow()
	for _, h := range exportHeader {
		row.AddCell().Value = h
	}

	var total float64
	for _, c := range charges {
		row = sheet.AddRow()
		row.AddCell().Value = c.CreatedAt.In(s.loc).Format("2006-01-02 15:04")
		row.AddCell().Value = c.PatientMRN
		row.AddCell().Value = c.PatientName
		row.AddCell().Value = c.Description
		row.AddCell().Value = c.ChargeType
		row.AddCell().SetFloatWithFormat(c.Amount, "#,##0.00")
		status := "Unpaid"
		paidAt := ""
		if c.IsPaid {
			status = "Paid"
			if c.PaidAt != nil {
				paidAt = c.PaidAt.In(s.loc).Format("2006-01-02 15:04")
			}
		}
		row.AddCell().Value = status
		row.AddCell().Value = paidAt
		total += c.Amount
	}

	row = sheet.AddRow()
	for i := 0; i < 4; i++ {
		row.AddCell()
	}
	row.AddCell().Value = "Total"
	row.AddCell().SetFloatWithFormat(RoundAmount(total), "#,##0.00")

	return file.Write(w)
}
