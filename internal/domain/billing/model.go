package billing

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	ChargeAppointment = "appointment"
	ChargeAdmission   = "admission"
	ChargePharmacy    = "pharmacy"
)

var validChargeTypes = map[string]bool{
	ChargeAppointment: true,
	ChargeAdmission:   true,
	ChargePharmacy:    true,
}

// Charge maps to the patient_billing table: one chargeable event for a patient.
type Charge struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	Description string     `db:"description" json:"description"`
	ChargeType  string     `db:"charge_type" json:"charge_type"`
	Amount      float64    `db:"amount" json:"amount"`
	IsPaid      bool       `db:"is_paid" json:"is_paid"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	RelatedID   *uuid.UUID `db:"related_id" json:"related_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`

	// Joined from patient on reads.
	PatientName string `json:"patient_name,omitempty"`
	PatientMRN  string `json:"patient_mrn,omitempty"`
}

// Filter narrows ledger listings. Nil / empty fields match everything.
type Filter struct {
	PatientID  *uuid.UUID
	IsPaid     *bool
	ChargeType string
}

// PatientSummary aggregates a patient's ledger rows.
type PatientSummary struct {
	PatientID    uuid.UUID `json:"patient_id"`
	PatientName  string    `json:"patient_name"`
	PatientMRN   string    `json:"patient_mrn"`
	TotalCharges float64   `json:"total_charges"`
	PaidAmount   float64   `json:"paid_amount"`
	DueAmount    float64   `json:"due_amount"`
	UnpaidCount  int       `json:"unpaid_count"`
	Records      []*Charge `json:"records"`
}

type Stats struct {
	TotalRevenue     float64 `json:"total_revenue"`
	TotalOutstanding float64 `json:"total_outstanding"`
	TodayRevenue     float64 `json:"today_revenue"`
	PendingCount     int     `json:"pending_count"`
}

// RoundAmount rounds a currency amount to cents.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summarize groups charges by patient, preserving the first-seen patient
// order and each patient's row order.
func Summarize(charges []*Charge) []*PatientSummary {
	var out []*PatientSummary
	byPatient := make(map[uuid.UUID]*PatientSummary)
	for _, c := range charges {
		s, ok := byPatient[c.PatientID]
		if !ok {
			s = &PatientSummary{PatientID: c.PatientID, PatientName: c.PatientName, PatientMRN: c.PatientMRN}
			byPatient[c.PatientID] = s
			out = append(out, s)
		}
		s.TotalCharges += c.Amount
		if c.IsPaid {
			s.PaidAmount += c.Amount
		} else {
			s.DueAmount += c.Amount
			s.UnpaidCount++
		}
		s.Records = append(s.Records, c)
	}
	for _, s := range out {
		s.TotalCharges = RoundAmount(s.TotalCharges)
		s.PaidAmount = RoundAmount(s.PaidAmount)
		s.DueAmount = RoundAmount(s.DueAmount)
	}
	return out
}
