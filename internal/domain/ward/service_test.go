package ward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
)

type mockRepo struct {
	wards      map[uuid.UUID]*Ward
	beds       map[uuid.UUID]*Bed
	admissions map[uuid.UUID]*Admission
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		wards:      make(map[uuid.UUID]*Ward),
		beds:       make(map[uuid.UUID]*Bed),
		admissions: make(map[uuid.UUID]*Admission),
	}
}

func (m *mockRepo) ListWards(_ context.Context) ([]*Ward, error) {
	var out []*Ward
	for _, w := range m.wards {
		if w.IsActive {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) GetWard(_ context.Context, id uuid.UUID) (*Ward, error) {
	w, ok := m.wards[id]
	if !ok {
		return nil, ErrWardNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *mockRepo) CreateWard(_ context.Context, w *Ward) error {
	for _, existing := range m.wards {
		if existing.Name == w.Name {
			return ErrWardExists
		}
	}
	w.ID = uuid.New()
	m.wards[w.ID] = w
	return nil
}

func (m *mockRepo) UpdateWard(_ context.Context, w *Ward) error {
	for id, existing := range m.wards {
		if id != w.ID && existing.Name == w.Name {
			return ErrWardExists
		}
	}
	m.wards[w.ID] = w
	return nil
}

func (m *mockRepo) ListBeds(_ context.Context, wardID *uuid.UUID) ([]*Bed, error) {
	var out []*Bed
	for _, b := range m.beds {
		if b.IsActive && (wardID == nil || b.WardID == *wardID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockRepo) GetBed(_ context.Context, id uuid.UUID) (*Bed, error) {
	b, ok := m.beds[id]
	if !ok {
		return nil, ErrBedNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockRepo) CreateBed(_ context.Context, b *Bed) error {
	w, ok := m.wards[b.WardID]
	if !ok {
		return ErrWardNotFound
	}
	for _, existing := range m.beds {
		if existing.WardID == b.WardID && existing.BedNumber == b.BedNumber {
			return ErrBedExists
		}
	}
	b.ID = uuid.New()
	b.WardName = w.Name
	m.beds[b.ID] = b
	return nil
}

func (m *mockRepo) SetBedOccupied(_ context.Context, id uuid.UUID, occupied bool) error {
	b, ok := m.beds[id]
	if !ok {
		return ErrBedNotFound
	}
	b.IsOccupied = occupied
	return nil
}

func (m *mockRepo) OccupyBed(_ context.Context, id uuid.UUID) (bool, error) {
	b, ok := m.beds[id]
	if !ok || !b.IsActive || b.IsOccupied {
		return false, nil
	}
	b.IsOccupied = true
	return true, nil
}

func (m *mockRepo) CreateAdmission(_ context.Context, a *Admission) error {
	a.ID = uuid.New()
	cp := *a
	m.admissions[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetAdmission(_ context.Context, id uuid.UUID) (*Admission, error) {
	a, ok := m.admissions[id]
	if !ok {
		return nil, ErrAdmissionNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Discharge(_ context.Context, id uuid.UUID, at time.Time) error {
	a, ok := m.admissions[id]
	if !ok || a.Status != AdmissionAdmitted {
		return ErrAlreadyDischarged
	}
	a.Status = AdmissionDischarged
	a.DischargeDate = &at
	return nil
}

func (m *mockRepo) ListAdmissions(_ context.Context, status string) ([]*Admission, error) {
	var out []*Admission
	for _, a := range m.admissions {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) RecentForPatient(_ context.Context, patientID uuid.UUID, limit int) ([]*Admission, error) {
	var out []*Admission
	for _, a := range m.admissions {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockCharger struct {
	charges []billing.ChargeInput
	err     error
}

func (m *mockCharger) AddCharge(_ context.Context, in billing.ChargeInput) (*billing.Charge, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.charges = append(m.charges, in)
	return &billing.Charge{ID: uuid.New()}, nil
}

type inlineTx struct{}

func (inlineTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var fixedNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockRepo, *mockCharger) {
	repo := newMockRepo()
	charger := &mockCharger{}
	svc := NewService(repo, charger, inlineTx{}, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, charger
}

func seedBed(t *testing.T, svc *Service, price *float64) (*Ward, *Bed) {
	t.Helper()
	ctx := context.Background()
	w, err := svc.CreateWard(ctx, CreateWardInput{Name: "General Ward", WardType: "general", TotalBeds: 20})
	if err != nil {
		t.Fatalf("create ward: %v", err)
	}
	b, err := svc.CreateBed(ctx, CreateBedInput{WardID: w.ID, BedNumber: "G01", BedType: "standard", PricePerDay: price})
	if err != nil {
		t.Fatalf("create bed: %v", err)
	}
	return w, b
}

func TestCreateBed_DefaultsAndDuplicates(t *testing.T) {
	svc, _, _ := newTestService()
	w, b := seedBed(t, svc, nil)
	if b.PricePerDay != DefaultBedPrice {
		t.Errorf("expected default price %d, got %v", DefaultBedPrice, b.PricePerDay)
	}
	_, err := svc.CreateBed(context.Background(), CreateBedInput{WardID: w.ID, BedNumber: "G01", BedType: "standard"})
	if !errors.Is(err, ErrBedExists) || err.Error() != "Bed number already exists in this ward" {
		t.Fatalf("expected ErrBedExists, got %v", err)
	}
}

func TestCreateWard_Duplicate(t *testing.T) {
	svc, _, _ := newTestService()
	seedBed(t, svc, nil)
	_, err := svc.CreateWard(context.Background(), CreateWardInput{Name: "General Ward", WardType: "general"})
	if !errors.Is(err, ErrWardExists) {
		t.Fatalf("expected ErrWardExists, got %v", err)
	}
}

func TestCreateAdmission_ChargesAndOccupies(t *testing.T) {
	svc, repo, charger := newTestService()
	price := 2000.0
	_, b := seedBed(t, svc, &price)

	a, err := svc.CreateAdmission(context.Background(), AdmissionInput{
		PatientID: uuid.New(), BedID: b.ID, Reason: "Observation", AdmittingDoctorID: uuid.New(), ExpectedDays: 3,
	})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if !repo.beds[b.ID].IsOccupied {
		t.Error("expected bed to be occupied")
	}
	if a.TotalBedCharges != 6000 {
		t.Errorf("expected 6000 in charges, got %v", a.TotalBedCharges)
	}
	if a.ExpectedDischargeDate == nil || !a.ExpectedDischargeDate.Equal(fixedNow.Add(72*time.Hour)) {
		t.Errorf("unexpected expected discharge date %v", a.ExpectedDischargeDate)
	}
	if len(charger.charges) != 1 {
		t.Fatalf("expected 1 charge, got %d", len(charger.charges))
	}
	c := charger.charges[0]
	if c.Description != "Ward Admission - General Ward (Bed G01) - 3 day(s)" || c.ChargeType != billing.ChargeAdmission {
		t.Errorf("unexpected charge: %+v", c)
	}
}

func TestCreateAdmission_NoDaysNoCharge(t *testing.T) {
	svc, _, charger := newTestService()
	_, b := seedBed(t, svc, nil)
	a, err := svc.CreateAdmission(context.Background(), AdmissionInput{
		PatientID: uuid.New(), BedID: b.ID, Reason: "Observation", AdmittingDoctorID: uuid.New(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.TotalBedCharges != 0 || a.ExpectedDischargeDate != nil || len(charger.charges) != 0 {
		t.Errorf("expected no charge and no expected discharge, got %+v", a)
	}
}

func TestCreateAdmission_BedUnavailable(t *testing.T) {
	svc, repo, _ := newTestService()
	_, b := seedBed(t, svc, nil)
	in := AdmissionInput{PatientID: uuid.New(), BedID: b.ID, Reason: "Observation", AdmittingDoctorID: uuid.New()}

	if _, err := svc.CreateAdmission(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	in.PatientID = uuid.New()
	if _, err := svc.CreateAdmission(context.Background(), in); !errors.Is(err, ErrBedUnavailable) {
		t.Errorf("occupied bed: expected ErrBedUnavailable, got %v", err)
	}

	in.BedID = uuid.New()
	if _, err := svc.CreateAdmission(context.Background(), in); !errors.Is(err, ErrBedUnavailable) {
		t.Errorf("unknown bed: expected ErrBedUnavailable, got %v", err)
	}

	_, other := seedBedInWard(t, svc, repo, "ICU", "I01")
	repo.beds[other.ID].IsActive = false
	in.BedID = other.ID
	if _, err := svc.CreateAdmission(context.Background(), in); !errors.Is(err, ErrBedUnavailable) {
		t.Errorf("inactive bed: expected ErrBedUnavailable, got %v", err)
	}
}

func seedBedInWard(t *testing.T, svc *Service, repo *mockRepo, ward, number string) (*Ward, *Bed) {
	t.Helper()
	w, err := svc.CreateWard(context.Background(), CreateWardInput{Name: ward, WardType: "icu"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.CreateBed(context.Background(), CreateBedInput{WardID: w.ID, BedNumber: number, BedType: "icu"})
	if err != nil {
		t.Fatal(err)
	}
	return w, b
}

func TestDischargePatient(t *testing.T) {
	svc, repo, _ := newTestService()
	_, b := seedBed(t, svc, nil)
	a, _ := svc.CreateAdmission(context.Background(), AdmissionInput{
		PatientID: uuid.New(), BedID: b.ID, Reason: "Observation", AdmittingDoctorID: uuid.New(),
	})

	got, err := svc.DischargePatient(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("discharge: %v", err)
	}
	if got.Status != AdmissionDischarged || got.DischargeDate == nil {
		t.Errorf("unexpected admission: %+v", got)
	}
	if repo.beds[b.ID].IsOccupied {
		t.Error("expected bed to be freed")
	}

	if _, err := svc.DischargePatient(context.Background(), a.ID); !errors.Is(err, ErrAlreadyDischarged) {
		t.Errorf("expected ErrAlreadyDischarged, got %v", err)
	}
	if _, err := svc.DischargePatient(context.Background(), uuid.New()); !errors.Is(err, ErrAdmissionNotFound) {
		t.Errorf("expected ErrAdmissionNotFound, got %v", err)
	}
}

func TestUpdateBedStatus(t *testing.T) {
	svc, repo, _ := newTestService()
	_, b := seedBed(t, svc, nil)

	if err := svc.UpdateBedStatus(context.Background(), b.ID, true); err != nil {
		t.Fatalf("mark occupied: %v", err)
	}
	if !repo.beds[b.ID].IsOccupied {
		t.Error("expected bed to be occupied")
	}
	if err := svc.UpdateBedStatus(context.Background(), b.ID, false); err != nil {
		t.Fatalf("mark free: %v", err)
	}
	if repo.beds[b.ID].IsOccupied {
		t.Error("expected bed to be free")
	}

	if err := svc.UpdateBedStatus(context.Background(), uuid.New(), true); !errors.Is(err, ErrBedNotFound) {
		t.Errorf("expected ErrBedNotFound, got %v", err)
	}
}

func TestListWards_Occupancy(t *testing.T) {
	svc, repo, _ := newTestService()
	w, b := seedBed(t, svc, nil)
	_, _ = svc.CreateBed(context.Background(), CreateBedInput{WardID: w.ID, BedNumber: "G02", BedType: "standard"})
	repo.beds[b.ID].IsOccupied = true

	wards, err := svc.ListWards(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(wards) != 1 {
		t.Fatalf("expected 1 ward, got %d", len(wards))
	}
	if wards[0].OccupiedBeds != 1 || wards[0].AvailableBeds != 1 || len(wards[0].Beds) != 2 {
		t.Errorf("unexpected occupancy: %+v", wards[0])
	}
}

func TestListAdmissions_BadStatus(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.ListAdmissions(context.Background(), "transferred"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCreateAdmission_ChargeFailureAborts(t *testing.T) {
	svc, _, charger := newTestService()
	_, b := seedBed(t, svc, nil)
	charger.err = billing.ErrPatientNotFound
	_, err := svc.CreateAdmission(context.Background(), AdmissionInput{
		PatientID: uuid.New(), BedID: b.ID, Reason: "Observation", AdmittingDoctorID: uuid.New(), ExpectedDays: 1,
	})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
}
