package scheduling

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHandler_Create_Conflict(t *testing.T) {
	f := newFixture(t, 0)
	if _, err := f.book(t, monday, "10:00", 30); err != nil {
		t.Fatal(err)
	}
	h := NewHandler(f.svc)
	e := echo.New()

	body := `{"patient_id":"6f1c1f4e-1111-4c6b-9a9a-1234567890ab","doctor_id":"` + f.doc.ID.String() +
		`","appointment_date":"` + monday + `","appointment_time":"10:15","reason":"Cough"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	err := h.Create(e.NewContext(req, httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_Availability(t *testing.T) {
	f := newFixture(t, 0)
	h := NewHandler(f.svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/appointments/availability?doctor_id="+f.doc.ID.String()+"&date="+monday, nil)
	rec := httptest.NewRecorder()
	if err := h.Availability(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `{"time":"09:00","available":true}`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_Availability_DayOff(t *testing.T) {
	f := newFixture(t, 0)
	h := NewHandler(f.svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/appointments/availability?doctor_id="+f.doc.ID.String()+"&date=2026-10-18", nil)
	err := h.Availability(e.NewContext(req, httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_List_RangeAndSearch(t *testing.T) {
	f := newFixture(t, 0)
	_, _ = f.book(t, monday, "10:00", 30)
	_, _ = f.book(t, "2026-10-22", "10:00", 30)
	h := NewHandler(f.svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/appointments?start="+monday+"&end=2026-10-20", nil)
	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if strings.Count(rec.Body.String(), `"id"`) != 1 {
		t.Errorf("expected 1 appointment in range: %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/appointments?q=nomatch", nil)
	rec = httptest.NewRecorder()
	if err := h.List(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}
