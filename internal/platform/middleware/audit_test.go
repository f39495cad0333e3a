package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
)

type mockRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (m *mockRecorder) RecordAccess(entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func newTestContext(method, path string, opts ...func(*http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withAuth(userID string, roles ...string) func(*http.Request) {
	return func(req *http.Request) {
		*req = *req.WithContext(auth.WithPrincipal(req.Context(), userID, roles...))
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestAudit_RecordsPatientRead(t *testing.T) {
	rec := &mockRecorder{}
	id := uuid.New().String()
	c, _ := newTestContext(http.MethodGet, "/api/v1/patients/"+id, withAuth("nurse-1", auth.RoleNurse))
	c.Set("request_id", "req-123")

	if err := Audit(zerolog.New(os.Stderr), rec)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("expected 1 entry, got %d", rec.count())
	}

	entry := rec.entries[0]
	if entry.Module != "patients" || entry.RecordID != id {
		t.Errorf("unexpected module/record: %s %s", entry.Module, entry.RecordID)
	}
	if entry.Action != "read" || entry.UserID != "nurse-1" || entry.RequestID != "req-123" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", entry.StatusCode)
	}
}

func TestAudit_ActionFromMethod(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{http.MethodGet, "read"},
		{http.MethodPost, "create"},
		{http.MethodPut, "update"},
		{http.MethodPatch, "update"},
		{http.MethodDelete, "delete"},
	}
	for _, tt := range tests {
		rec := &mockRecorder{}
		c, _ := newTestContext(tt.method, "/api/v1/drugs")
		_ = Audit(zerolog.Nop(), rec)(okHandler)(c)
		if got := rec.entries[0].Action; got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.method, tt.want, got)
		}
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newTestContext(http.MethodGet, "/health")
	_ = Audit(zerolog.Nop(), rec)(okHandler)(c)
	if rec.count() != 0 {
		t.Errorf("expected /health not to be audited, got %d entries", rec.count())
	}
}

func TestAudit_RecorderErrorDoesNotFailRequest(t *testing.T) {
	rec := &mockRecorder{err: errors.New("disk full")}
	c, _ := newTestContext(http.MethodPost, "/api/v1/appointments")
	if err := Audit(zerolog.Nop(), rec)(okHandler)(c); err != nil {
		t.Fatalf("expected request to succeed, got %v", err)
	}
}

func TestAudit_HTTPErrorStatus(t *testing.T) {
	rec := &mockRecorder{}
	c, _ := newTestContext(http.MethodGet, "/api/v1/billing")
	_ = Audit(zerolog.Nop(), rec)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "required role: accountant")
	})(c)
	if rec.entries[0].StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.entries[0].StatusCode)
	}
}

func TestSplitAPIPath(t *testing.T) {
	id := uuid.New().String()
	tests := []struct {
		path       string
		wantModule string
		wantID     string
	}{
		{"/api/v1/patients", "patients", ""},
		{"/api/v1/patients/" + id, "patients", id},
		{"/api/v1/admissions/" + id + "/discharge", "admissions", id},
		{"/api/v1/drugs/low-stock", "drugs", ""},
		{"/api/v1/", "unknown", ""},
	}
	for _, tt := range tests {
		module, rid := splitAPIPath(tt.path)
		if module != tt.wantModule || rid != tt.wantID {
			t.Errorf("splitAPIPath(%q) = %q, %q; want %q, %q", tt.path, module, rid, tt.wantModule, tt.wantID)
		}
	}
}
