package db

import (
	"errors"
	"testing"
)

func TestUnhealthy(t *testing.T) {
	report := &HealthReport{Status: "healthy", Pool: &PoolStats{Healthy: true, MaxConns: 20}}

	got := unhealthy(report, errors.New("connection refused"))
	if got.Status != "unhealthy" {
		t.Errorf("expected status unhealthy, got %s", got.Status)
	}
	if got.Error != "connection refused" {
		t.Errorf("expected error message, got %q", got.Error)
	}
	if got.Pool.Healthy {
		t.Error("expected pool marked unhealthy")
	}
	if got.Pool.MaxConns != 20 {
		t.Errorf("expected pool stats preserved, got %d", got.Pool.MaxConns)
	}
}

func TestSchemaOrPublic(t *testing.T) {
	if got := schemaOrPublic(""); got != "public" {
		t.Errorf("expected public, got %s", got)
	}
	if got := schemaOrPublic("hms"); got != "hms" {
		t.Errorf("expected hms, got %s", got)
	}
}
