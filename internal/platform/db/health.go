package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// HealthReport is the body of the database health endpoint.
type HealthReport struct {
	Status        string     `json:"status"`
	Error         string     `json:"error,omitempty"`
	SchemaVersion int        `json:"schema_version"`
	Pool          *PoolStats `json:"pool"`
}

// HealthHandler pings the database and reports the latest applied migration
// in schema alongside pool statistics.
func HealthHandler(pool *pgxpool.Pool, schema string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		report := &HealthReport{Status: "healthy", Pool: GetPoolStats(pool)}

		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, unhealthy(report, err))
		}

		var version *int
		err := pool.QueryRow(ctx,
			"SELECT max(version) FROM "+schemaOrPublic(schema)+"._migrations").Scan(&version)
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, unhealthy(report, err))
		}
		if version != nil {
			report.SchemaVersion = *version
		}

		return c.JSON(http.StatusOK, report)
	}
}

func unhealthy(r *HealthReport, err error) *HealthReport {
	r.Status = "unhealthy"
	r.Error = err.Error()
	r.Pool.Healthy = false
	return r
}

func schemaOrPublic(schema string) string {
	if schema == "" {
		return "public"
	}
	return schema
}
