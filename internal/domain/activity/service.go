package activity

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/middleware"
)

// Service writes the activity log. Failures to write are logged and never
// surface to the operation being recorded.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record stores one activity row attributed to the caller in ctx.
func (s *Service) Record(ctx context.Context, action, module, recordID, description string) {
	if s == nil || s.repo == nil {
		return
	}
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		userID = "system"
	}

	// The caller's request may be cancelled and its transaction may still roll
	// back; the log row is written on the pool, outside both.
	wctx, cancel := context.WithTimeout(db.WithoutTx(context.WithoutCancel(ctx)), 5*time.Second)
	defer cancel()

	e := &Entry{
		UserID:      userID,
		Action:      action,
		Module:      module,
		RecordID:    recordID,
		Description: description,
	}
	if err := s.repo.Create(wctx, e); err != nil {
		s.logger.Warn().Err(err).
			Str("module", module).
			Str("action", action).
			Str("record_id", recordID).
			Msg("failed to write activity log")
	}
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// RecordAccess implements middleware.AuditRecorder. Only refused requests
// are kept in the activity log; everything else is already in the request log.
func (s *Service) RecordAccess(entry middleware.AuditEntry) error {
	if entry.StatusCode != http.StatusForbidden {
		return nil
	}
	userID := entry.UserID
	if userID == "" {
		userID = "anonymous"
	}
	return s.repo.Create(context.Background(), &Entry{
		UserID:      userID,
		Action:      ActionDenied,
		Module:      entry.Module,
		RecordID:    entry.RecordID,
		Description: entry.Method + " " + entry.Path,
	})
}
