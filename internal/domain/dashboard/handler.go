package dashboard

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.Overview, auth.RequireAuthenticated())
}

func (h *Handler) Overview(c echo.Context) error {
	o, err := h.svc.Overview(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

// countedModules are the /api/v1 path segments whose writes move a dashboard
// count.
var countedModules = map[string]bool{
	"patients":     true,
	"appointments": true,
	"beds":         true,
	"admissions":   true,
	"drugs":        true,
	"dispenses":    true,
	"billing":      true,
}

// InvalidateOnWrite drops the cached overview after a successful write to a
// module that feeds it, so the dashboard does not lag behind for a full TTL.
func (h *Handler) InvalidateOnWrite() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil || c.Request().Method == http.MethodGet || c.Response().Status >= 400 {
				return err
			}
			rest := strings.TrimPrefix(c.Request().URL.Path, "/api/v1/")
			if i := strings.IndexByte(rest, '/'); i >= 0 {
				rest = rest[:i]
			}
			if countedModules[rest] {
				h.svc.Invalidate()
			}
			return nil
		}
	}
}
