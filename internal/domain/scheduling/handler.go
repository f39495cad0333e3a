package scheduling

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/validate"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointments", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RoleReceptionist))
	g.GET("", h.List)
	g.GET("/today", h.Today)
	g.GET("/stats", h.Stats)
	g.GET("/availability", h.Availability)
	g.GET("/:id", h.Get)

	write := auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist)
	g.POST("", h.Create, write)
	g.PUT("/:id/status", h.UpdateStatus, write)
	g.PUT("/:id/reschedule", h.Reschedule, write)

	api.GET("/visits", h.Visits, auth.RequireRole(auth.RoleDoctor))
}

// List serves a date range when start is given and a search otherwise.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	if start := c.QueryParam("start"); start != "" {
		from, err := validate.ParseDate(start)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start date")
		}
		to := from
		if end := c.QueryParam("end"); end != "" {
			if to, err = validate.ParseDate(end); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid end date")
			}
		}
		items, err := h.svc.ByDateRange(ctx, from, to)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(http.StatusOK, nonNil(items))
	}

	items, err := h.svc.Search(ctx, c.QueryParam("q"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

func (h *Handler) Today(c echo.Context) error {
	items, err := h.svc.TodayAppointments(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, nonNil(items))
}

func (h *Handler) Stats(c echo.Context) error {
	st, err := h.svc.Statistics(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) Availability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}
	date, err := validate.ParseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}
	duration := 0
	if v := c.QueryParam("duration"); v != "" {
		if duration, err = strconv.Atoi(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid duration")
		}
	}
	slots, err := h.svc.AvailableSlots(c.Request().Context(), doctorID, date, duration)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, slots)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in RescheduleInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.Reschedule(c.Request().Context(), id, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Visits(c echo.Context) error {
	v, err := h.svc.DoctorVisits(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func nonNil(items []*Appointment) []*Appointment {
	if items == nil {
		return []*Appointment{}
	}
	return items
}

func mapError(err error) error {
	switch {
	case validate.IsValidation(err), errors.Is(err, doctor.ErrScheduleNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAppointmentNotFound), errors.Is(err, ErrPatientNotFound),
		errors.Is(err, doctor.ErrDoctorNotFound), errors.Is(err, ErrNotADoctor):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSlotConflict), errors.Is(err, ErrRescheduleConflict), errors.Is(err, ErrFinalStatus):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
