package ward

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	read := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse)
	admin := auth.RequireRole(auth.RoleAdmin)

	api.GET("/wards", h.ListWards, read)
	api.POST("/wards", h.CreateWard, admin)
	api.PUT("/wards/:id", h.UpdateWard, admin)

	api.GET("/beds", h.ListBeds, read)
	api.POST("/beds", h.CreateBed, auth.RequireRole(auth.RoleNurse))
	api.PUT("/beds/:id/status", h.UpdateBedStatus, auth.RequireRole(auth.RoleNurse, auth.RoleDoctor))

	api.GET("/admissions", h.ListAdmissions, read)
	api.POST("/admissions", h.CreateAdmission, auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	api.POST("/admissions/:id/discharge", h.DischargePatient, auth.RequireRole(auth.RoleDoctor))
}

func (h *Handler) ListWards(c echo.Context) error {
	items, err := h.svc.ListWards(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*Ward{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateWard(c echo.Context) error {
	var in CreateWardInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	w, err := h.svc.CreateWard(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) UpdateWard(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in UpdateWardInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	w, err := h.svc.UpdateWard(c.Request().Context(), id, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) ListBeds(c echo.Context) error {
	var wardID *uuid.UUID
	if v := c.QueryParam("ward_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid ward_id")
		}
		wardID = &id
	}
	items, err := h.svc.ListBeds(c.Request().Context(), wardID)
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*Bed{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateBed(c echo.Context) error {
	var in CreateBedInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	b, err := h.svc.CreateBed(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, b)
}

type bedStatusRequest struct {
	IsOccupied *bool `json:"is_occupied"`
}

func (h *Handler) UpdateBedStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req bedStatusRequest
	if err := c.Bind(&req); err != nil || req.IsOccupied == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "is_occupied is required")
	}
	if err := h.svc.UpdateBedStatus(c.Request().Context(), id, *req.IsOccupied); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListAdmissions(c echo.Context) error {
	items, err := h.svc.ListAdmissions(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*Admission{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateAdmission(c echo.Context) error {
	var in AdmissionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.CreateAdmission(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) DischargePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.DischargePatient(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func mapError(err error) error {
	switch {
	case validate.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrWardNotFound), errors.Is(err, ErrBedNotFound),
		errors.Is(err, ErrAdmissionNotFound), errors.Is(err, ErrReferenceNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrWardExists), errors.Is(err, ErrBedExists),
		errors.Is(err, ErrBedUnavailable), errors.Is(err, ErrAlreadyDischarged):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
