package pharmacy

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/validate"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := auth.RequireRole(auth.RolePharmacist, auth.RoleDoctor, auth.RoleNurse)
	write := auth.RequireRole(auth.RolePharmacist)

	api.GET("/drugs", h.ListDrugs, read)
	api.POST("/drugs", h.CreateDrug, write)
	api.GET("/drugs/search", h.SearchDrugs, read)
	api.GET("/drugs/low-stock", h.LowStock, read)
	api.GET("/drugs/stats", h.Stats, read)
	api.GET("/drugs/:id", h.GetDrug, read)
	api.PUT("/drugs/:id", h.UpdateDrug, write)
	api.DELETE("/drugs/:id", h.DeleteDrug, auth.RequireRole(auth.RoleAdmin))
	api.POST("/drugs/:id/stock", h.UpdateStock, write)

	api.GET("/dispenses", h.History, read)
	api.POST("/dispenses", h.Dispense, write)
	api.POST("/dispenses/batch", h.DispenseBatch, write)
}

func drugID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func drugList(items []*Drug) []*Drug {
	if items == nil {
		return []*Drug{}
	}
	return items
}

func (h *Handler) ListDrugs(c echo.Context) error {
	items, err := h.svc.ListDrugs(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, drugList(items))
}

func (h *Handler) SearchDrugs(c echo.Context) error {
	items, err := h.svc.SearchDrugs(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, drugList(items))
}

func (h *Handler) LowStock(c echo.Context) error {
	items, err := h.svc.LowStockDrugs(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, drugList(items))
}

func (h *Handler) Stats(c echo.Context) error {
	st, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) GetDrug(c echo.Context) error {
	id, err := drugID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDrug(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDrug(c echo.Context) error {
	var in DrugInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.CreateDrug(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDrug(c echo.Context) error {
	id, err := drugID(c)
	if err != nil {
		return err
	}
	var in DrugInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.UpdateDrug(c.Request().Context(), id, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDrug(c echo.Context) error {
	id, err := drugID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDrug(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateStock(c echo.Context) error {
	id, err := drugID(c)
	if err != nil {
		return err
	}
	var in StockInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.UpdateStock(c.Request().Context(), id, in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func parseHistoryFilter(c echo.Context) (HistoryFilter, error) {
	var f HistoryFilter
	for _, p := range []struct {
		name string
		dst  **uuid.UUID
	}{{"patient_id", &f.PatientID}, {"drug_id", &f.DrugID}} {
		if v := c.QueryParam(p.name); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return f, echo.NewHTTPError(http.StatusBadRequest, "invalid "+p.name)
			}
			*p.dst = &id
		}
	}
	if v := c.QueryParam("start_date"); v != "" {
		t, err := validate.ParseDate(v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "start_date must be a date in YYYY-MM-DD format")
		}
		f.Start = &t
	}
	if v := c.QueryParam("end_date"); v != "" {
		t, err := validate.ParseDate(v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "end_date must be a date in YYYY-MM-DD format")
		}
		// end_date is inclusive
		end := t.Add(24 * time.Hour)
		f.End = &end
	}
	return f, nil
}

func (h *Handler) History(c echo.Context) error {
	f, err := parseHistoryFilter(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.DispenseHistory(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Dispense(c echo.Context) error {
	var in DispenseInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.DispenseDrug(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) DispenseBatch(c echo.Context) error {
	var in BatchDispenseInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	items, err := h.svc.DispenseMultiple(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, items)
}

func mapError(err error) error {
	switch {
	case validate.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDrugNotFound), errors.Is(err, ErrDrugsNotFound), errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDrugExists), errors.Is(err, ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
