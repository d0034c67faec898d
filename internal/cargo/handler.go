package cargo

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/liftplan/liftplan/internal/platform/httpx"
)

// Handler wires the cargo endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers cargo routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/cargoes", func(r chi.Router) {
		r.Post("/", h.createCargo)
		r.Get("/by-plan/{planID}", h.cargoForPlan)
		r.Get("/{id}", h.getCargo)
		r.Post("/{id}/status", h.transitionCargo)
	})
}

type createCargoRequest struct {
	Code          string          `json:"code" validate:"required"`
	MonthlyPlanID int64           `json:"monthly_plan_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	LaycanStart   *time.Time      `json:"laycan_start"`
	LaycanEnd     *time.Time      `json:"laycan_end"`
	Berth         string          `json:"berth"`
	Vessel        string          `json:"vessel"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=PLANNED NOMINATED LOADING COMPLETED CANCELLED"`
}

type cargoResponse struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	MonthlyPlanID int64           `json:"monthly_plan_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Status        Status          `json:"status"`
	LaycanStart   *time.Time      `json:"laycan_start,omitempty"`
	LaycanEnd     *time.Time      `json:"laycan_end,omitempty"`
	Berth         string          `json:"berth,omitempty"`
	Vessel        string          `json:"vessel,omitempty"`
}

func toCargoResponse(c Cargo) cargoResponse {
	return cargoResponse{
		ID:            c.ID,
		Code:          c.Code,
		MonthlyPlanID: c.MonthlyPlanID,
		Quantity:      c.Quantity,
		Status:        c.Status,
		LaycanStart:   c.LaycanStart,
		LaycanEnd:     c.LaycanEnd,
		Berth:         c.Berth,
		Vessel:        c.Vessel,
	}
}

func (h *Handler) createCargo(w http.ResponseWriter, r *http.Request) {
	var req createCargoRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), Cargo{
		Code:          req.Code,
		MonthlyPlanID: req.MonthlyPlanID,
		Quantity:      req.Quantity,
		LaycanStart:   req.LaycanStart,
		LaycanEnd:     req.LaycanEnd,
		Berth:         req.Berth,
		Vessel:        req.Vessel,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCargoResponse(created))
}

func (h *Handler) getCargo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCargoResponse(c))
}

func (h *Handler) transitionCargo(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.Transition(r.Context(), id, Status(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCargoResponse(updated))
}

func (h *Handler) cargoForPlan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	link, err := h.service.ForMonthlyPlan(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !link.Exists {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	c, err := h.service.Get(r.Context(), link.CargoID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCargoResponse(c))
}
