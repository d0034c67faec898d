package planning

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/liftplan/liftplan/internal/platform/httpx"
)

// Handler wires the plan ledger endpoints.
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

func (h *Handler) createQuarterlyPlan(w http.ResponseWriter, r *http.Request) {
	var req createQuarterlyPlanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.service.CreateQuarterlyPlan(r.Context(), CreateQuarterlyPlanInput{
		ContractID:   req.ContractID,
		ProductName:  req.ProductName,
		ContractYear: req.ContractYear,
		Q1:           req.Q1,
		Q2:           req.Q2,
		Q3:           req.Q3,
		Q4:           req.Q4,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toQuarterlyPlanResponse(plan))
}

func (h *Handler) getQuarterlyPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.service.GetQuarterlyPlan(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toQuarterlyPlanResponse(plan))
}

func (h *Handler) updateQuarterlyPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateQuarterlyPlanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.service.UpdateQuarterlyPlan(r.Context(), id, UpdateQuarterlyPlanInput{
		Version: req.Version,
		Q1:      req.Q1,
		Q2:      req.Q2,
		Q3:      req.Q3,
		Q4:      req.Q4,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toQuarterlyPlanResponse(plan))
}

func (h *Handler) deleteQuarterlyPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	version, err := queryVersion(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteQuarterlyPlan(r.Context(), id, version); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAdjustments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	adjs, err := h.service.ListAdjustments(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAdjustmentResponses(adjs))
}

func (h *Handler) createMonthlyPlan(w http.ResponseWriter, r *http.Request) {
	var req createMonthlyPlanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.service.CreateMonthlyPlan(r.Context(), CreateMonthlyPlanInput{
		ContractID:      req.ContractID,
		QuarterlyPlanID: req.QuarterlyPlanID,
		ProductName:     req.ProductName,
		Month:           req.Month,
		Year:            req.Year,
		Quantity:        req.Quantity,
		DeliveryMonth:   req.DeliveryMonth,
		DeliveryYear:    req.DeliveryYear,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toMonthlyPlanResponse(plan))
}

func (h *Handler) getMonthlyPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.service.GetMonthlyPlan(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMonthlyPlanResponse(plan))
}

func (h *Handler) updateMonthlyPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateMonthlyPlanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.service.UpdateMonthlyPlan(r.Context(), id, UpdateMonthlyPlanInput{
		Version:       req.Version,
		Quantity:      req.Quantity,
		Month:         req.Month,
		Year:          req.Year,
		DeliveryMonth: req.DeliveryMonth,
		DeliveryYear:  req.DeliveryYear,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMonthlyPlanResponse(plan))
}

func (h *Handler) deleteMonthlyPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	version, err := queryVersion(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteMonthlyPlan(r.Context(), id, version); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) moveMonthlyPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req moveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.Move(r.Context(), id, MoveInput{
		Action:       MoveAction(req.Action),
		TargetMonth:  req.TargetMonth,
		TargetYear:   req.TargetYear,
		Reason:       req.Reason,
		AuthorityRef: req.AuthorityRef,
		Version:      req.Version,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, moveResponse{
		Plan:         toMonthlyPlanResponse(res.Plan),
		MoveID:       res.MoveID.String(),
		SnapshotID:   res.SnapshotID.String(),
		CrossQuarter: res.CrossQuarter,
	})
}

func (h *Handler) addTopUp(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req topUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	plan, err := h.service.AddAuthorityTopUp(r.Context(), id, TopUpInput{
		Quantity:     req.Quantity,
		AuthorityRef: req.AuthorityRef,
		Reason:       req.Reason,
		Date:         req.Date,
		Version:      req.Version,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMonthlyPlanResponse(plan))
}

func (h *Handler) listContractQuarterlyPlans(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	plans, err := h.service.ListQuarterlyPlans(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]quarterlyPlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toQuarterlyPlanResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listContractMonthlyPlans(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	plans, err := h.service.ListMonthlyPlans(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]monthlyPlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toMonthlyPlanResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.ErrValidation
	}
	return id, nil
}

func queryVersion(r *http.Request) (int64, error) {
	v, err := strconv.ParseInt(r.URL.Query().Get("version"), 10, 64)
	if err != nil || v <= 0 {
		return 0, httpx.ErrValidation
	}
	return v, nil
}
