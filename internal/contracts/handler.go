package contracts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/liftplan/liftplan/internal/platform/httpx"
)

// Reader is the read surface the handler needs.
type Reader interface {
	Get(ctx context.Context, id int64) (Contract, error)
	List(ctx context.Context) ([]Contract, error)
}

// Handler serves the read-only contract endpoints. Contract master data is
// loaded by an upstream system; this service only consumes it.
type Handler struct {
	logger *slog.Logger
	repo   Reader
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, repo Reader) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers contract routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/contracts", h.listContracts)
	r.Get("/contracts/{id}", h.getContract)
}

type productResponse struct {
	Name             string          `json:"name"`
	Mode             QuantityMode    `json:"mode"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	MinQuantity      decimal.Decimal `json:"min_quantity"`
	MaxQuantity      decimal.Decimal `json:"max_quantity"`
	OptionalQuantity decimal.Decimal `json:"optional_quantity"`
}

type contractResponse struct {
	ID               int64             `json:"id"`
	Code             string            `json:"code"`
	CustomerName     string            `json:"customer_name"`
	Category         Category          `json:"category"`
	DeliveryTerm     DeliveryTerm      `json:"delivery_term"`
	FiscalStartMonth int               `json:"fiscal_start_month"`
	StartDate        time.Time         `json:"start_date"`
	EndDate          time.Time         `json:"end_date"`
	Products         []productResponse `json:"products"`
}

func toContractResponse(c Contract) contractResponse {
	products := make([]productResponse, 0, len(c.Products))
	for _, p := range c.Products {
		products = append(products, productResponse{
			Name:             p.Name,
			Mode:             p.Mode,
			TotalQuantity:    p.TotalQuantity,
			MinQuantity:      p.MinQuantity,
			MaxQuantity:      p.MaxQuantity,
			OptionalQuantity: p.OptionalQuantity,
		})
	}
	return contractResponse{
		ID:               c.ID,
		Code:             c.Code,
		CustomerName:     c.CustomerName,
		Category:         c.Category,
		DeliveryTerm:     c.DeliveryTerm,
		FiscalStartMonth: c.FiscalStartMonth,
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		Products:         products,
	}
}

func (h *Handler) listContracts(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]contractResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toContractResponse(c))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getContract(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrContractNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toContractResponse(c))
}
