package cargo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/liftplan/liftplan/internal/platform/httpx"
	"github.com/liftplan/liftplan/internal/shared"
)

// PlanPort is the slice of the planning ledger the cargo service reads.
type PlanPort interface {
	PlanQuantity(ctx context.Context, monthlyPlanID int64) (decimal.Decimal, error)
}

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Cargo, error)
	ForMonthlyPlan(ctx context.Context, planID int64) (Link, error)
	Insert(ctx context.Context, c Cargo) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// AuditPort appends to an entity's audit stream.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// QuantityMismatchError reports a cargo quantity outside the plan tolerance.
type QuantityMismatchError struct {
	CargoQty decimal.Decimal
	PlanQty  decimal.Decimal
}

func (e *QuantityMismatchError) Error() string {
	return fmt.Sprintf("cargo: quantity %s outside tolerance of plan quantity %s", e.CargoQty, e.PlanQty)
}

// Problem renders the structured error.
func (e *QuantityMismatchError) Problem() httpx.ProblemDetail {
	return httpx.ProblemDetail{
		Type:   "cargo-quantity-mismatch",
		Title:  "Cargo Quantity Mismatch",
		Status: http.StatusUnprocessableEntity,
		Detail: e.Error(),
		Extra: map[string]any{
			"cargo_quantity": e.CargoQty,
			"plan_quantity":  e.PlanQty,
			"tolerance":      QuantityTolerance,
		},
	}
}

// Service coordinates cargo creation and status transitions.
type Service struct {
	repo   RepositoryPort
	plans  PlanPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, plans PlanPort, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, plans: plans, audit: audit, logger: logger}
}

// record writes an audit entry, logging and swallowing failures: audit must
// never fail the primary mutation.
func (s *Service) record(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil && s.logger != nil {
		s.logger.Error("audit write failed",
			slog.String("entity", log.Entity),
			slog.Int64("entity_id", log.EntityID),
			slog.String("action", log.Action),
			slog.Any("error", err))
	}
}

// Create registers a cargo against a monthly plan. The cargo quantity must
// match the plan quantity within the relative tolerance.
func (s *Service) Create(ctx context.Context, c Cargo) (Cargo, error) {
	if c.MonthlyPlanID == 0 {
		return Cargo{}, errors.New("cargo: monthly plan required")
	}
	planQty, err := s.plans.PlanQuantity(ctx, c.MonthlyPlanID)
	if err != nil {
		return Cargo{}, fmt.Errorf("resolve plan quantity: %w", err)
	}
	if !WithinTolerance(c.Quantity, planQty) {
		return Cargo{}, &QuantityMismatchError{CargoQty: c.Quantity, PlanQty: planQty}
	}
	if c.Status == "" {
		c.Status = StatusPlanned
	}
	id, err := s.repo.Insert(ctx, c)
	if err != nil {
		return Cargo{}, err
	}
	created, err := s.repo.Get(ctx, id)
	if err != nil {
		return Cargo{}, err
	}
	s.record(ctx, shared.AuditLog{
		Entity:      shared.EntityCargo,
		EntityID:    id,
		Action:      shared.AuditActionCreate,
		Description: fmt.Sprintf("Cargo %s created against monthly plan %d", created.Code, c.MonthlyPlanID),
		Actor:       shared.ActorFromContext(ctx),
		Meta:        map[string]any{"monthly_plan_id": c.MonthlyPlanID, "quantity": c.Quantity},
	})
	return created, nil
}

// Transition moves a cargo to the next status. Terminal states are frozen.
func (s *Service) Transition(ctx context.Context, id int64, target Status) (Cargo, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Cargo{}, err
	}
	if current.Status.Terminal() {
		return Cargo{}, fmt.Errorf("%w: %s", ErrTerminalStatus, current.Status)
	}
	if !validTransition(current.Status, target) {
		return Cargo{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, target)
	}
	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return Cargo{}, err
	}
	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return Cargo{}, err
	}
	s.record(ctx, shared.AuditLog{
		Entity:      shared.EntityCargo,
		EntityID:    id,
		Action:      shared.AuditActionUpdate,
		Field:       "status",
		OldValue:    string(current.Status),
		NewValue:    string(target),
		Description: fmt.Sprintf("Cargo %s status %s -> %s", current.Code, current.Status, target),
		Actor:       shared.ActorFromContext(ctx),
	})
	return updated, nil
}

// Get loads a cargo by id.
func (s *Service) Get(ctx context.Context, id int64) (Cargo, error) {
	return s.repo.Get(ctx, id)
}

// ForMonthlyPlan exposes the completion view consumed by the planning core.
func (s *Service) ForMonthlyPlan(ctx context.Context, planID int64) (Link, error) {
	return s.repo.ForMonthlyPlan(ctx, planID)
}

func validTransition(from, to Status) bool {
	switch from {
	case StatusPlanned:
		return to == StatusNominated || to == StatusCancelled
	case StatusNominated:
		return to == StatusLoading || to == StatusCancelled
	case StatusLoading:
		return to == StatusCompleted || to == StatusCancelled
	}
	return false
}
