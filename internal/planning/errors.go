package planning

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/liftplan/liftplan/internal/platform/httpx"
)

// Sentinel errors.
var (
	ErrQuarterlyPlanNotFound = errors.New("planning: quarterly plan not found")
	ErrMonthlyPlanNotFound   = errors.New("planning: monthly plan not found")
)

// Limit violation kinds.
const (
	LimitOverCeiling          = "over_ceiling"
	LimitUnderFloor           = "under_floor"
	LimitExceedsQuarterBucket = "exceeds_quarter_bucket"
	LimitBucketBelowAllocated = "bucket_below_allocated"
)

// QuantityLimitError reports a quantity that violates the resolved envelope or
// a quarter bucket. It carries the computed numbers so a client can render a
// precise message; the engine never silently clamps.
type QuantityLimitError struct {
	Scope     string
	Kind      string
	Ceiling   decimal.Decimal
	Floor     decimal.Decimal
	Used      decimal.Decimal
	Attempted decimal.Decimal
}

func (e *QuantityLimitError) Error() string {
	switch e.Kind {
	case LimitUnderFloor:
		return fmt.Sprintf("planning: %s total %s is below the contracted floor %s", e.Scope, e.Attempted, e.Floor)
	case LimitExceedsQuarterBucket:
		return fmt.Sprintf("planning: quantity %s plus %s already allocated exceeds the quarter bucket %s", e.Attempted, e.Used, e.Ceiling)
	case LimitBucketBelowAllocated:
		return fmt.Sprintf("planning: bucket %s is below the %s already allocated to its months", e.Attempted, e.Used)
	default:
		return fmt.Sprintf("planning: quantity %s plus %s already used exceeds the ceiling %s", e.Attempted, e.Used, e.Ceiling)
	}
}

// Problem renders the structured violation.
func (e *QuantityLimitError) Problem() httpx.ProblemDetail {
	return httpx.ProblemDetail{
		Type:   "quantity-limit-violation",
		Title:  "Quantity Limit Violation",
		Status: http.StatusUnprocessableEntity,
		Detail: e.Error(),
		Extra: map[string]any{
			"scope":     e.Scope,
			"kind":      e.Kind,
			"ceiling":   e.Ceiling,
			"floor":     e.Floor,
			"used":      e.Used,
			"attempted": e.Attempted,
		},
	}
}

// InvalidMoveDirectionError reports a defer that goes backwards or an advance
// that goes forwards.
type InvalidMoveDirectionError struct {
	Action      MoveAction
	SourceMonth int
	SourceYear  int
	TargetMonth int
	TargetYear  int
}

func (e *InvalidMoveDirectionError) Error() string {
	return fmt.Sprintf("planning: %s from %04d-%02d to %04d-%02d violates the declared direction",
		e.Action, e.SourceYear, e.SourceMonth, e.TargetYear, e.TargetMonth)
}

// Problem renders the structured violation.
func (e *InvalidMoveDirectionError) Problem() httpx.ProblemDetail {
	return httpx.ProblemDetail{
		Type:   "invalid-move-direction",
		Title:  "Invalid Move Direction",
		Status: http.StatusUnprocessableEntity,
		Detail: e.Error(),
		Extra: map[string]any{
			"action":       e.Action,
			"source_month": e.SourceMonth,
			"source_year":  e.SourceYear,
			"target_month": e.TargetMonth,
			"target_year":  e.TargetYear,
		},
	}
}

// CrossQuarterAuthorityError reports a cross-quarter move submitted without
// an authority reference and reason.
type CrossQuarterAuthorityError struct {
	SourceQuarter int
	SourceYear    int
	TargetQuarter int
	TargetYear    int
}

func (e *CrossQuarterAuthorityError) Error() string {
	return fmt.Sprintf("planning: move from Q%d CY%d to Q%d CY%d crosses a quarter boundary and requires an authority reference and reason",
		e.SourceQuarter, e.SourceYear, e.TargetQuarter, e.TargetYear)
}

// Problem renders the structured violation.
func (e *CrossQuarterAuthorityError) Problem() httpx.ProblemDetail {
	return httpx.ProblemDetail{
		Type:   "cross-quarter-authority-required",
		Title:  "Cross Quarter Authority Required",
		Status: http.StatusUnprocessableEntity,
		Detail: e.Error(),
		Extra: map[string]any{
			"source_quarter": e.SourceQuarter,
			"source_year":    e.SourceYear,
			"target_quarter": e.TargetQuarter,
			"target_year":    e.TargetYear,
		},
	}
}

// StaleVersionError reports an optimistic lock failure: the client acted on a
// snapshot that is no longer current.
type StaleVersionError struct {
	Entity  string
	ID      int64
	Given   int64
	Current int64
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("planning: %s %d was modified: your version %d, current version %d", e.Entity, e.ID, e.Given, e.Current)
}

// Problem renders the conflict.
func (e *StaleVersionError) Problem() httpx.ProblemDetail {
	return httpx.ProblemDetail{
		Type:   "stale-version",
		Title:  "Stale Version",
		Status: http.StatusConflict,
		Detail: e.Error(),
		Extra: map[string]any{
			"entity":          e.Entity,
			"id":              e.ID,
			"given_version":   e.Given,
			"current_version": e.Current,
		},
	}
}

// LockedByCompletedCargoError reports a mutation blocked because the plan's
// cargo has reached the terminal completed state.
type LockedByCompletedCargoError struct {
	MonthlyPlanID int64
	CargoID       int64
	CargoCode     string
}

func (e *LockedByCompletedCargoError) Error() string {
	return fmt.Sprintf("planning: monthly plan %d is locked by completed cargo %s", e.MonthlyPlanID, e.CargoCode)
}

// Problem renders the lock.
func (e *LockedByCompletedCargoError) Problem() httpx.ProblemDetail {
	return httpx.ProblemDetail{
		Type:   "locked-by-completed-cargo",
		Title:  "Locked By Completed Cargo",
		Status: http.StatusConflict,
		Detail: e.Error(),
		Extra: map[string]any{
			"monthly_plan_id": e.MonthlyPlanID,
			"cargo_id":        e.CargoID,
			"cargo_code":      e.CargoCode,
		},
	}
}

// DeliveryMonthRequiredError reports a CIF move with no delivery month set:
// the source coordinate cannot be determined.
type DeliveryMonthRequiredError struct {
	MonthlyPlanID int64
}

func (e *DeliveryMonthRequiredError) Error() string {
	return fmt.Sprintf("planning: monthly plan %d has no delivery month; cannot determine the move source", e.MonthlyPlanID)
}

// Problem renders the violation.
func (e *DeliveryMonthRequiredError) Problem() httpx.ProblemDetail {
	return httpx.ProblemDetail{
		Type:   "delivery-month-required",
		Title:  "Delivery Month Required",
		Status: http.StatusUnprocessableEntity,
		Detail: e.Error(),
		Extra:  map[string]any{"monthly_plan_id": e.MonthlyPlanID},
	}
}
