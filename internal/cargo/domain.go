// Package cargo tracks physical liftings against monthly plans. The planning
// core only consumes its existence and completion state; the wider lifecycle
// (nominations, documents) lives outside this service.
package cargo

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates cargo lifecycle states. COMPLETED is terminal: a completed
// cargo freezes its monthly plan's coordinates.
type Status string

const (
	StatusPlanned   Status = "PLANNED"
	StatusNominated Status = "NOMINATED"
	StatusLoading   Status = "LOADING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Cargo is a concrete shipment, 1:1 with a monthly plan.
type Cargo struct {
	ID            int64
	Code          string
	MonthlyPlanID int64
	Quantity      decimal.Decimal
	Status        Status
	LaycanStart   *time.Time
	LaycanEnd     *time.Time
	Berth         string
	Vessel        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Link is the completion view the planning core queries before allowing a
// delete or a cross-quarter move.
type Link struct {
	Exists    bool
	CargoID   int64
	Code      string
	Completed bool
}

// QuantityTolerance is the maximum relative difference allowed between a
// cargo's quantity and its monthly plan's quantity at creation time.
var QuantityTolerance = decimal.NewFromFloat(0.005)

// WithinTolerance reports whether cargoQty matches planQty within the
// relative tolerance.
func WithinTolerance(cargoQty, planQty decimal.Decimal) bool {
	if planQty.IsZero() {
		return cargoQty.IsZero()
	}
	diff := cargoQty.Sub(planQty).Abs()
	return diff.Div(planQty.Abs()).LessThanOrEqual(QuantityTolerance)
}

// Domain errors.
var (
	ErrNotFound          = errors.New("cargo: not found")
	ErrPlanAlreadyLinked = errors.New("cargo: monthly plan already has a cargo")
	ErrTerminalStatus    = errors.New("cargo: status is terminal")
	ErrInvalidTransition = errors.New("cargo: invalid status transition")
)
