// Package planning implements the allocation ledger: quarterly and monthly
// lifting plans under a contract, the defer/advance move engine, and the
// locking that keeps quarter buckets and monthly allocations consistent.
package planning

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/liftplan/liftplan/internal/shared"
)

// MoveAction is the declared direction of a plan move.
type MoveAction string

const (
	// MoveDefer pushes a plan to a later month.
	MoveDefer MoveAction = "DEFER"
	// MoveAdvance pulls a plan to an earlier month.
	MoveAdvance MoveAction = "ADVANCE"
)

// AdjustmentType tags one side of a quarter bucket transfer.
type AdjustmentType string

const (
	AdjustDeferOut   AdjustmentType = "DEFER_OUT"
	AdjustDeferIn    AdjustmentType = "DEFER_IN"
	AdjustAdvanceOut AdjustmentType = "ADVANCE_OUT"
	AdjustAdvanceIn  AdjustmentType = "ADVANCE_IN"
)

// QuarterlyPlan allocates a contract product's quantity across the four
// fiscal quarters of one contract year. Rows hold current state only; history
// lives in adjustments and the audit log.
type QuarterlyPlan struct {
	ID            int64
	ContractID    int64
	ProductName   string
	ContractYear  int
	Q1            decimal.Decimal
	Q2            decimal.Decimal
	Q3            decimal.Decimal
	Q4            decimal.Decimal
	AdjustmentLog string
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Total sums the four quarter buckets.
func (p QuarterlyPlan) Total() decimal.Decimal {
	return p.Q1.Add(p.Q2).Add(p.Q3).Add(p.Q4)
}

// Bucket returns one quarter's value (1-4).
func (p QuarterlyPlan) Bucket(quarter int) decimal.Decimal {
	switch quarter {
	case 1:
		return p.Q1
	case 2:
		return p.Q2
	case 3:
		return p.Q3
	default:
		return p.Q4
	}
}

// SetBucket replaces one quarter's value (1-4).
func (p *QuarterlyPlan) SetBucket(quarter int, v decimal.Decimal) {
	switch quarter {
	case 1:
		p.Q1 = v
	case 2:
		p.Q2 = v
	case 3:
		p.Q3 = v
	default:
		p.Q4 = v
	}
}

// MonthlyPlan allocates quantity to one calendar month. QuarterlyPlanID is
// set for TERM/SEMI_TERM contracts and nil for SPOT, which hangs directly off
// the contract. Original month/year record the coordinate before the first
// move ever and are never overwritten afterwards.
type MonthlyPlan struct {
	ID              int64
	ContractID      int64
	QuarterlyPlanID *int64
	ProductName     string
	Month           int
	Year            int
	Quantity        decimal.Decimal
	AuthorityTopup  decimal.Decimal
	DeliveryMonth   *int
	DeliveryYear    *int
	OriginalMonth   *int
	OriginalYear    *int
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QuarterAdjustment is an immutable record of one side of a quantity transfer
// between (quarter, contract year) coordinates. OUT and IN rows of the same
// move share a MoveID.
type QuarterAdjustment struct {
	ID              int64
	QuarterlyPlanID int64
	MoveID          uuid.UUID
	Type            AdjustmentType
	Quarter         int
	ContractYear    int
	Quantity        decimal.Decimal
	AuthorityRef    string
	Reason          string
	Actor           shared.Actor
	CreatedAt       time.Time
}

// Snapshot is a full pre-move copy of a monthly plan and any linked cargo,
// kept for undo and history reconstruction.
type Snapshot struct {
	ID            uuid.UUID
	MonthlyPlanID int64
	CargoID       *int64
	PlanState     []byte
	CargoState    []byte
	Summary       string
	Actor         shared.Actor
	CreatedAt     time.Time
}

// CreateQuarterlyPlanInput carries a quarterly plan creation request.
type CreateQuarterlyPlanInput struct {
	ContractID     int64
	ProductName    string
	ContractYear   int
	Q1, Q2, Q3, Q4 decimal.Decimal
}

// UpdateQuarterlyPlanInput carries a bucket update with the client's version.
type UpdateQuarterlyPlanInput struct {
	Version        int64
	Q1, Q2, Q3, Q4 decimal.Decimal
}

// CreateMonthlyPlanInput carries a monthly plan creation request.
type CreateMonthlyPlanInput struct {
	ContractID      int64
	QuarterlyPlanID *int64
	ProductName     string
	Month           int
	Year            int
	Quantity        decimal.Decimal
	DeliveryMonth   *int
	DeliveryYear    *int
}

// UpdateMonthlyPlanInput carries a monthly plan update. Nil fields are left
// unchanged.
type UpdateMonthlyPlanInput struct {
	Version       int64
	Quantity      *decimal.Decimal
	Month         *int
	Year          *int
	DeliveryMonth *int
	DeliveryYear  *int
}

// MoveInput carries a defer/advance request.
type MoveInput struct {
	Action       MoveAction
	TargetMonth  int
	TargetYear   int
	Reason       string
	AuthorityRef string
	Version      int64
}

// TopUpInput carries an authority top-up request.
type TopUpInput struct {
	Quantity     decimal.Decimal
	AuthorityRef string
	Reason       string
	Date         *time.Time
	Version      int64
}
