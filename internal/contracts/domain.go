// Package contracts exposes the customer contract and product registry. The
// planning core reads it as authoritative input; contract maintenance itself
// happens elsewhere.
package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies how a contract is planned.
type Category string

const (
	// CategoryTerm contracts plan through quarterly and monthly levels.
	CategoryTerm Category = "TERM"
	// CategorySemiTerm contracts plan like TERM over a partial year.
	CategorySemiTerm Category = "SEMI_TERM"
	// CategorySpot contracts skip the quarterly level entirely.
	CategorySpot Category = "SPOT"
)

// DeliveryTerm determines which month coordinate drives a plan move.
type DeliveryTerm string

const (
	// DeliveryFOB moves are driven by the loading month.
	DeliveryFOB DeliveryTerm = "FOB"
	// DeliveryCIF moves are driven by the delivery month.
	DeliveryCIF DeliveryTerm = "CIF"
)

// QuantityMode is how a product declares its contracted quantity.
type QuantityMode string

const (
	// ModeFixed declares a single total quantity.
	ModeFixed QuantityMode = "FIXED"
	// ModeRange declares a min/max band.
	ModeRange QuantityMode = "RANGE"
)

// Product is one product line under a contract, declared in exactly one mode.
type Product struct {
	ID               int64
	ContractID       int64
	Name             string
	Mode             QuantityMode
	TotalQuantity    decimal.Decimal
	MinQuantity      decimal.Decimal
	MaxQuantity      decimal.Decimal
	OptionalQuantity decimal.Decimal
}

// Contract is a customer agreement owning products and plans.
type Contract struct {
	ID               int64
	Code             string
	CustomerName     string
	Category         Category
	DeliveryTerm     DeliveryTerm
	FiscalStartMonth int
	StartDate        time.Time
	EndDate          time.Time
	Version          int64
	Products         []Product
}

// PlansQuarterly reports whether the contract carries a quarterly level.
func (c Contract) PlansQuarterly() bool {
	return c.Category == CategoryTerm || c.Category == CategorySemiTerm
}
