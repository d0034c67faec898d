// Package quantity normalises product quantity declarations into a single
// allocation envelope and validates plan quantities against it.
package quantity

import (
	"github.com/shopspring/decimal"

	"github.com/liftplan/liftplan/internal/contracts"
)

// Envelope is the resolved allocation band for one product, or for a whole
// contract when aggregated across products.
type Envelope struct {
	Min             decimal.Decimal
	Max             decimal.Decimal
	Optional        decimal.Decimal
	MaxWithOptional decimal.Decimal
	MaxWithTopup    decimal.Decimal
	RangeMode       bool
}

// Resolve computes the envelope for the named product, or the independent
// field-wise sum over every product when productName is empty. MaxWithTopup
// starts equal to MaxWithOptional; apply WithTopup once the accumulated
// authority top-up is known.
func Resolve(products []contracts.Product, productName string) Envelope {
	var env Envelope
	matched := 0
	for _, p := range products {
		if productName != "" && p.Name != productName {
			continue
		}
		matched++
		if p.Mode == contracts.ModeRange {
			env.RangeMode = true
			env.Min = env.Min.Add(p.MinQuantity)
			env.Max = env.Max.Add(p.MaxQuantity)
		} else {
			env.Min = env.Min.Add(p.TotalQuantity)
			env.Max = env.Max.Add(p.TotalQuantity)
		}
		env.Optional = env.Optional.Add(p.OptionalQuantity)
	}
	if matched == 0 {
		return Envelope{}
	}
	env.MaxWithOptional = env.Max.Add(env.Optional)
	env.MaxWithTopup = env.MaxWithOptional
	return env
}

// WithTopup returns the envelope raised by the accumulated authority top-up.
// The top-up only lifts the ceiling; the floor is unchanged.
func (e Envelope) WithTopup(topup decimal.Decimal) Envelope {
	e.MaxWithTopup = e.MaxWithOptional.Add(topup)
	return e
}

// FitsCeiling reports whether total stays at or under the true ceiling.
func (e Envelope) FitsCeiling(total decimal.Decimal) bool {
	return total.LessThanOrEqual(e.MaxWithTopup)
}

// MeetsFloor reports whether total reaches the contracted floor. A plan may
// not under-allocate a fixed-mode contract nor leave a range-mode contract
// below its declared minimum.
func (e Envelope) MeetsFloor(total decimal.Decimal) bool {
	return total.GreaterThanOrEqual(e.Min)
}
