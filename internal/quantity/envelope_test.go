package quantity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/liftplan/liftplan/internal/contracts"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestResolveFixedMode(t *testing.T) {
	products := []contracts.Product{
		{Name: "MURBAN", Mode: contracts.ModeFixed, TotalQuantity: dec("120"), OptionalQuantity: dec("10")},
	}
	env := Resolve(products, "MURBAN")
	require.False(t, env.RangeMode)
	require.True(t, env.Min.Equal(dec("120")))
	require.True(t, env.Max.Equal(dec("120")))
	require.True(t, env.MaxWithOptional.Equal(dec("130")))
	require.True(t, env.MaxWithTopup.Equal(dec("130")))
}

func TestResolveRangeMode(t *testing.T) {
	products := []contracts.Product{
		{Name: "UPPER ZAKUM", Mode: contracts.ModeRange, MinQuantity: dec("80"), MaxQuantity: dec("100")},
	}
	env := Resolve(products, "UPPER ZAKUM")
	require.True(t, env.RangeMode)
	require.True(t, env.Min.Equal(dec("80")))
	require.True(t, env.Max.Equal(dec("100")))
	require.True(t, env.MaxWithOptional.Equal(dec("100")))
}

func TestResolveAggregatesAcrossProducts(t *testing.T) {
	products := []contracts.Product{
		{Name: "MURBAN", Mode: contracts.ModeFixed, TotalQuantity: dec("120"), OptionalQuantity: dec("10")},
		{Name: "DAS", Mode: contracts.ModeRange, MinQuantity: dec("40"), MaxQuantity: dec("60"), OptionalQuantity: dec("5")},
	}
	env := Resolve(products, "")
	require.True(t, env.RangeMode)
	require.True(t, env.Min.Equal(dec("160")), "120 fixed + 40 range floor")
	require.True(t, env.Max.Equal(dec("180")))
	require.True(t, env.MaxWithOptional.Equal(dec("195")))
}

func TestResolveUnknownProduct(t *testing.T) {
	products := []contracts.Product{
		{Name: "MURBAN", Mode: contracts.ModeFixed, TotalQuantity: dec("120")},
	}
	env := Resolve(products, "DAS")
	require.True(t, env.Max.IsZero())
	require.True(t, env.MaxWithTopup.IsZero())
}

func TestWithTopupLiftsOnlyCeiling(t *testing.T) {
	products := []contracts.Product{
		{Name: "MURBAN", Mode: contracts.ModeFixed, TotalQuantity: dec("120"), OptionalQuantity: dec("10")},
	}
	env := Resolve(products, "MURBAN").WithTopup(dec("15"))
	require.True(t, env.MaxWithTopup.Equal(dec("145")))
	require.True(t, env.Min.Equal(dec("120")))
	require.True(t, env.FitsCeiling(dec("145")))
	require.False(t, env.FitsCeiling(dec("145.01")))
	require.True(t, env.MeetsFloor(dec("120")))
	require.False(t, env.MeetsFloor(dec("119.99")))
}
