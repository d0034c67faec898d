package reconcile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/liftplan/liftplan/internal/fiscal"
	"github.com/liftplan/liftplan/internal/shared"
)

var qtyPrinter = message.NewPrinter(language.English)

func formatQty(d decimal.Decimal) string {
	return qtyPrinter.Sprintf("%v KT", number.Decimal(d.InexactFloat64()))
}

type planKey struct {
	contractID int64
	product    string
	month      int
	year       int
}

type seriesKey struct {
	contractID int64
	product    string
}

// BuildReport compares the live allocations against their reconstructed
// state at the cutoff. "Previous" is derived by undoing every audit delta
// recorded after the cutoff; nothing else is stored for it.
func BuildReport(year int, cutoff, generatedAt time.Time, current []CurrentRow, changes []ChangeRow) Report {
	cur := make(map[planKey]decimal.Decimal, len(current))
	codes := make(map[int64]string)
	for _, row := range current {
		k := planKey{row.ContractID, row.Product, row.Month, row.Year}
		cur[k] = cur[k].Add(row.Quantity)
		codes[row.ContractID] = row.ContractCode
	}

	deltas := make(map[planKey]decimal.Decimal)
	for _, ch := range changes {
		for k, qty := range deltasFor(ch) {
			deltas[k] = deltas[k].Add(qty)
		}
	}

	keys := make(map[planKey]struct{}, len(cur)+len(deltas))
	for k := range cur {
		keys[k] = struct{}{}
	}
	for k := range deltas {
		keys[k] = struct{}{}
	}

	type rowDelta struct {
		month int
		year  int
		qty   decimal.Decimal
	}
	series := make(map[seriesKey][]rowDelta)
	rows := make([]ComparisonRow, 0, len(keys))
	for k := range keys {
		if k.year != year {
			continue
		}
		planned := cur[k]
		previous := planned.Sub(deltas[k])
		delta := deltas[k]
		rows = append(rows, ComparisonRow{
			ContractID:   k.contractID,
			ContractCode: codes[k.contractID],
			Product:      k.product,
			Month:        k.month,
			Year:         k.year,
			Planned:      planned,
			Previous:     previous,
			Delta:        delta,
		})
		if !delta.IsZero() {
			sk := seriesKey{k.contractID, k.product}
			series[sk] = append(series[sk], rowDelta{k.month, k.year, delta})
		}
	}

	remarks := make(map[planKey]string)
	for sk, ds := range series {
		var incs, decs []rowDelta
		for _, d := range ds {
			if d.qty.IsPositive() {
				incs = append(incs, d)
			} else {
				decs = append(decs, rowDelta{d.month, d.year, d.qty.Neg()})
			}
		}
		byMonth := func(s []rowDelta) func(i, j int) bool {
			return func(i, j int) bool {
				return fiscal.Ordinal(s[i].month, s[i].year) < fiscal.Ordinal(s[j].month, s[j].year)
			}
		}
		sort.Slice(incs, byMonth(incs))
		sort.Slice(decs, byMonth(decs))

		notes := make(map[planKey][]string)
		// Greedy pairing of decreases with increases in month order. This is
		// a narrative heuristic, not an optimal transfer reconstruction:
		// when several moves interleave, quantities are attributed to the
		// earliest open counterpart.
		i, j := 0, 0
		for i < len(decs) && j < len(incs) {
			take := decimal.Min(decs[i].qty, incs[j].qty)
			word := "deferred"
			if fiscal.Ordinal(incs[j].month, incs[j].year) < fiscal.Ordinal(decs[i].month, decs[i].year) {
				word = "advanced"
			}
			srcKey := planKey{sk.contractID, sk.product, decs[i].month, decs[i].year}
			dstKey := planKey{sk.contractID, sk.product, incs[j].month, incs[j].year}
			notes[srcKey] = append(notes[srcKey],
				fmt.Sprintf("%s %s to %s", formatQty(take), word, monthLabel(incs[j].month, incs[j].year)))
			notes[dstKey] = append(notes[dstKey],
				fmt.Sprintf("%s %s from %s", formatQty(take), word, monthLabel(decs[i].month, decs[i].year)))
			decs[i].qty = decs[i].qty.Sub(take)
			incs[j].qty = incs[j].qty.Sub(take)
			if decs[i].qty.IsZero() {
				i++
			}
			if incs[j].qty.IsZero() {
				j++
			}
		}
		for ; i < len(decs); i++ {
			k := planKey{sk.contractID, sk.product, decs[i].month, decs[i].year}
			notes[k] = append(notes[k], fmt.Sprintf("decreased by %s vs last week", formatQty(decs[i].qty)))
		}
		for ; j < len(incs); j++ {
			k := planKey{sk.contractID, sk.product, incs[j].month, incs[j].year}
			notes[k] = append(notes[k], fmt.Sprintf("increased by %s vs last week", formatQty(incs[j].qty)))
		}
		for k, ns := range notes {
			remarks[k] = strings.Join(ns, "; ")
		}
	}

	for idx := range rows {
		k := planKey{rows[idx].ContractID, rows[idx].Product, rows[idx].Month, rows[idx].Year}
		rows[idx].Remark = remarks[k]
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ContractID != b.ContractID {
			return a.ContractID < b.ContractID
		}
		if a.Product != b.Product {
			return a.Product < b.Product
		}
		return fiscal.Ordinal(a.Month, a.Year) < fiscal.Ordinal(b.Month, b.Year)
	})

	return Report{Year: year, Cutoff: cutoff, GeneratedAt: generatedAt, Rows: rows}
}

// deltasFor translates one audit entry into the month deltas it caused.
// Authority top-ups raise ceilings without touching allocations and carry no
// delta at all.
func deltasFor(ch ChangeRow) map[planKey]decimal.Decimal {
	contractID := metaInt64(ch.Meta, "contract_id")
	product := metaString(ch.Meta, "product")
	if contractID == 0 || product == "" {
		return nil
	}
	month, year := anchorMonth(ch.Meta)
	out := make(map[planKey]decimal.Decimal, 2)

	switch ch.Action {
	case shared.AuditActionCreate, shared.AuditActionUpdate, shared.AuditActionDelete:
		if ch.Field != "month_quantity" {
			return nil
		}
		oldQty := parseQty(ch.OldValue)
		newQty := parseQty(ch.NewValue)
		diff := newQty.Sub(oldQty)
		if diff.IsZero() || month == 0 {
			return nil
		}
		out[planKey{contractID, product, month, year}] = diff
	case shared.AuditActionMove:
		qty := metaQty(ch.Meta, "quantity")
		srcMonth, srcYear, okSrc := parseCoordinate(ch.OldValue)
		dstMonth, dstYear, okDst := parseCoordinate(ch.NewValue)
		if qty.IsZero() || !okSrc || !okDst {
			return nil
		}
		out[planKey{contractID, product, srcMonth, srcYear}] = qty.Neg()
		out[planKey{contractID, product, dstMonth, dstYear}] = qty
	default:
		return nil
	}
	return out
}

func anchorMonth(meta map[string]any) (int, int) {
	month := int(metaInt64(meta, "delivery_month"))
	year := int(metaInt64(meta, "delivery_year"))
	if month == 0 {
		month = int(metaInt64(meta, "month"))
		year = int(metaInt64(meta, "year"))
	}
	return month, year
}

// parseCoordinate reads the "YYYY-MM" coordinate the move audit records.
func parseCoordinate(s string) (month, year int, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	year, errY := strconv.Atoi(parts[0])
	month, errM := strconv.Atoi(parts[1])
	if errY != nil || errM != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return month, year, true
}

func parseQty(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Meta payloads come back from jsonb, so numbers arrive as float64 and
// decimals as strings.
func metaInt64(meta map[string]any, key string) int64 {
	switch v := meta[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

func metaQty(meta map[string]any, key string) decimal.Decimal {
	switch v := meta[key].(type) {
	case string:
		return parseQty(v)
	case float64:
		return decimal.NewFromFloat(v)
	case decimal.Decimal:
		return v
	}
	return decimal.Zero
}

func monthLabel(month, year int) string {
	return fmt.Sprintf("%s %d", time.Month(month).String()[:3], year)
}
