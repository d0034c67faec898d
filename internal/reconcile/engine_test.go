package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/liftplan/liftplan/internal/shared"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func currentRow(month int, qty string) CurrentRow {
	return CurrentRow{ContractID: 1, ContractCode: "TRM-001", Product: "MURBAN", Month: month, Year: 2026, Quantity: dec(qty)}
}

func moveChange(qty, from, to string) ChangeRow {
	return ChangeRow{
		Action:   shared.AuditActionMove,
		Field:    "schedule_month",
		OldValue: from,
		NewValue: to,
		Meta:     map[string]any{"contract_id": float64(1), "product": "MURBAN", "quantity": qty},
	}
}

var (
	cutoff      = time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	generatedAt = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
)

func rowFor(t *testing.T, report Report, month int) ComparisonRow {
	t.Helper()
	for _, r := range report.Rows {
		if r.Month == month {
			return r
		}
	}
	t.Fatalf("no row for month %d", month)
	return ComparisonRow{}
}

func TestBuildReportReconstructsPreviousFromMove(t *testing.T) {
	// Live state: March already deferred to April.
	current := []CurrentRow{currentRow(1, "15"), currentRow(2, "15"), currentRow(4, "10")}
	changes := []ChangeRow{moveChange("10", "2026-03", "2026-04")}

	report := BuildReport(2026, cutoff, generatedAt, current, changes)

	mar := rowFor(t, report, 3)
	require.True(t, mar.Planned.IsZero())
	require.True(t, mar.Previous.Equal(dec("10")))
	require.Contains(t, mar.Remark, "10 KT deferred to Apr 2026")

	apr := rowFor(t, report, 4)
	require.True(t, apr.Planned.Equal(dec("10")))
	require.True(t, apr.Previous.IsZero())
	require.Contains(t, apr.Remark, "10 KT deferred from Mar 2026")

	jan := rowFor(t, report, 1)
	require.True(t, jan.Delta.IsZero())
	require.Empty(t, jan.Remark)
}

func TestBuildReportAdvanceWording(t *testing.T) {
	current := []CurrentRow{currentRow(2, "20")}
	changes := []ChangeRow{moveChange("20", "2026-05", "2026-02")}

	report := BuildReport(2026, cutoff, generatedAt, current, changes)

	feb := rowFor(t, report, 2)
	require.Contains(t, feb.Remark, "20 KT advanced from May 2026")
	may := rowFor(t, report, 5)
	require.Contains(t, may.Remark, "20 KT advanced to Feb 2026")
}

func TestBuildReportPlainIncreaseAndDecrease(t *testing.T) {
	current := []CurrentRow{currentRow(1, "28")}
	changes := []ChangeRow{
		{
			Action: shared.AuditActionUpdate, Field: "month_quantity",
			OldValue: "20", NewValue: "28",
			Meta: map[string]any{"contract_id": float64(1), "product": "MURBAN", "month": float64(1), "year": float64(2026)},
		},
		{
			Action: shared.AuditActionDelete, Field: "month_quantity",
			OldValue: "5", NewValue: "0",
			Meta: map[string]any{"contract_id": float64(1), "product": "MURBAN", "month": float64(6), "year": float64(2026)},
		},
	}

	report := BuildReport(2026, cutoff, generatedAt, current, changes)

	jan := rowFor(t, report, 1)
	// The June removal pairs greedily with the January increase; whatever is
	// left over reads as a plain increase.
	require.Contains(t, jan.Remark, "5 KT advanced from Jun 2026")
	require.Contains(t, jan.Remark, "increased by 3 KT vs last week")
	require.True(t, jan.Previous.Equal(dec("20")))

	jun := rowFor(t, report, 6)
	require.True(t, jun.Planned.IsZero())
	require.True(t, jun.Previous.Equal(dec("5")))
	require.Contains(t, jun.Remark, "5 KT advanced to Jan 2026")
}

func TestBuildReportSplitsOneDecreaseAcrossTwoIncreases(t *testing.T) {
	current := []CurrentRow{currentRow(4, "10"), currentRow(5, "10")}
	changes := []ChangeRow{
		moveChange("10", "2026-03", "2026-04"),
		moveChange("10", "2026-03", "2026-05"),
	}

	report := BuildReport(2026, cutoff, generatedAt, current, changes)

	mar := rowFor(t, report, 3)
	require.Contains(t, mar.Remark, "10 KT deferred to Apr 2026")
	require.Contains(t, mar.Remark, "10 KT deferred to May 2026")
	require.True(t, mar.Previous.Equal(dec("20")))
}

func TestBuildReportIgnoresTopUps(t *testing.T) {
	current := []CurrentRow{currentRow(1, "20")}
	changes := []ChangeRow{{
		Action: shared.AuditActionTopUp, Field: "authority_topup_quantity",
		OldValue: "0", NewValue: "15",
		Meta: map[string]any{"contract_id": float64(1), "product": "MURBAN", "month": float64(1), "year": float64(2026)},
	}}

	report := BuildReport(2026, cutoff, generatedAt, current, changes)
	jan := rowFor(t, report, 1)
	require.True(t, jan.Delta.IsZero())
	require.Empty(t, jan.Remark)
}

func TestBuildReportDeterministicOrderAndOutput(t *testing.T) {
	current := []CurrentRow{
		{ContractID: 2, ContractCode: "SPT-001", Product: "DAS", Month: 1, Year: 2026, Quantity: dec("5")},
		currentRow(4, "10"),
		currentRow(1, "15"),
	}
	changes := []ChangeRow{moveChange("10", "2026-03", "2026-04")}

	first := BuildReport(2026, cutoff, generatedAt, current, changes)
	for i := 0; i < 10; i++ {
		again := BuildReport(2026, cutoff, generatedAt, current, changes)
		require.Equal(t, first, again)
	}

	// Rows come out sorted by contract, product, then month.
	require.Equal(t, int64(1), first.Rows[0].ContractID)
	last := first.Rows[len(first.Rows)-1]
	require.Equal(t, int64(2), last.ContractID)
}

func TestBuildReportScopedToRequestedYear(t *testing.T) {
	current := []CurrentRow{
		currentRow(12, "10"),
		{ContractID: 1, ContractCode: "TRM-001", Product: "MURBAN", Month: 1, Year: 2027, Quantity: dec("10")},
	}
	report := BuildReport(2026, cutoff, generatedAt, current, nil)
	require.Len(t, report.Rows, 1)
	require.Equal(t, 12, report.Rows[0].Month)
}
