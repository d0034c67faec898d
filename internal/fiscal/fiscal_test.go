package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQuarter(t *testing.T) {
	cases := []struct {
		month, fiscalStart, want int
	}{
		{1, 1, 1},
		{3, 1, 1},
		{4, 1, 2},
		{12, 1, 4},
		{4, 4, 1},
		{6, 4, 1},
		{7, 4, 2},
		{3, 4, 4},
		{1, 4, 4},
		{12, 4, 3},
		{10, 10, 1},
		{9, 10, 4},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Quarter(tc.month, tc.fiscalStart),
			"month=%d fiscalStart=%d", tc.month, tc.fiscalStart)
	}
}

func TestContractYear(t *testing.T) {
	require.Equal(t, 2025, ContractYear(6, 2025, 1))
	require.Equal(t, 2025, ContractYear(4, 2025, 4))
	require.Equal(t, 2024, ContractYear(3, 2025, 4))
	require.Equal(t, 2025, ContractYear(12, 2025, 10))
	require.Equal(t, 2024, ContractYear(9, 2025, 10))
}

func TestOrdinalOrdersCoordinates(t *testing.T) {
	require.Less(t, Ordinal(12, 2024), Ordinal(1, 2025))
	require.Less(t, Ordinal(3, 2025), Ordinal(4, 2025))
	require.Equal(t, Ordinal(6, 2025), Ordinal(6, 2025))
}

func TestQuarterMonths(t *testing.T) {
	require.Equal(t, [3]int{1, 2, 3}, QuarterMonths(1, 1))
	require.Equal(t, [3]int{10, 11, 12}, QuarterMonths(4, 1))
	require.Equal(t, [3]int{4, 5, 6}, QuarterMonths(1, 4))
	require.Equal(t, [3]int{1, 2, 3}, QuarterMonths(4, 4))
	require.Equal(t, [3]int{11, 12, 1}, QuarterMonths(1, 11))
}

func TestPeriodTable(t *testing.T) {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	table := PeriodTable(start, end, 4)
	require.Len(t, table, 12)
	require.Equal(t, Period{Month: 4, Year: 2025, Quarter: 1, ContractYear: 2025}, table[0])
	require.Equal(t, Period{Month: 1, Year: 2026, Quarter: 4, ContractYear: 2025}, table[9])
	require.Equal(t, Period{Month: 3, Year: 2026, Quarter: 4, ContractYear: 2025}, table[11])
	require.Equal(t, "2025-04 (Q1 CY2025)", table[0].Label())
}

func TestWeekEnd(t *testing.T) {
	// Wednesday 2025-06-18 -> previous Friday 2025-06-13.
	now := time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), WeekEnd(now))

	// Friday midday -> the same Friday 00:00.
	now = time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), WeekEnd(now))

	// Thursday -> the business week is not over yet, previous Friday.
	now = time.Date(2025, 6, 19, 23, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), WeekEnd(now))
}
