// Package fiscal maps calendar coordinates onto contract fiscal quarters.
//
// Contracts declare a fiscal start month (1-12). Quarters are three-month
// windows counted from that start, so with a fiscal start of April, Q1 covers
// April-June and the contract year of February 2026 is 2025.
package fiscal

import (
	"fmt"
	"time"
)

// Quarter returns the fiscal quarter (1-4) a calendar month falls into for the
// given fiscal start month.
func Quarter(month, fiscalStart int) int {
	offset := (month - fiscalStart + 12) % 12
	return offset/3 + 1
}

// ContractYear returns the contract year a calendar (month, year) belongs to.
// A contract year is labelled by the calendar year it starts in, so months
// before the fiscal start belong to the previous contract year.
func ContractYear(month, year, fiscalStart int) int {
	if month < fiscalStart {
		return year - 1
	}
	return year
}

// Ordinal collapses (month, year) into a single comparable value. It defines
// the total order used for defer/advance direction checks.
func Ordinal(month, year int) int {
	return year*12 + month
}

// QuarterMonths returns the three calendar months of a fiscal quarter.
func QuarterMonths(quarter, fiscalStart int) [3]int {
	var months [3]int
	base := fiscalStart + (quarter-1)*3
	for i := range months {
		m := (base + i - 1) % 12
		months[i] = m + 1
	}
	return months
}

// Period is one month row of a contract's planning table.
type Period struct {
	Month        int
	Year         int
	Quarter      int
	ContractYear int
}

// Label renders the period as e.g. "2025-04 (Q1 CY2025)".
func (p Period) Label() string {
	return fmt.Sprintf("%04d-%02d (Q%d CY%d)", p.Year, p.Month, p.Quarter, p.ContractYear)
}

// PeriodTable generates the month-by-month period rows spanning a contract's
// duration, inclusive of both endpoints.
func PeriodTable(start, end time.Time, fiscalStart int) []Period {
	var table []Period
	month, year := int(start.Month()), start.Year()
	endOrdinal := Ordinal(int(end.Month()), end.Year())
	for Ordinal(month, year) <= endOrdinal {
		table = append(table, Period{
			Month:        month,
			Year:         year,
			Quarter:      Quarter(month, fiscalStart),
			ContractYear: ContractYear(month, year, fiscalStart),
		})
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return table
}

// WeekEnd returns the end of the most recent completed business week. The
// business week runs Sunday through Thursday, so the week ends at Friday
// 00:00 UTC. The result is the latest such instant at or before now.
func WeekEnd(now time.Time) time.Time {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	back := (int(day.Weekday()) - int(time.Friday) + 7) % 7
	return day.AddDate(0, 0, -back)
}
