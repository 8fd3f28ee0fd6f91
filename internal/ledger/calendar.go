package ledger

import (
	"kakeibo/internal/core"
)

const daysPerWeek = 7

type (
	// Cell is one day of a rendered month grid. Padding cells from
	// adjacent months carry their own totals for visual continuity but
	// are excluded from the month total.
	Cell struct {
		Date          core.Date
		InTargetMonth bool
		Total         int64
	}

	// MonthGrid is a Sunday-start, week-by-week calendar for one month.
	MonthGrid struct {
		Year       int
		Month      int
		Weeks      [][]Cell
		MonthTotal int64
	}
)

// BuildGrid lays out the given month as full weeks: the first row starts
// on the Sunday on or before the 1st, the last row ends on the Saturday
// on or after the month's last day. Cell totals come from the supplied
// day-indexed mapping; absent days render as zero.
func BuildGrid(year, month int, totals map[core.Date]int64) MonthGrid {
	first := core.NewDate(year, month, 1)
	lastDay := core.DaysInMonth(year, month)
	last := core.NewDate(year, month, lastDay)

	grid := MonthGrid{Year: year, Month: month}

	stop := core.SaturdayOnOrAfter(last)
	week := make([]Cell, 0, daysPerWeek)
	for d := core.SundayOnOrBefore(first); !d.After(stop); d = d.AddDays(1) {
		if len(week) == daysPerWeek {
			grid.Weeks = append(grid.Weeks, week)
			week = make([]Cell, 0, daysPerWeek)
		}
		week = append(week, Cell{
			Date:          d,
			InTargetMonth: d.Year() == year && d.Month() == month,
			Total:         totals[d],
		})
	}
	if len(week) > 0 {
		grid.Weeks = append(grid.Weeks, week)
	}

	for day := 1; day <= lastDay; day++ {
		grid.MonthTotal += totals[core.NewDate(year, month, day)]
	}

	return grid
}
