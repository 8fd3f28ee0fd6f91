package http

import (
	"log/slog"
	"net/http"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
)

type (
	cellView struct {
		Day         int
		Date        string
		InMonth     bool
		Total       string
		HasActivity bool
	}

	monthView struct {
		User      string
		Year      int
		Month     int
		MonthName string
		PrevYear  int
		PrevMonth int
		NextYear  int
		NextMonth int
		Weeks     [][]cellView
		Total     string
	}
)

// handleMonth renders the calendar grid for the requested month.
// Anonymous visitors get the grid with no totals.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	user := userFrom(r.Context())

	first := core.NewDate(year, month, 1)
	last := core.NewDate(year, month, core.DaysInMonth(year, month))
	totals, err := s.aggregator.Aggregate(r.Context(),
		user.ID,
		core.SundayOnOrBefore(first),
		core.SaturdayOnOrAfter(last))
	if err != nil {
		slog.ErrorContext(r.Context(), "Month aggregation failed",
			"error", err, "year", year, "month", month, "owner_id", user.ID)
		http.Error(w, "failed to load month", http.StatusInternalServerError)
		return
	}

	grid := ledger.BuildGrid(year, month, totals)

	view := monthView{
		User:      user.Username,
		Year:      grid.Year,
		Month:     grid.Month,
		MonthName: time.Month(grid.Month).String(),
		Total:     formatAmount(grid.MonthTotal),
	}
	view.PrevYear, view.PrevMonth = year, month-1
	if view.PrevMonth < 1 {
		view.PrevYear, view.PrevMonth = year-1, 12
	}
	view.NextYear, view.NextMonth = year, month+1
	if view.NextMonth > 12 {
		view.NextYear, view.NextMonth = year+1, 1
	}

	for _, week := range grid.Weeks {
		row := make([]cellView, 0, len(week))
		for _, cell := range week {
			row = append(row, cellView{
				Day:         cell.Date.Day(),
				Date:        cell.Date.String(),
				InMonth:     cell.InTargetMonth,
				Total:       formatAmount(cell.Total),
				HasActivity: cell.Total != 0,
			})
		}
		view.Weeks = append(view.Weeks, row)
	}

	s.render(w, r, "month.html", view)
}
