package ledger

import (
	"testing"

	"kakeibo/internal/core"
)

func TestBuildGrid_Layout(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     int
		wantWeeks int
		wantFirst core.Date
		wantLast  core.Date
	}{
		{
			name:      "february 2024 starts on thursday",
			year:      2024,
			month:     2,
			wantWeeks: 5,
			wantFirst: core.NewDate(2024, 1, 28),
			wantLast:  core.NewDate(2024, 3, 2),
		},
		{
			name:      "september 2024 starts on sunday",
			year:      2024,
			month:     9,
			wantWeeks: 5,
			wantFirst: core.NewDate(2024, 9, 1),
			wantLast:  core.NewDate(2024, 10, 5),
		},
		{
			name:      "march 2024 spans six weeks",
			year:      2024,
			month:     3,
			wantWeeks: 6,
			wantFirst: core.NewDate(2024, 2, 25),
			wantLast:  core.NewDate(2024, 4, 6),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := BuildGrid(tt.year, tt.month, nil)

			if len(grid.Weeks) != tt.wantWeeks {
				t.Fatalf("BuildGrid() produced %d weeks, want %d", len(grid.Weeks), tt.wantWeeks)
			}
			for i, week := range grid.Weeks {
				if len(week) != 7 {
					t.Errorf("week %d has %d cells, want 7", i, len(week))
				}
			}

			first := grid.Weeks[0][0]
			if !first.Date.Equal(tt.wantFirst) {
				t.Errorf("first cell = %v, want %v", first.Date, tt.wantFirst)
			}
			lastWeek := grid.Weeks[len(grid.Weeks)-1]
			last := lastWeek[len(lastWeek)-1]
			if !last.Date.Equal(tt.wantLast) {
				t.Errorf("last cell = %v, want %v", last.Date, tt.wantLast)
			}

			// Consecutive dates across the whole grid, Sundays first.
			prev := first.Date
			for _, week := range grid.Weeks {
				for i, cell := range week {
					if i == 0 && cell.Date.Time.Weekday() != 0 {
						t.Errorf("week does not start on Sunday: %v", cell.Date)
					}
					if !cell.Date.Equal(prev) {
						t.Errorf("cell out of order: got %v, want %v", cell.Date, prev)
					}
					prev = prev.AddDays(1)
					wantIn := cell.Date.Year() == tt.year && cell.Date.Month() == tt.month
					if cell.InTargetMonth != wantIn {
						t.Errorf("InTargetMonth for %v = %v, want %v", cell.Date, cell.InTargetMonth, wantIn)
					}
				}
			}
		})
	}
}

func TestBuildGrid_Totals(t *testing.T) {
	totals := map[core.Date]int64{
		core.NewDate(2024, 2, 1):  -500,
		core.NewDate(2024, 2, 15): 1200,
		core.NewDate(2024, 2, 29): -300,
		// Padding days carry totals in their cells but stay out of the
		// month total.
		core.NewDate(2024, 1, 30): -99999,
		core.NewDate(2024, 3, 1):  -88888,
	}

	grid := BuildGrid(2024, 2, totals)

	if want := int64(-500 + 1200 - 300); grid.MonthTotal != want {
		t.Errorf("MonthTotal = %d, want %d", grid.MonthTotal, want)
	}

	cellTotals := make(map[core.Date]int64)
	for _, week := range grid.Weeks {
		for _, cell := range week {
			cellTotals[cell.Date] = cell.Total
		}
	}
	if got := cellTotals[core.NewDate(2024, 1, 30)]; got != -99999 {
		t.Errorf("padding cell total = %d, want -99999", got)
	}
	if got := cellTotals[core.NewDate(2024, 2, 15)]; got != 1200 {
		t.Errorf("in-month cell total = %d, want 1200", got)
	}
	if got := cellTotals[core.NewDate(2024, 2, 10)]; got != 0 {
		t.Errorf("quiet day total = %d, want 0", got)
	}
}
