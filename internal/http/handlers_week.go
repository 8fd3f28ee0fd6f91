package http

import (
	"log/slog"
	"net/http"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
)

type (
	weekDayView struct {
		Date        string
		Weekday     string
		Entries     []entryView
		Charges     []chargeView
		Total       string
		HasActivity bool
	}

	weekView struct {
		User      string
		Start     string
		End       string
		PrevStart string
		NextStart string
		Days      []weekDayView
		Total     string
	}
)

// handleWeek renders seven days starting on the requested Sunday. An
// absent start parameter means the current week; a malformed one is
// rejected.
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	start := ledger.DefaultWeekStart()
	if v := r.URL.Query().Get("start"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		start = core.SundayOnOrBefore(d)
	}
	user := userFrom(r.Context())

	view, err := s.aggregator.BuildWeek(r.Context(), user.ID, start)
	if err != nil {
		slog.ErrorContext(r.Context(), "Week view failed",
			"error", err, "start", start.String(), "owner_id", user.ID)
		http.Error(w, "failed to load week", http.StatusInternalServerError)
		return
	}

	out := weekView{
		User:      user.Username,
		Start:     view.Start.String(),
		End:       view.Start.AddDays(6).String(),
		PrevStart: view.Start.AddDays(-7).String(),
		NextStart: view.Start.AddDays(7).String(),
		Total:     formatAmount(view.Total),
	}
	for _, day := range view.Days {
		dv := weekDayView{
			Date:        day.Date.String(),
			Weekday:     day.Date.Weekday().String(),
			Total:       formatAmount(day.Total),
			HasActivity: len(day.Entries) > 0 || len(day.Charges) > 0,
		}
		for _, e := range day.Entries {
			dv.Entries = append(dv.Entries, entryView{
				ID:     e.ID,
				Title:  e.Title,
				Kind:   string(e.Kind),
				Amount: formatAmount(e.Signed()),
			})
		}
		for _, c := range day.Charges {
			dv.Charges = append(dv.Charges, newChargeView(c))
		}
		out.Days = append(out.Days, dv)
	}

	s.render(w, r, "week.html", out)
}
