package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"kakeibo/internal/core"
	"kakeibo/internal/ledger"
	"kakeibo/internal/storage"
)

type (
	entryView struct {
		ID     int64
		Title  string
		Kind   string
		Amount string
	}

	chargeView struct {
		ID         int64
		Title      string
		DayOfMonth int
		Amount     string
		Start      string
		End        string
	}

	dayView struct {
		User    string
		Date    string
		Weekday string
		Entries []entryView
		Charges []chargeView
		Total   string
		Error   string
	}
)

// handleDay renders a single day: its entries, the recurring charges
// firing on it, and the signed total.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	d, err := core.ParseDate(r.PathValue("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	user := userFrom(r.Context())

	summary, err := s.aggregator.BuildDay(r.Context(), user.ID, d)
	if err != nil {
		slog.ErrorContext(r.Context(), "Day view failed",
			"error", err, "date", d.String(), "owner_id", user.ID)
		http.Error(w, "failed to load day", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "day.html", s.dayViewFrom(user, summary, ""))
}

// handleCreateEntry records a one-off entry on the given day.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	d, err := core.ParseDate(r.PathValue("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	user := userFrom(r.Context())
	if user.ID == 0 {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		s.renderDayError(w, r, user, d, "Amount must be a positive whole number.")
		return
	}

	entry := core.LedgerEntry{
		OwnerID: user.ID,
		Date:    d,
		Amount:  amount,
		Kind:    core.Kind(sanitizeInput(r.Form.Get("kind"))),
		Title:   sanitizeInput(r.Form.Get("title")),
	}

	if _, err := s.service.CreateEntry(r.Context(), entry); err != nil {
		if isValidationError(err) {
			s.renderDayError(w, r, user, d, "Invalid entry: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Entry creation failed",
			"error", err, "date", d.String(), "owner_id", user.ID)
		http.Error(w, "failed to save entry", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/day/"+d.String(), http.StatusSeeOther)
}

// handleDeleteEntry removes one of the user's entries. Ids that do not
// exist or belong to someone else are ignored; the delete is scoped to
// the owner, so either way nothing of anyone else's is touched.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if user.ID == 0 {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := s.service.DeleteEntry(r.Context(), user.ID, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.ErrorContext(r.Context(), "Entry deletion failed",
			"error", err, "entry_id", id, "owner_id", user.ID)
		http.Error(w, "failed to delete entry", http.StatusInternalServerError)
		return
	}

	redirect := r.FormValue("redirect")
	if redirect == "" || redirect[0] != '/' {
		redirect = "/month"
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (s *Server) renderDayError(w http.ResponseWriter, r *http.Request, user core.User, d core.Date, msg string) {
	summary, err := s.aggregator.BuildDay(r.Context(), user.ID, d)
	if err != nil {
		slog.ErrorContext(r.Context(), "Day view failed",
			"error", err, "date", d.String(), "owner_id", user.ID)
		http.Error(w, "failed to load day", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	s.render(w, r, "day.html", s.dayViewFrom(user, summary, msg))
}

func (s *Server) dayViewFrom(user core.User, summary ledger.DaySummary, errMsg string) dayView {
	view := dayView{
		User:    user.Username,
		Date:    summary.Date.String(),
		Weekday: summary.Date.Weekday().String(),
		Total:   formatAmount(summary.Total),
		Error:   errMsg,
	}
	for _, e := range summary.Entries {
		view.Entries = append(view.Entries, entryView{
			ID:     e.ID,
			Title:  e.Title,
			Kind:   string(e.Kind),
			Amount: formatAmount(e.Signed()),
		})
	}
	for _, c := range summary.Charges {
		view.Charges = append(view.Charges, newChargeView(c))
	}
	return view
}

func newChargeView(c core.RecurringCharge) chargeView {
	v := chargeView{
		ID:         c.ID,
		Title:      c.Title,
		DayOfMonth: c.DayOfMonth,
		Amount:     formatAmount(-c.Amount.Cents),
		Start:      c.StartDate.String(),
	}
	if !c.EndDate.IsEmpty() {
		v.End = c.EndDate.String()
	}
	return v
}

// isValidationError reports whether the error is a domain validation
// failure rather than an infrastructure one.
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrInvalidKind,
		core.ErrInvalidDayOfMonth,
		core.ErrInvalidDateRange,
		core.ErrEmptyTitle,
		core.ErrTitleTooLong,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
