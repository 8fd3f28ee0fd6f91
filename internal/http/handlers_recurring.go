package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

type recurringView struct {
	User    string
	Charges []chargeView
	Error   string
}

// handleRecurring lists the user's recurring charges. Anonymous
// visitors see an empty list.
func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	charges, err := s.service.ListCharges(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Recurring charge listing failed",
			"error", err, "owner_id", user.ID)
		http.Error(w, "failed to load recurring charges", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "recurring.html", s.recurringViewFrom(user, charges, ""))
}

// handleCreateCharge registers a new monthly charge.
func (s *Server) handleCreateCharge(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if user.ID == 0 {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	charge, err := s.parseChargeForm(r, user.ID)
	if err != nil {
		s.renderRecurringError(w, r, user, err.Error())
		return
	}

	if _, err := s.service.CreateCharge(r.Context(), charge); err != nil {
		if isValidationError(err) {
			s.renderRecurringError(w, r, user, "Invalid charge: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Charge creation failed",
			"error", err, "owner_id", user.ID)
		http.Error(w, "failed to save charge", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/recurring", http.StatusSeeOther)
}

// handleDeleteCharge removes one of the user's recurring charges.
// Unknown ids are ignored, same as entry deletion.
func (s *Server) handleDeleteCharge(w http.ResponseWriter, r *http.Request) {
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

	if err := s.service.DeleteCharge(r.Context(), user.ID, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.ErrorContext(r.Context(), "Charge deletion failed",
			"error", err, "charge_id", id, "owner_id", user.ID)
		http.Error(w, "failed to delete charge", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/recurring", http.StatusSeeOther)
}

func (s *Server) parseChargeForm(r *http.Request, ownerID int64) (core.RecurringCharge, error) {
	dayOfMonth, err := strconv.Atoi(r.Form.Get("day_of_month"))
	if err != nil {
		return core.RecurringCharge{}, errors.New("Day of month must be a number between 1 and 31.")
	}
	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		return core.RecurringCharge{}, errors.New("Amount must be a positive whole number.")
	}
	// Omitted start date means the charge starts today.
	startDate := core.Today()
	if v := strings.TrimSpace(r.Form.Get("start_date")); v != "" {
		startDate, err = core.ParseDate(v)
		if err != nil {
			return core.RecurringCharge{}, errors.New("Start date must be a valid YYYY-MM-DD date.")
		}
	}
	endDate, err := parseOptionalDate(r.Form.Get("end_date"))
	if err != nil {
		return core.RecurringCharge{}, errors.New("End date must be empty or a valid YYYY-MM-DD date.")
	}

	return core.RecurringCharge{
		OwnerID:    ownerID,
		DayOfMonth: dayOfMonth,
		Amount:     amount,
		Title:      sanitizeInput(r.Form.Get("title")),
		StartDate:  startDate,
		EndDate:    endDate,
	}, nil
}

func (s *Server) renderRecurringError(w http.ResponseWriter, r *http.Request, user core.User, msg string) {
	charges, err := s.service.ListCharges(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Recurring charge listing failed",
			"error", err, "owner_id", user.ID)
		http.Error(w, "failed to load recurring charges", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	s.render(w, r, "recurring.html", s.recurringViewFrom(user, charges, msg))
}

func (s *Server) recurringViewFrom(user core.User, charges []core.RecurringCharge, errMsg string) recurringView {
	view := recurringView{User: user.Username, Error: errMsg}
	for _, c := range charges {
		view.Charges = append(view.Charges, newChargeView(c))
	}
	return view
}
