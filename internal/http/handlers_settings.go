package http

import (
	"net/http"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

type settingsRequest struct {
	MonthlyBudget        *core.Money `json:"monthly_budget"`
	Currency             *string     `json:"currency"`
	StartOfWeek          *int        `json:"start_of_week"`
	NotificationsEnabled *bool       `json:"notifications_enabled"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Settings.Get(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := services.SettingsInput{
		MonthlyBudget:        req.MonthlyBudget,
		NotificationsEnabled: req.NotificationsEnabled,
	}
	if req.Currency != nil {
		c := sanitizeInput(*req.Currency)
		in.Currency = &c
	}
	if req.StartOfWeek != nil {
		wd := time.Weekday(*req.StartOfWeek)
		in.StartOfWeek = &wd
	}

	st, err := s.svc.Settings.Update(r.Context(), auth.OwnerFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}
