package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

type expenseRequest struct {
	Item     string     `json:"item"`
	Amount   core.Money `json:"amount"`
	Category string     `json:"category"`
	Mode     string     `json:"payment_mode"`
	Date     Date       `json:"date"`
	Notes    string     `json:"notes"`
}

func (req expenseRequest) input() services.ExpenseInput {
	return services.ExpenseInput{
		Item:     sanitizeInput(req.Item),
		Amount:   req.Amount,
		Category: core.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Mode:     core.PaymentMode(strings.ToLower(strings.TrimSpace(req.Mode))),
		SpentAt:  req.Date.Time,
		Notes:    sanitizeInput(req.Notes),
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts services.ListOptions
	var err error

	if opts.From, err = parseDateParam(q, "from"); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.To, err = parseDateParam(q, "to"); err != nil {
		writeError(w, r, err)
		return
	}
	if opts.Limit, err = parseIntParam(q, "limit"); err != nil {
		writeError(w, r, err)
		return
	}
	if c := strings.TrimSpace(q.Get("category")); c != "" {
		if opts.Category, err = core.ParseCategory(c); err != nil {
			writeError(w, r, err)
			return
		}
	}

	expenses, err := s.svc.Expenses.List(r.Context(), auth.OwnerFrom(r.Context()), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.svc.Expenses.Create(r.Context(), auth.OwnerFrom(r.Context()), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.Expenses.Get(r.Context(), auth.OwnerFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.svc.Expenses.Update(r.Context(), auth.OwnerFrom(r.Context()), mux.Vars(r)["id"], req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Expenses.Delete(r.Context(), auth.OwnerFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
