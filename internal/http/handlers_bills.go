package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

type billRequest struct {
	Name     string     `json:"name"`
	Amount   core.Money `json:"amount"`
	DueDay   int        `json:"due_day"`
	Category string     `json:"category"`
	Active   *bool      `json:"is_active"`
}

func (req billRequest) input() services.BillInput {
	return services.BillInput{
		Name:     sanitizeInput(req.Name),
		Amount:   req.Amount,
		DueDay:   req.DueDay,
		Category: core.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Active:   req.Active,
	}
}

type payRequest struct {
	Mode   string `json:"payment_mode"`
	PaidAt Date   `json:"paid_at"`
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	all, err := parseBoolParam(r.URL.Query(), "all")
	if err != nil {
		writeError(w, r, err)
		return
	}

	bills, err := s.svc.Bills.List(r.Context(), auth.OwnerFrom(r.Context()), all)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bills == nil {
		bills = []core.Bill{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"bills": bills})
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := s.svc.Bills.Create(r.Context(), auth.OwnerFrom(r.Context()), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Bills.Get(r.Context(), auth.OwnerFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := s.svc.Bills.Update(r.Context(), auth.OwnerFrom(r.Context()), mux.Vars(r)["id"], req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Bills.Delete(r.Context(), auth.OwnerFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePayBill(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := core.ParsePaymentMode(req.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	receipt, err := s.svc.Payments.MarkPaid(r.Context(), auth.OwnerFrom(r.Context()), services.PayBillInput{
		BillID: mux.Vars(r)["id"],
		Mode:   mode,
		PaidAt: req.PaidAt.Time,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

func (s *Server) handleBillStatus(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodParam(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	overview, err := s.svc.Bills.Status(r.Context(), auth.OwnerFrom(r.Context()), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if overview.Bills == nil {
		overview.Bills = []services.BillStatusEntry{}
	}
	respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleBillPayments(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodParam(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	payments, err := s.svc.Bills.Payments(r.Context(), auth.OwnerFrom(r.Context()), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []core.BillPayment{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"payments": payments})
}
