package http

import (
	"net/http"

	"expensetracker/internal/auth"
	"expensetracker/internal/report"
)

type dashboardResponse struct {
	Summary report.Dashboard `json:"summary"`
	// MonthEndReport is set while the last closed month is unacknowledged.
	MonthEndReport *report.MonthlyReport `json:"month_end_report"`
}

type monthEndResponse struct {
	Pending bool                  `json:"pending"`
	Report  *report.MonthlyReport `json:"report,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFrom(r.Context())

	pending, ok, err := s.svc.Rollover.PendingMonthEndReport(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dash, err := s.svc.Reports.Dashboard(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := dashboardResponse{Summary: dash}
	if ok {
		resp.MonthEndReport = &pending
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodParam(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	rep, err := s.svc.Reports.Monthly(r.Context(), auth.OwnerFrom(r.Context()), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleCompareReport(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodParam(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	cmp, err := s.svc.Reports.Compare(r.Context(), auth.OwnerFrom(r.Context()), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleTrendReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	g, err := report.ParseGranularity(q.Get("granularity"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, err := parseDateParam(q, "from")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseDateParam(q, "to")
	if err != nil {
		writeError(w, r, err)
		return
	}

	points, err := s.svc.Reports.Trend(r.Context(), auth.OwnerFrom(r.Context()), g, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, points)
}

func (s *Server) handleMonthEndReport(w http.ResponseWriter, r *http.Request) {
	rep, ok, err := s.svc.Rollover.PendingMonthEndReport(r.Context(), auth.OwnerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := monthEndResponse{Pending: ok}
	if ok {
		resp.Report = &rep
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcknowledgeMonthEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Rollover.AcknowledgeMonthEndReport(r.Context(), auth.OwnerFrom(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
