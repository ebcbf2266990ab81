package http

import (
	"net/http"

	"contas/internal/core"
)

type debtRequest struct {
	Description  string `json:"description"`
	Total        string `json:"total"`
	Installments int    `json:"installments"`
	Paid         int    `json:"paid,omitempty"`
	Method       string `json:"method"`
	CardID       *int64 `json:"card_id,omitempty"`
}

type debtResponse struct {
	ID                int64   `json:"id"`
	Description       string  `json:"description"`
	TotalCents        int64   `json:"total_cents"`
	Total             string  `json:"total"`
	MonthlyCents      int64   `json:"monthly_cents"`
	Monthly           string  `json:"monthly"`
	TotalInstallments int     `json:"total_installments"`
	PaidInstallments  int     `json:"paid_installments"`
	StartMonth        string  `json:"start_month"`
	Method            string  `json:"method"`
	CardID            *int64  `json:"card_id,omitempty"`
	ProgressPercent   float64 `json:"progress_percent"`
}

func toDebtResponse(d core.InstallmentDebt) debtResponse {
	return debtResponse{
		ID:                d.ID,
		Description:       d.Description,
		TotalCents:        d.TotalValue.Cents,
		Total:             d.TotalValue.FormatBRL(),
		MonthlyCents:      d.MonthlyValue.Cents,
		Monthly:           d.MonthlyValue.FormatBRL(),
		TotalInstallments: d.TotalInstallments,
		PaidInstallments:  d.PaidInstallments,
		StartMonth:        d.StartMonth.String(),
		Method:            string(d.Method),
		CardID:            d.CardID,
		ProgressPercent:   core.InstallmentProgressPercent(d),
	}
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	total, err := parseAmount(req.Total)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.ledger.AddDebt(r.Context(), owner, req.CardID, req.Description,
		total, req.Installments, req.Paid, core.DebtMethod(req.Method))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDebtResponse(created))
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	debts, err := s.store.ListDebts(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]debtResponse, 0, len(debts))
	for _, d := range debts {
		out = append(out, toDebtResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.ledger.DeleteDebt(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
