package http

import (
	"net/http"
	"time"

	"contas/internal/core"
)

type transactionRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	Kind        string `json:"kind"`
	CardID      *int64 `json:"card_id,omitempty"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date,omitempty"`
}

type transactionResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	Kind        string `json:"kind"`
	CardID      *int64 `json:"card_id,omitempty"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Description: t.Description,
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.FormatBRL(),
		Method:      string(t.Method),
		Kind:        string(t.Kind),
		CardID:      t.CardID,
		Category:    t.Category,
		Date:        t.Date.Format("2006-01-02"),
	}
}

func (s *Server) transactionFromRequest(owner string, req transactionRequest) (core.Transaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		OwnerID:     owner,
		Description: req.Description,
		Amount:      amount,
		Method:      core.PaymentMethod(req.Method),
		Kind:        core.TransactionKind(req.Kind),
		CardID:      req.CardID,
		Category:    req.Category,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return core.Transaction{}, errInvalidDate
		}
		tx.Date = date
	}
	return tx, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	tx, err := s.transactionFromRequest(owner, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.ledger.AddTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(owner, created.Date)
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	txs, err := s.store.ListTransactions(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		month, err := core.ParseMonth(monthStr)
		if err != nil {
			writeError(w, r, err)
			return
		}
		txs = core.FilterByMonth(txs, month)
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	tx, err := s.transactionFromRequest(owner, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx.ID = id

	updated, err := s.ledger.UpdateTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(owner, updated.Date)
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := s.ledger.DeleteTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(owner, deleted.Date)
	w.WriteHeader(http.StatusNoContent)
}
