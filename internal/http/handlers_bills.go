package http

import (
	"net/http"
	"strconv"
	"time"

	"contas/internal/core"
)

type billRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status,omitempty"`
}

type billStatusRequest struct {
	Status string `json:"status"`
}

type billResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
}

func toBillResponse(b core.Bill) billResponse {
	return billResponse{
		ID:          b.ID,
		Description: b.Description,
		AmountCents: b.Amount.Cents,
		Amount:      b.Amount.FormatBRL(),
		DueDate:     b.DueDate.Format("2006-01-02"),
		Status:      string(b.Status),
	}
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req billRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		writeError(w, r, errInvalidDate)
		return
	}

	created, err := s.bills.Add(r.Context(), core.Bill{
		OwnerID:     owner,
		Description: req.Description,
		Amount:      amount,
		DueDate:     dueDate,
		Status:      core.BillStatus(req.Status),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBillResponse(created))
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	bills, err := s.store.ListBills(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]billResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpcomingBills(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	days := s.upcomingDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid days parameter"})
			return
		}
		days = n
	}
	bills, err := s.bills.Upcoming(r.Context(), owner, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]billResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateBillStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req billStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	status := core.BillStatus(req.Status)
	if status != core.BillPending && status != core.BillPaid {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid bill status"})
		return
	}
	if err := s.bills.SetStatus(r.Context(), id, status); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.bills.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
