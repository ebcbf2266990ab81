package http

import (
	"net/http"

	"contas/internal/core"
)

type generateInvoiceRequest struct {
	CardID int64  `json:"card_id"`
	Month  string `json:"month"`
}

type payInvoiceRequest struct {
	Amount string `json:"amount"`
}

type invoiceResponse struct {
	ID          int64  `json:"id"`
	CardID      int64  `json:"card_id"`
	Month       string `json:"month"`
	MonthLabel  string `json:"month_label"`
	DueDate     string `json:"due_date"`
	ClosingDate string `json:"closing_date"`
	TotalCents  int64  `json:"total_cents"`
	Total       string `json:"total"`
	Status      string `json:"status"`
	AmountPaid  string `json:"amount_paid,omitempty"`
	PaidAt      string `json:"paid_at,omitempty"`
}

type invoiceItemResponse struct {
	ID                int64  `json:"id"`
	Kind              string `json:"kind"`
	Description       string `json:"description"`
	AmountCents       int64  `json:"amount_cents"`
	Amount            string `json:"amount"`
	InstallmentNumber int    `json:"installment_number,omitempty"`
	TotalInstallments int    `json:"total_installments,omitempty"`
}

func toInvoiceResponse(inv core.Invoice) invoiceResponse {
	resp := invoiceResponse{
		ID:          inv.ID,
		CardID:      inv.CardID,
		Month:       inv.Month.String(),
		MonthLabel:  inv.Month.Format(),
		DueDate:     inv.DueDate,
		ClosingDate: inv.ClosingDate,
		TotalCents:  inv.TotalAmount.Cents,
		Total:       inv.TotalAmount.FormatBRL(),
		Status:      string(inv.Status),
	}
	if inv.AmountPaid != nil {
		resp.AmountPaid = inv.AmountPaid.FormatBRL()
	}
	if inv.PaidAt != nil {
		resp.PaidAt = inv.PaidAt.Format("2006-01-02")
	}
	return resp
}

func (s *Server) handleGenerateInvoice(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req generateInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	month, err := core.ParseMonth(req.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	invoice, items, err := s.invoices.Generate(r.Context(), owner, req.CardID, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	itemsOut := make([]invoiceItemResponse, 0, len(items))
	for _, item := range items {
		itemsOut = append(itemsOut, toInvoiceItemResponse(item))
	}
	writeJSON(w, http.StatusCreated, struct {
		Invoice invoiceResponse       `json:"invoice"`
		Items   []invoiceItemResponse `json:"items"`
	}{toInvoiceResponse(invoice), itemsOut})
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	invoices, err := s.store.ListInvoices(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	writeJSON(w, http.StatusOK, out)
}

func toInvoiceItemResponse(item core.InvoiceItem) invoiceItemResponse {
	return invoiceItemResponse{
		ID:                item.ID,
		Kind:              string(item.Kind),
		Description:       item.Description,
		AmountCents:       item.Amount.Cents,
		Amount:            item.Amount.FormatBRL(),
		InstallmentNumber: item.InstallmentNumber,
		TotalInstallments: item.TotalInstallments,
	}
}

func (s *Server) handleListInvoiceItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.GetInvoice(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.store.ListInvoiceItems(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]invoiceItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toInvoiceItemResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req payInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	paid, err := s.invoices.Pay(r.Context(), id, amount, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if paid.PaidAt != nil {
		s.invalidateSummary(owner, *paid.PaidAt)
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(paid))
}

func (s *Server) handleCloseInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.invoices.Close(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReopenInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.invoices.Reopen(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
