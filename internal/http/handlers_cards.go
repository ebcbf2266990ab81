package http

import (
	"net/http"

	"contas/internal/core"
)

type cardRequest struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Limit      string `json:"limit,omitempty"`
	DueDay     int    `json:"due_day,omitempty"`
	ClosingDay int    `json:"closing_day,omitempty"`
}

type cardResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	AvailableCents int64   `json:"available_cents"`
	OriginalCents  int64   `json:"original_cents"`
	Available      string  `json:"available"`
	DueDay         int     `json:"due_day,omitempty"`
	ClosingDay     int     `json:"closing_day,omitempty"`
	UsagePercent   float64 `json:"usage_percent"`
}

func toCardResponse(c core.Card) cardResponse {
	return cardResponse{
		ID:             c.ID,
		Name:           c.Name,
		Kind:           string(c.Kind),
		AvailableCents: c.AvailableLimit.Cents,
		OriginalCents:  c.OriginalLimit.Cents,
		Available:      c.AvailableLimit.FormatBRL(),
		DueDay:         c.DueDay,
		ClosingDay:     c.ClosingDay,
		UsagePercent:   core.CardUsagePercent(c),
	}
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	card := core.Card{
		OwnerID:    owner,
		Name:       req.Name,
		Kind:       core.CardKind(req.Kind),
		DueDay:     req.DueDay,
		ClosingDay: req.ClosingDay,
	}
	if req.Limit != "" {
		limit, err := parseAmount(req.Limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		card.AvailableLimit = limit
	}

	created, err := s.ledger.AddCard(r.Context(), card)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCardResponse(created))
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	cards, err := s.store.ListCards(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteCard(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
