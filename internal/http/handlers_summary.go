package http

import (
	"net/http"
	"time"

	"contas/internal/core"
)

// summaryResponse is the dashboard payload: one month's totals plus
// ledger and bill state. Cached per (owner, month); writes invalidate
// the touched month and the TTL covers the rest.
type summaryResponse struct {
	Month            string            `json:"month"`
	TotalExpense     string            `json:"total_expense"`
	TotalIncome      string            `json:"total_income"`
	CategorySpending map[string]string `json:"category_spending"`
	TopCategory      string            `json:"top_category,omitempty"`
	Cards            []cardResponse    `json:"cards"`
	LimitAlert       *core.LimitAlert  `json:"limit_alert,omitempty"`
	UpcomingBills    []billResponse    `json:"upcoming_bills"`
}

func summaryKey(owner string, m core.Month) string {
	return owner + "|" + m.String()
}

func (s *Server) invalidateSummary(owner string, at time.Time) {
	s.summaryCache.Invalidate(summaryKey(owner, core.MonthOf(at)))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	month := core.MonthOf(time.Now())
	if v := r.URL.Query().Get("month"); v != "" {
		parsed, err := core.ParseMonth(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		month = parsed
	}

	key := summaryKey(owner, month)
	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	monthTxs := core.FilterByMonth(txs, month)
	totalExpense := core.TotalExpenses(monthTxs)
	spending := core.CategorySpending(monthTxs)

	cards, err := s.store.ListCards(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	settings, err := s.store.GetUserSettings(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	upcoming, err := s.bills.Upcoming(r.Context(), owner, s.upcomingDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := summaryResponse{
		Month:            month.String(),
		TotalExpense:     totalExpense.FormatBRL(),
		TotalIncome:      core.TotalIncome(monthTxs).FormatBRL(),
		CategorySpending: make(map[string]string, len(spending)),
		TopCategory:      core.TopCategory(spending),
		Cards:            make([]cardResponse, 0, len(cards)),
		LimitAlert:       core.CheckSpendingLimit(totalExpense, settings.SpendingLimit),
		UpcomingBills:    make([]billResponse, 0, len(upcoming)),
	}
	for cat, amount := range spending {
		resp.CategorySpending[cat] = amount.FormatBRL()
	}
	for _, c := range cards {
		resp.Cards = append(resp.Cards, toCardResponse(c))
	}
	for _, b := range upcoming {
		resp.UpcomingBills = append(resp.UpcomingBills, toBillResponse(b))
	}

	s.summaryCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}
