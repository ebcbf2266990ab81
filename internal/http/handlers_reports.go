package http

import (
	"fmt"
	"net/http"
	"time"

	"contas/internal/core"
)

type generateReportRequest struct {
	Month string `json:"month"`
}

type reportResponse struct {
	ID              int64                 `json:"id"`
	Month           string                `json:"month"`
	TotalExpense    string                `json:"total_expense"`
	TotalIncome     string                `json:"total_income"`
	SavedAmount     string                `json:"saved_amount"`
	TopCategory     string                `json:"top_category,omitempty"`
	Recommendations []core.Recommendation `json:"recommendations"`
}

func toReportResponse(rep core.MonthlyReport) reportResponse {
	recs := rep.Recommendations
	if recs == nil {
		recs = []core.Recommendation{}
	}
	return reportResponse{
		ID:              rep.ID,
		Month:           rep.Month.String(),
		TotalExpense:    rep.TotalExpense.FormatBRL(),
		TotalIncome:     rep.TotalIncome.FormatBRL(),
		SavedAmount:     rep.SavedAmount.FormatBRL(),
		TopCategory:     rep.TopCategory,
		Recommendations: recs,
	}
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req generateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	month, err := core.ParseMonth(req.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.reports.Generate(r.Context(), owner, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReportResponse(report))
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	reports, err := s.reports.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toReportResponse(rep))
	}
	writeJSON(w, http.StatusOK, out)
}

type settingsRequest struct {
	Salary        string `json:"salary,omitempty"`
	SavingGoal    string `json:"saving_goal,omitempty"`
	SpendingLimit string `json:"spending_limit,omitempty"`
}

type settingsResponse struct {
	SalaryCents        int64 `json:"salary_cents"`
	SavingGoalCents    int64 `json:"saving_goal_cents"`
	SpendingLimitCents int64 `json:"spending_limit_cents"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	settings, err := s.store.GetUserSettings(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		SalaryCents:        settings.Salary.Cents,
		SavingGoalCents:    settings.SavingGoal.Cents,
		SpendingLimitCents: settings.SpendingLimit.Cents,
	})
}

// optionalAmount parses a settings field; empty means zero (unset).
func optionalAmount(s string) (core.Money, error) {
	if s == "" {
		return core.Money{}, nil
	}
	return parseAmount(s)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	settings := core.UserSettings{OwnerID: owner}
	var err error
	if settings.Salary, err = optionalAmount(req.Salary); err != nil {
		writeError(w, r, fmt.Errorf("salary: %w", err))
		return
	}
	if settings.SavingGoal, err = optionalAmount(req.SavingGoal); err != nil {
		writeError(w, r, fmt.Errorf("saving goal: %w", err))
		return
	}
	if settings.SpendingLimit, err = optionalAmount(req.SpendingLimit); err != nil {
		writeError(w, r, fmt.Errorf("spending limit: %w", err))
		return
	}

	if err := s.store.UpsertUserSettings(r.Context(), settings); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(owner, time.Now())
	w.WriteHeader(http.StatusNoContent)
}
