package services

import (
	"context"
	"fmt"
	"log/slog"

	"contas/internal/core"
)

// ReportService builds the monthly summary: expense and income totals,
// saved amount, top spending category and salary-relative advice.
type ReportService struct {
	store Store
}

func NewReportService(store Store) *ReportService {
	return &ReportService{store: store}
}

// Generate computes and stores the report for (owner, month). At most
// one report exists per month; regenerating returns
// core.ErrDuplicateReport.
func (s *ReportService) Generate(ctx context.Context, ownerID string, month core.Month) (core.MonthlyReport, error) {
	if existing, err := s.store.FindMonthlyReport(ctx, ownerID, month); err != nil {
		return core.MonthlyReport{}, fmt.Errorf("find report: %w", err)
	} else if existing != nil {
		return core.MonthlyReport{}, core.ErrDuplicateReport
	}

	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("list transactions: %w", err)
	}
	monthTxs := core.FilterByMonth(txs, month)

	totalExpense := core.TotalExpenses(monthTxs)
	totalIncome := core.TotalIncome(monthTxs)
	spending := core.CategorySpending(monthTxs)
	topCategory := core.TopCategory(spending)

	settings, err := s.store.GetUserSettings(ctx, ownerID)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("load settings: %w", err)
	}

	report, err := s.store.CreateMonthlyReport(ctx, core.MonthlyReport{
		OwnerID:         ownerID,
		Month:           month,
		TotalExpense:    totalExpense,
		TotalIncome:     totalIncome,
		SavedAmount:     totalIncome.Sub(totalExpense),
		TopCategory:     topCategory,
		Recommendations: core.BuildRecommendations(totalExpense, settings.Salary, spending, topCategory),
	})
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("create report: %w", err)
	}

	slog.InfoContext(ctx, "monthly report generated",
		"month", month.String(),
		"total_expense_cents", totalExpense.Cents,
		"total_income_cents", totalIncome.Cents,
		"top_category", topCategory)
	return report, nil
}

// List returns all stored reports for the owner.
func (s *ReportService) List(ctx context.Context, ownerID string) ([]core.MonthlyReport, error) {
	reports, err := s.store.ListMonthlyReports(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}
