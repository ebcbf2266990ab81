// Package worker consumes paid-invoice events and materializes the
// monthly reports asynchronously, outside the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/services"
)

type ReportWorker struct {
	store   services.Store
	reports *services.ReportService
}

func NewReportWorker(store services.Store, reports *services.ReportService) *ReportWorker {
	return &ReportWorker{store: store, reports: reports}
}

// HandleInvoicePaid generates the monthly report for the invoice's
// owner and month. Reports are unique per (owner, month), so redelivery
// of the same message is a no-op rather than an error — returning the
// duplicate would requeue the message forever.
func (w *ReportWorker) HandleInvoicePaid(ctx context.Context, msg *amqp.InvoicePaidMessage) error {
	month, err := core.ParseMonth(msg.Month)
	if err != nil {
		return fmt.Errorf("parse month %q: %w", msg.Month, err)
	}

	report, err := w.reports.Generate(ctx, msg.OwnerID, month)
	if errors.Is(err, core.ErrDuplicateReport) {
		slog.InfoContext(ctx, "report already generated, skipping",
			"invoice_id", msg.InvoiceID,
			"month", msg.Month)
		return nil
	}
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	slog.InfoContext(ctx, "report generated from invoice payment",
		"invoice_id", msg.InvoiceID,
		"report_id", report.ID,
		"month", msg.Month)
	return nil
}

// SweepMonth backfills the report for every known owner, catching
// months whose invoice-paid event was lost or never emitted. Owners who
// already have the month's report are skipped.
func (w *ReportWorker) SweepMonth(ctx context.Context, month core.Month) error {
	owners, err := w.store.ListOwners(ctx)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}

	var generated int
	for _, owner := range owners {
		if _, err := w.reports.Generate(ctx, owner, month); err != nil {
			if errors.Is(err, core.ErrDuplicateReport) {
				continue
			}
			return fmt.Errorf("generate report for %s: %w", owner, err)
		}
		generated++
	}

	if generated > 0 {
		slog.InfoContext(ctx, "report sweep completed",
			"month", month.String(),
			"generated", generated,
			"owners", len(owners))
	}
	return nil
}
