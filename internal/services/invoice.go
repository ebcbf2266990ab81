package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/core"
)

// InvoiceService assembles monthly card invoices and processes their
// payment. Ledger restores go through the LedgerService so all limit
// writes share one per-card serialization.
type InvoiceService struct {
	store     Store
	ledger    *LedgerService
	publisher EventPublisher
	now       func() time.Time
}

// NewInvoiceService wires the service. publisher may be nil, in which
// case paid-invoice events are not emitted.
func NewInvoiceService(store Store, ledger *LedgerService, publisher EventPublisher) *InvoiceService {
	return &InvoiceService{
		store:     store,
		ledger:    ledger,
		publisher: publisher,
		now:       time.Now,
	}
}

// PaymentError reports which step of the payment sequence failed. The
// sequence aborts on the first failure; nothing after the failed step
// runs.
type PaymentError struct {
	Step string
	Err  error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("pay invoice: step %s: %v", e.Step, e.Err)
}

func (e *PaymentError) Unwrap() error { return e.Err }

// Generate assembles the invoice for (card, month): the card's credit
// expense transactions dated in the month plus the installments due
// that month. Generating is a pure snapshot — it never touches the
// available limit. At most one invoice exists per (card, month); the
// storage constraint makes the duplicate check race-free.
func (s *InvoiceService) Generate(ctx context.Context, ownerID string, cardID int64, month core.Month) (core.Invoice, []core.InvoiceItem, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return core.Invoice{}, nil, fmt.Errorf("load card: %w", err)
	}
	if card.Kind != core.CardCredit {
		return core.Invoice{}, nil, core.ErrNotCreditCard
	}

	if existing, err := s.store.FindInvoice(ctx, cardID, month); err != nil {
		return core.Invoice{}, nil, fmt.Errorf("find invoice: %w", err)
	} else if existing != nil {
		return core.Invoice{}, nil, core.ErrDuplicateInvoice
	}

	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return core.Invoice{}, nil, fmt.Errorf("list transactions: %w", err)
	}
	var matched []core.Transaction
	for _, t := range txs {
		if t.Method == core.MethodCredit && t.Kind == core.KindExpense &&
			t.CardID != nil && *t.CardID == cardID && month.Contains(t.Date) {
			matched = append(matched, t)
		}
	}

	debts, err := s.store.ListDebts(ctx, ownerID)
	if err != nil {
		return core.Invoice{}, nil, fmt.Errorf("list debts: %w", err)
	}
	due := core.InstallmentsDueInMonth(debts, cardID, month)

	var total core.Money
	for _, t := range matched {
		total = total.Add(t.Amount)
	}
	for _, d := range due {
		total = total.Add(d.Amount)
	}

	invoice, err := s.store.CreateInvoice(ctx, core.Invoice{
		OwnerID:     ownerID,
		CardID:      cardID,
		Month:       month,
		DueDate:     core.DueDate(card, month),
		ClosingDate: core.ClosingDate(card, month),
		TotalAmount: total,
		Status:      core.InvoiceOpen,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateInvoice) {
			return core.Invoice{}, nil, core.ErrDuplicateInvoice
		}
		return core.Invoice{}, nil, fmt.Errorf("create invoice: %w", err)
	}

	items := make([]core.InvoiceItem, 0, len(matched)+len(due))
	for _, t := range matched {
		txID := t.ID
		item, err := s.store.CreateInvoiceItem(ctx, core.InvoiceItem{
			InvoiceID:     invoice.ID,
			Kind:          core.ItemTransaction,
			Description:   t.Description,
			Amount:        t.Amount,
			TransactionID: &txID,
		})
		if err != nil {
			return core.Invoice{}, nil, fmt.Errorf("create transaction item: %w", err)
		}
		items = append(items, item)
	}
	for _, d := range due {
		debtID := d.DebtID
		item, err := s.store.CreateInvoiceItem(ctx, core.InvoiceItem{
			InvoiceID:         invoice.ID,
			Kind:              core.ItemInstallment,
			Description:       fmt.Sprintf("%s (%d/%d)", d.Description, d.InstallmentNumber, d.TotalInstallments),
			Amount:            d.Amount,
			DebtID:            &debtID,
			InstallmentNumber: d.InstallmentNumber,
			TotalInstallments: d.TotalInstallments,
		})
		if err != nil {
			return core.Invoice{}, nil, fmt.Errorf("create installment item: %w", err)
		}
		items = append(items, item)
	}

	slog.InfoContext(ctx, "invoice generated",
		"invoice_id", invoice.ID,
		"card_id", cardID,
		"month", month.String(),
		"transactions", len(matched),
		"installments", len(due),
		"total_cents", total.Cents)
	return invoice, items, nil
}

// Pay settles an invoice. Steps, in order: mark paid, credit the
// transaction-item sum back to the card (installment items release
// nothing — their reservation stays held for the rest of the schedule),
// advance each debt's paid counter to the billed installment number,
// delete the absorbed transactions, and record the payment as a new
// invoice-payment transaction. Paying a paid invoice is rejected, which
// is what makes replaying a payment safe. onDone, if set, runs after
// the whole sequence succeeds.
func (s *InvoiceService) Pay(ctx context.Context, invoiceID int64, amount core.Money, onDone func()) (core.Invoice, error) {
	invoice, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("load invoice: %w", err)
	}
	switch invoice.Status {
	case core.InvoicePaid:
		return core.Invoice{}, core.ErrInvoiceAlreadyPaid
	case core.InvoiceOpen, core.InvoiceClosed:
	default:
		return core.Invoice{}, core.ErrInvoiceNotPayable
	}
	if err := amount.Validate(); err != nil {
		return core.Invoice{}, err
	}

	unlock := s.ledger.locks.Lock(invoice.CardID)
	defer unlock()

	items, err := s.store.ListInvoiceItems(ctx, invoiceID)
	if err != nil {
		return core.Invoice{}, &PaymentError{Step: "load-items", Err: err}
	}

	paidAt := s.now()
	if err := s.store.UpdateInvoiceStatus(ctx, invoiceID, core.InvoicePaid, &amount, &paidAt); err != nil {
		return core.Invoice{}, &PaymentError{Step: "mark-paid", Err: err}
	}

	// Only pay-as-you-go transactions are credited back. Installment
	// reservations were taken in full at debt creation and stay held.
	var restore core.Money
	for _, item := range items {
		if item.Kind == core.ItemTransaction {
			restore = restore.Add(item.Amount)
		}
	}
	if restore.Cents > 0 {
		if err := s.ledger.creditBack(ctx, invoice.CardID, restore); err != nil {
			return core.Invoice{}, &PaymentError{Step: "restore-limit", Err: err}
		}
	}

	for _, item := range items {
		if item.Kind != core.ItemInstallment || item.DebtID == nil {
			continue
		}
		if err := s.store.AdvanceDebtPaidInstallments(ctx, *item.DebtID, item.InstallmentNumber); err != nil {
			return core.Invoice{}, &PaymentError{Step: "advance-installments", Err: err}
		}
	}

	for _, item := range items {
		if item.Kind != core.ItemTransaction || item.TransactionID == nil {
			continue
		}
		// Deleted directly at the store: the invoice payment already
		// credits the card, so the ledger reversal in
		// LedgerService.DeleteTransaction must not run here.
		if _, err := s.store.DeleteTransaction(ctx, *item.TransactionID); err != nil {
			if errors.Is(err, core.ErrTransactionNotFound) {
				slog.WarnContext(ctx, "invoice transaction already gone",
					"invoice_id", invoiceID,
					"transaction_id", *item.TransactionID)
				continue
			}
			return core.Invoice{}, &PaymentError{Step: "delete-transactions", Err: err}
		}
	}

	if _, err := s.store.CreateTransaction(ctx, core.Transaction{
		OwnerID:     invoice.OwnerID,
		Description: fmt.Sprintf("Invoice payment %s", invoice.Month.Format()),
		Amount:      amount,
		Method:      core.MethodInvoicePayment,
		Kind:        core.KindExpense,
		Category:    core.SettlementCategory,
		Date:        paidAt,
		CreatedAt:   paidAt,
	}); err != nil {
		return core.Invoice{}, &PaymentError{Step: "record-settlement", Err: err}
	}

	invoice.Status = core.InvoicePaid
	invoice.AmountPaid = &amount
	invoice.PaidAt = &paidAt

	if s.publisher != nil {
		if err := s.publisher.PublishInvoicePaid(ctx, invoice); err != nil {
			// Event delivery is best-effort; the payment itself is done.
			slog.ErrorContext(ctx, "publish invoice paid event failed",
				"invoice_id", invoiceID, "error", err)
		}
	}

	slog.InfoContext(ctx, "invoice paid",
		"invoice_id", invoiceID,
		"card_id", invoice.CardID,
		"amount_cents", amount.Cents,
		"restored_cents", restore.Cents)

	if onDone != nil {
		onDone()
	}
	return invoice, nil
}

// Close moves an open invoice to closed.
func (s *InvoiceService) Close(ctx context.Context, invoiceID int64) error {
	return s.transition(ctx, invoiceID, core.InvoiceOpen, core.InvoiceClosed)
}

// Reopen moves a closed invoice back to open. Paid is terminal: a paid
// invoice cannot be reopened because its ledger and installment effects
// are not reversible.
func (s *InvoiceService) Reopen(ctx context.Context, invoiceID int64) error {
	return s.transition(ctx, invoiceID, core.InvoiceClosed, core.InvoiceOpen)
}

func (s *InvoiceService) transition(ctx context.Context, invoiceID int64, from, to core.InvoiceStatus) error {
	invoice, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("load invoice: %w", err)
	}
	if invoice.Status == core.InvoicePaid {
		return core.ErrInvoiceAlreadyPaid
	}
	if invoice.Status != from {
		return fmt.Errorf("invoice %d is %s, not %s: %w", invoiceID, invoice.Status, from, core.ErrInvoiceNotPayable)
	}
	if err := s.store.UpdateInvoiceStatus(ctx, invoiceID, to, nil, nil); err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	slog.InfoContext(ctx, "invoice status changed",
		"invoice_id", invoiceID, "from", from, "to", to)
	return nil
}
