// Package services orchestrates the ledger, invoice, report and bill
// operations on top of an injected persistence port.
package services

import (
	"context"
	"time"

	"contas/internal/core"
)

// Store is the persistence port the services run against. One
// implementation exists per storage backend; it is constructed at
// process start and passed in explicitly.
//
// Lookup methods return the core sentinel errors (core.ErrCardNotFound
// and friends) when the row does not exist. CreateInvoice is an atomic
// insert-if-absent: it returns core.ErrDuplicateInvoice when an invoice
// already exists for the same (card, month), backed by a storage-level
// uniqueness constraint rather than a check-then-act read.
type Store interface {
	CreateCard(ctx context.Context, c core.Card) (core.Card, error)
	GetCard(ctx context.Context, id int64) (core.Card, error)
	ListCards(ctx context.Context, ownerID string) ([]core.Card, error)
	UpdateCardLimit(ctx context.Context, id int64, newLimit core.Money) error
	DeleteCard(ctx context.Context, id int64) error

	// ListOwners enumerates the distinct account ids with transactions,
	// for the worker's periodic report sweep.
	ListOwners(ctx context.Context) ([]string, error)

	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	// DeleteTransaction removes the row and returns it, so callers can
	// reverse its ledger effect from stored values.
	DeleteTransaction(ctx context.Context, id int64) (core.Transaction, error)

	CreateDebt(ctx context.Context, d core.InstallmentDebt) (core.InstallmentDebt, error)
	GetDebt(ctx context.Context, id int64) (core.InstallmentDebt, error)
	ListDebts(ctx context.Context, ownerID string) ([]core.InstallmentDebt, error)
	DeleteDebt(ctx context.Context, id int64) (core.InstallmentDebt, error)
	// AdvanceDebtPaidInstallments moves paid_installments to at least n.
	// The update is monotonic so replaying an invoice payment can never
	// move a counter backwards.
	AdvanceDebtPaidInstallments(ctx context.Context, id int64, n int) error

	CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (core.Invoice, error)
	FindInvoice(ctx context.Context, cardID int64, m core.Month) (*core.Invoice, error)
	ListInvoices(ctx context.Context, ownerID string) ([]core.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id int64, status core.InvoiceStatus, amountPaid *core.Money, paidAt *time.Time) error
	CreateInvoiceItem(ctx context.Context, item core.InvoiceItem) (core.InvoiceItem, error)
	ListInvoiceItems(ctx context.Context, invoiceID int64) ([]core.InvoiceItem, error)

	CreateBill(ctx context.Context, b core.Bill) (core.Bill, error)
	ListBills(ctx context.Context, ownerID string) ([]core.Bill, error)
	DeleteBill(ctx context.Context, id int64) error
	UpdateBillStatus(ctx context.Context, id int64, status core.BillStatus) error

	// GetUserSettings returns zero-valued settings when none are stored.
	GetUserSettings(ctx context.Context, ownerID string) (core.UserSettings, error)
	UpsertUserSettings(ctx context.Context, s core.UserSettings) error

	CreateMonthlyReport(ctx context.Context, r core.MonthlyReport) (core.MonthlyReport, error)
	FindMonthlyReport(ctx context.Context, ownerID string, m core.Month) (*core.MonthlyReport, error)
	ListMonthlyReports(ctx context.Context, ownerID string) ([]core.MonthlyReport, error)
}

// EventPublisher pushes domain events to interested consumers (the
// report worker). A nil publisher disables publishing.
type EventPublisher interface {
	PublishInvoicePaid(ctx context.Context, inv core.Invoice) error
}
