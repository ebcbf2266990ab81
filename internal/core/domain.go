package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CardCredit CardKind = "credit"
	CardDebit  CardKind = "debit"

	MethodPix            PaymentMethod = "pix"
	MethodCredit         PaymentMethod = "credit"
	MethodDebit          PaymentMethod = "debit"
	MethodCash           PaymentMethod = "cash"
	MethodBoleto         PaymentMethod = "boleto"
	MethodInvoicePayment PaymentMethod = "invoice-payment"

	KindExpense TransactionKind = "expense"
	KindIncome  TransactionKind = "income"

	DebtOnCard   DebtMethod = "card"
	DebtOnBoleto DebtMethod = "boleto"

	InvoiceOpen   InvoiceStatus = "open"
	InvoiceClosed InvoiceStatus = "closed"
	InvoicePaid   InvoiceStatus = "paid"

	ItemTransaction InvoiceItemKind = "transaction"
	ItemInstallment InvoiceItemKind = "installment"

	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
)

// Defaults applied when the caller leaves a field empty. Explicit named
// constants instead of falsy-coercion defaults.
const (
	DefaultCategory    = "uncategorized"
	SettlementCategory = "Card Invoice"
	DefaultDueDay      = 10
	DefaultClosingDay  = 5
	MaxDescriptionLen  = 200
)

type (
	CardKind        string
	PaymentMethod   string
	TransactionKind string
	DebtMethod      string
	InvoiceStatus   string
	InvoiceItemKind string
	BillStatus      string

	// Card is a credit or debit card. For credit cards the ledger keeps
	// AvailableLimit between spending and restores; OriginalLimit is
	// fixed at creation and never raised.
	Card struct {
		ID             int64
		OwnerID        string
		Name           string
		Kind           CardKind
		AvailableLimit Money
		OriginalLimit  Money
		DueDay         int
		ClosingDay     int
	}

	// Transaction is a single expense or income entry. CardID is set
	// when the payment method is a card.
	Transaction struct {
		ID          int64
		OwnerID     string
		Description string
		Amount      Money
		Method      PaymentMethod
		Kind        TransactionKind
		CardID      *int64
		Category    string
		Date        time.Time
		CreatedAt   time.Time
	}

	// InstallmentDebt is a purchase split into equal monthly charges.
	// MonthlyValue is computed once at creation and fixed thereafter.
	InstallmentDebt struct {
		ID                int64
		OwnerID           string
		CardID            *int64
		Description       string
		TotalValue        Money
		TotalInstallments int
		PaidInstallments  int
		MonthlyValue      Money
		StartMonth        Month
		Method            DebtMethod
	}

	// Invoice is a monthly card statement. At most one exists per
	// (card, month); storage enforces it with a unique constraint.
	Invoice struct {
		ID          int64
		OwnerID     string
		CardID      int64
		Month       Month
		DueDate     string
		ClosingDate string
		TotalAmount Money
		Status      InvoiceStatus
		AmountPaid  *Money
		PaidAt      *time.Time
		CreatedAt   time.Time
	}

	// InvoiceItem is one line on an invoice, referencing either a
	// transaction or one installment of a debt. Items are written once
	// at generation and never mutated.
	InvoiceItem struct {
		ID                int64
		InvoiceID         int64
		Kind              InvoiceItemKind
		Description       string
		Amount            Money
		TransactionID     *int64
		DebtID            *int64
		InstallmentNumber int
		TotalInstallments int
	}

	// Bill is a standalone payable (boleto, utility) with a due date.
	Bill struct {
		ID          int64
		OwnerID     string
		Description string
		Amount      Money
		DueDate     time.Time
		Status      BillStatus
	}

	// UserSettings carries the per-account figures reports are built
	// against.
	UserSettings struct {
		OwnerID       string
		Salary        Money
		SavingGoal    Money
		SpendingLimit Money
	}

	// MonthlyReport is the generated month summary, one per
	// (owner, month).
	MonthlyReport struct {
		ID              int64
		OwnerID         string
		Month           Month
		TotalExpense    Money
		TotalIncome     Money
		SavedAmount     Money
		TopCategory     string
		Recommendations []Recommendation
	}

	Recommendation struct {
		Level string `json:"level"`
		Text  string `json:"text"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidDay          = errors.New("invalid day of month")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidCardKind     = errors.New("invalid card kind")
	ErrInvalidMethod       = errors.New("invalid payment method")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrCardRequired        = errors.New("card required for card payment method")
	ErrInvalidInstallments = errors.New("invalid installment count")
	ErrNotCreditCard       = errors.New("card is not a credit card")

	ErrCardNotFound        = errors.New("card not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDebtNotFound        = errors.New("debt not found")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrBillNotFound        = errors.New("bill not found")

	ErrDuplicateInvoice   = errors.New("invoice already exists for card and month")
	ErrInvoiceAlreadyPaid = errors.New("invoice already paid")
	ErrInvoiceNotPayable  = errors.New("invoice not in a payable status")
	ErrDuplicateReport    = errors.New("report already exists for month")
)

func validDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	if len(s) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	switch c.Kind {
	case CardCredit, CardDebit:
	default:
		return ErrInvalidCardKind
	}
	if c.Kind == CardCredit {
		if c.OriginalLimit.Cents < 0 || c.AvailableLimit.Cents < 0 {
			return ErrInvalidAmount
		}
		if c.AvailableLimit.Cents > c.OriginalLimit.Cents {
			return ErrInvalidAmount
		}
		if c.DueDay < 1 || c.DueDay > 31 {
			return ErrInvalidDay
		}
		if c.ClosingDay < 1 || c.ClosingDay > 31 {
			return ErrInvalidDay
		}
	}
	return nil
}

// IsCardMethod reports whether the method needs a card reference.
func (m PaymentMethod) IsCardMethod() bool {
	return m == MethodCredit || m == MethodDebit
}

func (m PaymentMethod) Validate() error {
	switch m {
	case MethodPix, MethodCredit, MethodDebit, MethodCash, MethodBoleto, MethodInvoicePayment:
		return nil
	}
	return ErrInvalidMethod
}

func (k TransactionKind) Validate() error {
	switch k {
	case KindExpense, KindIncome:
		return nil
	}
	return ErrInvalidKind
}

func (t Transaction) Validate() error {
	if err := validDescription(t.Description); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Method.Validate(); err != nil {
		return err
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if t.Method.IsCardMethod() && t.CardID == nil {
		return ErrCardRequired
	}
	return nil
}

// AffectsLimit reports whether the transaction moves a credit card's
// available limit: credit-method entries with a card set.
func (t Transaction) AffectsLimit() bool {
	return t.Method == MethodCredit && t.CardID != nil
}

func (d InstallmentDebt) Validate() error {
	if err := validDescription(d.Description); err != nil {
		return err
	}
	if err := d.TotalValue.Validate(); err != nil {
		return err
	}
	if d.TotalInstallments < 1 {
		return ErrInvalidInstallments
	}
	if d.PaidInstallments < 0 || d.PaidInstallments > d.TotalInstallments {
		return ErrInvalidInstallments
	}
	switch d.Method {
	case DebtOnCard, DebtOnBoleto:
	default:
		return ErrInvalidMethod
	}
	return d.StartMonth.Validate()
}

// Remaining returns the number of unpaid installments.
func (d InstallmentDebt) Remaining() int {
	return d.TotalInstallments - d.PaidInstallments
}

// RemainingValue is the money still owed across unpaid installments —
// the amount the ledger holds reserved for card debts.
func (d InstallmentDebt) RemainingValue() Money {
	r := d.Remaining()
	if r <= 0 {
		return Money{}
	}
	return d.MonthlyValue.MulInt(r)
}

// ReservesLimit reports whether the debt holds a credit-limit
// reservation: card-method debts with a card set.
func (d InstallmentDebt) ReservesLimit() bool {
	return d.Method == DebtOnCard && d.CardID != nil
}

// NewDebt builds a debt from user input. MonthlyValue is fixed here and
// start_month is back-dated by the already-paid installment count, so
// installment numbering lines up with the months that already went by.
func NewDebt(ownerID string, cardID *int64, description string, total Money, installments, paid int, method DebtMethod, now time.Time) (InstallmentDebt, error) {
	d := InstallmentDebt{
		OwnerID:           ownerID,
		CardID:            cardID,
		Description:       description,
		TotalValue:        total,
		TotalInstallments: installments,
		PaidInstallments:  paid,
		MonthlyValue:      total.DivInt(installments),
		StartMonth:        MonthOf(now).AddMonths(-paid),
		Method:            method,
	}
	if err := d.Validate(); err != nil {
		return InstallmentDebt{}, err
	}
	return d, nil
}

func (b Bill) Validate() error {
	if err := validDescription(b.Description); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	switch b.Status {
	case BillPending, BillPaid:
	default:
		return errors.New("invalid bill status")
	}
	return nil
}
