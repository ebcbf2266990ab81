package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"contas/internal/core"
)

// memStore is an in-memory Store for service tests. failures maps a
// method name to an error, letting tests break one step of a sequence.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	cards    map[int64]core.Card
	txs      map[int64]core.Transaction
	debts    map[int64]core.InstallmentDebt
	invoices map[int64]core.Invoice
	items    map[int64][]core.InvoiceItem
	bills    map[int64]core.Bill
	settings map[string]core.UserSettings
	reports  map[string]core.MonthlyReport
	failures map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		cards:    make(map[int64]core.Card),
		txs:      make(map[int64]core.Transaction),
		debts:    make(map[int64]core.InstallmentDebt),
		invoices: make(map[int64]core.Invoice),
		items:    make(map[int64][]core.InvoiceItem),
		bills:    make(map[int64]core.Bill),
		settings: make(map[string]core.UserSettings),
		reports:  make(map[string]core.MonthlyReport),
		failures: make(map[string]error),
	}
}

func (s *memStore) failOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = err
}

func (s *memStore) failure(method string) error {
	return s.failures[method]
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) CreateCard(_ context.Context, c core.Card) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateCard"); err != nil {
		return core.Card{}, err
	}
	c.ID = s.id()
	s.cards[c.ID] = c
	return c, nil
}

func (s *memStore) GetCard(_ context.Context, id int64) (core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return core.Card{}, core.ErrCardNotFound
	}
	return c, nil
}

func (s *memStore) ListCards(_ context.Context, ownerID string) ([]core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Card
	for _, c := range s.cards {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UpdateCardLimit(_ context.Context, id int64, newLimit core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateCardLimit"); err != nil {
		return err
	}
	c, ok := s.cards[id]
	if !ok {
		return core.ErrCardNotFound
	}
	c.AvailableLimit = newLimit
	s.cards[id] = c
	return nil
}

func (s *memStore) DeleteCard(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return core.ErrCardNotFound
	}
	delete(s.cards, id)
	for tid, t := range s.txs {
		if t.CardID != nil && *t.CardID == id {
			t.CardID = nil
			s.txs[tid] = t
		}
	}
	for did, d := range s.debts {
		if d.CardID != nil && *d.CardID == id {
			d.CardID = nil
			s.debts[did] = d
		}
	}
	return nil
}

func (s *memStore) ListOwners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var owners []string
	for _, t := range s.txs {
		if !seen[t.OwnerID] {
			seen[t.OwnerID] = true
			owners = append(owners, t.OwnerID)
		}
	}
	sort.Strings(owners)
	return owners, nil
}

func (s *memStore) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateTransaction"); err != nil {
		return core.Transaction{}, err
	}
	t.ID = s.id()
	s.txs[t.ID] = t
	return t, nil
}

func (s *memStore) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	return t, nil
}

func (s *memStore) ListTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateTransaction"); err != nil {
		return err
	}
	if _, ok := s.txs[t.ID]; !ok {
		return core.ErrTransactionNotFound
	}
	s.txs[t.ID] = t
	return nil
}

func (s *memStore) DeleteTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeleteTransaction"); err != nil {
		return core.Transaction{}, err
	}
	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	delete(s.txs, id)
	return t, nil
}

func (s *memStore) CreateDebt(_ context.Context, d core.InstallmentDebt) (core.InstallmentDebt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.id()
	s.debts[d.ID] = d
	return d, nil
}

func (s *memStore) GetDebt(_ context.Context, id int64) (core.InstallmentDebt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return core.InstallmentDebt{}, core.ErrDebtNotFound
	}
	return d, nil
}

func (s *memStore) ListDebts(_ context.Context, ownerID string) ([]core.InstallmentDebt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.InstallmentDebt
	for _, d := range s.debts {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) DeleteDebt(_ context.Context, id int64) (core.InstallmentDebt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debts[id]
	if !ok {
		return core.InstallmentDebt{}, core.ErrDebtNotFound
	}
	delete(s.debts, id)
	return d, nil
}

func (s *memStore) AdvanceDebtPaidInstallments(_ context.Context, id int64, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("AdvanceDebtPaidInstallments"); err != nil {
		return err
	}
	d, ok := s.debts[id]
	if !ok {
		return core.ErrDebtNotFound
	}
	if n > d.PaidInstallments {
		d.PaidInstallments = n
		s.debts[id] = d
	}
	return nil
}

func (s *memStore) CreateInvoice(_ context.Context, inv core.Invoice) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.invoices {
		if existing.CardID == inv.CardID && existing.Month == inv.Month {
			return core.Invoice{}, core.ErrDuplicateInvoice
		}
	}
	inv.ID = s.id()
	inv.CreatedAt = time.Now()
	s.invoices[inv.ID] = inv
	return inv, nil
}

func (s *memStore) GetInvoice(_ context.Context, id int64) (core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return core.Invoice{}, core.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *memStore) FindInvoice(_ context.Context, cardID int64, m core.Month) (*core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.CardID == cardID && inv.Month == m {
			found := inv
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListInvoices(_ context.Context, ownerID string) ([]core.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Invoice
	for _, inv := range s.invoices {
		if inv.OwnerID == ownerID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UpdateInvoiceStatus(_ context.Context, id int64, status core.InvoiceStatus, amountPaid *core.Money, paidAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateInvoiceStatus"); err != nil {
		return err
	}
	inv, ok := s.invoices[id]
	if !ok {
		return core.ErrInvoiceNotFound
	}
	inv.Status = status
	inv.AmountPaid = amountPaid
	inv.PaidAt = paidAt
	s.invoices[id] = inv
	return nil
}

func (s *memStore) CreateInvoiceItem(_ context.Context, item core.InvoiceItem) (core.InvoiceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateInvoiceItem"); err != nil {
		return core.InvoiceItem{}, err
	}
	item.ID = s.id()
	s.items[item.InvoiceID] = append(s.items[item.InvoiceID], item)
	return item, nil
}

func (s *memStore) ListInvoiceItems(_ context.Context, invoiceID int64) ([]core.InvoiceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ListInvoiceItems"); err != nil {
		return nil, err
	}
	return append([]core.InvoiceItem(nil), s.items[invoiceID]...), nil
}

func (s *memStore) CreateBill(_ context.Context, b core.Bill) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	s.bills[b.ID] = b
	return b, nil
}

func (s *memStore) ListBills(_ context.Context, ownerID string) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Bill
	for _, b := range s.bills {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) DeleteBill(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[id]; !ok {
		return core.ErrBillNotFound
	}
	delete(s.bills, id)
	return nil
}

func (s *memStore) UpdateBillStatus(_ context.Context, id int64, status core.BillStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[id]
	if !ok {
		return core.ErrBillNotFound
	}
	b.Status = status
	s.bills[id] = b
	return nil
}

func (s *memStore) GetUserSettings(_ context.Context, ownerID string) (core.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[ownerID], nil
}

func (s *memStore) UpsertUserSettings(_ context.Context, settings core.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.OwnerID] = settings
	return nil
}

func reportKey(ownerID string, m core.Month) string {
	return fmt.Sprintf("%s|%s", ownerID, m)
}

func (s *memStore) CreateMonthlyReport(_ context.Context, r core.MonthlyReport) (core.MonthlyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := reportKey(r.OwnerID, r.Month)
	if _, ok := s.reports[key]; ok {
		return core.MonthlyReport{}, core.ErrDuplicateReport
	}
	r.ID = s.id()
	s.reports[key] = r
	return r, nil
}

func (s *memStore) FindMonthlyReport(_ context.Context, ownerID string, m core.Month) (*core.MonthlyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reports[reportKey(ownerID, m)]; ok {
		found := r
		return &found, nil
	}
	return nil, nil
}

func (s *memStore) ListMonthlyReports(_ context.Context, ownerID string) ([]core.MonthlyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.MonthlyReport
	for _, r := range s.reports {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ Store = (*memStore)(nil)
