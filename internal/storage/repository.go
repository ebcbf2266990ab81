// Package storage persists the ledger in SQLite behind the services
// Store port.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contas/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath
// and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (owner_id, name, kind, available_cents, original_cents, due_day, closing_day)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.OwnerID, c.Name, c.Kind, c.AvailableLimit.Cents, c.OriginalLimit.Cents, c.DueDay, c.ClosingDay)
	if err != nil {
		return core.Card{}, fmt.Errorf("insert card: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Card{}, fmt.Errorf("card insert id: %w", err)
	}
	return c, nil
}

func scanCard(row interface{ Scan(...any) error }) (core.Card, error) {
	var c core.Card
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Kind,
		&c.AvailableLimit.Cents, &c.OriginalLimit.Cents, &c.DueDay, &c.ClosingDay)
	return c, err
}

const cardColumns = `id, owner_id, name, kind, available_cents, original_cents, due_day, closing_day`

func (r *SQLiteRepository) GetCard(ctx context.Context, id int64) (core.Card, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, core.ErrCardNotFound
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context, ownerID string) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *SQLiteRepository) UpdateCardLimit(ctx context.Context, id int64, newLimit core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cards SET available_cents = ? WHERE id = ?`, newLimit.Cents, id)
	if err != nil {
		return fmt.Errorf("update card limit: %w", err)
	}
	return requireRow(res, core.ErrCardNotFound)
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return requireRow(res, core.ErrCardNotFound)
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

const txColumns = `id, owner_id, description, amount_cents, method, kind, card_id, category, tx_date, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var cardID sql.NullInt64
	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Amount.Cents,
		&t.Method, &t.Kind, &cardID, &t.Category, &t.Date, &t.CreatedAt)
	if cardID.Valid {
		t.CardID = &cardID.Int64
	}
	return t, err
}

func (r *SQLiteRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM transactions ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (owner_id, description, amount_cents, method, kind, card_id, category, tx_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OwnerID, t.Description, t.Amount.Cents, t.Method, t.Kind, t.CardID, t.Category, t.Date, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE owner_id = ? ORDER BY tx_date, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET description = ?, amount_cents = ?, method = ?, kind = ?, card_id = ?, category = ?
		 WHERE id = ?`,
		t.Description, t.Amount.Cents, t.Method, t.Kind, t.CardID, t.Category, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res, core.ErrTransactionNotFound)
}

// DeleteTransaction removes the row and returns the deleted values in
// one SQL transaction, so the caller reverses exactly what was stored.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	t, err := scanTransaction(tx.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

const debtColumns = `id, owner_id, card_id, description, total_cents, total_installments, paid_installments, monthly_cents, start_month, method`

func scanDebt(row interface{ Scan(...any) error }) (core.InstallmentDebt, error) {
	var d core.InstallmentDebt
	var cardID sql.NullInt64
	var startMonth string
	err := row.Scan(&d.ID, &d.OwnerID, &cardID, &d.Description, &d.TotalValue.Cents,
		&d.TotalInstallments, &d.PaidInstallments, &d.MonthlyValue.Cents, &startMonth, &d.Method)
	if err != nil {
		return core.InstallmentDebt{}, err
	}
	if cardID.Valid {
		d.CardID = &cardID.Int64
	}
	d.StartMonth, err = core.ParseMonth(startMonth)
	return d, err
}

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.InstallmentDebt) (core.InstallmentDebt, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO installment_debts (owner_id, card_id, description, total_cents, total_installments, paid_installments, monthly_cents, start_month, method)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.OwnerID, d.CardID, d.Description, d.TotalValue.Cents,
		d.TotalInstallments, d.PaidInstallments, d.MonthlyValue.Cents, d.StartMonth.String(), d.Method)
	if err != nil {
		return core.InstallmentDebt{}, fmt.Errorf("insert debt: %w", err)
	}
	d.ID, err = res.LastInsertId()
	if err != nil {
		return core.InstallmentDebt{}, fmt.Errorf("debt insert id: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) GetDebt(ctx context.Context, id int64) (core.InstallmentDebt, error) {
	d, err := scanDebt(r.db.QueryRowContext(ctx,
		`SELECT `+debtColumns+` FROM installment_debts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.InstallmentDebt{}, core.ErrDebtNotFound
	}
	if err != nil {
		return core.InstallmentDebt{}, fmt.Errorf("get debt: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) ListDebts(ctx context.Context, ownerID string) ([]core.InstallmentDebt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+debtColumns+` FROM installment_debts WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var debts []core.InstallmentDebt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, id int64) (core.InstallmentDebt, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.InstallmentDebt{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	d, err := scanDebt(tx.QueryRowContext(ctx,
		`SELECT `+debtColumns+` FROM installment_debts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.InstallmentDebt{}, core.ErrDebtNotFound
	}
	if err != nil {
		return core.InstallmentDebt{}, fmt.Errorf("load debt: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM installment_debts WHERE id = ?`, id); err != nil {
		return core.InstallmentDebt{}, fmt.Errorf("delete debt: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.InstallmentDebt{}, fmt.Errorf("commit: %w", err)
	}
	return d, nil
}

// AdvanceDebtPaidInstallments is monotonic: MAX keeps the stored count
// when it is already at or past n.
func (r *SQLiteRepository) AdvanceDebtPaidInstallments(ctx context.Context, id int64, n int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE installment_debts
		 SET paid_installments = MIN(total_installments, MAX(paid_installments, ?))
		 WHERE id = ?`, n, id)
	if err != nil {
		return fmt.Errorf("advance debt installments: %w", err)
	}
	return requireRow(res, core.ErrDebtNotFound)
}

const invoiceColumns = `id, owner_id, card_id, month, due_date, closing_date, total_cents, status, amount_paid_cents, paid_at, created_at`

func scanInvoice(row interface{ Scan(...any) error }) (core.Invoice, error) {
	var inv core.Invoice
	var month string
	var amountPaid sql.NullInt64
	var paidAt sql.NullTime
	err := row.Scan(&inv.ID, &inv.OwnerID, &inv.CardID, &month, &inv.DueDate,
		&inv.ClosingDate, &inv.TotalAmount.Cents, &inv.Status, &amountPaid, &paidAt, &inv.CreatedAt)
	if err != nil {
		return core.Invoice{}, err
	}
	if amountPaid.Valid {
		inv.AmountPaid = &core.Money{Cents: amountPaid.Int64}
	}
	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	inv.Month, err = core.ParseMonth(month)
	return inv, err
}

func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO card_invoices (owner_id, card_id, month, due_date, closing_date, total_cents, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.OwnerID, inv.CardID, inv.Month.String(), inv.DueDate, inv.ClosingDate,
		inv.TotalAmount.Cents, inv.Status, now)
	if isUniqueViolation(err) {
		return core.Invoice{}, core.ErrDuplicateInvoice
	}
	if err != nil {
		return core.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	inv.ID, err = res.LastInsertId()
	if err != nil {
		return core.Invoice{}, fmt.Errorf("invoice insert id: %w", err)
	}
	inv.CreatedAt = now
	return inv, nil
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, id int64) (core.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM card_invoices WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invoice{}, core.ErrInvoiceNotFound
	}
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *SQLiteRepository) FindInvoice(ctx context.Context, cardID int64, m core.Month) (*core.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM card_invoices WHERE card_id = ? AND month = ?`,
		cardID, m.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	return &inv, nil
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context, ownerID string) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM card_invoices WHERE owner_id = ? ORDER BY month, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func (r *SQLiteRepository) UpdateInvoiceStatus(ctx context.Context, id int64, status core.InvoiceStatus, amountPaid *core.Money, paidAt *time.Time) error {
	var cents *int64
	if amountPaid != nil {
		cents = &amountPaid.Cents
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE card_invoices SET status = ?, amount_paid_cents = ?, paid_at = ? WHERE id = ?`,
		status, cents, paidAt, id)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return requireRow(res, core.ErrInvoiceNotFound)
}

func (r *SQLiteRepository) CreateInvoiceItem(ctx context.Context, item core.InvoiceItem) (core.InvoiceItem, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO invoice_items (invoice_id, kind, description, amount_cents, transaction_id, debt_id, installment_number, total_installments)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.InvoiceID, item.Kind, item.Description, item.Amount.Cents,
		item.TransactionID, item.DebtID, item.InstallmentNumber, item.TotalInstallments)
	if err != nil {
		return core.InvoiceItem{}, fmt.Errorf("insert invoice item: %w", err)
	}
	item.ID, err = res.LastInsertId()
	if err != nil {
		return core.InvoiceItem{}, fmt.Errorf("invoice item insert id: %w", err)
	}
	return item, nil
}

func (r *SQLiteRepository) ListInvoiceItems(ctx context.Context, invoiceID int64) ([]core.InvoiceItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_id, kind, description, amount_cents, transaction_id, debt_id, installment_number, total_installments
		 FROM invoice_items WHERE invoice_id = ? ORDER BY id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	var items []core.InvoiceItem
	for rows.Next() {
		var item core.InvoiceItem
		var txID, debtID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Kind, &item.Description,
			&item.Amount.Cents, &txID, &debtID, &item.InstallmentNumber, &item.TotalInstallments); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		if txID.Valid {
			item.TransactionID = &txID.Int64
		}
		if debtID.Valid {
			item.DebtID = &debtID.Int64
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (owner_id, description, amount_cents, due_date, status) VALUES (?, ?, ?, ?, ?)`,
		b.OwnerID, b.Description, b.Amount.Cents, b.DueDate, b.Status)
	if err != nil {
		return core.Bill{}, fmt.Errorf("insert bill: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill insert id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBills(ctx context.Context, ownerID string) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, description, amount_cents, due_date, status
		 FROM bills WHERE owner_id = ? ORDER BY due_date, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		var b core.Bill
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Description, &b.Amount.Cents, &b.DueDate, &b.Status); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return requireRow(res, core.ErrBillNotFound)
}

func (r *SQLiteRepository) UpdateBillStatus(ctx context.Context, id int64, status core.BillStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bills SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update bill status: %w", err)
	}
	return requireRow(res, core.ErrBillNotFound)
}

func (r *SQLiteRepository) GetUserSettings(ctx context.Context, ownerID string) (core.UserSettings, error) {
	s := core.UserSettings{OwnerID: ownerID}
	err := r.db.QueryRowContext(ctx,
		`SELECT salary_cents, saving_goal_cents, spending_limit_cents FROM user_settings WHERE owner_id = ?`,
		ownerID).Scan(&s.Salary.Cents, &s.SavingGoal.Cents, &s.SpendingLimit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("get user settings: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) UpsertUserSettings(ctx context.Context, s core.UserSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (owner_id, salary_cents, saving_goal_cents, spending_limit_cents)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (owner_id) DO UPDATE SET
		   salary_cents = excluded.salary_cents,
		   saving_goal_cents = excluded.saving_goal_cents,
		   spending_limit_cents = excluded.spending_limit_cents`,
		s.OwnerID, s.Salary.Cents, s.SavingGoal.Cents, s.SpendingLimit.Cents)
	if err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateMonthlyReport(ctx context.Context, rep core.MonthlyReport) (core.MonthlyReport, error) {
	recs, err := json.Marshal(rep.Recommendations)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("marshal recommendations: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO monthly_reports (owner_id, month, total_expense_cents, total_income_cents, saved_cents, top_category, recommendations)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.OwnerID, rep.Month.String(), rep.TotalExpense.Cents, rep.TotalIncome.Cents,
		rep.SavedAmount.Cents, rep.TopCategory, string(recs))
	if isUniqueViolation(err) {
		return core.MonthlyReport{}, core.ErrDuplicateReport
	}
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("insert report: %w", err)
	}
	rep.ID, err = res.LastInsertId()
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("report insert id: %w", err)
	}
	return rep, nil
}

const reportColumns = `id, owner_id, month, total_expense_cents, total_income_cents, saved_cents, top_category, recommendations`

func scanReport(row interface{ Scan(...any) error }) (core.MonthlyReport, error) {
	var rep core.MonthlyReport
	var month, recs string
	err := row.Scan(&rep.ID, &rep.OwnerID, &month, &rep.TotalExpense.Cents,
		&rep.TotalIncome.Cents, &rep.SavedAmount.Cents, &rep.TopCategory, &recs)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	if rep.Month, err = core.ParseMonth(month); err != nil {
		return core.MonthlyReport{}, err
	}
	if err := json.Unmarshal([]byte(recs), &rep.Recommendations); err != nil {
		return core.MonthlyReport{}, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	return rep, nil
}

func (r *SQLiteRepository) FindMonthlyReport(ctx context.Context, ownerID string, m core.Month) (*core.MonthlyReport, error) {
	rep, err := scanReport(r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM monthly_reports WHERE owner_id = ? AND month = ?`,
		ownerID, m.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find report: %w", err)
	}
	return &rep, nil
}

func (r *SQLiteRepository) ListMonthlyReports(ctx context.Context, ownerID string) ([]core.MonthlyReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM monthly_reports WHERE owner_id = ? ORDER BY month`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []core.MonthlyReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
