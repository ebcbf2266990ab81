package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/core"
)

// LedgerService owns every mutation of a card's available limit: it is
// invoked by transaction create/update/delete, debt create/delete, and
// (through InvoiceService) invoice payment.
//
// The reservation model is two-tier. Pay-as-you-go credit transactions
// debit the limit when created and are credited back when deleted or
// when their invoice is paid. Card installment debts reserve their full
// remaining schedule at creation; paying a monthly invoice never
// releases that reservation — only deleting the debt does.
type LedgerService struct {
	store Store
	locks *cardLocks
	now   func() time.Time
}

func NewLedgerService(store Store) *LedgerService {
	return &LedgerService{
		store: store,
		locks: newCardLocks(),
		now:   time.Now,
	}
}

// AddCard creates a card. For credit cards the original limit is fixed
// equal to the initial available limit and never changed afterwards.
func (s *LedgerService) AddCard(ctx context.Context, card core.Card) (core.Card, error) {
	if card.Kind == core.CardCredit {
		card.OriginalLimit = card.AvailableLimit
		if card.DueDay == 0 {
			card.DueDay = core.DefaultDueDay
		}
		if card.ClosingDay == 0 {
			card.ClosingDay = core.DefaultClosingDay
		}
	}
	if err := card.Validate(); err != nil {
		return core.Card{}, err
	}

	created, err := s.store.CreateCard(ctx, card)
	if err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}

	slog.InfoContext(ctx, "card created",
		"card_id", created.ID,
		"kind", created.Kind,
		"available_limit_cents", created.AvailableLimit.Cents)
	return created, nil
}

// DeleteCard removes the card. Transactions and debts referencing it
// keep existing with a null card reference; the card's ledger state is
// discarded with it.
func (s *LedgerService) DeleteCard(ctx context.Context, id int64) error {
	if err := s.store.DeleteCard(ctx, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	slog.InfoContext(ctx, "card deleted", "card_id", id)
	return nil
}

// AddTransaction validates and persists a transaction, then applies its
// ledger effect: credit expenses debit the card's available limit,
// credit incomes restore it up to the original limit.
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.Category == "" {
		tx.Category = core.DefaultCategory
	}
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	tx.CreatedAt = s.now()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if tx.AffectsLimit() {
		card, err := s.store.GetCard(ctx, *tx.CardID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("load card: %w", err)
		}
		if card.Kind != core.CardCredit {
			return core.Transaction{}, core.ErrNotCreditCard
		}

		unlock := s.locks.Lock(*tx.CardID)
		defer unlock()

		created, err := s.store.CreateTransaction(ctx, tx)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
		}
		if err := s.applyEffect(ctx, created, false); err != nil {
			return core.Transaction{}, fmt.Errorf("apply ledger effect: %w", err)
		}
		return created, nil
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return created, nil
}

// UpdateTransaction edits description/amount/method/kind/card/category.
// The row is written first, then the stored row's ledger effect is
// reversed and the new row's effect applied, so changing amount, method
// or card keeps the limit consistent. The transaction date is fixed at
// creation.
func (s *LedgerService) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	old, err := s.store.GetTransaction(ctx, tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}

	tx.OwnerID = old.OwnerID
	tx.Date = old.Date
	tx.CreatedAt = old.CreatedAt
	if tx.Category == "" {
		tx.Category = core.DefaultCategory
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.AffectsLimit() {
		card, err := s.store.GetCard(ctx, *tx.CardID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("load card: %w", err)
		}
		if card.Kind != core.CardCredit {
			return core.Transaction{}, core.ErrNotCreditCard
		}
	}

	var cardIDs []int64
	if old.AffectsLimit() {
		cardIDs = append(cardIDs, *old.CardID)
	}
	if tx.AffectsLimit() {
		cardIDs = append(cardIDs, *tx.CardID)
	}
	unlock := s.locks.Lock(cardIDs...)
	defer unlock()

	// Row first: a failed write leaves the ledger untouched. Limit
	// failures after that point put the old row back, best effort.
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := s.applyEffect(ctx, old, true); err != nil {
		s.restoreRow(ctx, old)
		return core.Transaction{}, fmt.Errorf("reverse ledger effect: %w", err)
	}
	if err := s.applyEffect(ctx, tx, false); err != nil {
		if rbErr := s.applyEffect(ctx, old, false); rbErr != nil {
			slog.ErrorContext(ctx, "ledger rollback failed after edit",
				"transaction_id", old.ID,
				"error", rbErr)
		} else {
			s.restoreRow(ctx, old)
		}
		return core.Transaction{}, fmt.Errorf("apply ledger effect: %w", err)
	}

	slog.InfoContext(ctx, "transaction updated", "transaction_id", tx.ID)
	return tx, nil
}

// restoreRow puts the pre-edit row back after a failed edit.
func (s *LedgerService) restoreRow(ctx context.Context, old core.Transaction) {
	if err := s.store.UpdateTransaction(ctx, old); err != nil {
		slog.ErrorContext(ctx, "restore of edited transaction failed",
			"transaction_id", old.ID,
			"error", err)
	}
}

// DeleteTransaction removes the row and reverses its ledger effect
// based on the stored values: a deleted credit expense is credited back
// (clamped to the original limit), a deleted credit income is debited.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}

	if existing.AffectsLimit() {
		unlock := s.locks.Lock(*existing.CardID)
		defer unlock()
	}

	deleted, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}
	if err := s.applyEffect(ctx, deleted, true); err != nil {
		return core.Transaction{}, fmt.Errorf("reverse ledger effect: %w", err)
	}

	slog.InfoContext(ctx, "transaction deleted", "transaction_id", id)
	return deleted, nil
}

// AddDebt builds an installment debt from user input (back-dating the
// start month by the already-paid count), persists it, and reserves the
// full remaining schedule against the card's limit when the debt is
// paid by card.
func (s *LedgerService) AddDebt(ctx context.Context, ownerID string, cardID *int64, description string, total core.Money, installments, paid int, method core.DebtMethod) (core.InstallmentDebt, error) {
	debt, err := core.NewDebt(ownerID, cardID, description, total, installments, paid, method, s.now())
	if err != nil {
		return core.InstallmentDebt{}, err
	}

	if debt.ReservesLimit() {
		unlock := s.locks.Lock(*debt.CardID)
		defer unlock()
	}

	created, err := s.store.CreateDebt(ctx, debt)
	if err != nil {
		return core.InstallmentDebt{}, fmt.Errorf("create debt: %w", err)
	}

	if created.ReservesLimit() && created.Remaining() > 0 {
		reservation := created.RemainingValue()
		if err := s.charge(ctx, *created.CardID, reservation); err != nil {
			return core.InstallmentDebt{}, fmt.Errorf("reserve limit: %w", err)
		}
		slog.InfoContext(ctx, "limit reserved for debt",
			"debt_id", created.ID,
			"card_id", *created.CardID,
			"reserved_cents", reservation.Cents,
			"remaining_installments", created.Remaining())
	}

	return created, nil
}

// DeleteDebt removes the debt and releases whatever reservation it
// still held, clamped to the original limit.
func (s *LedgerService) DeleteDebt(ctx context.Context, id int64) (core.InstallmentDebt, error) {
	existing, err := s.store.GetDebt(ctx, id)
	if err != nil {
		return core.InstallmentDebt{}, fmt.Errorf("load debt: %w", err)
	}

	if existing.ReservesLimit() {
		unlock := s.locks.Lock(*existing.CardID)
		defer unlock()
	}

	deleted, err := s.store.DeleteDebt(ctx, id)
	if err != nil {
		return core.InstallmentDebt{}, fmt.Errorf("delete debt: %w", err)
	}

	if deleted.ReservesLimit() && deleted.Remaining() > 0 {
		if err := s.creditBack(ctx, *deleted.CardID, deleted.RemainingValue()); err != nil {
			return core.InstallmentDebt{}, fmt.Errorf("release reservation: %w", err)
		}
	}

	slog.InfoContext(ctx, "debt deleted", "debt_id", id)
	return deleted, nil
}

// applyEffect applies (or reverses) a transaction's ledger effect.
// Effects exist only for credit-method transactions with a card.
func (s *LedgerService) applyEffect(ctx context.Context, tx core.Transaction, reverse bool) error {
	if !tx.AffectsLimit() {
		return nil
	}
	debit := tx.Kind == core.KindExpense
	if reverse {
		debit = !debit
	}
	if debit {
		return s.charge(ctx, *tx.CardID, tx.Amount)
	}
	return s.creditBack(ctx, *tx.CardID, tx.Amount)
}

// charge lowers the available limit. No lower clamp: a negative limit
// means over-limit and is surfaced, not corrected.
func (s *LedgerService) charge(ctx context.Context, cardID int64, amount core.Money) error {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return fmt.Errorf("load card: %w", err)
	}
	newLimit := card.AvailableLimit.Sub(amount)
	if err := s.store.UpdateCardLimit(ctx, cardID, newLimit); err != nil {
		return fmt.Errorf("update card limit: %w", err)
	}
	if newLimit.IsNegative() {
		slog.WarnContext(ctx, "card over limit",
			"card_id", cardID,
			"available_limit_cents", newLimit.Cents)
	}
	return nil
}

// creditBack raises the available limit, clamped to the original limit.
func (s *LedgerService) creditBack(ctx context.Context, cardID int64, amount core.Money) error {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return fmt.Errorf("load card: %w", err)
	}
	newLimit := card.AvailableLimit.Add(amount).Min(card.OriginalLimit)
	if err := s.store.UpdateCardLimit(ctx, cardID, newLimit); err != nil {
		return fmt.Errorf("update card limit: %w", err)
	}
	return nil
}
