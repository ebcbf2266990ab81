package services

import (
	"context"
	"fmt"
	"time"

	"contas/internal/core"
)

// BillService handles standalone payables (boletos, utilities). Bills
// have no ledger interaction; they are tracked for due-date alerts.
type BillService struct {
	store Store
}

func NewBillService(store Store) *BillService {
	return &BillService{store: store}
}

func (s *BillService) Add(ctx context.Context, bill core.Bill) (core.Bill, error) {
	if bill.Status == "" {
		bill.Status = core.BillPending
	}
	if err := bill.Validate(); err != nil {
		return core.Bill{}, err
	}
	created, err := s.store.CreateBill(ctx, bill)
	if err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	return created, nil
}

func (s *BillService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteBill(ctx, id); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return nil
}

func (s *BillService) SetStatus(ctx context.Context, id int64, status core.BillStatus) error {
	if err := s.store.UpdateBillStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update bill status: %w", err)
	}
	return nil
}

// Upcoming returns the owner's pending bills due within daysAhead days.
func (s *BillService) Upcoming(ctx context.Context, ownerID string, daysAhead int) ([]core.Bill, error) {
	bills, err := s.store.ListBills(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return core.UpcomingBills(bills, time.Now(), daysAhead), nil
}
