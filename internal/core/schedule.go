package core

// Installment schedule rules: which installment of a debt falls in a
// given month, and whether it is still outstanding.

// InstallmentNumberIn returns the 1-based installment number due in
// month m: months since start plus one. Negative or zero when m
// precedes the start month.
func (d InstallmentDebt) InstallmentNumberIn(m Month) int {
	return MonthsBetween(d.StartMonth, m) + 1
}

// OutstandingIn reports whether the installment due in month m is still
// owed: its number lies in (paid, total]. Numbers at or below zero and
// numbers past the schedule are never outstanding.
func (d InstallmentDebt) OutstandingIn(m Month) bool {
	n := d.InstallmentNumberIn(m)
	return n > d.PaidInstallments && n <= d.TotalInstallments
}

// DueInstallment is one installment charge landing on a card in a
// month, as collected for invoice generation.
type DueInstallment struct {
	DebtID            int64
	Description       string
	Amount            Money
	InstallmentNumber int
	TotalInstallments int
}

// InstallmentsDueInMonth collects, in input order, the outstanding
// installments of the given card's debts for month m.
func InstallmentsDueInMonth(debts []InstallmentDebt, cardID int64, m Month) []DueInstallment {
	var due []DueInstallment
	for _, d := range debts {
		if d.CardID == nil || *d.CardID != cardID {
			continue
		}
		if d.PaidInstallments >= d.TotalInstallments {
			continue
		}
		if !d.OutstandingIn(m) {
			continue
		}
		due = append(due, DueInstallment{
			DebtID:            d.ID,
			Description:       d.Description,
			Amount:            d.MonthlyValue,
			InstallmentNumber: d.InstallmentNumberIn(m),
			TotalInstallments: d.TotalInstallments,
		})
	}
	return due
}
