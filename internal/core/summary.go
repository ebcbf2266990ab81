package core

import (
	"fmt"
	"time"
)

// Derived figures for dashboards and monthly reports. Every percentage
// here guards its denominator: a zero base yields 0, never a panic.

// CardUsagePercent returns how much of the original limit is in use.
func CardUsagePercent(c Card) float64 {
	if c.OriginalLimit.Cents == 0 {
		return 0
	}
	used := c.OriginalLimit.Sub(c.AvailableLimit)
	return float64(used.Cents) / float64(c.OriginalLimit.Cents) * 100
}

// InstallmentProgressPercent returns how far along a debt's schedule is.
func InstallmentProgressPercent(d InstallmentDebt) float64 {
	if d.TotalInstallments == 0 {
		return 0
	}
	return float64(d.PaidInstallments) / float64(d.TotalInstallments) * 100
}

// TotalExpenses sums expense transactions.
func TotalExpenses(txs []Transaction) Money {
	var sum Money
	for _, t := range txs {
		if t.Kind == KindExpense {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// TotalIncome sums income transactions.
func TotalIncome(txs []Transaction) Money {
	var sum Money
	for _, t := range txs {
		if t.Kind == KindIncome {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// FilterByMonth keeps transactions dated inside month m, input order.
func FilterByMonth(txs []Transaction, m Month) []Transaction {
	var out []Transaction
	for _, t := range txs {
		if m.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// CategorySpending maps category to total expense amount.
func CategorySpending(txs []Transaction) map[string]Money {
	spending := make(map[string]Money)
	for _, t := range txs {
		if t.Kind != KindExpense {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = DefaultCategory
		}
		spending[cat] = spending[cat].Add(t.Amount)
	}
	return spending
}

// MethodSpending maps payment method to total expense amount.
func MethodSpending(txs []Transaction) map[PaymentMethod]Money {
	spending := make(map[PaymentMethod]Money)
	for _, t := range txs {
		if t.Kind != KindExpense {
			continue
		}
		spending[t.Method] = spending[t.Method].Add(t.Amount)
	}
	return spending
}

// TopCategory returns the category with the highest spend, or "" when
// there is none. Ties break lexicographically for determinism.
func TopCategory(spending map[string]Money) string {
	top := ""
	var topAmount Money
	for cat, amount := range spending {
		if top == "" || amount.Cents > topAmount.Cents || (amount.Cents == topAmount.Cents && cat < top) {
			top = cat
			topAmount = amount
		}
	}
	return top
}

// BuildRecommendations derives report advice from how spending relates
// to salary and how concentrated it is in the top category. Thresholds:
// over 90% of salary is a danger, over 70% a warning, under 50% a
// success; a category above 30% of spend gets an info note. A zero
// salary produces no salary-relative advice.
func BuildRecommendations(totalExpense, salary Money, spending map[string]Money, topCategory string) []Recommendation {
	var recs []Recommendation

	if salary.Cents > 0 {
		pct := float64(totalExpense.Cents) / float64(salary.Cents) * 100
		switch {
		case pct > 90:
			recs = append(recs, Recommendation{Level: "danger", Text: "spending exceeded 90% of salary"})
		case pct > 70:
			recs = append(recs, Recommendation{Level: "warning", Text: "spending above 70% of salary"})
		}
		if pct < 50 {
			recs = append(recs, Recommendation{Level: "success", Text: "spending under 50% of salary"})
		}
	}

	if topCategory != "" && totalExpense.Cents > 0 {
		if amount, ok := spending[topCategory]; ok {
			catPct := float64(amount.Cents) / float64(totalExpense.Cents) * 100
			if catPct > 30 {
				recs = append(recs, Recommendation{
					Level: "info",
					Text:  fmt.Sprintf("%.0f%% of spending went to %s", catPct, topCategory),
				})
			}
		}
	}

	return recs
}

// LimitAlert flags how close monthly spending is to the configured
// spending limit.
type LimitAlert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// CheckSpendingLimit returns nil when spending sits under half the
// limit, or when no limit is configured.
func CheckSpendingLimit(monthlyExpense, limit Money) *LimitAlert {
	if limit.Cents == 0 {
		return nil
	}
	pct := float64(monthlyExpense.Cents) / float64(limit.Cents) * 100
	switch {
	case pct >= 100:
		return &LimitAlert{Level: "danger", Message: "spending limit exceeded"}
	case pct >= 80:
		return &LimitAlert{Level: "warning", Message: "spending near the limit"}
	case pct >= 50:
		return &LimitAlert{Level: "info", Message: "half the spending limit used"}
	}
	return nil
}

// UpcomingBills returns pending bills due within daysAhead days of now,
// input order. Bills already past due are excluded.
func UpcomingBills(bills []Bill, now time.Time, daysAhead int) []Bill {
	var out []Bill
	for _, b := range bills {
		if b.Status != BillPending {
			continue
		}
		days := int(b.DueDate.Sub(now).Hours() / 24)
		if days >= 0 && days <= daysAhead {
			out = append(out, b)
		}
	}
	return out
}
