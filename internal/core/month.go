package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Month is a calendar month key, the "YYYY-MM" unit the invoice and
// installment logic runs on.
type Month struct {
	Year int
	Mon  int
}

// ParseMonth parses a "YYYY-MM" key.
func ParseMonth(s string) (Month, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return Month{}, fmt.Errorf("parse month %q: %w", s, ErrInvalidMonth)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, ErrInvalidMonth)
	}
	mon, err := strconv.Atoi(parts[1])
	if err != nil || mon < 1 || mon > 12 {
		return Month{}, fmt.Errorf("parse month %q: %w", s, ErrInvalidMonth)
	}
	return Month{Year: year, Mon: mon}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Mon: int(t.Month())}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Mon)
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Mon == 0
}

func (m Month) Validate() error {
	if m.Mon < 1 || m.Mon > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// MonthsBetween returns the signed number of months from a to b,
// (b.Year-a.Year)*12 + (b.Mon-a.Mon). Negative when b precedes a.
func MonthsBetween(a, b Month) int {
	return (b.Year-a.Year)*12 + (b.Mon - a.Mon)
}

// AddMonths returns the month n months after m (n may be negative).
func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, time.Month(m.Mon), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return MonthOf(t)
}

func (m Month) Next() Month { return m.AddMonths(1) }
func (m Month) Prev() Month { return m.AddMonths(-1) }

// Contains reports whether t falls inside the month.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && int(t.Month()) == m.Mon
}

// DateOnDay builds a "YYYY-MM-DD" string for the given day of the
// month. The day is used verbatim: due day 31 in February produces
// "YYYY-02-31", matching how statement due/closing days are recorded.
func (m Month) DateOnDay(day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", m.Year, m.Mon, day)
}

var shortMonths = [...]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// Format renders the month for display, e.g. "Out/2025".
func (m Month) Format() string {
	if m.Mon < 1 || m.Mon > 12 {
		return m.String()
	}
	return fmt.Sprintf("%s/%d", shortMonths[m.Mon-1], m.Year)
}

// DueDate returns the card's due date inside the month, verbatim day.
func DueDate(card Card, m Month) string {
	day := card.DueDay
	if day == 0 {
		day = DefaultDueDay
	}
	return m.DateOnDay(day)
}

// ClosingDate returns the card's closing date inside the month.
func ClosingDate(card Card, m Month) string {
	day := card.ClosingDay
	if day == 0 {
		day = DefaultClosingDay
	}
	return m.DateOnDay(day)
}
