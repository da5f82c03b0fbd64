package internal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Day is a calendar day without time of day
type Day struct {
	time.Time
}

// ParseDay parses a YYYY-MM-DD string
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("parsing day %q: %w", s, err)
	}
	return Day{t}, nil
}

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dayLayout)
}

// Short renders the day the way the transaction table shows it, e.g. "2 Jan"
func (d Day) Short() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2 Jan")
}

// Month identifies a calendar month as YYYY-MM. The empty Month means all months.
type Month string

// AllMonths is the month filter that disables month scoping
const AllMonths Month = ""

// ParseMonth validates a YYYY-MM string
func ParseMonth(s string) (Month, error) {
	if s == "" {
		return AllMonths, nil
	}
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", fmt.Errorf("parsing month %q: %w", s, err)
	}
	return Month(s), nil
}

// Label returns the selector label, e.g. "Jan 2025", or "All Months"
func (m Month) Label() string {
	if m == AllMonths {
		return "All Months"
	}
	t, err := time.Parse(monthLayout, string(m))
	if err != nil {
		return string(m)
	}
	return t.Format("Jan 2006")
}

// ShortLabel returns the chart axis label, e.g. "Jan 25"
func (m Month) ShortLabel() string {
	t, err := time.Parse(monthLayout, string(m))
	if err != nil {
		return string(m)
	}
	return t.Format("Jan 06")
}

// First returns the first day of the month
func (m Month) First() (time.Time, error) {
	return time.Parse(monthLayout, string(m))
}

type Transaction struct {
	ID       string
	Date     Day
	TxnType  string // DEBIT or CREDIT
	Merchant string
	Amount   decimal.Decimal
	Category string // empty when the backend has not categorised it
	Bank     string
	Voided   bool
}

// CategoryDef is a category the user can assign, with its display colour
type CategoryDef struct {
	Name    string
	Color   string
	Builtin bool
}

type MonthlySummary struct {
	Month Month
	Total decimal.Decimal
	Count int
}

type CategorySummary struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

type DailySummary struct {
	Date  Day
	Total decimal.Decimal
	Count int
}

type MonthlyCategorySummary struct {
	Month    Month
	Category string
	Total    decimal.Decimal
}

// CategoryUpdate is the backend's answer to a category change
type CategoryUpdate struct {
	Status       string
	PrevCategory string
}
