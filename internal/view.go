package internal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AllCategories disables the category filter
	AllCategories = "all"
	// Uncategorised is the label of a transaction without category
	Uncategorised = "uncategorised"
)

// Dataset selects which transaction list the view shows
type Dataset string

const (
	DatasetExpenses Dataset = "expenses"
	DatasetCredits  Dataset = "credits"
)

type SortColumn string

const (
	SortDate        SortColumn = "date"
	SortDescription SortColumn = "description"
	SortCategory    SortColumn = "category"
	SortAmount      SortColumn = "amount"
)

// ParseSortColumn accepts a column name; "desc" and "merchant" are aliases of description
func ParseSortColumn(s string) (SortColumn, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "date":
		return SortDate, nil
	case "description", "desc", "merchant":
		return SortDescription, nil
	case "category":
		return SortCategory, nil
	case "amount":
		return SortAmount, nil
	}
	return "", fmt.Errorf("unknown sort column: %s (available: date, description, category, amount)", s)
}

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

func (d SortDir) Reverse() SortDir {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// DefaultDir is the direction a column starts with when first selected
func DefaultDir(col SortColumn) SortDir {
	if col == SortDate {
		return SortDesc
	}
	return SortAsc
}

type SortState struct {
	Column SortColumn
	Dir    SortDir
}

func DefaultSortState() SortState {
	return SortState{Column: SortDate, Dir: SortDesc}
}

// Toggle is a click on a column header: the active column flips direction,
// any other column becomes active with its default direction.
func (s SortState) Toggle(col SortColumn) SortState {
	if s.Column == col {
		return SortState{Column: col, Dir: s.Dir.Reverse()}
	}
	return SortState{Column: col, Dir: DefaultDir(col)}
}

// ViewQuery is the user's current selection in the transaction view
type ViewQuery struct {
	Category string // AllCategories or a category label
	Search   string
	Sort     SortState
	Limit    int // 0 means no row cap
}

func DefaultViewQuery() ViewQuery {
	return ViewQuery{Category: AllCategories, Sort: DefaultSortState()}
}

type ViewResult struct {
	Rows    []Transaction
	Matched int
	Total   decimal.Decimal
}

// CategoryLabel is the category a transaction is filtered and displayed under
func CategoryLabel(t Transaction) string {
	if t.Category == "" {
		return Uncategorised
	}
	return t.Category
}

// FilterTransactions keeps rows matching the category label exactly and whose
// merchant contains search, case-insensitively. Other fields are never searched.
func FilterTransactions(txs []Transaction, category, search string) []Transaction {
	q := strings.ToLower(search)
	result := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if category != "" && category != AllCategories && CategoryLabel(t) != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Merchant), q) {
			continue
		}
		result = append(result, t)
	}
	return result
}

func compareTransactions(a, b Transaction, col SortColumn, coll *Collator) int {
	switch col {
	case SortDate:
		return coll.Compare(a.Date.String(), b.Date.String())
	case SortDescription:
		return coll.Compare(a.Merchant, b.Merchant)
	case SortCategory:
		return coll.Compare(a.Category, b.Category)
	case SortAmount:
		return a.Amount.Cmp(b.Amount)
	}
	return 0
}

// SortTransactions returns a sorted copy. The sort is stable so equal keys keep
// their input order in both directions.
func SortTransactions(txs []Transaction, s SortState, coll *Collator) []Transaction {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := compareTransactions(sorted[i], sorted[j], s.Column, coll)
		if s.Dir == SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
	return sorted
}

// SumActive sums the amounts of non-voided rows
func SumActive(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if !t.Voided {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// ApplyView derives the displayed rows from a transaction list. The total covers
// the whole filtered set, before the row cap.
func ApplyView(txs []Transaction, q ViewQuery, coll *Collator) ViewResult {
	filtered := FilterTransactions(txs, q.Category, q.Search)
	rows := SortTransactions(filtered, q.Sort, coll)
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return ViewResult{
		Rows:    rows,
		Matched: len(filtered),
		Total:   SumActive(filtered),
	}
}

// CategoryPills lists the category filter choices, "all" first, then the
// categories in summary order
func CategoryPills(summaries []CategorySummary) []string {
	pills := []string{AllCategories}
	for _, s := range summaries {
		pills = append(pills, s.Category)
	}
	return pills
}
