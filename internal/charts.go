package internal

import (
	"sort"

	"github.com/shopspring/decimal"
)

// FallbackColor is used for categories with no known colour
const FallbackColor = "#64748b"

// DefaultCategoryColors are the colours of the built-in categories
var DefaultCategoryColors = map[string]string{
	"food":          "#f97316",
	"drinks":        "#a855f7",
	"travel":        "#3b82f6",
	"transport":     "#22c55e",
	"groceries":     "#eab308",
	"lifestyle":     "#ec4899",
	"subscriptions": "#14b8a6",
	"education":     "#8b5cf6",
	"investment":    "#6366f1",
	"insurance":     "#0ea5e9",
	"transfers":     "#f43f5e",
	"misc":          "#64748b",
	Uncategorised:   "#475569",
}

// Palette maps category names to colours
type Palette map[string]string

// NewPalette layers the defaults, then the backend's definitions, then user overrides
func NewPalette(defs []CategoryDef, overrides map[string]string) Palette {
	p := make(Palette, len(DefaultCategoryColors)+len(defs))
	for k, v := range DefaultCategoryColors {
		p[k] = v
	}
	for _, d := range defs {
		if d.Color != "" {
			p[d.Name] = d.Color
		}
	}
	for k, v := range overrides {
		p[k] = v
	}
	return p
}

func (p Palette) Color(category string) string {
	if c, ok := p[category]; ok {
		return c
	}
	return FallbackColor
}

// Stats is the headline row of the dashboard
type Stats struct {
	Total       decimal.Decimal
	Count       int
	TopCategory string
}

// ComputeStats sums every expense row (voided included, as the headline does) and
// takes the top category from the backend's summary order
func ComputeStats(expenses []Transaction, categories []CategorySummary) Stats {
	total := decimal.Zero
	for _, t := range expenses {
		total = total.Add(t.Amount)
	}
	top := "—"
	if len(categories) > 0 {
		top = categories[0].Category
	}
	return Stats{Total: total, Count: len(expenses), TopCategory: top}
}

type CategorySlice struct {
	Category string
	Total    decimal.Decimal
	Color    string
}

// CategoryBreakdown orders the category summary by total, largest first
func CategoryBreakdown(categories []CategorySummary, palette Palette) []CategorySlice {
	sorted := make([]CategorySummary, len(categories))
	copy(sorted, categories)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total.GreaterThan(sorted[j].Total)
	})
	slices := make([]CategorySlice, 0, len(sorted))
	for _, c := range sorted {
		slices = append(slices, CategorySlice{Category: c.Category, Total: c.Total, Color: palette.Color(c.Category)})
	}
	return slices
}

// MonthlySeries is one category's stack segment across all months
type MonthlySeries struct {
	Category string
	Color    string
	Values   []decimal.Decimal
}

// StackedMonthly arranges per-(month, category) totals into one series per category,
// aligned with the months of the monthly summary. Missing pairs are zero.
func StackedMonthly(data []MonthlyCategorySummary, months []MonthlySummary, palette Palette) ([]Month, []MonthlySeries) {
	if len(data) == 0 || len(months) == 0 {
		return nil, nil
	}
	axis := make([]Month, 0, len(months))
	index := make(map[Month]int, len(months))
	for i, m := range months {
		axis = append(axis, m.Month)
		index[m.Month] = i
	}

	var order []string
	byCat := make(map[string]*MonthlySeries)
	for _, d := range data {
		s, ok := byCat[d.Category]
		if !ok {
			s = &MonthlySeries{Category: d.Category, Color: palette.Color(d.Category), Values: make([]decimal.Decimal, len(axis))}
			for i := range s.Values {
				s.Values[i] = decimal.Zero
			}
			byCat[d.Category] = s
			order = append(order, d.Category)
		}
		if i, ok := index[d.Month]; ok {
			s.Values[i] = s.Values[i].Add(d.Total)
		}
	}

	series := make([]MonthlySeries, 0, len(order))
	for _, c := range order {
		series = append(series, *byCat[c])
	}
	return axis, series
}

// CalendarCell is one square of the month grid. Blank cells pad the first week.
type CalendarCell struct {
	Blank     bool
	Day       int
	Total     decimal.Decimal
	Intensity float64
}

// HeatIntensity maps a day's total to the cell shading, 0 for no spend
func HeatIntensity(total, maxSpend decimal.Decimal) float64 {
	if total.IsZero() || maxSpend.IsZero() {
		return 0
	}
	t := total.Div(maxSpend).InexactFloat64()
	if t > 1 {
		t = 1
	}
	return 0.12 + t*0.55
}

// BuildCalendar lays out a month as a Sunday-first grid. It returns nil when no
// month is selected or there is no data.
func BuildCalendar(daily []DailySummary, month Month) ([]CalendarCell, decimal.Decimal) {
	if len(daily) == 0 || month == AllMonths {
		return nil, decimal.Zero
	}
	first, err := month.First()
	if err != nil {
		return nil, decimal.Zero
	}
	daysInMonth := first.AddDate(0, 1, -1).Day()

	byDay := make(map[int]decimal.Decimal, len(daily))
	maxSpend := decimal.Zero
	for _, d := range daily {
		byDay[d.Date.Day()] = d.Total
		if d.Total.GreaterThan(maxSpend) {
			maxSpend = d.Total
		}
	}

	var cells []CalendarCell
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, CalendarCell{Blank: true})
	}
	for day := 1; day <= daysInMonth; day++ {
		total, ok := byDay[day]
		if !ok {
			total = decimal.Zero
		}
		cells = append(cells, CalendarCell{Day: day, Total: total, Intensity: HeatIntensity(total, maxSpend)})
	}
	return cells, maxSpend
}

// WeekdayHeader is the calendar's column header
var WeekdayHeader = []string{"S", "M", "T", "W", "T", "F", "S"}

// DaySeriesLabel is the x label of the daily line: day of month when a month is
// selected, MM-DD otherwise
func DaySeriesLabel(d Day, month Month) string {
	if month != AllMonths {
		return d.Format("02")
	}
	return d.Format("01-02")
}
