package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

// OutputOptions controls how views are printed
type OutputOptions struct {
	Currency Currency
	Palette  Palette
	Color    bool // emit ANSI colours
	BarWidth int  // width of chart bars in cells
}

func (o OutputOptions) barWidth() int {
	if o.BarWidth <= 0 {
		return 40
	}
	return o.BarWidth
}

func (o OutputOptions) paint(c text.Colors, s string) string {
	if !o.Color {
		return s
	}
	return c.Sprint(s)
}

// TransactionCountLabel is the footer count, e.g. "1 transaction", "3 transactions"
func TransactionCountLabel(n int) string {
	if n == 1 {
		return "1 transaction"
	}
	return fmt.Sprintf("%d transactions", n)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// PrintTransactionsTable outputs the rows of a view with the filtered total
func PrintTransactionsTable(w io.Writer, v ExportView, opts OutputOptions) {
	fmt.Fprintf(w, "%s, %s", v.Month.Label(), v.Dataset)
	if v.Category != "" && v.Category != AllCategories {
		fmt.Fprintf(w, ", category: %s", v.Category)
	}
	if v.Search != "" {
		fmt.Fprintf(w, ", search: %q", v.Search)
	}
	fmt.Fprintf(w, "\nSorted by %s (%s)\n\n", v.Sort.Column, v.Sort.Dir)

	credit := v.Dataset == DatasetCredits
	t := newTable(w)
	t.AppendHeader(table.Row{"Date", "Description", "Category", "Amount"})

	for _, tx := range v.Rows {
		amount := opts.Currency.FormatSigned(tx.Amount, credit)
		date, merchant, category := tx.Date.Short(), tx.Merchant, CategoryLabel(tx)
		if tx.Voided && !opts.Color {
			merchant += " (voided)"
		} else if tx.Voided {
			dim := text.Colors{text.Faint, text.CrossedOut}
			date, merchant, category, amount = opts.paint(dim, date), opts.paint(dim, merchant), opts.paint(dim, category), opts.paint(dim, amount)
		} else if credit {
			amount = opts.paint(text.Colors{text.FgGreen}, amount)
		}
		t.AppendRow(table.Row{date, merchant, category, amount})
	}

	t.AppendSeparator()
	countLabel := TransactionCountLabel(v.Matched)
	if len(v.Rows) < v.Matched {
		countLabel = fmt.Sprintf("%d of %s", len(v.Rows), countLabel)
	}
	t.AppendFooter(table.Row{
		"",
		countLabel,
		opts.paint(text.Colors{text.Bold}, "Total"),
		opts.paint(text.Colors{text.Bold}, opts.Currency.FormatSigned(v.Total, credit)),
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

// PrintCategoryTable lists the category definitions with their colours
func PrintCategoryTable(w io.Writer, defs []CategoryDef, opts OutputOptions) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Category", "Colour", "Built-in"})
	for _, d := range defs {
		color := d.Color
		if color == "" {
			color = opts.Palette.Color(d.Name)
		}
		builtin := ""
		if d.Builtin {
			builtin = "yes"
		}
		t.AppendRow(table.Row{swatch(color, opts.Color) + " " + d.Name, color, builtin})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d categories", len(defs)), "", ""})
	t.Render()
}

// PrintStats prints the headline numbers of the dashboard
func PrintStats(w io.Writer, s Stats, opts OutputOptions) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Total Spent", "Transactions", "Top Category"})
	t.AppendRow(table.Row{opts.Currency.Format(s.Total), s.Count, s.TopCategory})
	t.Render()
}

// PrintCategoryBreakdown prints one bar per category, largest first
func PrintCategoryBreakdown(w io.Writer, slices []CategorySlice, opts OutputOptions) {
	if len(slices) == 0 {
		fmt.Fprintln(w, "No spending by category")
		return
	}
	maxTotal := slices[0].Total
	nameWidth := 0
	for _, s := range slices {
		nameWidth = max(nameWidth, len(s.Category))
	}
	fmt.Fprintln(w, "By category")
	for _, s := range slices {
		fmt.Fprintf(w, "  %-*s %s %s\n", nameWidth, s.Category,
			bar(s.Total, maxTotal, opts.barWidth(), s.Color, opts.Color),
			opts.Currency.FormatWhole(s.Total))
	}
}

// PrintMonthlyChart prints the stacked monthly totals, one line per month with a
// segment per category, followed by the legend
func PrintMonthlyChart(w io.Writer, months []Month, series []MonthlySeries, opts OutputOptions) {
	if len(months) == 0 {
		fmt.Fprintln(w, "No monthly data")
		return
	}
	totals := make([]decimal.Decimal, len(months))
	maxTotal := decimal.Zero
	for i := range months {
		totals[i] = decimal.Zero
		for _, s := range series {
			totals[i] = totals[i].Add(s.Values[i])
		}
		if totals[i].GreaterThan(maxTotal) {
			maxTotal = totals[i]
		}
	}

	fmt.Fprintln(w, "Monthly spending")
	width := opts.barWidth()
	for i, m := range months {
		var sb strings.Builder
		for _, s := range series {
			sb.WriteString(bar(s.Values[i], maxTotal, width, s.Color, opts.Color))
		}
		fmt.Fprintf(w, "  %-6s %s %s\n", m.ShortLabel(), sb.String(), opts.Currency.FormatWhole(totals[i]))
	}

	legend := make([]string, 0, len(series))
	for _, s := range series {
		legend = append(legend, swatch(s.Color, opts.Color)+" "+s.Category)
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(legend, "  "))
}

// PrintDailyCalendar prints the month grid with each day's spend shaded, or the
// plain day series when no month is selected
func PrintDailyCalendar(w io.Writer, daily []DailySummary, month Month, opts OutputOptions) {
	cells, _ := BuildCalendar(daily, month)
	if cells == nil {
		printDailySeries(w, daily, month, opts)
		return
	}

	fmt.Fprintf(w, "Daily spending, %s\n", month.Label())
	for _, h := range WeekdayHeader {
		fmt.Fprintf(w, " %3s ", h)
	}
	fmt.Fprintln(w)
	for i, c := range cells {
		switch {
		case c.Blank:
			fmt.Fprint(w, "     ")
		case opts.Color && c.Intensity > 0:
			fmt.Fprint(w, text.Colors{text.BgRed, text.FgHiWhite}.Sprintf(" %3d ", c.Day))
		case c.Intensity > 0:
			fmt.Fprintf(w, " %3d%s", c.Day, heatGlyph(c.Intensity))
		default:
			fmt.Fprintf(w, " %3d ", c.Day)
		}
		if i%7 == 6 {
			fmt.Fprintln(w)
		}
	}
	if len(cells)%7 != 0 {
		fmt.Fprintln(w)
	}
}

func printDailySeries(w io.Writer, daily []DailySummary, month Month, opts OutputOptions) {
	if len(daily) == 0 {
		fmt.Fprintln(w, "No daily data")
		return
	}
	maxSpend := decimal.Zero
	for _, d := range daily {
		if d.Total.GreaterThan(maxSpend) {
			maxSpend = d.Total
		}
	}
	fmt.Fprintln(w, "Daily spending")
	for _, d := range daily {
		fmt.Fprintf(w, "  %-5s %s %s\n", DaySeriesLabel(d.Date, month),
			bar(d.Total, maxSpend, opts.barWidth(), FallbackColor, opts.Color),
			opts.Currency.FormatWhole(d.Total))
	}
}

// PrintDashboard prints every dashboard panel in order
func PrintDashboard(w io.Writer, s *AppState, opts OutputOptions) {
	fmt.Fprintf(w, "Spending dashboard, %s\n\n", s.Month.Label())
	PrintStats(w, ComputeStats(s.Expenses, s.Categories), opts)
	fmt.Fprintln(w)
	PrintCategoryBreakdown(w, CategoryBreakdown(s.Categories, opts.Palette), opts)
	fmt.Fprintln(w)
	months, series := StackedMonthly(s.MonthlyCategories, s.Monthly, opts.Palette)
	PrintMonthlyChart(w, months, series, opts)
	fmt.Fprintln(w)
	PrintDailyCalendar(w, s.Daily, s.Month, opts)
}

// heatGlyph marks shaded days when colours are off
func heatGlyph(intensity float64) string {
	switch {
	case intensity >= 0.5:
		return "#"
	case intensity >= 0.3:
		return "+"
	default:
		return "."
	}
}

// bar renders value as a run of block characters scaled against maxValue
func bar(value, maxValue decimal.Decimal, width int, color string, colored bool) string {
	if maxValue.IsZero() || value.LessThanOrEqual(decimal.Zero) {
		return ""
	}
	n := int(value.Div(maxValue).Mul(decimal.NewFromInt(int64(width))).Round(0).IntPart())
	if n == 0 {
		n = 1
	}
	s := strings.Repeat("█", n)
	if !colored {
		return s
	}
	return hexColor(color).Sprint(s)
}

func swatch(color string, colored bool) string {
	if !colored {
		return "■"
	}
	return hexColor(color).Sprint("■")
}

// hexColor maps a #rrggbb colour to the closest basic terminal colour
func hexColor(hex string) text.Colors {
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return text.Colors{text.FgHiBlack}
	}
	idx := 0
	if r > 127 {
		idx++
	}
	if g > 127 {
		idx += 2
	}
	if b > 127 {
		idx += 4
	}
	if idx == 0 {
		return text.Colors{text.FgHiBlack}
	}
	fg := text.FgBlack + text.Color(idx)
	if r+g+b > 3*160 {
		fg += text.FgHiBlack - text.FgBlack
	}
	return text.Colors{fg}
}
