package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/gigurra/spend-dashboard/internal"
)

const (
	// tableTop is the screen row of the first transaction; the column header sits above it
	tableTop = 5
	// footerLines are the total, toast and help lines below the table
	footerLines = 3

	dateWidth     = 8
	categoryWidth = 16
	amountWidth   = 14

	// pickerOptionsTop is the first option row, relative to the overlay's top border
	pickerOptionsTop = 3
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cdd6f4"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1e1e2e")).Background(lipgloss.Color("#89b4fa"))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	creditStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	voidedStyle   = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	toastStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#1e1e2e")).Background(lipgloss.Color("#a6e3a1")).Padding(0, 1)
	pickerStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#89b4fa"))
)

type columns struct {
	date, desc, cat, amt int
	descWidth            int
}

// layoutColumns places the table columns for a terminal width; the description takes the slack
func layoutColumns(width int) columns {
	descWidth := max(width-2-dateWidth-categoryWidth-amountWidth-3, 10)
	c := columns{date: 2, descWidth: descWidth}
	c.desc = c.date + dateWidth + 1
	c.cat = c.desc + descWidth + 1
	c.amt = c.cat + categoryWidth + 1
	return c
}

func (c columns) columnAt(x int) (internal.SortColumn, bool) {
	switch {
	case x >= c.date && x < c.date+dateWidth:
		return internal.SortDate, true
	case x >= c.desc && x < c.desc+c.descWidth:
		return internal.SortDescription, true
	case x >= c.cat && x < c.cat+categoryWidth:
		return internal.SortCategory, true
	case x >= c.amt && x < c.amt+amountWidth:
		return internal.SortAmount, true
	}
	return "", false
}

// categoryCell is the screen rectangle of a visible row's category cell
func (m *Model) categoryCell(visibleRow int) internal.Rect {
	c := layoutColumns(m.width)
	top := tableTop + visibleRow
	return internal.Rect{Left: c.cat, Top: top, Right: c.cat + categoryWidth, Bottom: top + 1}
}

func pickerOptionRows(g internal.PickerGeometry) int {
	// border, query, rule, and the hint line
	return max(g.Height-2-3, 1)
}

// pickerWindowStart is the first option shown so the cursor stays visible
func pickerWindowStart(cursor, rows int) int {
	return max(cursor-rows+1, 0)
}

func (m *Model) View() string {
	var lines []string
	lines = append(lines, m.headerLine())
	if m.state.Tab == internal.TabDashboard {
		lines = append(lines, m.dashboardLines()...)
	} else {
		lines = append(lines, m.transactionLines()...)
	}

	body := fitLines(lines, m.height)
	if m.picker.IsOpen() {
		body = overlay(body, m.pickerBox(), m.picker.Position())
	}
	return strings.Join(body, "\n")
}

func (m *Model) headerLine() string {
	tab := func(label string, t internal.Tab) string {
		if m.state.Tab == t {
			return activeStyle.Render(" " + label + " ")
		}
		return inactiveStyle.Render(" " + label + " ")
	}
	left := titleStyle.Render("Spend Dashboard") + "  " +
		tab("1 Dashboard", internal.TabDashboard) + " " +
		tab("2 Transactions", internal.TabTransactions)
	right := "[ " + titleStyle.Render(m.state.Month.Label()) + " ]"
	if m.inFlight > 0 {
		right = mutedStyle.Render("loading… ") + right
	}
	return spread(left, right, m.width)
}

func (m *Model) outputOptions(color bool) internal.OutputOptions {
	return internal.OutputOptions{
		Currency: m.opts.Currency,
		Palette:  m.palette(),
		Color:    color,
		BarWidth: max(m.width-40, 10),
	}
}

func (m *Model) dashboardLines() []string {
	var buf bytes.Buffer
	internal.PrintDashboard(&buf, m.state, m.outputOptions(true))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// header above, toast and help below
	avail := max(m.height-3, 1)
	if len(lines) > avail {
		lines = lines[:avail]
	}
	for len(lines) < avail {
		lines = append(lines, "")
	}
	return append(lines, m.toastLine(), m.helpLine())
}

func (m *Model) transactionLines() []string {
	view := m.state.View()
	cols := layoutColumns(m.width)

	lines := []string{
		m.datasetLine(),
		m.pillLine(),
		m.searchLine(view),
		m.columnHeader(cols),
	}

	visible := m.visibleRows()
	for i := 0; i < visible; i++ {
		idx := m.offset + i
		if idx >= len(view.Rows) {
			if i == 0 {
				lines = append(lines, mutedStyle.Render("  No transactions"))
			} else {
				lines = append(lines, "")
			}
			continue
		}
		lines = append(lines, m.rowLine(view.Rows[idx], idx == m.cursor, cols))
	}

	return append(lines, m.totalLine(view), m.toastLine(), m.helpLine())
}

func (m *Model) datasetLine() string {
	item := func(label string, d internal.Dataset) string {
		if m.state.Dataset == d {
			return activeStyle.Render(" " + label + " ")
		}
		return inactiveStyle.Render(" " + label + " ")
	}
	return item("e Expenses", internal.DatasetExpenses) + " " + item("c Income / Credits", internal.DatasetCredits)
}

func (m *Model) pillLine() string {
	var parts []string
	for _, p := range internal.CategoryPills(m.state.Categories) {
		label := p
		if p != internal.AllCategories {
			label = lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette().Color(p))).Render("■") + " " + p
		}
		if p == m.state.Query.Category {
			parts = append(parts, activeStyle.Render(" "+ansi.Strip(label)+" "))
		} else {
			parts = append(parts, " "+label+" ")
		}
	}
	return ansi.Truncate(strings.Join(parts, " "), m.width, "…")
}

func (m *Model) searchLine(view internal.ViewResult) string {
	q := m.state.Query.Search
	var box string
	switch {
	case m.searching:
		box = "/ " + q + "█"
	case q == "":
		box = mutedStyle.Render("/ Search transactions...")
	default:
		box = "/ " + q
	}
	return spread(box, mutedStyle.Render(internal.TransactionCountLabel(view.Matched)), m.width)
}

func (m *Model) columnHeader(cols columns) string {
	s := m.state.Query.Sort
	label := func(name string, col internal.SortColumn) string {
		if s.Column != col {
			return name
		}
		if s.Dir == internal.SortAsc {
			return name + " ↑"
		}
		return name + " ↓"
	}
	line := strings.Repeat(" ", cols.date) +
		pad(label("Date", internal.SortDate), dateWidth) + " " +
		pad(label("Description", internal.SortDescription), cols.descWidth) + " " +
		pad(label("Category", internal.SortCategory), categoryWidth) + " " +
		padLeft(label("Amount", internal.SortAmount), amountWidth)
	return titleStyle.Render(line)
}

func (m *Model) rowLine(t internal.Transaction, selected bool, cols columns) string {
	credit := m.state.Dataset == internal.DatasetCredits
	amount := m.opts.Currency.FormatSigned(t.Amount, credit)
	category := internal.CategoryLabel(t)

	prefix := "  "
	if selected {
		prefix = "> "
	}
	plain := prefix +
		pad(t.Date.Short(), dateWidth) + " " +
		pad(t.Merchant, cols.descWidth) + " " +
		pad("■ "+category, categoryWidth) + " " +
		padLeft(amount, amountWidth)

	switch {
	case t.Voided:
		return voidedStyle.Render(plain)
	case selected:
		return cursorStyle.Render(plain)
	}

	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette().Color(t.Category))).Render("■")
	amountCell := padLeft(amount, amountWidth)
	if credit {
		amountCell = creditStyle.Render(amountCell)
	}
	return prefix +
		pad(t.Date.Short(), dateWidth) + " " +
		pad(t.Merchant, cols.descWidth) + " " +
		swatch + " " + pad(category, categoryWidth-2) + " " +
		amountCell
}

func (m *Model) totalLine(view internal.ViewResult) string {
	credit := m.state.Dataset == internal.DatasetCredits
	label := "Total Expenses"
	if credit {
		label = "Total Income"
	}
	total := m.opts.Currency.FormatSigned(view.Total, credit)
	count := internal.TransactionCountLabel(view.Matched)
	if len(view.Rows) < view.Matched {
		count = fmt.Sprintf("%d of %s", len(view.Rows), count)
	}
	return spread(titleStyle.Render(label+" "+total), mutedStyle.Render(count), m.width)
}

func (m *Model) toastLine() string {
	if m.status != "" {
		return errorStyle.Render(ansi.Truncate(m.status, m.width, "…"))
	}
	t, ok := m.state.Toast()
	if !ok {
		return ""
	}
	hint := ""
	if _, ok := m.state.PendingUndo(); ok {
		hint = mutedStyle.Render("  ctrl+z undo  esc dismiss")
	}
	return toastStyle.Render(t.Message) + hint
}

func (m *Model) helpLine() string {
	var help string
	switch {
	case m.picker.IsOpen() && m.picker.InNewMode():
		help = "tab switch field  enter create  esc back"
	case m.picker.IsOpen():
		help = "type to filter  ↑/↓ move  enter select  ctrl+n new  esc close"
	case m.searching:
		help = "type to search  enter done  esc clear"
	case m.state.Tab == internal.TabDashboard:
		help = "tab/1/2 view  [/] month  r refresh  q quit"
	default:
		help = "j/k move  enter category  v void  / search  f filter  d/n/g/a sort  e/c dataset  [/] month  q quit"
	}
	return mutedStyle.Render(ansi.Truncate(help, m.width, "…"))
}

func (m *Model) pickerBox() string {
	g := m.picker.Geometry()
	inner := g.Width - 2
	var lines []string

	if m.picker.InNewMode() {
		field := func(label, value string, active bool) string {
			if active {
				value += "█"
			}
			return label + value
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(m.picker.NewColor())).Render("■")
		lines = append(lines,
			titleStyle.Render("New category"),
			strings.Repeat("─", inner),
			field("Name:  ", m.picker.NewName(), m.newField == 0),
			field("Color: ", m.picker.NewColor(), m.newField == 1)+" "+swatch,
		)
	} else {
		lines = append(lines,
			"Category: "+m.picker.Query()+"█",
			strings.Repeat("─", inner),
		)
		opts := m.pickerOptions()
		rows := pickerOptionRows(g)
		start := pickerWindowStart(m.pickerCursor, rows)
		for i := start; i < len(opts) && i < start+rows; i++ {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette().Color(opts[i]))).Render("■")
			name := ansi.Truncate(opts[i], inner-4, "…")
			if i == m.pickerCursor {
				lines = append(lines, cursorStyle.Render("> ")+swatch+" "+cursorStyle.Render(name))
			} else {
				lines = append(lines, "  "+swatch+" "+name)
			}
		}
		if len(opts) == 0 {
			lines = append(lines, mutedStyle.Render("  no match"))
		}
	}

	content := fitLines(lines, g.Height-3)
	content = append(content, mutedStyle.Render("ctrl+n new category"))
	for i, l := range content {
		content[i] = ansi.Truncate(l, inner, "")
	}
	return pickerStyle.Width(inner).Height(g.Height - 2).Render(strings.Join(content, "\n"))
}

// overlay draws box over base with its top-left corner at pos
func overlay(base []string, box string, pos internal.Point) []string {
	out := append([]string(nil), base...)
	for i, boxLine := range strings.Split(box, "\n") {
		y := pos.Y + i
		if y < 0 || y >= len(out) {
			continue
		}
		line := out[y]
		left := ansi.Truncate(line, pos.X, "")
		if w := lipgloss.Width(left); w < pos.X {
			left += strings.Repeat(" ", pos.X-w)
		}
		right := ansi.TruncateLeft(line, pos.X+lipgloss.Width(boxLine), "")
		out[y] = left + boxLine + right
	}
	return out
}

// fitLines pads or cuts lines to exactly n entries
func fitLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return lines
}

// spread puts left and right at opposite ends of a line of the given width
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func pad(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	return s + strings.Repeat(" ", max(width-lipgloss.Width(s), 0))
}

func padLeft(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	return strings.Repeat(" ", max(width-lipgloss.Width(s), 0)) + s
}
