package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gigurra/spend-dashboard/internal"
)

var sortKeys = map[string]internal.SortColumn{
	"d": internal.SortDate,
	"n": internal.SortDescription,
	"g": internal.SortCategory,
	"a": internal.SortAmount,
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}
	if m.picker.IsOpen() {
		return m.pickerKey(msg)
	}
	if m.searching {
		m.searchKey(msg)
		return nil
	}

	switch key {
	case "q":
		return tea.Quit
	case "tab":
		if m.state.Tab == internal.TabDashboard {
			m.state.SetTab(internal.TabTransactions)
		} else {
			m.state.SetTab(internal.TabDashboard)
		}
		return nil
	case "1":
		m.state.SetTab(internal.TabDashboard)
		return nil
	case "2":
		m.state.SetTab(internal.TabTransactions)
		return nil
	case "[":
		return m.shiftMonth(-1)
	case "]":
		return m.shiftMonth(1)
	case "r":
		return m.fetch(internal.FetchAll)
	case "ctrl+z", "u":
		return m.undo()
	case "esc":
		m.state.DismissToast()
		m.status = ""
		return nil
	}

	if m.state.Tab != internal.TabTransactions {
		return nil
	}

	if col, ok := sortKeys[key]; ok {
		m.state.ToggleSort(col)
		m.resetCursor()
		return nil
	}

	switch key {
	case "e":
		m.state.SetDataset(internal.DatasetExpenses)
		m.resetCursor()
	case "c":
		m.state.SetDataset(internal.DatasetCredits)
		m.resetCursor()
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "pgdown":
		m.moveCursor(m.visibleRows())
	case "pgup":
		m.moveCursor(-m.visibleRows())
	case "home":
		m.resetCursor()
	case "end":
		m.moveCursor(len(m.rows()))
	case "/":
		m.searching = true
	case "f":
		m.cyclePill(1)
	case "F":
		m.cyclePill(-1)
	case "0":
		m.state.SetCategoryFilter(internal.AllCategories)
		m.resetCursor()
	case "enter":
		m.openPicker()
	case "v":
		return m.toggleVoid()
	}
	return nil
}

// searchKey edits the search box; the view filters as the user types
func (m *Model) searchKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyEsc:
		m.searching = false
		m.state.SetSearch("")
	case tea.KeyBackspace:
		m.state.SetSearch(dropLastRune(m.state.Query.Search))
	default:
		if s, ok := typed(msg); ok {
			m.state.SetSearch(m.state.Query.Search + s)
		}
	}
	m.resetCursor()
}

func (m *Model) pickerKey(msg tea.KeyMsg) tea.Cmd {
	if m.picker.InNewMode() {
		return m.newCategoryKey(msg)
	}
	switch msg.Type {
	case tea.KeyEsc:
		m.picker.Close()
	case tea.KeyCtrlN:
		m.picker.StartNew()
		m.newField = 0
	case tea.KeyUp:
		m.pickerCursor = max(m.pickerCursor-1, 0)
	case tea.KeyDown:
		m.pickerCursor = min(m.pickerCursor+1, max(len(m.pickerOptions())-1, 0))
	case tea.KeyEnter:
		opts := m.pickerOptions()
		if m.pickerCursor >= len(opts) {
			return nil
		}
		if c, ok := m.picker.Select(opts[m.pickerCursor]); ok {
			return m.commit(c)
		}
	case tea.KeyBackspace:
		m.picker.SetQuery(dropLastRune(m.picker.Query()))
		m.pickerCursor = 0
	default:
		if s, ok := typed(msg); ok {
			m.picker.SetQuery(m.picker.Query() + s)
			m.pickerCursor = 0
		}
	}
	return nil
}

func (m *Model) newCategoryKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.picker.CancelNew()
	case tea.KeyTab, tea.KeyShiftTab:
		m.newField ^= 1
	case tea.KeyEnter:
		return m.createCategory()
	case tea.KeyBackspace:
		if m.newField == 0 {
			m.picker.SetNewName(dropLastRune(m.picker.NewName()))
		} else {
			m.picker.SetNewColor(dropLastRune(m.picker.NewColor()))
		}
	default:
		s, ok := typed(msg)
		if !ok {
			return nil
		}
		if m.newField == 0 {
			m.picker.SetNewName(m.picker.NewName() + s)
		} else {
			m.picker.SetNewColor(m.picker.NewColor() + s)
		}
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.moveCursor(-1)
		return nil
	case tea.MouseButtonWheelDown:
		m.moveCursor(1)
		return nil
	case tea.MouseButtonLeft:
	default:
		return nil
	}

	pt := internal.Point{X: msg.X, Y: msg.Y}
	if m.picker.IsOpen() {
		if m.picker.ClickOutside(pt) {
			return nil
		}
		return m.clickPickerOption(pt)
	}
	if m.state.Tab != internal.TabTransactions {
		return nil
	}

	cols := layoutColumns(m.width)
	if msg.Y == tableTop-1 {
		if col, ok := cols.columnAt(msg.X); ok {
			m.state.ToggleSort(col)
			m.resetCursor()
		}
		return nil
	}
	row := msg.Y - tableTop
	if row < 0 || row >= m.visibleRows() || m.offset+row >= len(m.rows()) {
		return nil
	}
	m.cursor = m.offset + row
	if col, ok := cols.columnAt(msg.X); ok && col == internal.SortCategory {
		m.openPicker()
	}
	return nil
}

func (m *Model) clickPickerOption(pt internal.Point) tea.Cmd {
	if m.picker.InNewMode() {
		return nil
	}
	rows := pickerOptionRows(m.picker.Geometry())
	opts := m.pickerOptions()
	row := pt.Y - m.picker.Position().Y - pickerOptionsTop
	if row < 0 || row >= rows {
		return nil
	}
	idx := pickerWindowStart(m.pickerCursor, rows) + row
	if idx >= len(opts) {
		return nil
	}
	if c, ok := m.picker.Select(opts[idx]); ok {
		return m.commit(c)
	}
	return nil
}

// typed returns the text a key press inserts, if any
func typed(msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		return string(msg.Runes), len(msg.Runes) > 0
	case tea.KeySpace:
		return " ", true
	}
	return "", false
}

func dropLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}
