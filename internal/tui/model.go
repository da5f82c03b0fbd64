// Package tui is the interactive dashboard: a bubbletea program over an AppState.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/gigurra/spend-dashboard/internal"
)

type Options struct {
	Currency internal.Currency
	Colors   map[string]string // category colour overrides
	Logger   zerolog.Logger
	Now      func() time.Time
	// After schedules a tickMsg once d has passed
	After func(d time.Duration) tea.Cmd
}

// Model is the bubbletea model. All AppState mutation happens in Update.
type Model struct {
	ctx    context.Context
	state  *internal.AppState
	picker *internal.CategoryPicker
	opts   Options

	width  int
	height int

	cursor int // index into the current view's rows
	offset int // first visible row

	searching    bool
	pickerCursor int
	newField     int // 0 name, 1 colour

	inFlight int
	status   string
}

func New(ctx context.Context, state *internal.AppState, opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.After == nil {
		opts.After = tickAfter
	}
	return &Model{
		ctx:    ctx,
		state:  state,
		picker: internal.NewCategoryPicker(internal.CellPickerGeometry, opts.Logger),
		opts:   opts,
		width:  100,
		height: 30,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.fetch(internal.FetchAll)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.picker.IsOpen() {
			m.picker.Resize(m.viewport())
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case snapshotMsg:
		m.inFlight = max(m.inFlight-1, 0)
		m.state.Apply(msg.snap)
		if msg.err != nil {
			m.fail("refresh incomplete", msg.err)
		}
		m.clampCursor()
		return m, nil

	case categoryUpdatedMsg:
		if msg.err != nil {
			m.fail("category change failed", msg.err)
			return m, nil
		}
		c := msg.commit
		m.state.RecordCategoryChange(c.TxnID, c.Category, msg.res, c.Remember)
		return m, tea.Batch(m.fetch(internal.FetchAll), m.scheduleToastExpiry())

	case undoneMsg:
		if msg.err != nil {
			m.state.AbortUndo(msg.undo)
			m.fail("undo failed", msg.err)
			return m, nil
		}
		m.state.CompleteUndo(msg.undo)
		return m, m.fetch(internal.FetchAll)

	case voidedMsg:
		if msg.err != nil {
			m.fail("void failed", msg.err)
			return m, nil
		}
		return m, m.fetch(internal.VoidRefetch)

	case categoryCreatedMsg:
		commit, ok := m.picker.CompleteNew(msg.txnID, msg.name, msg.err)
		if msg.err != nil {
			return m, nil
		}
		if !ok {
			return m, m.fetch(internal.FetchCategoryDefs)
		}
		return m, tea.Batch(m.fetch(internal.FetchCategoryDefs), m.commit(commit))

	case tickMsg:
		m.state.Tick(m.opts.Now())
		return m, nil
	}
	return m, nil
}

func (m *Model) fetch(what internal.FetchSet) tea.Cmd {
	m.inFlight++
	return fetchCmd(m.ctx, m.state.Backend(), m.state.Month, what)
}

func (m *Model) commit(c internal.Commit) tea.Cmd {
	return updateCategoryCmd(m.ctx, m.state.Backend(), c)
}

func (m *Model) scheduleToastExpiry() tea.Cmd {
	t, ok := m.state.Toast()
	if !ok {
		return nil
	}
	return m.opts.After(t.ExpiresAt.Sub(m.opts.Now()))
}

func (m *Model) fail(what string, err error) {
	m.opts.Logger.Error().Err(err).Msg(what)
	m.status = what + ": " + err.Error()
}

func (m *Model) palette() internal.Palette {
	return internal.NewPalette(m.state.CategoryDefs, m.opts.Colors)
}

func (m *Model) rows() []internal.Transaction {
	return m.state.View().Rows
}

func (m *Model) selected() (internal.Transaction, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return internal.Transaction{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) visibleRows() int {
	return max(m.height-tableTop-footerLines, 1)
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	m.offset = max(min(m.offset, n-visible), 0)
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) resetCursor() {
	m.cursor, m.offset = 0, 0
}

func (m *Model) viewport() internal.Size {
	return internal.Size{W: m.width, H: m.height}
}

// months lists the month selector's choices: all months, then the backend's months
func (m *Model) months() []internal.Month {
	months := []internal.Month{internal.AllMonths}
	for _, s := range m.state.Monthly {
		months = append(months, s.Month)
	}
	return months
}

func (m *Model) shiftMonth(delta int) tea.Cmd {
	months := m.months()
	idx := 0
	for i, mo := range months {
		if mo == m.state.Month {
			idx = i
		}
	}
	next := min(max(idx+delta, 0), len(months)-1)
	if !m.state.SelectMonth(months[next]) {
		return nil
	}
	m.resetCursor()
	return m.fetch(internal.FetchCore)
}

func (m *Model) cyclePill(delta int) {
	pills := internal.CategoryPills(m.state.Categories)
	idx := 0
	for i, p := range pills {
		if p == m.state.Query.Category {
			idx = i
		}
	}
	idx = (idx + delta + len(pills)) % len(pills)
	m.state.SetCategoryFilter(pills[idx])
	m.resetCursor()
}

func (m *Model) openPicker() {
	t, ok := m.selected()
	if !ok {
		return
	}
	m.picker.Open(t.ID, t.Category, m.categoryCell(m.cursor-m.offset), m.viewport())
	m.pickerCursor = 0
	m.newField = 0
}

func (m *Model) pickerOptions() []string {
	return m.picker.Options(m.state.CategoryNames())
}

func (m *Model) toggleVoid() tea.Cmd {
	t, ok := m.selected()
	if !ok {
		return nil
	}
	return setVoidedCmd(m.ctx, m.state.Backend(), t.ID, !t.Voided)
}

func (m *Model) undo() tea.Cmd {
	p, ok := m.state.BeginUndo()
	if !ok {
		return nil
	}
	return undoCmd(m.ctx, m.state.Backend(), p)
}

func (m *Model) createCategory() tea.Cmd {
	name, color, ok := m.picker.PendingNew()
	if !ok {
		return nil
	}
	return createCategoryCmd(m.ctx, m.state.Backend(), m.picker.TxnID(), name, color)
}
