package internal

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultNewCategoryColor is preselected when defining a new category
const DefaultNewCategoryColor = "#6366f1"

// colorInputPattern accepts partially typed hex colours
var colorInputPattern = regexp.MustCompile(`^#[0-9a-fA-F]{0,6}$`)

type Point struct{ X, Y int }

type Size struct{ W, H int }

// Rect uses screen coordinates with Right and Bottom exclusive
type Rect struct {
	Left, Top, Right, Bottom int
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// PickerGeometry describes the overlay's size and how it hangs off its anchor
type PickerGeometry struct {
	Gap     int // space between anchor bottom and overlay top
	Width   int
	Height  int
	OffsetX int // how far left of the anchor's right edge the overlay starts
	MarginX int // space kept free at the viewport's right edge
}

// PixelPickerGeometry matches the browser overlay (200px wide, 350px reserved height)
var PixelPickerGeometry = PickerGeometry{Gap: 4, Width: 200, Height: 350, OffsetX: 200, MarginX: 40}

// CellPickerGeometry is the terminal variant, in character cells
var CellPickerGeometry = PickerGeometry{Gap: 0, Width: 30, Height: 14, OffsetX: 30, MarginX: 1}

// PlacePicker computes the overlay's top-left corner from the anchor and viewport.
// The overlay stays inside the viewport when it fits.
func PlacePicker(anchor Rect, viewport Size, g PickerGeometry) Point {
	top := min(anchor.Bottom+g.Gap, viewport.H-g.Height)
	left := min(anchor.Right-g.OffsetX, viewport.W-g.Width-g.MarginX)
	return Point{X: max(left, 0), Y: max(top, 0)}
}

// Commit is a category assignment chosen in the picker
type Commit struct {
	TxnID    string
	Category string
	Remember bool
}

// CategoryCreator defines new categories; the API client satisfies it
type CategoryCreator interface {
	CreateCategory(ctx context.Context, name, color string) error
}

type PickerState int

const (
	PickerClosed PickerState = iota
	PickerOpen
)

// NormalizeCategoryName applies the category naming rule: trimmed, lowercase
func NormalizeCategoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CategoryPicker is the popup used to reassign one transaction's category.
// It is either closed or open for exactly one row; while open it may be in the
// new-category sub-state.
type CategoryPicker struct {
	geometry PickerGeometry
	logger   zerolog.Logger

	state    PickerState
	txnID    string
	current  string
	anchor   Rect
	viewport Size
	query    string

	newMode  bool
	newName  string
	newColor string
}

func NewCategoryPicker(g PickerGeometry, logger zerolog.Logger) *CategoryPicker {
	return &CategoryPicker{geometry: g, logger: logger}
}

// Open shows the picker for a row. Opening the row that is already open closes it.
func (p *CategoryPicker) Open(txnID, current string, anchor Rect, viewport Size) {
	if p.state == PickerOpen && p.txnID == txnID {
		p.Close()
		return
	}
	p.state = PickerOpen
	p.txnID = txnID
	p.current = current
	p.anchor = anchor
	p.viewport = viewport
	p.query = ""
	p.newMode = false
	p.newName = ""
	p.newColor = DefaultNewCategoryColor
}

func (p *CategoryPicker) Close() {
	p.state = PickerClosed
	p.txnID = ""
	p.current = ""
	p.query = ""
	p.newMode = false
}

func (p *CategoryPicker) State() PickerState { return p.state }
func (p *CategoryPicker) IsOpen() bool       { return p.state == PickerOpen }
func (p *CategoryPicker) TxnID() string      { return p.txnID }
func (p *CategoryPicker) Query() string      { return p.query }
func (p *CategoryPicker) InNewMode() bool    { return p.newMode }
func (p *CategoryPicker) NewName() string    { return p.newName }
func (p *CategoryPicker) NewColor() string   { return p.newColor }
func (p *CategoryPicker) Current() string    { return p.current }

func (p *CategoryPicker) SetQuery(q string) { p.query = q }

// Resize keeps the overlay clamped when the viewport changes
func (p *CategoryPicker) Resize(viewport Size) { p.viewport = viewport }

// Options lists the names matching the query, excluding the row's current category
func (p *CategoryPicker) Options(all []string) []string {
	q := strings.ToLower(p.query)
	var result []string
	for _, name := range all {
		if name == p.current {
			continue
		}
		if strings.Contains(name, q) {
			result = append(result, name)
		}
	}
	return result
}

// Select picks a category for the open row and closes the picker
func (p *CategoryPicker) Select(name string) (Commit, bool) {
	if p.state != PickerOpen {
		return Commit{}, false
	}
	c := Commit{TxnID: p.txnID, Category: name, Remember: true}
	p.Close()
	return c, true
}

func (p *CategoryPicker) StartNew() {
	if p.state != PickerOpen {
		return
	}
	p.newMode = true
}

func (p *CategoryPicker) CancelNew() { p.newMode = false }

func (p *CategoryPicker) SetNewName(name string) { p.newName = name }

// SetNewColor accepts the value only while it still looks like a hex colour
func (p *CategoryPicker) SetNewColor(color string) bool {
	if !colorInputPattern.MatchString(color) {
		return false
	}
	p.newColor = color
	return true
}

// PendingNew returns the normalised name and colour of the category being
// defined. ok is false when nothing should be sent: the picker is not in the
// new-category form, or the name or colour is empty.
func (p *CategoryPicker) PendingNew() (name, color string, ok bool) {
	if p.state != PickerOpen || !p.newMode {
		return "", "", false
	}
	name = NormalizeCategoryName(p.newName)
	if name == "" || p.newColor == "" {
		return "", "", false
	}
	return name, p.newColor, true
}

// CompleteNew finishes a create started from PendingNew. On success the new
// category is selected for the open row. On failure the error is logged and the
// form stays as typed.
func (p *CategoryPicker) CompleteNew(txnID, name string, err error) (Commit, bool) {
	if err != nil {
		p.logger.Error().Err(err).Str("category", name).Msg("failed to create category")
		return Commit{}, false
	}
	if p.state != PickerOpen || p.txnID != txnID {
		return Commit{}, false
	}
	return p.Select(name)
}

// Position is where the overlay is drawn
func (p *CategoryPicker) Position() Point {
	return PlacePicker(p.anchor, p.viewport, p.geometry)
}

func (p *CategoryPicker) Bounds() Rect {
	pos := p.Position()
	return Rect{Left: pos.X, Top: pos.Y, Right: pos.X + p.geometry.Width, Bottom: pos.Y + p.geometry.Height}
}

func (p *CategoryPicker) Geometry() PickerGeometry { return p.geometry }

// ClickOutside closes the picker without committing when pt misses the overlay.
// It reports whether the picker was closed.
func (p *CategoryPicker) ClickOutside(pt Point) bool {
	if p.state != PickerOpen || p.Bounds().Contains(pt) {
		return false
	}
	p.Close()
	return true
}
