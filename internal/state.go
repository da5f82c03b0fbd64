package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrRefreshIncomplete marks a failed refetch. After a mutation it means the
// change was applied but the shown data may be stale.
var ErrRefreshIncomplete = errors.New("refresh incomplete")

// DefaultToastDuration is how long the change notification, and with it undo, stays available
const DefaultToastDuration = 4 * time.Second

// Backend is everything the dashboard needs from the REST backend
type Backend interface {
	CategoryCreator
	Transactions(ctx context.Context, month Month) ([]Transaction, error)
	CreditTransactions(ctx context.Context, month Month) ([]Transaction, error)
	MonthlySummary(ctx context.Context) ([]MonthlySummary, error)
	CategorySummary(ctx context.Context, month Month) ([]CategorySummary, error)
	DailySummary(ctx context.Context, month Month) ([]DailySummary, error)
	MonthlyCategorySummary(ctx context.Context) ([]MonthlyCategorySummary, error)
	CategoryDefs(ctx context.Context) ([]CategoryDef, error)
	UpdateCategory(ctx context.Context, id, category string, remember bool) (CategoryUpdate, error)
	SetVoided(ctx context.Context, id string, voided bool) error
}

type Tab string

const (
	TabDashboard    Tab = "dashboard"
	TabTransactions Tab = "transactions"
)

// FetchSet selects datasets to (re)load
type FetchSet uint8

const (
	// FetchCore is everything scoped by the selected month plus the monthly totals
	FetchCore FetchSet = 1 << iota
	FetchMonthlyCategories
	FetchCategoryDefs

	FetchAll = FetchCore | FetchMonthlyCategories | FetchCategoryDefs
)

// Snapshot holds freshly fetched datasets. A nil slice means the fetch was not
// requested or failed; Apply leaves the corresponding dataset untouched.
type Snapshot struct {
	Month             Month
	Expenses          []Transaction
	Credits           []Transaction
	Monthly           []MonthlySummary
	Categories        []CategorySummary
	Daily             []DailySummary
	MonthlyCategories []MonthlyCategorySummary
	CategoryDefs      []CategoryDef
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Fetch loads the requested datasets concurrently. Failed fetches are reported in
// the joined error; the others still land in the snapshot.
func Fetch(ctx context.Context, backend Backend, month Month, what FetchSet) (Snapshot, error) {
	snap := Snapshot{Month: month}
	var g errgroup.Group
	var errs [7]error

	fetch := func(i int, name string, f func() error) {
		g.Go(func() error {
			if err := f(); err != nil {
				errs[i] = fmt.Errorf("fetching %s: %w", name, err)
				return errs[i]
			}
			return nil
		})
	}

	if what&FetchCore != 0 {
		fetch(0, "transactions", func() error {
			v, err := backend.Transactions(ctx, month)
			if err == nil {
				snap.Expenses = nonNil(v)
			}
			return err
		})
		fetch(1, "credit transactions", func() error {
			v, err := backend.CreditTransactions(ctx, month)
			if err == nil {
				snap.Credits = nonNil(v)
			}
			return err
		})
		fetch(2, "monthly summary", func() error {
			v, err := backend.MonthlySummary(ctx)
			if err == nil {
				snap.Monthly = nonNil(v)
			}
			return err
		})
		fetch(3, "category summary", func() error {
			v, err := backend.CategorySummary(ctx, month)
			if err == nil {
				snap.Categories = nonNil(v)
			}
			return err
		})
		fetch(4, "daily summary", func() error {
			v, err := backend.DailySummary(ctx, month)
			if err == nil {
				snap.Daily = nonNil(v)
			}
			return err
		})
	}
	if what&FetchMonthlyCategories != 0 {
		fetch(5, "monthly category summary", func() error {
			v, err := backend.MonthlyCategorySummary(ctx)
			if err == nil {
				snap.MonthlyCategories = nonNil(v)
			}
			return err
		})
	}
	if what&FetchCategoryDefs != 0 {
		fetch(6, "categories", func() error {
			v, err := backend.CategoryDefs(ctx)
			if err == nil {
				snap.CategoryDefs = nonNil(v)
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return snap, errors.Join(errs[:]...)
	}
	return snap, nil
}

// Toast is the transient notification shown after a category change
type Toast struct {
	Message   string
	ExpiresAt time.Time

	txnID string
}

type StateOptions struct {
	ToastDuration time.Duration
	RowLimit      int
	Tab           Tab
	Collator      *Collator
	Logger        zerolog.Logger
	Now           func() time.Time
}

// AppState owns everything the dashboard shows: the selection, the fetched
// datasets, the toast and the pending undo. It is not safe for concurrent use.
type AppState struct {
	backend  Backend
	collator *Collator
	logger   zerolog.Logger
	now      func() time.Time
	toastFor time.Duration

	Tab     Tab
	Month   Month
	Dataset Dataset
	Query   ViewQuery

	Expenses          []Transaction
	Credits           []Transaction
	Monthly           []MonthlySummary
	Categories        []CategorySummary
	Daily             []DailySummary
	MonthlyCategories []MonthlyCategorySummary
	CategoryDefs      []CategoryDef

	toast *Toast
	undo  UndoSlot
}

func NewAppState(backend Backend, opts StateOptions) *AppState {
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = DefaultToastDuration
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tab == "" {
		opts.Tab = TabTransactions
	}
	q := DefaultViewQuery()
	q.Limit = opts.RowLimit
	return &AppState{
		backend:  backend,
		collator: opts.Collator,
		logger:   opts.Logger,
		now:      opts.Now,
		toastFor: opts.ToastDuration,
		Tab:      opts.Tab,
		Month:    AllMonths,
		Dataset:  DatasetExpenses,
		Query:    q,
	}
}

func (s *AppState) Backend() Backend    { return s.backend }
func (s *AppState) Collator() *Collator { return s.collator }

// Apply stores the datasets present in the snapshot. A snapshot fetched for a
// different month than the current one only contributes month-independent data.
func (s *AppState) Apply(snap Snapshot) {
	if snap.Month == s.Month {
		if snap.Expenses != nil {
			s.Expenses = snap.Expenses
		}
		if snap.Credits != nil {
			s.Credits = snap.Credits
		}
		if snap.Categories != nil {
			s.Categories = snap.Categories
		}
		if snap.Daily != nil {
			s.Daily = snap.Daily
		}
	}
	if snap.Monthly != nil {
		s.Monthly = snap.Monthly
	}
	if snap.MonthlyCategories != nil {
		s.MonthlyCategories = snap.MonthlyCategories
	}
	if snap.CategoryDefs != nil {
		s.CategoryDefs = snap.CategoryDefs
	}
}

func (s *AppState) load(ctx context.Context, what FetchSet) error {
	snap, err := Fetch(ctx, s.backend, s.Month, what)
	s.Apply(snap)
	if err != nil {
		s.logger.Warn().Err(err).Str("month", string(s.Month)).Msg("refresh incomplete")
		return fmt.Errorf("%w: %w", ErrRefreshIncomplete, err)
	}
	return nil
}

// Load fetches every dataset for the initial render
func (s *AppState) Load(ctx context.Context) error {
	return s.load(ctx, FetchAll)
}

// Refresh reloads the month-scoped datasets and the monthly totals
func (s *AppState) Refresh(ctx context.Context) error {
	return s.load(ctx, FetchCore)
}

// SelectMonth switches the month scope and reports whether it changed. The
// caller refetches FetchCore for the new month.
func (s *AppState) SelectMonth(m Month) bool {
	if m == s.Month {
		return false
	}
	s.Month = m
	return true
}

func (s *AppState) SetTab(t Tab) { s.Tab = t }

// SetDataset switches between expenses and credits and resets the category filter
func (s *AppState) SetDataset(d Dataset) {
	s.Dataset = d
	s.Query.Category = AllCategories
}

func (s *AppState) SetCategoryFilter(category string) {
	if category == "" {
		category = AllCategories
	}
	s.Query.Category = category
}

func (s *AppState) SetSearch(q string) { s.Query.Search = q }

func (s *AppState) ToggleSort(col SortColumn) { s.Query.Sort = s.Query.Sort.Toggle(col) }

// ActiveList is the transaction list of the selected dataset
func (s *AppState) ActiveList() []Transaction {
	if s.Dataset == DatasetCredits {
		return s.Credits
	}
	return s.Expenses
}

// View applies the current query to the active dataset
func (s *AppState) View() ViewResult {
	return ApplyView(s.ActiveList(), s.Query, s.collator)
}

// FindTransaction looks a row up in either dataset
func (s *AppState) FindTransaction(id string) (Transaction, bool) {
	for _, list := range [][]Transaction{s.Expenses, s.Credits} {
		for _, t := range list {
			if t.ID == id {
				return t, true
			}
		}
	}
	return Transaction{}, false
}

// CategoryNames lists the assignable category names in definition order
func (s *AppState) CategoryNames() []string {
	names := make([]string, 0, len(s.CategoryDefs))
	for _, d := range s.CategoryDefs {
		names = append(names, d.Name)
	}
	return names
}

// RecordCategoryChange remembers how to revert a change the backend accepted and
// raises the toast. Any earlier undo record is superseded.
func (s *AppState) RecordCategoryChange(id, category string, res CategoryUpdate, remember bool) {
	expires := s.now().Add(s.toastFor)
	s.undo.Record(PendingUndo{
		TxnID:        id,
		PrevCategory: res.PrevCategory,
		NewCategory:  category,
		Remember:     remember,
		ExpiresAt:    expires,
	})
	s.toast = &Toast{Message: fmt.Sprintf("Changed to %q", category), ExpiresAt: expires, txnID: id}
}

// ChangeCategory is the backend half of a category change
func ChangeCategory(ctx context.Context, backend Backend, c Commit) (CategoryUpdate, error) {
	res, err := backend.UpdateCategory(ctx, c.TxnID, c.Category, c.Remember)
	if err != nil {
		return CategoryUpdate{}, fmt.Errorf("updating category of %s: %w", c.TxnID, err)
	}
	return res, nil
}

// UpdateCategory reassigns a category, arms undo and refetches
func (s *AppState) UpdateCategory(ctx context.Context, id, category string, remember bool) error {
	res, err := ChangeCategory(ctx, s.backend, Commit{TxnID: id, Category: category, Remember: remember})
	if err != nil {
		return err
	}
	s.RecordCategoryChange(id, category, res, remember)
	return s.load(ctx, FetchAll)
}

// PendingUndo returns the live undo record, if any
func (s *AppState) PendingUndo() (PendingUndo, bool) {
	return s.undo.Pending(s.now())
}

// BeginUndo takes the live undo record out of the slot, so a second request
// while the revert is in flight finds nothing. Send it with RevertCategory.
func (s *AppState) BeginUndo() (PendingUndo, bool) {
	return s.undo.Take(s.now())
}

// CompleteUndo finishes a successful revert. The toast goes only if it still
// belongs to the reverted change; a newer change keeps its toast and undo.
func (s *AppState) CompleteUndo(p PendingUndo) {
	if s.toastFrom(p) {
		s.toast = nil
	}
}

// AbortUndo puts a record back after a failed revert while its toast is still up
func (s *AppState) AbortUndo(p PendingUndo) {
	if !s.toastFrom(p) || !s.now().Before(p.ExpiresAt) {
		return
	}
	s.undo.Record(p)
}

func (s *AppState) toastFrom(p PendingUndo) bool {
	return s.toast != nil && s.toast.txnID == p.TxnID && s.toast.ExpiresAt.Equal(p.ExpiresAt)
}

// MarkVoided is the backend half of voiding and restoring
func MarkVoided(ctx context.Context, backend Backend, id string, voided bool) error {
	if err := backend.SetVoided(ctx, id, voided); err != nil {
		return fmt.Errorf("setting voided=%t on %s: %w", voided, id, err)
	}
	return nil
}

// VoidRefetch is what changes when a transaction is voided or restored
const VoidRefetch = FetchCore | FetchMonthlyCategories

// SetVoided sets or clears a transaction's voided flag and refetches
func (s *AppState) SetVoided(ctx context.Context, id string, voided bool) error {
	if err := MarkVoided(ctx, s.backend, id, voided); err != nil {
		return err
	}
	return s.load(ctx, VoidRefetch)
}

// CreateCategory defines a category after normalising its name, then reloads definitions
func (s *AppState) CreateCategory(ctx context.Context, name, color string) error {
	name = NormalizeCategoryName(name)
	if name == "" || color == "" {
		return fmt.Errorf("%w: category name and color are required", ErrInvalidRecord)
	}
	if err := s.backend.CreateCategory(ctx, name, color); err != nil {
		s.logger.Error().Err(err).Str("category", name).Msg("failed to create category")
		return fmt.Errorf("creating category %q: %w", name, err)
	}
	return s.load(ctx, FetchCategoryDefs)
}

// Toast returns the visible notification, if any
func (s *AppState) Toast() (Toast, bool) {
	if s.toast == nil {
		return Toast{}, false
	}
	if !s.now().Before(s.toast.ExpiresAt) {
		s.DismissToast()
		return Toast{}, false
	}
	return *s.toast, true
}

// DismissToast hides the notification; undo goes with it
func (s *AppState) DismissToast() {
	s.toast = nil
	s.undo.Dismiss()
}

// Tick expires the toast and undo record once their time is up
func (s *AppState) Tick(now time.Time) {
	if s.toast != nil && !now.Before(s.toast.ExpiresAt) {
		s.DismissToast()
	}
	s.undo.Pending(now)
}
