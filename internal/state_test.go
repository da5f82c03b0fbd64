package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type updateCall struct {
	ID       string
	Category string
	Remember bool
}

// fakeBackend keeps transactions in memory and records mutations
type fakeBackend struct {
	mu       sync.Mutex
	expenses []Transaction
	credits  []Transaction
	defs     []CategoryDef
	fail     map[string]error

	updates []updateCall
	voids   []string
	creates []string
	fetches map[string]int
	months  []Month
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		expenses: []Transaction{
			tx("1", "2025-01-03", "Blue Bottle Coffee", "5.40", "drinks"),
			tx("2", "2025-01-05", "Grab", "18.20", "transport"),
			tx("3", "2025-02-01", "Hawker Centre", "7.00", "food"),
		},
		credits: []Transaction{
			{ID: "c1", Date: mustDay("2025-01-25"), TxnType: "CREDIT", Merchant: "Salary", Amount: dec("5000"), Category: "income"},
		},
		defs:    []CategoryDef{{Name: "food", Color: "#f97316", Builtin: true}, {Name: "drinks"}, {Name: "transport"}},
		fail:    map[string]error{},
		fetches: map[string]int{},
	}
}

func (f *fakeBackend) enter(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[name]++
	return f.fail[name]
}

func byMonth(txs []Transaction, m Month) []Transaction {
	var out []Transaction
	for _, t := range txs {
		if m == AllMonths || strings.HasPrefix(t.Date.String(), string(m)) {
			out = append(out, t)
		}
	}
	return out
}

func (f *fakeBackend) Transactions(ctx context.Context, month Month) ([]Transaction, error) {
	if err := f.enter("transactions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.months = append(f.months, month)
	return byMonth(f.expenses, month), nil
}

func (f *fakeBackend) CreditTransactions(ctx context.Context, month Month) ([]Transaction, error) {
	if err := f.enter("credits"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return byMonth(f.credits, month), nil
}

func (f *fakeBackend) MonthlySummary(ctx context.Context) ([]MonthlySummary, error) {
	if err := f.enter("monthly"); err != nil {
		return nil, err
	}
	return []MonthlySummary{{Month: "2025-01", Total: dec("23.60"), Count: 2}, {Month: "2025-02", Total: dec("7"), Count: 1}}, nil
}

func (f *fakeBackend) CategorySummary(ctx context.Context, month Month) ([]CategorySummary, error) {
	if err := f.enter("categories"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := map[string]CategorySummary{}
	var order []string
	for _, t := range byMonth(f.expenses, month) {
		c := CategoryLabel(t)
		s, ok := totals[c]
		if !ok {
			order = append(order, c)
			s = CategorySummary{Category: c, Total: dec("0")}
		}
		s.Total = s.Total.Add(t.Amount)
		s.Count++
		totals[c] = s
	}
	out := make([]CategorySummary, 0, len(order))
	for _, c := range order {
		out = append(out, totals[c])
	}
	return out, nil
}

func (f *fakeBackend) DailySummary(ctx context.Context, month Month) ([]DailySummary, error) {
	if err := f.enter("daily"); err != nil {
		return nil, err
	}
	return []DailySummary{}, nil
}

func (f *fakeBackend) MonthlyCategorySummary(ctx context.Context) ([]MonthlyCategorySummary, error) {
	if err := f.enter("monthly-categories"); err != nil {
		return nil, err
	}
	return []MonthlyCategorySummary{{Month: "2025-01", Category: "drinks", Total: dec("5.40")}}, nil
}

func (f *fakeBackend) CategoryDefs(ctx context.Context) ([]CategoryDef, error) {
	if err := f.enter("defs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CategoryDef(nil), f.defs...), nil
}

func (f *fakeBackend) CreateCategory(ctx context.Context, name, color string) error {
	if err := f.enter("create"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, name+" "+color)
	f.defs = append(f.defs, CategoryDef{Name: name, Color: color})
	return nil
}

func (f *fakeBackend) UpdateCategory(ctx context.Context, id, category string, remember bool) (CategoryUpdate, error) {
	if err := f.enter("update"); err != nil {
		return CategoryUpdate{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{id, category, remember})
	for i := range f.expenses {
		if f.expenses[i].ID == id {
			prev := f.expenses[i].Category
			f.expenses[i].Category = category
			return CategoryUpdate{Status: "ok", PrevCategory: prev}, nil
		}
	}
	return CategoryUpdate{}, fmt.Errorf("no transaction %s", id)
}

func (f *fakeBackend) SetVoided(ctx context.Context, id string, voided bool) error {
	if err := f.enter("void"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voids = append(f.voids, fmt.Sprintf("%s=%t", id, voided))
	for i := range f.expenses {
		if f.expenses[i].ID == id {
			f.expenses[i].Voided = voided
		}
	}
	return nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestState(t *testing.T) (*AppState, *fakeBackend, *fakeClock) {
	t.Helper()
	backend := newFakeBackend()
	clock := &fakeClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	s := NewAppState(backend, StateOptions{Now: clock.Now, Logger: zerolog.Nop()})
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, backend, clock
}

func TestAppState_Load(t *testing.T) {
	s, _, _ := newTestState(t)

	if len(s.Expenses) != 3 || len(s.Credits) != 1 {
		t.Errorf("expenses=%d credits=%d", len(s.Expenses), len(s.Credits))
	}
	if len(s.Monthly) != 2 || len(s.MonthlyCategories) != 1 || len(s.CategoryDefs) != 3 {
		t.Errorf("monthly=%d monthlyCategories=%d defs=%d", len(s.Monthly), len(s.MonthlyCategories), len(s.CategoryDefs))
	}
	if s.Daily == nil {
		t.Error("empty daily summary should be loaded as an empty list")
	}
	if s.Tab != TabTransactions || s.Dataset != DatasetExpenses || s.Query.Category != AllCategories {
		t.Errorf("defaults: tab=%s dataset=%s category=%s", s.Tab, s.Dataset, s.Query.Category)
	}
}

func TestAppState_SelectMonthRefetchesScopedData(t *testing.T) {
	s, backend, _ := newTestState(t)

	if !s.SelectMonth("2025-02") {
		t.Fatal("SelectMonth reported no change")
	}
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := ids(s.Expenses); !equalIDs(got, []string{"3"}) {
		t.Errorf("expenses = %v, want [3]", got)
	}
	if len(s.Credits) != 0 {
		t.Errorf("credits = %v, want none in February", ids(s.Credits))
	}
	if last := backend.months[len(backend.months)-1]; last != "2025-02" {
		t.Errorf("last month fetched = %q", last)
	}
	if backend.fetches["defs"] != 1 {
		t.Errorf("category definitions refetched on month change: %d", backend.fetches["defs"])
	}
}

func TestAppState_RefreshKeepsCategoryFilter(t *testing.T) {
	s, _, _ := newTestState(t)
	s.SetCategoryFilter("food")

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Query.Category != "food" {
		t.Errorf("category filter = %q after refresh, want food", s.Query.Category)
	}
}

func TestAppState_SetDatasetResetsCategoryFilter(t *testing.T) {
	s, _, _ := newTestState(t)
	s.SetCategoryFilter("food")
	s.SetDataset(DatasetCredits)

	if s.Query.Category != AllCategories {
		t.Errorf("category filter = %q, want all", s.Query.Category)
	}
	if got := ids(s.View().Rows); !equalIDs(got, []string{"c1"}) {
		t.Errorf("credits view = %v", got)
	}
}

func TestAppState_PartialRefreshFailure(t *testing.T) {
	s, backend, _ := newTestState(t)
	staleCredits := s.Credits
	backend.fail["credits"] = errors.New("down")

	s.SelectMonth("2025-02")
	err := s.Refresh(context.Background())
	if !errors.Is(err, ErrRefreshIncomplete) || !strings.Contains(err.Error(), "fetching credit transactions") {
		t.Fatalf("error = %v", err)
	}
	// the failed dataset is stale, the others are fresh
	if got := ids(s.Expenses); !equalIDs(got, []string{"3"}) {
		t.Errorf("expenses = %v, want [3]", got)
	}
	if len(s.Credits) != len(staleCredits) {
		t.Errorf("credits should be left as they were")
	}
}

func TestAppState_ApplyIgnoresOtherMonth(t *testing.T) {
	s, _, _ := newTestState(t)
	s.Month = "2025-02"

	s.Apply(Snapshot{
		Month:    "2025-01",
		Expenses: []Transaction{tx("x", "2025-01-01", "Late", "1", "")},
		Monthly:  []MonthlySummary{},
	})
	if len(s.Expenses) == 1 && s.Expenses[0].ID == "x" {
		t.Error("a response for another month replaced the current list")
	}
	if s.Monthly == nil || len(s.Monthly) != 0 {
		t.Error("month independent data should still be applied")
	}
}

// undo runs both halves of an undo against the backend and refetches
func undo(ctx context.Context, s *AppState) (bool, error) {
	p, ok := s.BeginUndo()
	if !ok {
		return false, nil
	}
	if err := RevertCategory(ctx, s.Backend(), p); err != nil {
		s.AbortUndo(p)
		return false, err
	}
	s.CompleteUndo(p)
	return true, s.Load(ctx)
}

func TestAppState_SelectMonthSameMonth(t *testing.T) {
	s, _, _ := newTestState(t)
	if s.SelectMonth(AllMonths) {
		t.Error("selecting the current month reported a change")
	}
}

func TestAppState_UpdateThenUndo(t *testing.T) {
	s, backend, _ := newTestState(t)
	ctx := context.Background()

	if err := s.UpdateCategory(ctx, "1", "food", true); err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if txn, _ := s.FindTransaction("1"); txn.Category != "food" {
		t.Fatalf("category after update = %q", txn.Category)
	}
	toast, ok := s.Toast()
	if !ok || toast.Message != `Changed to "food"` {
		t.Errorf("toast = %+v, %v", toast, ok)
	}
	p, ok := s.PendingUndo()
	if !ok || p.PrevCategory != "drinks" || !p.Remember {
		t.Fatalf("pending undo = %+v, %v", p, ok)
	}

	undone, err := undo(ctx, s)
	if err != nil || !undone {
		t.Fatalf("Undo = %v, %v", undone, err)
	}
	if txn, _ := s.FindTransaction("1"); txn.Category != "drinks" {
		t.Errorf("category after undo = %q, want drinks", txn.Category)
	}

	want := []updateCall{{"1", "food", true}, {"1", "drinks", false}}
	if len(backend.updates) != 2 || backend.updates[0] != want[0] || backend.updates[1] != want[1] {
		t.Errorf("update calls = %+v, want %+v", backend.updates, want)
	}
	if _, ok := s.Toast(); ok {
		t.Error("toast should be gone after undo")
	}
	if _, ok := s.PendingUndo(); ok {
		t.Error("undo should be spent")
	}
	if again, _ := undo(ctx, s); again {
		t.Error("second undo did something")
	}
}

func TestAppState_UndoExpires(t *testing.T) {
	s, backend, clock := newTestState(t)
	ctx := context.Background()

	if err := s.UpdateCategory(ctx, "1", "food", true); err != nil {
		t.Fatal(err)
	}
	clock.Advance(DefaultToastDuration)
	s.Tick(clock.Now())

	if _, ok := s.Toast(); ok {
		t.Error("toast outlived its duration")
	}
	undone, err := undo(ctx, s)
	if err != nil || undone {
		t.Errorf("Undo after expiry = %v, %v", undone, err)
	}
	if len(backend.updates) != 1 {
		t.Errorf("expired undo called the backend: %+v", backend.updates)
	}
}

func TestAppState_NewChangeSupersedesUndo(t *testing.T) {
	s, backend, clock := newTestState(t)
	ctx := context.Background()

	if err := s.UpdateCategory(ctx, "1", "food", true); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)
	if err := s.UpdateCategory(ctx, "2", "travel", false); err != nil {
		t.Fatal(err)
	}

	p, ok := s.PendingUndo()
	if !ok || p.TxnID != "2" || p.PrevCategory != "transport" {
		t.Fatalf("pending = %+v", p)
	}
	if _, err := undo(ctx, s); err != nil {
		t.Fatal(err)
	}
	if txn, _ := s.FindTransaction("1"); txn.Category != "food" {
		t.Errorf("first change should stay, got %q", txn.Category)
	}
	if txn, _ := s.FindTransaction("2"); txn.Category != "transport" {
		t.Errorf("second change should be reverted, got %q", txn.Category)
	}
	if last := backend.updates[len(backend.updates)-1]; last.Remember {
		t.Error("undo must not remember")
	}
}

func TestAppState_DismissToastDropsUndo(t *testing.T) {
	s, _, _ := newTestState(t)
	if err := s.UpdateCategory(context.Background(), "1", "food", true); err != nil {
		t.Fatal(err)
	}
	s.DismissToast()
	if _, ok := s.PendingUndo(); ok {
		t.Error("undo survived dismissal")
	}
}

func TestAppState_FailedUpdateArmsNothing(t *testing.T) {
	s, backend, _ := newTestState(t)
	backend.fail["update"] = errors.New("rejected")

	if err := s.UpdateCategory(context.Background(), "1", "food", true); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := s.PendingUndo(); ok {
		t.Error("undo armed for a failed change")
	}
	if _, ok := s.Toast(); ok {
		t.Error("toast raised for a failed change")
	}
}

func TestAppState_SetVoided(t *testing.T) {
	s, backend, _ := newTestState(t)
	ctx := context.Background()

	if err := s.SetVoided(ctx, "2", true); err != nil {
		t.Fatal(err)
	}
	if txn, _ := s.FindTransaction("2"); !txn.Voided {
		t.Error("transaction not voided")
	}
	if err := s.SetVoided(ctx, "2", false); err != nil {
		t.Fatal(err)
	}
	if !equalIDs(backend.voids, []string{"2=true", "2=false"}) {
		t.Errorf("void calls = %v", backend.voids)
	}

	backend.fail["void"] = errors.New("rejected")
	if err := s.SetVoided(ctx, "2", true); err == nil || !strings.Contains(err.Error(), "voided=true on 2") {
		t.Errorf("error = %v", err)
	}
}

func TestAppState_ChangeAppliedButRefreshFailed(t *testing.T) {
	s, backend, _ := newTestState(t)
	backend.fail["daily"] = errors.New("down")

	err := s.UpdateCategory(context.Background(), "1", "food", false)
	if !errors.Is(err, ErrRefreshIncomplete) {
		t.Fatalf("error = %v, want a refresh failure", err)
	}
	if _, ok := s.PendingUndo(); !ok {
		t.Error("the applied change should still be undoable")
	}
}

func TestAppState_UndoInFlightKeepsNewerChange(t *testing.T) {
	s, _, clock := newTestState(t)
	ctx := context.Background()

	if err := s.UpdateCategory(ctx, "3", "travel", true); err != nil {
		t.Fatal(err)
	}
	p, ok := s.BeginUndo()
	if !ok {
		t.Fatal("nothing to undo")
	}
	if _, again := s.BeginUndo(); again {
		t.Error("the record should leave the slot once the revert is issued")
	}

	clock.Advance(time.Second)
	if err := s.UpdateCategory(ctx, "1", "transport", false); err != nil {
		t.Fatal(err)
	}
	if err := RevertCategory(ctx, s.Backend(), p); err != nil {
		t.Fatal(err)
	}
	s.CompleteUndo(p)

	newer, ok := s.PendingUndo()
	if !ok || newer.TxnID != "1" || newer.PrevCategory != "drinks" {
		t.Errorf("pending = %+v, %v, want the newer change", newer, ok)
	}
	if toast, ok := s.Toast(); !ok || toast.Message != `Changed to "transport"` {
		t.Errorf("toast = %+v, %v", toast, ok)
	}
}

func TestAppState_FailedUndoCanBeRetried(t *testing.T) {
	s, backend, clock := newTestState(t)
	ctx := context.Background()

	if err := s.UpdateCategory(ctx, "1", "food", true); err != nil {
		t.Fatal(err)
	}
	backend.fail["update"] = errors.New("down")
	if undone, err := undo(ctx, s); undone || err == nil {
		t.Fatalf("undo = %v, %v, want failure", undone, err)
	}
	if _, ok := s.PendingUndo(); !ok {
		t.Fatal("a failed revert should leave the change undoable")
	}

	clock.Advance(DefaultToastDuration)
	p := PendingUndo{TxnID: "1", PrevCategory: "drinks", ExpiresAt: clock.Now()}
	s.AbortUndo(p)
	if _, ok := s.PendingUndo(); ok {
		t.Error("an expired record was put back")
	}
}

func TestAppState_CreateCategory(t *testing.T) {
	s, backend, _ := newTestState(t)
	ctx := context.Background()

	if err := s.CreateCategory(ctx, " Bars ", "#ff0000"); err != nil {
		t.Fatal(err)
	}
	if !equalIDs(backend.creates, []string{"bars #ff0000"}) {
		t.Errorf("create calls = %v", backend.creates)
	}
	if names := s.CategoryNames(); names[len(names)-1] != "bars" {
		t.Errorf("definitions not reloaded: %v", names)
	}

	err := s.CreateCategory(ctx, "  ", "#ff0000")
	if !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("empty name error = %v", err)
	}
	if len(backend.creates) != 1 {
		t.Errorf("empty name reached the backend: %v", backend.creates)
	}
}

func TestAppState_ViewUsesQuery(t *testing.T) {
	s, _, _ := newTestState(t)
	s.SetSearch("GRAB")
	if got := ids(s.View().Rows); !equalIDs(got, []string{"2"}) {
		t.Errorf("search view = %v", got)
	}
	s.SetSearch("")
	s.ToggleSort(SortAmount)
	if got := ids(s.View().Rows); !equalIDs(got, []string{"1", "3", "2"}) {
		t.Errorf("amount asc view = %v", got)
	}
}
