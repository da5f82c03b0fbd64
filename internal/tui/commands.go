package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gigurra/spend-dashboard/internal"
)

// Backend results come back to Update as messages; nothing outside Update
// touches the AppState.

type snapshotMsg struct {
	snap internal.Snapshot
	err  error
}

type categoryUpdatedMsg struct {
	commit internal.Commit
	res    internal.CategoryUpdate
	err    error
}

type undoneMsg struct {
	undo internal.PendingUndo
	err  error
}

type voidedMsg struct {
	id     string
	voided bool
	err    error
}

type categoryCreatedMsg struct {
	txnID string
	name  string
	err   error
}

// tickMsg asks the model to expire the toast
type tickMsg time.Time

func fetchCmd(ctx context.Context, backend internal.Backend, month internal.Month, what internal.FetchSet) tea.Cmd {
	return func() tea.Msg {
		snap, err := internal.Fetch(ctx, backend, month, what)
		return snapshotMsg{snap: snap, err: err}
	}
}

func updateCategoryCmd(ctx context.Context, backend internal.Backend, c internal.Commit) tea.Cmd {
	return func() tea.Msg {
		res, err := internal.ChangeCategory(ctx, backend, c)
		return categoryUpdatedMsg{commit: c, res: res, err: err}
	}
}

func undoCmd(ctx context.Context, backend internal.Backend, p internal.PendingUndo) tea.Cmd {
	return func() tea.Msg {
		return undoneMsg{undo: p, err: internal.RevertCategory(ctx, backend, p)}
	}
}

func setVoidedCmd(ctx context.Context, backend internal.Backend, id string, voided bool) tea.Cmd {
	return func() tea.Msg {
		return voidedMsg{id: id, voided: voided, err: internal.MarkVoided(ctx, backend, id, voided)}
	}
}

func createCategoryCmd(ctx context.Context, backend internal.Backend, txnID, name, color string) tea.Cmd {
	return func() tea.Msg {
		return categoryCreatedMsg{txnID: txnID, name: name, err: backend.CreateCategory(ctx, name, color)}
	}
}

func tickAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}
