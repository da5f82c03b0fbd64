package internal

import (
	"context"
	"fmt"
	"time"
)

// PendingUndo is the compensating action for the most recent category change
type PendingUndo struct {
	TxnID        string
	PrevCategory string
	NewCategory  string
	Remember     bool // flag the original change was made with
	ExpiresAt    time.Time
}

// UndoSlot holds at most one PendingUndo. Recording a new one supersedes the old;
// the slot is also cleared by Dismiss, by expiry, and by a successful Take.
type UndoSlot struct {
	pending *PendingUndo
}

func (s *UndoSlot) Record(p PendingUndo) {
	s.pending = &p
}

// Pending returns the live record, clearing it if it has expired
func (s *UndoSlot) Pending(now time.Time) (PendingUndo, bool) {
	if s.pending == nil {
		return PendingUndo{}, false
	}
	if !now.Before(s.pending.ExpiresAt) {
		s.pending = nil
		return PendingUndo{}, false
	}
	return *s.pending, true
}

// Take returns the live record and clears the slot
func (s *UndoSlot) Take(now time.Time) (PendingUndo, bool) {
	p, ok := s.Pending(now)
	s.pending = nil
	return p, ok
}

func (s *UndoSlot) Dismiss() {
	s.pending = nil
}

// RevertCategory re-applies the category a change replaced. Remember is always
// off so reverting never creates a merchant mapping.
func RevertCategory(ctx context.Context, backend Backend, p PendingUndo) error {
	if _, err := backend.UpdateCategory(ctx, p.TxnID, p.PrevCategory, false); err != nil {
		return fmt.Errorf("undoing category change of %s: %w", p.TxnID, err)
	}
	return nil
}
