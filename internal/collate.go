package internal

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator orders strings the way the user's locale does.
// collate.Collator keeps internal buffers, so access is serialised.
type Collator struct {
	mu sync.Mutex
	c  *collate.Collator
}

func NewCollator(tag language.Tag) *Collator {
	return &Collator{c: collate.New(tag)}
}

var defaultCollator = NewCollator(language.English)

// Compare returns -1, 0 or 1. A nil Collator uses English ordering.
func (c *Collator) Compare(a, b string) int {
	if c == nil {
		c = defaultCollator
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.CompareString(a, b)
}
