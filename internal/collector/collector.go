package collector

import (
	"fmt"
	"sync"

	"github.com/hamed0406/urlcheck/internal/domain"
)

// Collector is a write-once-per-index table of probe outcomes. It is safe for
// concurrent use: Record calls are serialized and Snapshot never observes a
// half-written outcome.
type Collector struct {
	mu       sync.RWMutex
	outcomes []*domain.ProbeOutcome
	n        int
}

// New returns a collector for a target list of the given size.
func New(size int) *Collector {
	if size < 0 {
		size = 0
	}
	return &Collector{outcomes: make([]*domain.ProbeOutcome, size)}
}

func (c *Collector) Record(o domain.ProbeOutcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o.Index < 0 || o.Index >= len(c.outcomes) {
		return fmt.Errorf("%w: %d not in [0,%d)", domain.ErrIndexOutOfRange, o.Index, len(c.outcomes))
	}
	if c.outcomes[o.Index] != nil {
		return fmt.Errorf("%w: %d (%s)", domain.ErrDuplicateIndex, o.Index, o.URL)
	}
	cp := o
	c.outcomes[o.Index] = &cp
	c.n++
	return nil
}

// Snapshot returns the recorded outcomes in ascending index order. Gaps are
// skipped.
func (c *Collector) Snapshot() []domain.ProbeOutcome {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.ProbeOutcome, 0, c.n)
	for _, o := range c.outcomes {
		if o != nil {
			out = append(out, *o)
		}
	}
	return out
}

// Len is the number of recorded outcomes.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.n
}

// Size is the number of slots, i.e. the length of the target list.
func (c *Collector) Size() int {
	return len(c.outcomes)
}
