package result

import (
	"io"
	"sync"

	"github.com/jdbcx/jdbcx-core/logging"
)

// ResourceTracker collects io.Closer values registered by an executor
// during one invocation so the owning Result can release every one of
// them, even if some fail — spec.md §3 invariant 4 ("close() on any
// QueryInfo releases every registered resource at least once, even when
// individual close()s throw") applies equally to any Result.
//
// Modeled on the teacher's DryRunDatabase.Close, which always closes
// both its own resource and the wrapped one regardless of either
// failing.
type ResourceTracker struct {
	mu      sync.Mutex
	closers []io.Closer
	closed  bool
}

// NewResourceTracker returns an empty tracker.
func NewResourceTracker() *ResourceTracker { return &ResourceTracker{} }

// Track registers c to be closed when the tracker closes. Safe to call
// after Close; c is closed immediately in that case.
func (t *ResourceTracker) Track(c io.Closer) {
	if c == nil {
		return
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = c.Close()
		return
	}
	t.closers = append(t.closers, c)
	t.mu.Unlock()
}

// Close releases every tracked resource exactly once, in reverse
// registration order, swallowing individual errors (logged at DEBUG per
// spec.md §4.6) and returning the first one encountered, if any.
func (t *ResourceTracker) Close(log logging.Logger) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	closers := t.closers
	t.closers = nil
	t.mu.Unlock()

	var first error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			if log != nil {
				log.Debug("resource close failed", "error", err)
			}
			if first == nil {
				first = err
			}
		}
	}
	return first
}
