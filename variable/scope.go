package variable

import (
	"sync"

	"github.com/jdbcx/jdbcx-core/errs"
)

// Lookup is satisfied by every scope so the resolver can walk a
// uniform chain without caring about storage strategy.
type Lookup interface {
	Get(name string) (string, bool)
}

// GlobalScope is the process-wide scope: a concurrent map, read-mostly
// in steady state.
type GlobalScope struct {
	m sync.Map
}

func NewGlobalScope() *GlobalScope { return &GlobalScope{} }

func (g *GlobalScope) Get(name string) (string, bool) {
	v, ok := g.m.Load(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (g *GlobalScope) Set(name, value string) { g.m.Store(name, value) }

// ThreadID identifies the caller's logical "OS thread" — Go has no
// thread-local storage for user code (REDESIGN FLAGS, spec.md §9:
// "thread-local current-context stack... replace with explicit context
// propagation"), so callers pass an opaque handle explicitly
// instead, and ThreadScope keys its storage by that
// handle rather than a real OS thread id.
type ThreadID string

// ThreadScope partitions a concurrent map by ThreadID; no locking is
// needed per-key beyond what sync.Map already provides, matching
// spec.md §5's "thread scope is thread-local (no locking)" for the
// steady-state per-key access pattern.
type ThreadScope struct {
	m sync.Map // ThreadID -> *sync.Map
}

func NewThreadScope() *ThreadScope { return &ThreadScope{} }

func (t *ThreadScope) bucket(id ThreadID) *sync.Map {
	v, _ := t.m.LoadOrStore(id, &sync.Map{})
	return v.(*sync.Map)
}

// For returns a Lookup bound to one thread id.
func (t *ThreadScope) For(id ThreadID) Lookup {
	return threadLookup{bucket: t.bucket(id)}
}

func (t *ThreadScope) Set(id ThreadID, name, value string) {
	t.bucket(id).Store(name, value)
}

type threadLookup struct{ bucket *sync.Map }

func (l threadLookup) Get(name string) (string, bool) {
	v, ok := l.bucket.Load(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// QueryScope is a stack of frames scoped to one outermost invocation.
// It is never shared across goroutines/threads; the caller owns one
// instance per top-level invocation (spec.md §3: "query scope lives in
// a per-invocation stack, not shared across threads").
type QueryScope struct {
	frames []map[string]string
}

// NewQueryScope returns an inactive scope; Begin must be called before
// Set succeeds.
func NewQueryScope() *QueryScope { return &QueryScope{} }

// Begin pushes a new frame, marking the scope active for writes.
func (q *QueryScope) Begin() { q.frames = append(q.frames, map[string]string{}) }

// End pops the innermost frame.
func (q *QueryScope) End() {
	if len(q.frames) > 0 {
		q.frames = q.frames[:len(q.frames)-1]
	}
}

// Active reports whether an invocation has been Begin'd.
func (q *QueryScope) Active() bool { return len(q.frames) > 0 }

func (q *QueryScope) Get(name string) (string, bool) {
	for i := len(q.frames) - 1; i >= 0; i-- {
		if v, ok := q.frames[i][name]; ok {
			return v, true
		}
	}
	return "", false
}

// Set writes into the innermost active frame. Per spec.md §3, writing
// to query scope outside an active invocation is an error.
func (q *QueryScope) Set(name, value string) error {
	if len(q.frames) == 0 {
		return errs.InvalidStateError("cannot write query scope %q: no active invocation", name)
	}
	q.frames[len(q.frames)-1][name] = value
	return nil
}
