// Package cache implements C6: the QueryInfo lifecycle and the bounded
// LRU+TTL map that single-flights concurrent submissions of the same
// qid (spec.md §4.6).
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
)

// State is QueryInfo's monotone lifecycle: NEW -> RUNNING -> READY -> CLOSED.
type State int32

const (
	StateNew State = iota
	StateRunning
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateRunning:
		return "RUNNING"
	case StateReady:
		return "READY"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// QueryInfo is one cache entry: identity plus write-once result and
// resource list, guarded by atomics so no lock is ever held across a
// backend call (spec.md §5 "Discipline").
type QueryInfo struct {
	QID       string
	Query     string
	TXID      string
	Format    string
	Compress  string
	Token     string // redacted bearer; never the raw value
	User      string
	Client    string
	Overrides map[string]string // jdbcx_-prefixed header config overrides

	CreatedAt time.Time

	state atomic.Int32

	resultMu   sync.Mutex
	result     result.Result
	resultSet  bool
	doneClosed bool // guards against SetResult/Close both closing done

	resourcesMu  sync.Mutex
	resources    *result.ResourceTracker
	resourcesSet bool

	done chan struct{}
	log  logging.Logger
}

// NewQueryInfo creates a QueryInfo in state NEW.
func NewQueryInfo(qid, query string, log logging.Logger) *QueryInfo {
	return &QueryInfo{QID: qid, Query: query, CreatedAt: time.Now(), done: make(chan struct{}), log: log}
}

// Done closes once a result (or an abandoning Close) lands, letting a
// second caller admitted onto an already-running QueryInfo wait for the
// first caller's outcome instead of re-dispatching the query.
func (q *QueryInfo) Done() <-chan struct{} { return q.done }

func (q *QueryInfo) State() State { return State(q.state.Load()) }

// transition performs a monotone compare-and-swap; it is a no-op
// (returns false) if from doesn't match the current state, so callers
// racing on the same transition never double-apply side effects.
func (q *QueryInfo) transition(from, to State) bool {
	return q.state.CompareAndSwap(int32(from), int32(to))
}

// MarkRunning moves NEW -> RUNNING.
func (q *QueryInfo) MarkRunning() bool { return q.transition(StateNew, StateRunning) }

// SetResult is one-shot: a second call is a programmer error per
// spec.md §3 ("result... write-once; IllegalState on double-set").
func (q *QueryInfo) SetResult(r result.Result) error {
	q.resultMu.Lock()
	defer q.resultMu.Unlock()
	if q.resultSet {
		return errs.InvalidStateError("qid %s: result already set", q.QID)
	}
	q.result = r
	q.resultSet = true
	q.transition(StateRunning, StateReady)
	if !q.doneClosed {
		q.doneClosed = true
		close(q.done)
	}
	return nil
}

func (q *QueryInfo) Result() (result.Result, bool) {
	q.resultMu.Lock()
	defer q.resultMu.Unlock()
	return q.result, q.resultSet
}

// SetResources is likewise one-shot.
func (q *QueryInfo) SetResources(t *result.ResourceTracker) error {
	q.resourcesMu.Lock()
	defer q.resourcesMu.Unlock()
	if q.resourcesSet {
		return errs.InvalidStateError("qid %s: resources already set", q.QID)
	}
	q.resources = t
	q.resourcesSet = true
	return nil
}

// Close is idempotent; it releases every tracked resource even when
// individual closes fail, and always lands in CLOSED regardless of the
// state it was called from.
func (q *QueryInfo) Close() error {
	prev := State(q.state.Swap(int32(StateClosed)))
	if prev == StateClosed {
		return nil
	}
	q.resultMu.Lock()
	if !q.doneClosed {
		q.doneClosed = true
		close(q.done)
	}
	q.resultMu.Unlock()
	var first error
	if q.resources != nil {
		first = q.resources.Close(q.log)
	}
	if q.result != nil {
		if err := q.result.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (q *QueryInfo) Expired(ttl time.Duration) bool {
	return time.Since(q.CreatedAt) >= ttl
}
