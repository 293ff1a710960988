package result

import (
	"io"

	"github.com/jdbcx/jdbcx-core/logging"
)

// RowIterator is a lazy, possibly live-cursor-backed sequence of Rows.
type RowIterator interface {
	// Next advances to the next row, returning false at end of stream
	// or on error (check Err to distinguish).
	Next() bool
	Row() Row
	Err() error
	io.Closer
}

// Result is the tagged union described in spec.md §3. Every
// implementation closes idempotently and releases its tracked
// resources.
type Result interface {
	io.Closer
	isResult()
}

// sliceIterator adapts a pre-materialized []Row to RowIterator.
type sliceIterator struct {
	rows []Row
	pos  int
}

// NewSliceIterator returns a RowIterator over an already-materialized
// slice of rows (the common case for extension executors that do not
// stream from a live cursor).
func NewSliceIterator(rows []Row) RowIterator { return &sliceIterator{rows: rows, pos: -1} }

func (s *sliceIterator) Next() bool {
	s.pos++
	return s.pos < len(s.rows)
}
func (s *sliceIterator) Row() Row {
	if s.pos < 0 || s.pos >= len(s.rows) {
		return nil
	}
	return s.rows[s.pos]
}
func (s *sliceIterator) Err() error   { return nil }
func (s *sliceIterator) Close() error { return nil }

// RowResult is a finite (or live-cursor) table of rows.
type RowResult struct {
	Fields    []Field
	Rows      RowIterator
	tracker   *ResourceTracker
	log       logging.Logger
}

// NewRowResult builds a RowResult, uniquifying field names per spec.
func NewRowResult(fields []Field, rows RowIterator, tracker *ResourceTracker, log logging.Logger) *RowResult {
	return &RowResult{Fields: UniqueFieldNames(fields), Rows: rows, tracker: tracker, log: log}
}

func (*RowResult) isResult() {}

func (r *RowResult) Close() error {
	var first error
	if r.Rows != nil {
		first = r.Rows.Close()
	}
	if r.tracker != nil {
		if err := r.tracker.Close(r.log); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ScalarResult short-circuits encoding: treated as a single-field,
// one-row table.
type ScalarResult struct {
	Value   Value
	tracker *ResourceTracker
	log     logging.Logger
}

func NewScalarResult(v Value, tracker *ResourceTracker, log logging.Logger) *ScalarResult {
	return &ScalarResult{Value: v, tracker: tracker, log: log}
}

func (*ScalarResult) isResult() {}

func (s *ScalarResult) Close() error {
	if s.tracker == nil {
		return nil
	}
	return s.tracker.Close(s.log)
}

// AsRowResult renders the scalar as a one-column, one-row RowResult
// named "result", matching the single-field convention spec.md
// describes for encoding purposes.
func (s *ScalarResult) AsRowResult() *RowResult {
	field := Field{Name: "result", Type: TypeVarchar, Nullable: s.Value.IsNull()}
	return NewRowResult([]Field{field}, NewSliceIterator([]Row{{s.Value}}), nil, nil)
}

// StreamResult is opaque bytes already encoded in a known format and
// compression, passed through verbatim when the downstream negotiation
// matches.
type StreamResult struct {
	Bytes              io.ReadCloser
	DeclaredFormat     string
	DeclaredCompression string
	tracker            *ResourceTracker
	log                logging.Logger
}

func NewStreamResult(b io.ReadCloser, format, compression string, tracker *ResourceTracker, log logging.Logger) *StreamResult {
	return &StreamResult{Bytes: b, DeclaredFormat: format, DeclaredCompression: compression, tracker: tracker, log: log}
}

func (*StreamResult) isResult() {}

func (s *StreamResult) Close() error {
	var first error
	if s.Bytes != nil {
		first = s.Bytes.Close()
	}
	if s.tracker != nil {
		if err := s.tracker.Close(s.log); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// UpdateResult reports rows affected by a mutating statement.
type UpdateResult struct {
	Affected int64
	tracker  *ResourceTracker
	log      logging.Logger
}

func NewUpdateResult(affected int64, tracker *ResourceTracker, log logging.Logger) *UpdateResult {
	return &UpdateResult{Affected: affected, tracker: tracker, log: log}
}

func (*UpdateResult) isResult() {}

func (u *UpdateResult) Close() error {
	if u.tracker == nil {
		return nil
	}
	return u.tracker.Close(u.log)
}
