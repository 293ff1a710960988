// Package serialize renders a Result's rows into one of the wire
// formats spec.md §4.4 names, registered by string key the same way
// extension.Registry keys its executors.
package serialize

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/jdbcx/jdbcx-core/result"
)

// Format is the registry key; string rather than an enum so new
// formats never require touching a central switch statement.
type Format string

const (
	CSV          Format = "csv"
	TSV          Format = "tsv"
	JSONL        Format = "jsonl"
	NDJSON       Format = "ndjson"
	VALUES       Format = "values"
	AvroBinary   Format = "avro"
	AvroJSON     Format = "avro_json"
	BSON         Format = "bson"
	ArrowIPC     Format = "arrow"
	ArrowStream  Format = "arrow_stream"
	Parquet      Format = "parquet"
	TXT          Format = "txt"
	Binary       Format = "binary"
)

// Serializer renders every row of rows (fields describe their shape)
// to w. Implementations must not assume rows fits in memory; they may
// buffer internally only when the format requires it (e.g. Parquet's
// row-group batching).
type Serializer interface {
	Serialize(w io.Writer, fields []result.Field, rows result.RowIterator) error
}

type Registry struct {
	mu  sync.RWMutex
	m   map[Format]Serializer
}

func NewRegistry() *Registry { return &Registry{m: make(map[Format]Serializer)} }

func (r *Registry) Register(f Format, s Serializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[f] = s
}

func (r *Registry) Lookup(f Format) (Serializer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.m[f]
	return s, ok
}

func (r *Registry) Names() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Format, 0, len(r.m))
	for f := range r.m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewDefaultRegistry wires every format in SPEC_FULL.md's table.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CSV, NewDelimitedSerializer(','))
	r.Register(TSV, NewDelimitedSerializer('\t'))
	r.Register(JSONL, NewJSONLinesSerializer(false))
	r.Register(NDJSON, NewJSONLinesSerializer(true))
	r.Register(VALUES, NewValuesSerializer())
	r.Register(AvroBinary, NewAvroSerializer(false))
	r.Register(AvroJSON, NewAvroSerializer(true))
	r.Register(BSON, NewBSONSerializer())
	r.Register(ArrowIPC, NewArrowSerializer(false))
	r.Register(ArrowStream, NewArrowSerializer(true))
	r.Register(Parquet, NewParquetSerializer())
	r.Register(TXT, NewTextSerializer())
	r.Register(Binary, NewBinarySerializer())
	return r
}

func errUnsupportedFormat(f Format) error { return fmt.Errorf("unsupported format %q", f) }
