package serialize

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/jdbcx/jdbcx-core/result"
)

// ParquetSerializer writes rows through xitongsys/parquet-go's
// JSON-schema writer: every column is declared UTF8 (matching Arrow's
// string-everywhere simplification in arrow.go) and each row is handed
// in as a JSON-encoded string, the writer's documented JSON input mode.
type ParquetSerializer struct{}

func NewParquetSerializer() *ParquetSerializer { return &ParquetSerializer{} }

func (*ParquetSerializer) Serialize(w io.Writer, fields []result.Field, rows result.RowIterator) error {
	pf := &writerFile{w: w}
	pw, err := writer.NewJSONWriter(parquetJSONSchema(fields), pf, 4)
	if err != nil {
		return err
	}

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	for rows.Next() {
		row := rows.Row()
		obj := make(map[string]any, len(row))
		for i, v := range row {
			if i >= len(names) {
				break
			}
			obj[names[i]] = valueToJSON(v)
		}
		raw, err := json.Marshal(obj)
		if err != nil {
			return err
		}
		if err := pw.Write(string(raw)); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return pw.WriteStop()
}

func parquetJSONSchema(fields []result.Field) string {
	var b strings.Builder
	b.WriteString(`{"Tag":"name=row","Fields":[`)
	for i, f := range fields {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"Tag":"name=%s, type=BYTE_ARRAY, convertedtype=UTF8"}`, f.Name)
	}
	b.WriteString(`]}`)
	return b.String()
}

// writerFile adapts an io.Writer to parquet-go's source.ParquetFile,
// which expects random-access semantics this module never needs
// (output is always written once, front to back).
type writerFile struct {
	w   io.Writer
	pos int64
}

var _ source.ParquetFile = (*writerFile)(nil)

func (f *writerFile) Create(name string) (source.ParquetFile, error) { return f, nil }
func (f *writerFile) Open(name string) (source.ParquetFile, error)   { return f, nil }
func (f *writerFile) Seek(offset int64, whence int) (int64, error)   { return f.pos, nil }
func (f *writerFile) Read(b []byte) (int, error)                     { return 0, io.EOF }
func (f *writerFile) Write(b []byte) (int, error) {
	n, err := f.w.Write(b)
	f.pos += int64(n)
	return n, err
}
func (f *writerFile) Close() error { return nil }
