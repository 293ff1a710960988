package serialize

import (
	"io"

	"github.com/jdbcx/jdbcx-core/result"
)

// BinarySerializer passes the first column of each row through
// unmodified, for results that are already an opaque byte blob
// (spec.md §4.4: "BINARY: no codec, passthrough").
type BinarySerializer struct{}

func NewBinarySerializer() *BinarySerializer { return &BinarySerializer{} }

func (*BinarySerializer) Serialize(w io.Writer, fields []result.Field, rows result.RowIterator) error {
	for rows.Next() {
		row := rows.Row()
		if len(row) == 0 {
			continue
		}
		b, ok := row[0].AsBinary()
		if !ok {
			continue
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return rows.Err()
}
