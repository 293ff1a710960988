package serialize

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/jdbcx/jdbcx-core/result"
)

// ArrowSerializer batches rows into Arrow record batches and writes
// them with the file (ArrowIPC) or streaming (ArrowStream) writer.
// Every column is materialized as arrow.BinaryTypes.String: the row
// model's Value carries its own type tag independent of the declared
// Field, so a faithful per-type Arrow builder would need a second
// type-inference pass per batch; string columns keep the common case
// (spreadsheet/analytics export) correct while avoiding that pass.
type ArrowSerializer struct {
	stream    bool
	batchSize int
}

func NewArrowSerializer(stream bool) *ArrowSerializer {
	return &ArrowSerializer{stream: stream, batchSize: 1024}
}

func (a *ArrowSerializer) Serialize(w io.Writer, fields []result.Field, rows result.RowIterator) error {
	mem := memory.NewGoAllocator()
	arrowFields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		arrowFields[i] = arrow.Field{Name: f.Name, Type: arrow.BinaryTypes.String, Nullable: f.Nullable}
	}
	schema := arrow.NewSchema(arrowFields, nil)

	var writer interface {
		Write(arrow.Record) error
		Close() error
	}
	var err error
	if a.stream {
		writer = ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	} else {
		writer, err = ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
		if err != nil {
			return err
		}
	}
	defer writer.Close()

	builders := make([]*array.StringBuilder, len(fields))
	for i := range builders {
		builders[i] = array.NewStringBuilder(mem)
		defer builders[i].Release()
	}

	flush := func() error {
		if len(builders) == 0 || builders[0].Len() == 0 {
			return nil
		}
		cols := make([]arrow.Array, len(builders))
		for i, b := range builders {
			cols[i] = b.NewStringArray()
			defer cols[i].Release()
		}
		rec := array.NewRecord(schema, cols, int64(cols[0].Len()))
		defer rec.Release()
		return writer.Write(rec)
	}

	count := 0
	for rows.Next() {
		row := rows.Row()
		for i := range builders {
			if i < len(row) {
				if row[i].IsNull() {
					builders[i].AppendNull()
				} else {
					s, _ := row[i].AsString()
					builders[i].Append(s)
				}
			} else {
				builders[i].AppendNull()
			}
		}
		count++
		if count >= a.batchSize {
			if err := flush(); err != nil {
				return err
			}
			count = 0
		}
	}
	if err := flush(); err != nil {
		return err
	}
	return rows.Err()
}
