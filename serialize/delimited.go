package serialize

import (
	"encoding/csv"
	"io"

	"github.com/jdbcx/jdbcx-core/result"
)

// DelimitedSerializer covers both CSV and TSV (spec.md §4.4): RFC 4180
// quoting is exactly what encoding/csv implements, so the only
// difference between the two formats is csv.Writer.Comma.
type DelimitedSerializer struct {
	comma rune
}

func NewDelimitedSerializer(comma rune) *DelimitedSerializer {
	return &DelimitedSerializer{comma: comma}
}

func (d *DelimitedSerializer) Serialize(w io.Writer, fields []result.Field, rows result.RowIterator) error {
	cw := csv.NewWriter(w)
	cw.Comma = d.comma
	defer cw.Flush()

	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(fields))
	for rows.Next() {
		row := rows.Row()
		for i, v := range row {
			s, _ := v.AsString()
			record[i] = s
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return rows.Err()
}
