package serialize

import (
	"fmt"
	"io"
	"strings"

	"github.com/jdbcx/jdbcx-core/result"
)

// ValuesSerializer renders rows as a SQL VALUES list ("(1, 'a'),\n(2, 'b')"),
// the format extensions like db use to splice a previous block's
// output directly into another statement. No example library in the
// corpus emits SQL literals; this is hand-rolled quoting, the one
// place in the format table where no third-party codec applies.
type ValuesSerializer struct{}

func NewValuesSerializer() *ValuesSerializer { return &ValuesSerializer{} }

func (*ValuesSerializer) Serialize(w io.Writer, fields []result.Field, rows result.RowIterator) error {
	first := true
	for rows.Next() {
		if !first {
			if _, err := io.WriteString(w, ",\n"); err != nil {
				return err
			}
		}
		first = false

		row := rows.Row()
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = sqlLiteral(v)
		}
		if _, err := fmt.Fprintf(w, "(%s)", strings.Join(parts, ", ")); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return rows.Err()
}

func sqlLiteral(v result.Value) string {
	switch v.Kind {
	case result.KindNull:
		return "NULL"
	case result.KindBool:
		b, _ := v.AsBool()
		if b {
			return "TRUE"
		}
		return "FALSE"
	case result.KindIntegral, result.KindFloat, result.KindDecimal:
		s, _ := v.AsString()
		return s
	default:
		s, _ := v.AsString()
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
}
