package serialize

import (
	"io"
	"text/tabwriter"

	"github.com/jdbcx/jdbcx-core/result"
)

// TextSerializer renders an aligned plain-text table, the human-eyeball
// format for interactive CLI use.
type TextSerializer struct{}

func NewTextSerializer() *TextSerializer { return &TextSerializer{} }

func (*TextSerializer) Serialize(w io.Writer, fields []result.Field, rows result.RowIterator) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, f := range fields {
		if i > 0 {
			if _, err := io.WriteString(tw, "\t"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(tw, f.Name); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(tw, "\n"); err != nil {
		return err
	}

	for rows.Next() {
		row := rows.Row()
		for i, v := range row {
			if i > 0 {
				if _, err := io.WriteString(tw, "\t"); err != nil {
					return err
				}
			}
			s, _ := v.AsString()
			if _, err := io.WriteString(tw, s); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(tw, "\n"); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return tw.Flush()
}
