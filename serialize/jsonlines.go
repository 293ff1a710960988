package serialize

import (
	"encoding/json"
	"io"

	"github.com/jdbcx/jdbcx-core/result"
)

// ndjsonRecordSeparator is RFC 7464's ASCII Record Separator (0x1E),
// written before every record in NDJSON mode (spec.md §4.4: "NDJSON:
// each line prefixed by 0x1E").
const ndjsonRecordSeparator = 0x1E

// JSONLinesSerializer emits one JSON value per row: an object keyed by
// field name, or (arrayMode) a positional array. NDJSON additionally
// prefixes every record with the RFC 7464 record separator; JSONL does
// not.
type JSONLinesSerializer struct {
	ndjson    bool
	arrayMode bool
}

func NewJSONLinesSerializer(ndjson bool) *JSONLinesSerializer {
	return &JSONLinesSerializer{ndjson: ndjson}
}

// NewArrayModeJSONLinesSerializer builds the positional-array variant
// spec.md §4.4 calls "array mode": each record is a JSON array of
// values in field order rather than a {name: value} object.
func NewArrayModeJSONLinesSerializer(ndjson bool) *JSONLinesSerializer {
	return &JSONLinesSerializer{ndjson: ndjson, arrayMode: true}
}

func (j *JSONLinesSerializer) Serialize(w io.Writer, fields []result.Field, rows result.RowIterator) error {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	for rows.Next() {
		row := rows.Row()
		var rec any
		if j.arrayMode {
			rec = rowToArray(row)
		} else {
			rec = rowToObject(row, names)
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if j.ndjson {
			if _, err := w.Write([]byte{ndjsonRecordSeparator}); err != nil {
				return err
			}
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return rows.Err()
}

func rowToObject(row result.Row, names []string) map[string]any {
	obj := make(map[string]any, len(row))
	for i, v := range row {
		if i >= len(names) {
			break
		}
		obj[names[i]] = valueToJSON(v)
	}
	return obj
}

func rowToArray(row result.Row) []any {
	arr := make([]any, len(row))
	for i, v := range row {
		arr[i] = valueToJSON(v)
	}
	return arr
}

func valueToJSON(v result.Value) any {
	switch v.Kind {
	case result.KindNull:
		return nil
	case result.KindBool:
		b, _ := v.AsBool()
		return b
	case result.KindIntegral:
		n, _ := v.AsLong()
		return n
	case result.KindFloat, result.KindDecimal:
		f, _ := v.AsDouble()
		return f
	default:
		s, _ := v.AsString()
		return s
	}
}
