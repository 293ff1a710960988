package serialize

import (
	"io"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jdbcx/jdbcx-core/result"
)

// BSONSerializer encodes each row as a length-prefixed BSON document,
// concatenated the way mongodump/mongorestore stream multiple
// documents through a single file.
type BSONSerializer struct{}

func NewBSONSerializer() *BSONSerializer { return &BSONSerializer{} }

func (*BSONSerializer) Serialize(w io.Writer, fields []result.Field, rows result.RowIterator) error {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}

	for rows.Next() {
		row := rows.Row()
		doc := bson.D{}
		for i, v := range row {
			if i >= len(names) {
				break
			}
			doc = append(doc, bson.E{Key: names[i], Value: valueToJSON(v)})
		}
		raw, err := bson.Marshal(doc)
		if err != nil {
			return err
		}
		if _, err := w.Write(raw); err != nil {
			return err
		}
	}
	return rows.Err()
}
