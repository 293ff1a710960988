package serialize

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdbcx/jdbcx-core/result"
)

func sampleRows() (fields []result.Field, rows result.RowIterator) {
	fields = []result.Field{
		{Name: "id", Type: result.TypeInteger},
		{Name: "name", Type: result.TypeVarchar},
	}
	rows = result.NewSliceIterator([]result.Row{
		{result.IntegralValue(1, 4, true), result.StringValue("alice")},
		{result.IntegralValue(2, 4, true), result.StringValue("bob, jr")},
	})
	return
}

func TestDelimitedSerializer_CSV(t *testing.T) {
	fields, rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, NewDelimitedSerializer(',').Serialize(&buf, fields, rows))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "id,name\n"))
	assert.Contains(t, out, `2,"bob, jr"`)
}

func TestJSONLinesSerializer(t *testing.T) {
	fields, rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, NewJSONLinesSerializer(false).Serialize(&buf, fields, rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":1`)
	assert.Contains(t, lines[1], `"name":"bob, jr"`)
}

func TestJSONLinesSerializer_NDJSONPrefixesRecordSeparator(t *testing.T) {
	fields, rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, NewJSONLinesSerializer(true).Serialize(&buf, fields, rows))
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		require.NotEmpty(t, line)
		assert.Equal(t, byte(0x1E), line[0])
	}
	assert.Contains(t, lines[0], `"id":1`)
}

func TestJSONLinesSerializer_ArrayMode(t *testing.T) {
	fields, rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, NewArrayModeJSONLinesSerializer(false).Serialize(&buf, fields, rows))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `[1,"alice"]`, lines[0])
	assert.Equal(t, `[2,"bob, jr"]`, lines[1])
}

func TestValuesSerializer(t *testing.T) {
	fields, rows := sampleRows()
	var buf bytes.Buffer
	require.NoError(t, NewValuesSerializer().Serialize(&buf, fields, rows))
	out := buf.String()
	assert.Contains(t, out, "(1, 'alice')")
	assert.Contains(t, out, "(2, 'bob, jr')")
}

func TestDefaultRegistry_HasAllFormats(t *testing.T) {
	r := NewDefaultRegistry()
	for _, f := range []Format{CSV, TSV, JSONL, NDJSON, VALUES, AvroBinary, AvroJSON, BSON, ArrowIPC, ArrowStream, Parquet, TXT, Binary} {
		_, ok := r.Lookup(f)
		assert.True(t, ok, "missing serializer for %s", f)
	}
}
