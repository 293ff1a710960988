package extension

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
)

func TestSplitStatements_BasicAndQuoted(t *testing.T) {
	out := splitStatements(`select 1; select ';'; select 2`)
	assert.Equal(t, []string{"select 1", "select ';'", "select 2"}, out)
}

func TestSplitStatements_TrailingSemicolonIgnored(t *testing.T) {
	out := splitStatements(`select 1;`)
	assert.Equal(t, []string{"select 1"}, out)
}

func TestSplitStatements_Empty(t *testing.T) {
	out := splitStatements("")
	assert.Equal(t, []string{""}, out)
}

// fakeDBExtension stands in for DBExtension so query_test.go can
// assert on per-group tallies without a real backend: a query
// statement yields one row, everything else yields an UpdateResult
// whose affected count is baked in per statement text.
type fakeDBExtension struct{}

func (fakeDBExtension) Execute(ec *Context) (result.Result, error) {
	if classifyStatement(ec.Body) == stmtQuery {
		fields := []result.Field{{Name: "n", Type: result.TypeInteger}}
		rows := []result.Row{{result.IntegralValue(1, 4, true)}}
		return result.NewRowResult(fields, result.NewSliceIterator(rows), ec.Tracker, ec.Log), nil
	}
	affected := int64(0)
	if ec.Body == "insert into a values('x'),('y')" {
		affected = 2
	}
	return result.NewUpdateResult(affected, ec.Tracker, ec.Log), nil
}

func TestQueryExtension_S2MultiStatementDBBlock(t *testing.T) {
	reg := NewRegistry()
	reg.Register("db", fakeDBExtension{})
	q := NewQueryExtension(reg)

	body := "--;; 1st query\nselect 1\n--;; 2nd query\nselect 2\n" +
		"--;; 1st update\ncreate table a(b) ; insert into a values('x'),('y')"
	ec := &Context{
		Ctx:     context.Background(),
		Body:    body,
		Options: map[string]string{},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}

	res, err := q.Execute(ec)
	require.NoError(t, err)
	rr, ok := res.(*result.RowResult)
	require.True(t, ok)

	var groups, queryCounts, updateCounts, affectedRows []int64
	var labels []string
	for rr.Rows.Next() {
		row := rr.Rows.Row()
		g, _ := row[3].AsLong()
		label, _ := row[4].AsString()
		qc, _ := row[5].AsLong()
		uc, _ := row[6].AsLong()
		affected, _ := row[8].AsLong()
		groups = append(groups, g)
		labels = append(labels, label)
		queryCounts = append(queryCounts, qc)
		updateCounts = append(updateCounts, uc)
		affectedRows = append(affectedRows, affected)
	}

	assert.Equal(t, []int64{1, 2, 3}, groups)
	assert.Equal(t, []string{"1st query", "2nd query", "1st update"}, labels)
	assert.Equal(t, []int64{1, 1, 0}, queryCounts)
	assert.Equal(t, []int64{0, 0, 1}, updateCounts)
	assert.Equal(t, []int64{0, 0, 2}, affectedRows)
}
