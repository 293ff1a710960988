package extension

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
)

func TestDBExtension_DryRunQuerySucceeds(t *testing.T) {
	ext := NewDBExtension(nil)
	ec := &Context{
		Ctx:  context.Background(),
		Body: "select 1",
		Options: map[string]string{
			optURL:    "dry-run-test",
			optDriver: "postgres",
			optDryRun: "true",
		},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}
	res, err := ext.Execute(ec)
	require.NoError(t, err)
	rr, ok := res.(*result.RowResult)
	require.True(t, ok)
	assert.Empty(t, rr.Fields)
	require.NoError(t, rr.Close())
}

func TestDBExtension_MissingURL(t *testing.T) {
	ext := NewDBExtension(nil)
	ec := &Context{
		Ctx:     context.Background(),
		Body:    "select 1",
		Options: map[string]string{},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}
	_, err := ext.Execute(ec)
	assert.Error(t, err)
}

func TestSplitGroups_LabelsAndDefaultGroup(t *testing.T) {
	groups := splitGroups("--;; 1st query\nselect 1\n--;; 2nd query\nselect 2\n--;; 1st update\ncreate table a(b) ; insert into a values('x'),('y')")
	require.Len(t, groups, 3)
	assert.Equal(t, "1st query", groups[0].Label)
	assert.Equal(t, []string{"select 1"}, groups[0].Statements)
	assert.Equal(t, "2nd query", groups[1].Label)
	assert.Equal(t, []string{"select 2"}, groups[1].Statements)
	assert.Equal(t, "1st update", groups[2].Label)
	assert.Equal(t, []string{"create table a(b)", "insert into a values('x'),('y')"}, groups[2].Statements)
}

func TestSplitGroups_NoMarkerIsSingleUnlabeledGroup(t *testing.T) {
	groups := splitGroups("select 1")
	require.Len(t, groups, 1)
	assert.Empty(t, groups[0].Label)
	assert.Equal(t, []string{"select 1"}, groups[0].Statements)
}

func TestClassifyStatement(t *testing.T) {
	assert.Equal(t, stmtQuery, classifyStatement("  select 1"))
	assert.Equal(t, stmtQuery, classifyStatement("with x as (select 1) select * from x"))
	assert.Equal(t, stmtUpdate, classifyStatement("insert into a values (1)"))
	assert.Equal(t, stmtOther, classifyStatement("create table a(b)"))
}

func TestDBExtension_ResultPolicyFirst(t *testing.T) {
	ext := NewDBExtension(nil)
	ec := &Context{
		Ctx:  context.Background(),
		Body: "select 1; select 2",
		Options: map[string]string{
			optURL:    "dry-run-test-first",
			optDryRun: "true",
			optResult: "first",
		},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}
	res, err := ext.Execute(ec)
	require.NoError(t, err)
	_, ok := res.(*result.RowResult)
	assert.True(t, ok)
}

func TestDBExtension_ResultPolicyLastUpdate(t *testing.T) {
	ext := NewDBExtension(nil)
	ec := &Context{
		Ctx:  context.Background(),
		Body: "create table a(b); select 1",
		Options: map[string]string{
			optURL:    "dry-run-test-lastupdate",
			optDryRun: "true",
			optResult: "lastUpdate",
		},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}
	res, err := ext.Execute(ec)
	require.NoError(t, err)
	u, ok := res.(*result.UpdateResult)
	require.True(t, ok)
	assert.Equal(t, int64(0), u.Affected)
}
