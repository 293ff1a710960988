package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
	"github.com/jdbcx/jdbcx-core/variable"
)

func TestVarExtension_WriteThenReadQueryScope(t *testing.T) {
	ext := NewVarExtension()
	qs := variable.NewQueryScope()
	qs.Begin()

	ec := &Context{
		Body:    "x=hello",
		Options: map[string]string{},
		Query:   qs,
		Chain:   variable.Chain{qs},
		Log:     logging.NullLogger{},
	}
	_, err := ext.Execute(ec)
	require.NoError(t, err)

	ec2 := &Context{Body: "x", Options: map[string]string{}, Query: qs, Chain: variable.Chain{qs}, Log: logging.NullLogger{}}
	res, err := ext.Execute(ec2)
	require.NoError(t, err)
	sr := res.(*result.ScalarResult)
	v, _ := sr.Value.AsString()
	assert.Equal(t, "hello", v)
}

func TestVarExtension_WriteGlobalScope(t *testing.T) {
	ext := NewVarExtension()
	global := variable.NewGlobalScope()
	ec := &Context{
		Body:    "g=1",
		Options: map[string]string{optScope: "global"},
		Global:  global,
		Log:     logging.NullLogger{},
	}
	_, err := ext.Execute(ec)
	require.NoError(t, err)
	v, ok := global.Get("g")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestVarExtension_ReadMissingReturnsNull(t *testing.T) {
	ext := NewVarExtension()
	ec := &Context{Body: "missing", Options: map[string]string{}, Chain: variable.Chain{}, Log: logging.NullLogger{}}
	res, err := ext.Execute(ec)
	require.NoError(t, err)
	sr := res.(*result.ScalarResult)
	assert.True(t, sr.Value.IsNull())
}
