package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_LookupOrderAndDefault(t *testing.T) {
	global := NewGlobalScope()
	global.Set("g", "global-value")

	qs := NewQueryScope()
	qs.Begin()
	require.NoError(t, qs.Set("q", "query-value"))

	chain := Chain{qs, global}

	assert.Equal(t, "query-value", Expand(TagBrace, "${q}", chain, nil, nil))
	assert.Equal(t, "global-value", Expand(TagBrace, "${g}", chain, nil, nil))
	assert.Equal(t, "fallback", Expand(TagBrace, "${missing:fallback}", chain, nil, nil))
	assert.Equal(t, "${missing}", Expand(TagBrace, "${missing}", chain, nil, nil))
}

func TestExpand_OptionsBeforeDefaults(t *testing.T) {
	out := Expand(TagAngle, "$<x>", nil, map[string]string{"x": "from-options"}, map[string]string{"x": "from-defaults"})
	assert.Equal(t, "from-options", out)
}

func TestQueryScope_WriteOutsideInvocationFails(t *testing.T) {
	qs := NewQueryScope()
	assert.Error(t, qs.Set("x", "1"))
	assert.False(t, qs.Active())
}

func TestMergeOptions_LaterTiersOverride(t *testing.T) {
	merged := MergeOptions(
		map[string]string{"a": "default", "b": "default"},
		map[string]string{"a": "conn"},
		map[string]string{"a": "block"},
	)
	assert.Equal(t, "block", merged["a"])
	assert.Equal(t, "default", merged["b"])
}

func TestResolveOptions_ExpandsAfterMerge(t *testing.T) {
	global := NewGlobalScope()
	global.Set("host", "db.example.com")
	chain := Chain{global}

	merged := ResolveOptions(TagBrace,
		map[string]string{"url": "jdbc://${host}/default"},
		nil,
		map[string]string{},
		chain,
	)
	assert.Equal(t, "jdbc://db.example.com/default", merged["url"])
}
