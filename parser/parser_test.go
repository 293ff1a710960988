package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/variable"
)

func TestParse_EmptyQuery(t *testing.T) {
	pq := Parse("", variable.TagBrace, 0, logging.NullLogger{})
	assert.Equal(t, []string{""}, pq.Chunks)
	assert.Empty(t, pq.Blocks)
}

func TestParse_OutputBlockWithHeader(t *testing.T) {
	pq := Parse(`select '{{ script: 10 + 2 }}'`, variable.TagBrace, 0, logging.NullLogger{})
	require.Len(t, pq.Blocks, 1)
	b := pq.Blocks[0]
	assert.Equal(t, "script", b.Extension)
	assert.Equal(t, " 10 + 2 ", b.Body)
	assert.True(t, b.EmitsOutput)
	assert.Equal(t, []string{"select '", "'"}, pq.Chunks)
}

func TestParse_SilentBlockDropsOutput(t *testing.T) {
	pq := Parse(`a{% var: x=1 %}b`, variable.TagBrace, 0, logging.NullLogger{})
	require.Len(t, pq.Blocks, 1)
	assert.False(t, pq.Blocks[0].EmitsOutput)
	rendered := pq.Render([]string{"ignored"})
	assert.Equal(t, "ab", rendered)
}

func TestParse_BlockWithOptions(t *testing.T) {
	pq := Parse(`{{db(id=main, exec.timeout=5000): select 1}}`, variable.TagBrace, 0, logging.NullLogger{})
	require.Len(t, pq.Blocks, 1)
	b := pq.Blocks[0]
	assert.Equal(t, "db", b.Extension)
	id, ok := b.Options.Get("id")
	assert.True(t, ok)
	assert.Equal(t, "main", id)
	timeout, ok := b.Options.Get("exec.timeout")
	assert.True(t, ok)
	assert.Equal(t, "5000", timeout)
	assert.Equal(t, " select 1", b.Body)
}

func TestParse_QuotedOptionValue(t *testing.T) {
	pq := Parse(`{{web(base.url="http://x,y)/"): /path}}`, variable.TagBrace, 0, logging.NullLogger{})
	require.Len(t, pq.Blocks, 1)
	v, ok := pq.Blocks[0].Options.Get("base.url")
	require.True(t, ok)
	assert.Equal(t, "http://x,y)/", v)
}

func TestParse_NoColonMeansDefaultExtensionAndWholeBody(t *testing.T) {
	pq := Parse(`{{just text, no header}}`, variable.TagBrace, 0, logging.NullLogger{})
	require.Len(t, pq.Blocks, 1)
	b := pq.Blocks[0]
	assert.Equal(t, "", b.Extension)
	assert.Equal(t, "just text, no header", b.Body)
}

func TestParse_UnterminatedBlockIsLiteral(t *testing.T) {
	pq := Parse(`before {{script: unterminated`, variable.TagBrace, 0, logging.NullLogger{})
	assert.Empty(t, pq.Blocks)
	assert.Equal(t, []string{"before {{script: unterminated"}, pq.Chunks)
}

func TestParse_EscapeProducesLiteralDelimiters(t *testing.T) {
	pq := Parse(`\{\{not a block\}\}`, variable.TagBrace, 0, logging.NullLogger{})
	assert.Empty(t, pq.Blocks)
	assert.Equal(t, []string{"{{not a block}}"}, pq.Chunks)
}

func TestParse_NestedDelimitersAreLiteralInsideBody(t *testing.T) {
	pq := Parse(`{{script: a {{ not nested }} }}`, variable.TagBrace, 0, logging.NullLogger{})
	require.Len(t, pq.Blocks, 1)
	assert.Equal(t, " a {{ not nested ", pq.Blocks[0].Body)
}

// Invariant 1 (spec.md §8): reassembling with empty substitutions
// differs from the source only inside block delimiters/escapes.
func TestParse_ReassemblyInvariant(t *testing.T) {
	src := `select '{{ script: 10 + 2 }}' -- {% var: x=1 %}`
	pq := Parse(src, variable.TagBrace, 0, logging.NullLogger{})
	rendered := pq.Render(make([]string, len(pq.Blocks)))
	assert.Equal(t, `select '' -- `, rendered)
}
