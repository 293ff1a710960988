package extension

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
)

func runScript(t *testing.T, body string) result.Value {
	t.Helper()
	s := NewScriptExtension()
	ec := &Context{
		Ctx:     context.Background(),
		Body:    body,
		Options: map[string]string{},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}
	res, err := s.Execute(ec)
	require.NoError(t, err)
	sr, ok := res.(*result.ScalarResult)
	require.True(t, ok)
	return sr.Value
}

func TestScriptExtension_CliRunsCommand(t *testing.T) {
	v := runScript(t, `cli("echo", "hello")`)
	s, _ := v.AsString()
	assert.Equal(t, "hello", s)
}

func TestScriptExtension_ReadReturnsFileContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("contents"), 0o600))

	v := runScript(t, `read("`+path+`")`)
	s, _ := v.AsString()
	assert.Equal(t, "contents", s)
}

func TestScriptExtension_EncodeBase64AndHex(t *testing.T) {
	v := runScript(t, `encode("base64", "hi")`)
	s, _ := v.AsString()
	assert.Equal(t, "aGk=", s)

	v = runScript(t, `encode("hex", "hi")`)
	s, _ = v.AsString()
	assert.Equal(t, "6869", s)
}

func TestScriptExtension_EncodeUnknownSchemeErrors(t *testing.T) {
	s := NewScriptExtension()
	ec := &Context{
		Ctx:     context.Background(),
		Body:    `encode("rot13", "hi")`,
		Options: map[string]string{},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}
	_, err := s.Execute(ec)
	assert.Error(t, err)
}
