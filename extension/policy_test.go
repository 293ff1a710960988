package extension

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
)

func TestApplyErrorPolicy_Throw(t *testing.T) {
	ec := &Context{Options: map[string]string{}, Log: logging.NullLogger{}}
	_, err := applyErrorPolicy(ec, errors.New("boom"))
	assert.Error(t, err)
}

func TestApplyErrorPolicy_Ignore(t *testing.T) {
	ec := &Context{Options: map[string]string{errorPolicyOption: "ignore"}, Log: logging.NullLogger{}}
	res, err := applyErrorPolicy(ec, errors.New("boom"))
	require.NoError(t, err)
	sr, ok := res.(*result.ScalarResult)
	require.True(t, ok)
	s, _ := sr.Value.AsString()
	assert.Equal(t, "", s)
}

func TestApplyErrorPolicy_Warn(t *testing.T) {
	ec := &Context{Options: map[string]string{errorPolicyOption: "warn"}, Body: "select 1", Log: logging.NullLogger{}}
	res, err := applyErrorPolicy(ec, errors.New("boom"))
	require.NoError(t, err)
	sr, ok := res.(*result.ScalarResult)
	require.True(t, ok)
	s, _ := sr.Value.AsString()
	assert.Equal(t, "select 1", s)
}

func TestApplyErrorPolicy_Return(t *testing.T) {
	ec := &Context{Options: map[string]string{errorPolicyOption: "return"}, Log: logging.NullLogger{}}
	res, err := applyErrorPolicy(ec, errors.New("boom"))
	assert.NoError(t, err)
	sr, ok := res.(interface{ Close() error })
	assert.True(t, ok)
	assert.NoError(t, sr.Close())
}

func TestParseTimeout(t *testing.T) {
	d, ok := parseTimeout(map[string]string{timeoutOption: "1500"})
	assert.True(t, ok)
	assert.Equal(t, int64(1500), d.Milliseconds())

	_, ok = parseTimeout(map[string]string{})
	assert.False(t, ok)

	_, ok = parseTimeout(map[string]string{timeoutOption: "not-a-number"})
	assert.False(t, ok)
}
