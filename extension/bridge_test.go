package extension

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
)

func TestBridgeExtension_DefaultModeIsDirect(t *testing.T) {
	b := NewBridgeExtension()
	ec := &Context{
		Ctx:     context.Background(),
		Body:    "select 1",
		Options: map[string]string{optBridgeBase: "http://bridge.internal"},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}

	res, err := b.Execute(ec)
	require.NoError(t, err)
	sr := res.(*result.ScalarResult)
	s, _ := sr.Value.AsString()
	u, err := url.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, "/default/", u.Path)
	assert.Equal(t, "d", u.Query().Get("m"))
	assert.Equal(t, "select 1", u.Query().Get("q"))
}

func TestBridgeExtension_InjectsModeFormatAndCompression(t *testing.T) {
	b := NewBridgeExtension()
	ec := &Context{
		Ctx:  context.Background(),
		Body: "select 1",
		Options: map[string]string{
			optBridgeBase:     "http://bridge.internal",
			optBridgeContext:  "reports",
			optBridgeMode:     "async",
			optBridgeFormat:   "csv",
			optBridgeCompress: "gzip",
		},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}

	res, err := b.Execute(ec)
	require.NoError(t, err)
	sr := res.(*result.ScalarResult)
	s, _ := sr.Value.AsString()
	u, err := url.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, "/reports/", u.Path)
	assert.Equal(t, "a", u.Query().Get("m"))
	assert.Equal(t, "csv", u.Query().Get("f"))
	assert.Equal(t, "gzip", u.Query().Get("c"))
}

func TestBridgeExtension_InvalidModeRejected(t *testing.T) {
	b := NewBridgeExtension()
	ec := &Context{
		Ctx:     context.Background(),
		Body:    "select 1",
		Options: map[string]string{optBridgeBase: "http://bridge.internal", optBridgeMode: "bogus"},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}
	_, err := b.Execute(ec)
	assert.Error(t, err)
}
