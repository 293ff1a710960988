package extension

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
	"github.com/jdbcx/jdbcx-core/variable"
)

func TestWebExtension_BaseURLAndTemplateJoinWithPlaceholderExpansion(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	w := NewWebExtension(nil)
	ec := &Context{
		Ctx: context.Background(),
		Options: map[string]string{
			optBaseURL:     srv.URL,
			optURLTemplate: "/users/${id}",
		},
		Chain:   variable.Chain{staticLookup{"id": "42"}},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}

	res, err := w.Execute(ec)
	require.NoError(t, err)
	defer res.Close()

	assert.Equal(t, "/users/42", gotPath)
	assert.Equal(t, http.MethodGet, gotMethod)
}

func TestWebExtension_RequestHeadersParsed(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	w := NewWebExtension(nil)
	ec := &Context{
		Ctx: context.Background(),
		Options: map[string]string{
			optBaseURL:        srv.URL,
			optRequestHeaders: "Authorization=Bearer xyz,X-Extra=1",
		},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}

	res, err := w.Execute(ec)
	require.NoError(t, err)
	defer res.Close()
	assert.Equal(t, "Bearer xyz", gotAuth)
}

func TestWebExtension_BlockBodyIsPostedToBaseURL(t *testing.T) {
	var gotMethod, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	w := NewWebExtension(nil)
	ec := &Context{
		Ctx:     context.Background(),
		Body:    "select 1",
		Options: map[string]string{optBaseURL: srv.URL},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}

	res, err := w.Execute(ec)
	require.NoError(t, err)
	defer res.Close()
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "select 1", gotBody)
}

func TestWebExtension_ResultJSONPathFiltersResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"a":{"b":[{"c":1},{"c":2}]}}`))
	}))
	defer srv.Close()

	w := NewWebExtension(nil)
	ec := &Context{
		Ctx: context.Background(),
		Options: map[string]string{
			optBaseURL:        srv.URL,
			optResultJSONPath: "a.b[0].c",
		},
		Tracker: result.NewResourceTracker(),
		Log:     logging.NullLogger{},
	}

	res, err := w.Execute(ec)
	require.NoError(t, err)
	sr, ok := res.(*result.ScalarResult)
	require.True(t, ok)
	s, _ := sr.Value.AsString()
	assert.Equal(t, "1", s)
}

func TestResolveProxy(t *testing.T) {
	_, set := resolveProxy("")
	assert.False(t, set)

	fn, set := resolveProxy(":")
	require.True(t, set)
	u, err := fn(nil)
	require.NoError(t, err)
	assert.Nil(t, u)

	fn, set = resolveProxy("proxy.internal:8080")
	require.True(t, set)
	u, err = fn(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://proxy.internal:8080", u.String())

	fn, set = resolveProxy("socks5://proxy.internal:1080")
	require.True(t, set)
	u, err = fn(nil)
	require.NoError(t, err)
	assert.Equal(t, "socks5://proxy.internal:1080", u.String())
}

type staticLookup map[string]string

func (s staticLookup) Get(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}
