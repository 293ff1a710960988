package bridge

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdbcx/jdbcx-core/cache"
	"github.com/jdbcx/jdbcx-core/compress"
	"github.com/jdbcx/jdbcx-core/config"
	"github.com/jdbcx/jdbcx-core/extension"
	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
	"github.com/jdbcx/jdbcx-core/serialize"
	"github.com/jdbcx/jdbcx-core/variable"
)

// captureExtension records the Options map it last saw, so tests can
// assert what actually reached an extension after header overrides and
// block options are merged.
type captureExtension struct {
	seen map[string]string
}

func (c *captureExtension) Execute(ec *extension.Context) (result.Result, error) {
	c.seen = ec.Options
	return result.NewScalarResult(result.StringValue(""), ec.Tracker, ec.Log), nil
}

func newTestServer() *Server {
	ext := extension.NewRegistry()
	ext.Register("query", extension.NewBlackholeExtension())
	return NewServer(
		cache.New(64, time.Minute, logging.NullLogger{}),
		ext,
		serialize.NewDefaultRegistry(),
		compress.NewDefaultRegistry(),
		variable.NewGlobalScope(),
		nil,
		logging.NullLogger{},
	)
}

func TestServer_SubmitModeReturnsQueryID(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/ctx/?q=select+1&m=submit", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Query-Id"))
}

func TestServer_RedirectModeSendsLocation(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/ctx/?q=select+1&m=redirect", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Location"))
}

func TestServer_MalformedModeIsBadRequest(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/ctx/?q=select+1&m=?", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_DirectModeStreamsCSVByDefault(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/ctx/?q=select+1", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "result")
}

func TestServer_JdbcxHeaderReachesExtensionOptions(t *testing.T) {
	srv := newTestServer()
	capture := &captureExtension{}
	srv.extensions.Register("capture", capture)

	req := httptest.NewRequest(http.MethodGet, "/ctx/?q="+url.QueryEscape(`{{capture: x}}`), nil)
	req.Header.Set("Jdbcx_Foo", "bar")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, capture.seen)
	assert.Equal(t, "bar", capture.seen["Foo"])
}

func TestServer_BlockOptionWinsOverJdbcxHeader(t *testing.T) {
	srv := newTestServer()
	capture := &captureExtension{}
	srv.extensions.Register("capture", capture)

	req := httptest.NewRequest(http.MethodGet, "/ctx/?q="+url.QueryEscape(`{{capture(Foo=block): x}}`), nil)
	req.Header.Set("Jdbcx_Foo", "header")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, capture.seen)
	assert.Equal(t, "block", capture.seen["Foo"])
}

func TestServer_GetByQIDServesCachedResult(t *testing.T) {
	srv := newTestServer()
	submit := httptest.NewRequest(http.MethodGet, "/ctx/?q=select+1&m=submit", nil)
	submitRec := httptest.NewRecorder()
	srv.ServeHTTP(submitRec, submit)
	qid := submitRec.Header().Get("X-Query-Id")
	require.NotEmpty(t, qid)

	// Submit mode only admits the query; force it to run before fetching.
	qi, ok := srv.cache.Get(qid)
	require.True(t, ok)
	_, err := srv.run(submit.Context(), qi)
	require.NoError(t, err)

	fetch := httptest.NewRequest(http.MethodGet, "/ctx/"+qid+".jsonl", nil)
	fetchRec := httptest.NewRecorder()
	srv.ServeHTTP(fetchRec, fetch)

	assert.Equal(t, http.StatusOK, fetchRec.Code)
	assert.Equal(t, "application/jsonl", fetchRec.Header().Get("Content-Type"))
}

func TestServer_HeadByQIDIsRouted(t *testing.T) {
	srv := newTestServer()
	submit := httptest.NewRequest(http.MethodGet, "/ctx/?q=select+1&m=submit", nil)
	submitRec := httptest.NewRecorder()
	srv.ServeHTTP(submitRec, submit)
	qid := submitRec.Header().Get("X-Query-Id")
	require.NotEmpty(t, qid)

	qi, ok := srv.cache.Get(qid)
	require.True(t, ok)
	_, err := srv.run(submit.Context(), qi)
	require.NoError(t, err)

	fetch := httptest.NewRequest(http.MethodHead, "/ctx/"+qid+".jsonl", nil)
	fetchRec := httptest.NewRecorder()
	srv.ServeHTTP(fetchRec, fetch)

	assert.Equal(t, http.StatusOK, fetchRec.Code)
}

func TestServer_UnknownQIDIsNotFound(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/ctx/does-not-exist.csv", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_AclRejectsDisallowedHost(t *testing.T) {
	srv := newTestServer()
	srv.Acl = Acl{AllowedHosts: []string{"only-this-host"}}
	req := httptest.NewRequest(http.MethodGet, "/ctx/?q=select+1", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_BearerAuthRejectsMissingToken(t *testing.T) {
	srv := newTestServer()
	srv.BearerToken = "secret"
	req := httptest.NewRequest(http.MethodGet, "/ctx/?q=select+1", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_ConfigEndpointReturnsNoneWhenUnconfigured(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/ctx/config", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no config file loaded")
}

func TestServer_ConfigEndpointRedactsBearerToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  bearerToken: topsecret\n"), 0o600))
	mgr, err := config.NewManager(path)
	require.NoError(t, err)

	srv := newTestServer()
	srv.configs = mgr

	req := httptest.NewRequest(http.MethodGet, "/ctx/config", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "***")
	assert.NotContains(t, rec.Body.String(), "topsecret")
}

func TestServer_MetricsEndpointReportsRequestCount(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/ctx/?q=select+1", nil)
	srv.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ctx/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "requests_total")
}
