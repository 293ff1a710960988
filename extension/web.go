package extension

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmespath/go-jmespath"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
	"github.com/jdbcx/jdbcx-core/variable"
)

// WebExtension issues an HTTP request assembled from base.url joined
// with a placeholder-expanded url.template, optionally narrowing a
// JSON response through result.json.path (a JMESPath subset),
// matching spec.md §4.3's "web" entry.
type WebExtension struct {
	client *http.Client
}

func NewWebExtension(client *http.Client) *WebExtension {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebExtension{client: client}
}

const (
	optWebMethod       = "web.method"
	optBaseURL         = "base.url"
	optURLTemplate     = "url.template"
	optRequestHeaders  = "request.headers"
	optRequestTemplate = "request.template"
	optResultJSONPath  = "result.json.path"
	optProxy           = "PROXY"
)

func (w *WebExtension) Execute(ec *Context) (result.Result, error) {
	target := w.resolveURL(ec)
	body := ec.Body
	if tmpl := ec.Options[optRequestTemplate]; tmpl != "" {
		body = w.expand(ec, tmpl)
	}

	method := ec.Options[optWebMethod]
	if method == "" {
		method = http.MethodGet
		if body != "" {
			method = http.MethodPost
		}
	}

	var bodyReader io.Reader
	if method != http.MethodGet && method != http.MethodHead {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ec.Ctx, method, target, bodyReader)
	if err != nil {
		return nil, errs.ResolveError("invalid web request: %v", err)
	}
	for _, kv := range splitHeaderList(ec.Options[optRequestHeaders]) {
		req.Header.Set(kv[0], kv[1])
	}

	client := w.client
	if proxyFunc, ok := resolveProxy(ec.Options[optProxy]); ok {
		client = &http.Client{
			Timeout:   w.client.Timeout,
			Transport: &http.Transport{Proxy: proxyFunc},
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.ExecutionError("web", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.ExecutionError("web", err)
	}
	if resp.StatusCode >= 400 {
		return nil, errs.ExecutionError("web", &webStatusError{status: resp.StatusCode, body: string(respBody)})
	}

	if filter := ec.Options[optResultJSONPath]; filter != "" {
		filtered, err := applyJMESPath(filter, respBody)
		if err != nil {
			return nil, errs.ExecutionError("web", err)
		}
		return result.NewScalarResult(result.JSONValue(filtered), ec.Tracker, ec.Log), nil
	}
	return result.NewScalarResult(result.JSONValue(respBody), ec.Tracker, ec.Log), nil
}

// resolveURL joins base.url with the placeholder-expanded url.template
// (spec.md §4.3: "base.url + url.template with placeholder
// expansion"). When neither option is set, the block body is treated
// as the literal target URL for backward compatibility with direct
// invocation.
func (w *WebExtension) resolveURL(ec *Context) string {
	base := ec.Options[optBaseURL]
	tmpl := ec.Options[optURLTemplate]
	if base == "" && tmpl == "" {
		return strings.TrimSpace(ec.Body)
	}
	return base + w.expand(ec, tmpl)
}

func (w *WebExtension) expand(ec *Context, s string) string {
	return variable.Expand(variable.TagBrace, s, ec.Chain, ec.Options, nil)
}

// splitHeaderList parses request.headers' single comma-separated
// "k=v,k2=v2" option into ordered [name, value] pairs.
func splitHeaderList(raw string) [][2]string {
	if raw == "" {
		return nil
	}
	var out [][2]string
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			continue
		}
		out = append(out, [2]string{strings.TrimSpace(pair[:idx]), strings.TrimSpace(pair[idx+1:])})
	}
	return out
}

// resolveProxy implements PROXY ∈ {"", ":", "host:port", "scheme://host:port"}
// (spec.md §4.3): "" leaves the client's default (environment) proxy
// untouched; ":" explicitly forces a direct connection; anything else
// is a proxy address, defaulting to the http scheme when none is given.
func resolveProxy(raw string) (func(*http.Request) (*url.URL, error), bool) {
	switch raw {
	case "":
		return nil, false
	case ":":
		return func(*http.Request) (*url.URL, error) { return nil, nil }, true
	}
	addr := raw
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, false
	}
	return http.ProxyURL(u), true
}

func applyJMESPath(expr string, raw []byte) ([]byte, error) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	out, err := jmespath.Search(expr, data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

type webStatusError struct {
	status int
	body   string
}

func (e *webStatusError) Error() string {
	return "unexpected status " + http.StatusText(e.status) + ": " + e.body
}
