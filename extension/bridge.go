package extension

import (
	"fmt"
	"net/url"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// BridgeExtension does not execute the body at all: it rewrites the
// block into a URL the caller can pull over HTTP from a running jdbcxd
// bridge server (spec.md §4.3 "bridge" entry), deferring actual
// execution to that server's C5 pipeline. The rewritten URL carries
// the negotiated mode (m), format (f), and compression (c) query
// parameters the bridge server's own negotiation (bridge/negotiate.go)
// expects.
type BridgeExtension struct{}

func NewBridgeExtension() *BridgeExtension { return &BridgeExtension{} }

const (
	optBridgeBase     = "bridge.base"
	optBridgeContext  = "bridge.context"
	optBridgeMode     = "bridge.mode"
	optBridgeFormat   = "bridge.format"
	optBridgeCompress = "bridge.compress"
)

// bridgeModeTokens mirrors bridge.ParseMode's accepted short tokens
// (spec.md §4.3: "m=d/s/a/b/mutation"). Duplicated rather than
// imported: bridge already imports extension to dispatch blocks, so
// importing bridge back here would cycle.
var bridgeModeTokens = map[string]string{
	"d": "d", "direct": "d",
	"s": "s", "submit": "s",
	"a": "a", "async": "a",
	"b": "b", "batch": "b",
	"mutation": "mutation",
}

func (*BridgeExtension) Execute(ec *Context) (result.Result, error) {
	base := ec.Options[optBridgeBase]
	if base == "" {
		return nil, errs.ResolveError("bridge extension requires a %q option", optBridgeBase)
	}
	ctxName := ec.Options[optBridgeContext]
	if ctxName == "" {
		ctxName = "default"
	}

	mode := "d"
	if raw := ec.Options[optBridgeMode]; raw != "" {
		token, ok := bridgeModeTokens[raw]
		if !ok {
			return nil, errs.ResolveError("invalid %s %q", optBridgeMode, raw)
		}
		mode = token
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, errs.ResolveError("invalid bridge.base %q: %v", base, err)
	}
	u.Path = fmt.Sprintf("%s/%s/", u.Path, ctxName)
	q := u.Query()
	q.Set("q", ec.Body)
	q.Set("m", mode)
	if format := ec.Options[optBridgeFormat]; format != "" {
		q.Set("f", format)
	}
	if codec := ec.Options[optBridgeCompress]; codec != "" {
		q.Set("c", codec)
	}
	u.RawQuery = q.Encode()

	return result.NewScalarResult(result.StringValue(u.String()), ec.Tracker, ec.Log), nil
}
