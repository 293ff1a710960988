package extension

import (
	"strings"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// VarExtension reads or writes a variable in one of the three scopes
// directly, without spawning any sub-process (spec.md §4.3). A body of
// the form name=value is one assignment (write mode): everything after
// the first '=', commas included, is the value. A bare name with no
// '=' is a read, returned as the block's scalar output.
type VarExtension struct{}

func NewVarExtension() *VarExtension { return &VarExtension{} }

const optScope = "scope" // "global" | "thread" | "query" (default)

func (*VarExtension) Execute(ec *Context) (result.Result, error) {
	body := strings.TrimSpace(ec.Body)
	if body == "" {
		return nil, errs.ResolveError("var extension requires a name or name=value body")
	}

	scope := ec.Options[optScope]
	if idx := strings.IndexByte(body, '='); idx >= 0 {
		name := strings.TrimSpace(body[:idx])
		value := strings.TrimSpace(body[idx+1:])
		if err := writeVar(ec, scope, name, value); err != nil {
			return nil, err
		}
		return result.NewScalarResult(result.StringValue(value), ec.Tracker, ec.Log), nil
	}

	name := body
	if v, ok := ec.Chain.Get(name); ok {
		return result.NewScalarResult(result.StringValue(v), ec.Tracker, ec.Log), nil
	}
	return result.NewScalarResult(result.NullValue(), ec.Tracker, ec.Log), nil
}

func writeVar(ec *Context, scope, name, value string) error {
	switch scope {
	case "global":
		if ec.Global == nil {
			return errs.InvalidStateError("no global scope bound to this invocation")
		}
		ec.Global.Set(name, value)
		return nil
	case "thread":
		return errs.UnsupportedError("writing thread scope requires the caller's ThreadScope handle")
	default: // "query" or unset
		if ec.Query == nil {
			return errs.InvalidStateError("no query scope bound to this invocation")
		}
		return ec.Query.Set(name, value)
	}
}
