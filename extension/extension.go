// Package extension implements the C3 registry and built-in executors:
// the pluggable units a parsed ExecutableBlock dispatches to.
package extension

import (
	"context"

	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/result"
	"github.com/jdbcx/jdbcx-core/variable"
)

// Context carries everything one block invocation needs to run: the
// resolved options (post scope-chain expansion), the raw body, the
// scope chain for any nested variable reads/writes the extension itself
// performs, and the tracker every opened resource must register with.
type Context struct {
	Ctx context.Context

	Extension string
	ID        string // block's declared id= option, or "" if unset
	Options   map[string]string
	Body      string

	Global *variable.GlobalScope
	Thread variable.Lookup
	Query  *variable.QueryScope
	Chain  variable.Chain

	Tracker *result.ResourceTracker
	Log     logging.Logger
}

// Extension is one pluggable backend an ExecutableBlock's header names.
// execute never holds a lock across the call (spec.md §5); cancellation
// is delivered exclusively through ec.Ctx.
type Extension interface {
	Execute(ec *Context) (result.Result, error)
}

// ExecuteFunc adapts a plain function to Extension.
type ExecuteFunc func(ec *Context) (result.Result, error)

func (f ExecuteFunc) Execute(ec *Context) (result.Result, error) { return f(ec) }
