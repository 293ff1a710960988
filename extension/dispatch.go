package extension

import (
	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// Dispatch resolves ec.Extension (falling back to DefaultExtension when
// blank), applies the block's configured timeout and error policy, and
// runs the extension. This is the single entry point the C1/C2 pipeline
// calls per ExecutableBlock.
func Dispatch(r *Registry, ec *Context) (result.Result, error) {
	name := ec.Extension
	if name == "" {
		name = DefaultExtension
	}
	ext, ok := r.Lookup(name)
	if !ok {
		return nil, errs.ResolveError("%s", errUnknownExtension(name).Error())
	}

	run := func() (result.Result, error) { return ext.Execute(ec) }
	if timeout, ok := parseTimeout(ec.Options); ok {
		run = withTimeout(ec, timeout, ext)
	}

	res, err := run()
	if err == nil {
		return res, nil
	}
	return applyErrorPolicy(ec, err)
}
