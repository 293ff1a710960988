package extension

import (
	"context"
	"strconv"
	"time"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// exec.timeout is milliseconds, matching the unit every other
// exec.* duration option in spec.md §4.3 uses.
const timeoutOption = "exec.timeout"

func parseTimeout(options map[string]string) (time.Duration, bool) {
	raw, ok := options[timeoutOption]
	if !ok || raw == "" {
		return 0, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// withTimeout derives a child context bounded by d and races the
// extension's Execute against it. Cancellation is signaled exclusively
// through context (REDESIGN FLAGS: no goroutine .Interrupt()); the
// extension goroutine is abandoned on timeout rather than forcibly
// killed — it is the extension's own responsibility to observe ec.Ctx
// and unwind, same discipline every executor in this package follows.
func withTimeout(ec *Context, d time.Duration, ext Extension) func() (result.Result, error) {
	return func() (result.Result, error) {
		ctx, cancel := context.WithTimeout(ec.Ctx, d)
		defer cancel()

		child := *ec
		child.Ctx = ctx

		type outcome struct {
			res result.Result
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			res, err := ext.Execute(&child)
			done <- outcome{res, err}
		}()

		select {
		case o := <-done:
			return o.res, o.err
		case <-ctx.Done():
			return nil, errs.TimeoutError("extension %q exceeded %s", ec.Extension, d)
		}
	}
}
