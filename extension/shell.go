package extension

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// ShellExtension runs ec.Body as a command line through /bin/sh -c,
// streaming the process's combined context for cancellation
// (exec.CommandContext observes ec.Ctx directly — no separate
// interrupt signal, per REDESIGN FLAGS). Stdout is captured whole and
// returned as a one-row, one-column RowResult; stderr is attached to
// the error on non-zero exit.
type ShellExtension struct {
	shell string // defaults to "/bin/sh"
}

func NewShellExtension() *ShellExtension { return &ShellExtension{shell: "/bin/sh"} }

const optShellDir = "shell.cwd"

func (s *ShellExtension) Execute(ec *Context) (result.Result, error) {
	shellBin := s.shell
	if shellBin == "" {
		shellBin = "/bin/sh"
	}
	cmd := exec.CommandContext(ec.Ctx, shellBin, "-c", ec.Body)
	if dir := ec.Options[optShellDir]; dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errs.ExecutionError("shell", errWithStderr(err, stderr.String()))
	}

	field := result.Field{Name: "result", Type: result.TypeVarchar}
	row := result.Row{result.StringValue(strings.TrimRight(stdout.String(), "\n"))}
	return result.NewRowResult([]result.Field{field}, result.NewSliceIterator([]result.Row{row}), ec.Tracker, ec.Log), nil
}

func errWithStderr(err error, stderr string) error {
	if stderr == "" {
		return err
	}
	return &shellError{cause: err, stderr: strings.TrimRight(stderr, "\n")}
}

type shellError struct {
	cause  error
	stderr string
}

func (e *shellError) Error() string { return e.cause.Error() + ": " + e.stderr }
func (e *shellError) Unwrap() error { return e.cause }
