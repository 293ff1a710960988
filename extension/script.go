package extension

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dop251/goja"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// ScriptExtension evaluates ec.Body as JavaScript inside a fresh goja
// VM per invocation (no shared state across blocks, matching §5's
// discipline against executors holding shared mutable state across
// backend calls) and exposes the host helpers spec.md §4.3 names:
// format, escapeSingleQuote, cli, read, table, var, setVariable,
// encode.
type ScriptExtension struct{}

func NewScriptExtension() *ScriptExtension { return &ScriptExtension{} }

func (*ScriptExtension) Execute(ec *Context) (result.Result, error) {
	vm := goja.New()
	bindHelpers(vm, ec)

	v, err := vm.RunString(ec.Body)
	if err != nil {
		return nil, errs.ExecutionError("script", err)
	}
	return result.NewScalarResult(jsValueToResult(v), ec.Tracker, ec.Log), nil
}

func bindHelpers(vm *goja.Runtime, ec *Context) {
	_ = vm.Set("format", func(pattern string, args ...any) string {
		out := pattern
		for _, a := range args {
			out = strings.Replace(out, "%s", toString(a), 1)
		}
		return out
	})
	_ = vm.Set("escapeSingleQuote", func(s string) string {
		return strings.ReplaceAll(s, "'", "''")
	})
	_ = vm.Set("var", func(name string) string {
		v, _ := ec.Chain.Get(name)
		return v
	})
	_ = vm.Set("setVariable", func(name, value string) bool {
		if ec.Query == nil {
			return false
		}
		return ec.Query.Set(name, value) == nil
	})
	_ = vm.Set("table", func(rows [][]string) string {
		var b strings.Builder
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		return b.String()
	})
	_ = vm.Set("cli", func(command string, args ...string) (string, error) {
		cmd := exec.CommandContext(ec.Ctx, command, args...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return "", errWithStderr(err, stderr.String())
		}
		return strings.TrimRight(stdout.String(), "\n"), nil
	})
	_ = vm.Set("read", func(path string) (string, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	})
	_ = vm.Set("encode", func(encoding, s string) (string, error) {
		switch strings.ToLower(encoding) {
		case "base64":
			return base64.StdEncoding.EncodeToString([]byte(s)), nil
		case "base64url":
			return base64.URLEncoding.EncodeToString([]byte(s)), nil
		case "hex":
			return hex.EncodeToString([]byte(s)), nil
		default:
			return "", errs.ResolveError("script encode: unknown encoding %q", encoding)
		}
	})
}

func toString(a any) string {
	switch t := a.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return ""
	}
}

func jsValueToResult(v goja.Value) result.Value {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return result.NullValue()
	}
	switch exported := v.Export().(type) {
	case bool:
		return result.BoolValue(exported)
	case int64:
		return result.IntegralValue(exported, 8, true)
	case float64:
		return result.FloatValue(exported, false)
	default:
		return result.StringValue(v.String())
	}
}
