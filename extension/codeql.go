package extension

import (
	"fmt"

	"github.com/jdbcx/jdbcx-core/errs"
	"github.com/jdbcx/jdbcx-core/result"
)

// CodeQLExtension runs a codeql CLI query pack against a database,
// reusing shell's subprocess execution under a fixed command template
// (spec.md §4.3: "codeql... mapped to shell semantics with a fixed
// command template").
type CodeQLExtension struct {
	shell *ShellExtension
}

func NewCodeQLExtension() *CodeQLExtension {
	return &CodeQLExtension{shell: NewShellExtension()}
}

const (
	optCodeQLDatabase = "codeql.database"
	optCodeQLFormat   = "codeql.format"
)

func (c *CodeQLExtension) Execute(ec *Context) (result.Result, error) {
	db := ec.Options[optCodeQLDatabase]
	if db == "" {
		return nil, errs.ResolveError("codeql extension requires a %q option", optCodeQLDatabase)
	}
	format := ec.Options[optCodeQLFormat]
	if format == "" {
		format = "csv"
	}

	child := *ec
	child.Body = fmt.Sprintf(
		"codeql database analyze %s --format=%s --output=/dev/stdout %s",
		db, format, ec.Body,
	)
	return c.shell.Execute(&child)
}
