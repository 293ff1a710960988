package extension

import (
	"strings"

	"github.com/jdbcx/jdbcx-core/result"
)

// HelpExtension renders static text enumerating every extension
// currently registered, for interactive use from the CLI.
type HelpExtension struct {
	registry *Registry
}

func NewHelpExtension(r *Registry) *HelpExtension { return &HelpExtension{registry: r} }

func (h *HelpExtension) Execute(ec *Context) (result.Result, error) {
	var b strings.Builder
	b.WriteString("available extensions:\n")
	for _, name := range h.registry.Names() {
		b.WriteString("  ")
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return result.NewScalarResult(result.StringValue(b.String()), ec.Tracker, ec.Log), nil
}
