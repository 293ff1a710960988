package extension

import (
	"strings"

	"github.com/jdbcx/jdbcx-core/result"
)

// PromptExtension renders a named template. Body is the template name;
// options become substitution values (simple ${name} replacement, not
// the full C2 resolver — prompt templates are static text registered
// ahead of time, not query text). With no template registered under
// that name it falls back to echoing the body as a literal prompt.
type PromptExtension struct {
	templates map[string]string
}

// NewPromptExtension takes an optional pre-populated template set; nil
// means every lookup falls through to the literal-echo behavior.
func NewPromptExtension(templates map[string]string) *PromptExtension {
	if templates == nil {
		templates = make(map[string]string)
	}
	return &PromptExtension{templates: templates}
}

func (p *PromptExtension) Register(name, template string) { p.templates[name] = template }

func (p *PromptExtension) Execute(ec *Context) (result.Result, error) {
	name := strings.TrimSpace(ec.Body)
	tmpl, ok := p.templates[name]
	if !ok {
		return result.NewScalarResult(result.StringValue(name), ec.Tracker, ec.Log), nil
	}
	rendered := tmpl
	for k, v := range ec.Options {
		rendered = strings.ReplaceAll(rendered, "${"+k+"}", v)
	}
	return result.NewScalarResult(result.StringValue(rendered), ec.Tracker, ec.Log), nil
}
