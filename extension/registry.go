package extension

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the explicit replacement for a Java service-loader lookup
// (REDESIGN FLAGS, spec.md §9): extensions self-register at process
// start; an RWMutex guards the map, and Lookup and Names take its read
// lock.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Extension
}

// NewRegistry returns an empty registry. Use NewDefaultRegistry for one
// pre-populated with the built-ins.
func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Extension)}
}

// Register adds or replaces the extension bound to name. Intended to be
// called during process startup, before any block is executed.
func (r *Registry) Register(name string, ext Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[name] = ext
}

// Lookup returns the extension bound to name, if any.
func (r *Registry) Lookup(name string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.m[name]
	return ext, ok
}

// Names returns every registered extension name, sorted, for the help
// extension and diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.m))
	for name := range r.m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DefaultExtension is used when an ExecutableBlock's header names no
// extension (spec.md §3: "header is optional; absence selects the
// default extension").
const DefaultExtension = "query"

// NewDefaultRegistry wires every built-in listed in SPEC_FULL.md §4.3.
// Callers that need a db connection pool, an MCP client, or a script
// runtime with extra globals should Register over these after
// construction rather than reach into the map directly.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("db", NewDBExtension(nil))
	r.Register("query", NewQueryExtension(r))
	r.Register("script", NewScriptExtension())
	r.Register("shell", NewShellExtension())
	r.Register("web", NewWebExtension(nil))
	r.Register("prql", NewPRQLExtension(r))
	r.Register("mcp", NewMCPExtension())
	r.Register("bridge", NewBridgeExtension())
	r.Register("blackhole", NewBlackholeExtension())
	r.Register("var", NewVarExtension())
	r.Register("help", NewHelpExtension(r))
	r.Register("prompt", NewPromptExtension(nil))
	r.Register("codeql", NewCodeQLExtension())
	return r
}

// errUnknownExtension builds the message Dispatch reports, wrapped in a
// ResolveError, when a block names an extension with no registered
// implementation.
func errUnknownExtension(name string) error {
	return fmt.Errorf("unknown extension %q", name)
}
