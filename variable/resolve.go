package variable

import "strings"

// Chain is the ordered lookup path for one invocation: query scope,
// then thread scope, then global scope (spec.md §4.2).
type Chain []Lookup

func (c Chain) get(name string) (string, bool) {
	for _, l := range c {
		if l == nil {
			continue
		}
		if v, ok := l.Get(name); ok {
			return v, true
		}
	}
	return "", false
}

// Get exposes the chain lookup to callers outside this package (e.g.
// the var extension's bare-name read).
func (c Chain) Get(name string) (string, bool) { return c.get(name) }

// Expand replaces every `name` / `name:default` placeholder delimited
// by tag's markers. Lookup order is chain, then options, then
// defaults. Unresolved placeholders without a default are left
// untouched (spec.md §4.2).
func Expand(tag Tag, s string, chain Chain, options map[string]string, defaults map[string]string) string {
	open, close := tag.Delimiters()
	var out strings.Builder
	i := 0
	for i < len(s) {
		start := strings.Index(s[i:], open)
		if start < 0 {
			out.WriteString(s[i:])
			break
		}
		start += i
		out.WriteString(s[i:start])

		bodyStart := start + len(open)
		end := strings.Index(s[bodyStart:], close)
		if end < 0 {
			// Unterminated placeholder: remainder is literal.
			out.WriteString(s[start:])
			break
		}
		end += bodyStart
		body := s[bodyStart:end]

		name, def, hasDef := splitNameDefault(body)
		if v, ok := lookupAll(name, chain, options, defaults); ok {
			out.WriteString(v)
		} else if hasDef {
			out.WriteString(def)
		} else {
			out.WriteString(open)
			out.WriteString(body)
			out.WriteString(close)
		}
		i = end + len(close)
	}
	return out.String()
}

func splitNameDefault(body string) (name, def string, hasDefault bool) {
	if idx := strings.IndexByte(body, ':'); idx >= 0 {
		return body[:idx], body[idx+1:], true
	}
	return body, "", false
}

func lookupAll(name string, chain Chain, options map[string]string, defaults map[string]string) (string, bool) {
	if v, ok := chain.get(name); ok {
		return v, true
	}
	if options != nil {
		if v, ok := options[name]; ok {
			return v, true
		}
	}
	if defaults != nil {
		if v, ok := defaults[name]; ok {
			return v, true
		}
	}
	return "", false
}

// MergeOptions overrides by exact key across the three tiers:
// extensionDefaults <- connectionProperties <- blockOptions
// (spec.md §3 "Option", §4.2 "Option merge").
func MergeOptions(extensionDefaults, connectionProperties, blockOptions map[string]string) map[string]string {
	out := make(map[string]string, len(extensionDefaults)+len(connectionProperties)+len(blockOptions))
	for k, v := range extensionDefaults {
		out[k] = v
	}
	for k, v := range connectionProperties {
		out[k] = v
	}
	for k, v := range blockOptions {
		out[k] = v
	}
	return out
}

// ResolveOptions merges the three tiers and then placeholder-expands
// every resulting value once against chain (spec.md §4.2: "Value
// strings are themselves placeholder-expanded once with the same scope
// chain, after merging").
func ResolveOptions(tag Tag, extensionDefaults, connectionProperties, blockOptions map[string]string, chain Chain) map[string]string {
	merged := MergeOptions(extensionDefaults, connectionProperties, blockOptions)
	out := make(map[string]string, len(merged))
	for k, v := range merged {
		out[k] = Expand(tag, v, chain, merged, nil)
	}
	return out
}
