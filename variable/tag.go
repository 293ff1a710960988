// Package variable implements the variable & option resolver (C2):
// placeholder expansion against a scope chain, and the three-tier
// option merge.
package variable

// Tag selects which placeholder syntax is active for one invocation.
// Exactly one is active; the other two are treated as plain literal
// text (spec.md §3, "VariableTag").
type Tag int

const (
	TagBrace Tag = iota // ${x}
	TagAngle            // $<x>
	TagSquare           // $[x]
)

// Delimiters returns the opening and closing markers for the tag.
func (t Tag) Delimiters() (open, close string) {
	switch t {
	case TagAngle:
		return "$<", ">"
	case TagSquare:
		return "$[", "]"
	default:
		return "${", "}"
	}
}
