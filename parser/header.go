package parser

import "strings"

// parseHeader implements the block-header grammar from spec.md §4.1:
//
//	header     := extension ( '(' options ')' )? ':'
//	extension  := identifier      -- letters, digits, '_', may contain '.'
//	options    := option ( ',' option )*
//	option     := name '=' value
//	name       := java-identifier ('.' java-identifier)*
//	value      := quoted('"') | quoted('\'') | quoted('`') | bareword
//
// If no unescaped colon terminates a valid header, the entire raw
// content is the body and the extension is empty (default extension).
func parseHeader(raw string) (extension string, opts Options, body string) {
	runes := []rune(raw)
	pos := skipSpaces(runes, 0)

	identStart := pos
	for pos < len(runes) && isExtensionChar(runes[pos]) {
		pos++
	}
	ident := string(runes[identStart:pos])

	optPos := skipSpaces(runes, pos)
	parsedOpts := newOptions()
	if optPos < len(runes) && runes[optPos] == '(' {
		end, ok := parseOptionsInto(runes, optPos+1, &parsedOpts)
		if !ok {
			return "", newOptions(), raw
		}
		pos = end
	}

	colonPos := skipSpaces(runes, pos)
	if colonPos < len(runes) && runes[colonPos] == ':' {
		return ident, parsedOpts, string(runes[colonPos+1:])
	}

	return "", newOptions(), raw
}

func isExtensionChar(r rune) bool {
	return r == '_' || r == '.' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isNameChar(r rune) bool {
	return r == '_' || r == '.' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func skipSpaces(runes []rune, pos int) int {
	for pos < len(runes) && (runes[pos] == ' ' || runes[pos] == '\t') {
		pos++
	}
	return pos
}

// parseOptionsInto parses `option (',' option)*` up to and including a
// closing ')', writing results into opts. Returns the index just past
// ')' and whether a well-formed, closed option list was found.
func parseOptionsInto(runes []rune, pos int, opts *Options) (int, bool) {
	pos = skipSpaces(runes, pos)
	if pos < len(runes) && runes[pos] == ')' {
		return pos + 1, true
	}
	for {
		nameStart := pos
		for pos < len(runes) && isNameChar(runes[pos]) {
			pos++
		}
		name := string(runes[nameStart:pos])
		pos = skipSpaces(runes, pos)
		if pos >= len(runes) || runes[pos] != '=' || name == "" {
			return 0, false
		}
		pos++ // consume '='
		pos = skipSpaces(runes, pos)

		value, next, ok := parseOptionValue(runes, pos)
		if !ok {
			return 0, false
		}
		opts.set(name, value)
		pos = skipSpaces(runes, next)

		if pos >= len(runes) {
			return 0, false
		}
		switch runes[pos] {
		case ',':
			pos = skipSpaces(runes, pos+1)
			continue
		case ')':
			return pos + 1, true
		default:
			return 0, false
		}
	}
}

// parseOptionValue parses one `quoted | bareword` value starting at
// pos, honoring backslash escapes inside it.
func parseOptionValue(runes []rune, pos int) (string, int, bool) {
	if pos >= len(runes) {
		return "", pos, false
	}
	if q := runes[pos]; q == '"' || q == '\'' || q == '`' {
		var sb strings.Builder
		i := pos + 1
		for i < len(runes) {
			if runes[i] == '\\' && i+1 < len(runes) {
				sb.WriteRune(runes[i+1])
				i += 2
				continue
			}
			if runes[i] == q {
				return sb.String(), i + 1, true
			}
			sb.WriteRune(runes[i])
			i++
		}
		return "", pos, false // unterminated quote
	}

	var sb strings.Builder
	i := pos
	for i < len(runes) {
		if runes[i] == '\\' && i+1 < len(runes) {
			sb.WriteRune(runes[i+1])
			i += 2
			continue
		}
		if runes[i] == ',' || runes[i] == ')' {
			break
		}
		sb.WriteRune(runes[i])
		i++
	}
	return strings.TrimSpace(sb.String()), i, true
}
