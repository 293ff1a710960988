// Package parser implements the query parser (C1): a single
// left-to-right scan recognizing `{{ ... }}` (output) and `{% ... %}`
// (silent) executable blocks, modeled on the teacher's hand-rolled
// splitDDLs scanner (parser/sqldef.go in sqldef) rather than a
// lexer-generator or regexp pipeline.
package parser

import (
	"strings"

	"github.com/jdbcx/jdbcx-core/logging"
	"github.com/jdbcx/jdbcx-core/variable"
)

const defaultEscape = '\\'

// Parse tokenizes source into a ParsedQuery. tag is forwarded for the
// caller's later placeholder-resolution pass (C2); the parser itself
// only recognizes block delimiters. escape is the rune that turns the
// following character into a literal; pass 0 to use the default '\\'.
func Parse(source string, tag variable.Tag, escape rune, log logging.Logger) ParsedQuery {
	if escape == 0 {
		escape = defaultEscape
	}
	_ = tag // carried for downstream resolution; not consulted here

	p := &scanner{src: []rune(source), escape: escape, log: log}
	return p.run()
}

type scanner struct {
	src    []rune
	pos    int
	escape rune
	log    logging.Logger

	chunks []string
	blocks []ExecutableBlock
	lit    strings.Builder
}

func (s *scanner) run() ParsedQuery {
	for s.pos < len(s.src) {
		c := s.src[s.pos]

		if c == s.escape && s.pos+1 < len(s.src) {
			s.lit.WriteRune(s.src[s.pos+1])
			s.pos += 2
			continue
		}

		if c == '{' && s.pos+1 < len(s.src) {
			next := s.src[s.pos+1]
			if next == '{' {
				if !s.consumeBlock(true) {
					// Unterminated: emit delimiter + rest as literal.
					s.lit.WriteString(string(s.src[s.pos:]))
					s.pos = len(s.src)
				}
				continue
			}
			if next == '%' {
				if !s.consumeBlock(false) {
					s.lit.WriteString(string(s.src[s.pos:]))
					s.pos = len(s.src)
				}
				continue
			}
		}

		s.lit.WriteRune(c)
		s.pos++
	}

	s.chunks = append(s.chunks, s.lit.String())
	return ParsedQuery{Chunks: s.chunks, Blocks: s.blocks}
}

// consumeBlock attempts to parse a block starting at s.pos (which must
// point at '{{' or '{%'). On success it flushes the preceding literal
// chunk, appends the block, advances past the closing delimiter and
// returns true. On failure (no matching close found) it returns false
// and leaves s.pos untouched so the caller can fall back to literal
// emission.
func (s *scanner) consumeBlock(output bool) bool {
	open := "{{"
	close := "}}"
	if !output {
		open = "{%"
		close = "%}"
	}

	start := s.pos + 2
	raw, end, ok := s.scanRaw(start, close)
	if !ok {
		if s.log != nil {
			s.log.Debug("unterminated executable block; emitting literally", "delimiter", open)
		}
		return false
	}

	s.chunks = append(s.chunks, s.lit.String())
	s.lit.Reset()

	ext, opts, body := parseHeader(raw)
	s.blocks = append(s.blocks, ExecutableBlock{
		Index:       len(s.blocks),
		Extension:   ext,
		Options:     opts,
		Body:        body,
		EmitsOutput: output,
	})
	s.pos = end
	return true
}

// scanRaw scans from `from` for the literal substring `close`,
// respecting s.escape so an escaped close sequence doesn't terminate
// the scan (the escape rune and the escaped character both remain in
// the captured raw text, per spec.md §4.1 "the body is... verbatim").
// Returns the raw text, the index just past the close delimiter, and
// whether a close was found.
func (s *scanner) scanRaw(from int, close string) (string, int, bool) {
	closeRunes := []rune(close)
	var raw strings.Builder
	i := from
	for i < len(s.src) {
		if s.src[i] == s.escape && i+1 < len(s.src) {
			raw.WriteRune(s.src[i])
			raw.WriteRune(s.src[i+1])
			i += 2
			continue
		}
		if matchesAt(s.src, i, closeRunes) {
			return raw.String(), i + len(closeRunes), true
		}
		raw.WriteRune(s.src[i])
		i++
	}
	return "", 0, false
}

func matchesAt(src []rune, pos int, pattern []rune) bool {
	if pos+len(pattern) > len(src) {
		return false
	}
	for i, r := range pattern {
		if src[pos+i] != r {
			return false
		}
	}
	return true
}
