package lexer

import (
	"regexp"
	"strings"
)

// Alternatives are tried left to right, so the address and visibility
// markers win over the structural symbols.
var tokenRe = regexp.MustCompile(`^0x[0-9A-Fa-f]{8}` +
	`|\bpublic:|\bprotected:|\bprivate:` +
	`|\boperator(?:\(\)|[^(]+)` +
	`|::|<|>|\(|\)|,`)

// Tokenize splits a preprocessed line into structural and textual tokens.
// Text between matches is split on whitespace; empty fragments are dropped.
func Tokenize(text string) []string {
	var fragments []string
	index := 0

	for _, m := range tokenRe.FindAllStringIndex(text, -1) {
		if m[0] > index {
			fragments = append(fragments, text[index:m[0]])
		}
		fragments = append(fragments, text[m[0]:m[1]])
		index = m[1]
	}
	if index < len(text) {
		fragments = append(fragments, text[index:])
	}

	tokens := make([]string, 0, len(fragments))
	for _, f := range fragments {
		tokens = append(tokens, strings.Fields(f)...)
	}
	return tokens
}
