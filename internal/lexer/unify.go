package lexer

import (
	"bytes"
	"unicode"
	"unicode/utf8"
)

// AppendToken appends tok to dst, inserting a single space only where the
// rendered C++ needs one (`unsigned int`, `X const&`), and a space after
// every comma (`A<B, C>`). Original whitespace is not consulted.
func AppendToken(dst []byte, tok string) []byte {
	if tok == "" {
		return dst
	}
	if len(dst) == 0 {
		return append(dst, tok...)
	}
	if tok == "," {
		return append(dst, ", "...)
	}

	first, _ := utf8.DecodeRuneInString(tok)
	if unicode.IsLetter(first) || first == '_' {
		if needsSpace(dst) {
			dst = append(dst, ' ')
		}
	}
	return append(dst, tok...)
}

func needsSpace(dst []byte) bool {
	last, _ := utf8.DecodeLastRune(dst)
	switch {
	case unicode.IsLetter(last), unicode.IsDigit(last):
		return true
	case last == '*', last == '&':
		return true
	case last == ':':
		// "public:" is followed by a space, "A::" is not.
		return !bytes.HasSuffix(dst, []byte("::"))
	}
	return false
}

// Join renders toks as one string using AppendToken.
func Join(toks []string) string {
	var buf []byte
	for _, tok := range toks {
		buf = AppendToken(buf, tok)
	}
	return string(buf)
}
