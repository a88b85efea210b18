// Package lexer normalizes and tokenizes demangled MSVC signature lines.
package lexer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// One or more adjacent `...' annotations, e.g. `scalar deleting destructor'.
	annotationRe = regexp.MustCompile("(`[^']*')+")

	categoryRe = regexp.MustCompile(`\bclass |\bstruct |\benum `)

	annotationDelims = strings.NewReplacer("`", "", "'", "")

	declaratorSpacing = strings.NewReplacer(" *", "*", " &", "&")
)

// Preprocess rewrites a raw line into the form Tokenize expects:
// compiler annotations become PascalCase identifiers, type-category keywords
// are dropped, declarator spacing is collapsed, `(void)` becomes `()`,
// commas are followed by a space and the `[thunk]:` marker is removed.
func Preprocess(line string) string {
	line = annotationRe.ReplaceAllStringFunc(line, pascalAnnotation)
	line = categoryRe.ReplaceAllString(line, "")
	line = declaratorSpacing.Replace(line)
	line = strings.ReplaceAll(line, "(void)", "() ")
	line = strings.ReplaceAll(line, ",", ", ")
	line = strings.ReplaceAll(line, "[thunk]:", "")
	return line
}

func pascalAnnotation(annotation string) string {
	words := strings.Split(annotationDelims.Replace(annotation), " ")

	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(w[size:])
	}
	return b.String()
}
