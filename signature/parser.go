package signature

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/skdltmxn/gothic-functions/internal/bracket"
	"github.com/skdltmxn/gothic-functions/internal/lexer"
)

var addressRe = regexp.MustCompile(`^0x[0-9A-Fa-f]{8}$`)

// Parser turns signature lines into records for one toolchain build.
// A Parser holds no per-call state and is safe for concurrent use.
type Parser struct {
	version int
}

// NewParser returns a parser storing addresses in the slot of the given
// 1-based build index.
func NewParser(version int) (*Parser, error) {
	if version < 1 || version > NumVersions {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}
	return &Parser{version: version}, nil
}

// Version returns the 1-based build index the parser was created for.
func (p *Parser) Version() int { return p.version }

// stageFunc consumes the front of toks, fills part of sig and returns the
// tokens left for the next stage.
type stageFunc func(p *Parser, sig *Signature, toks []string) ([]string, error)

var pipeline = []struct {
	name string
	run  stageFunc
}{
	{"probe", probeFunction},
	{"properties", extractProperties},
	{"templates", coalesceTemplates},
	{"convention", extractReturnAndConvention},
	{"class", extractClass},
	{"name", extractName},
	{"parameters", extractParameters},
}

// Build parses one line. On failure the returned error is a *ParseError and
// no record is produced.
func (p *Parser) Build(line string) (*Signature, error) {
	sig := &Signature{Original: line, Parameters: []string{}}
	toks := lexer.Tokenize(lexer.Preprocess(line))

	for _, st := range pipeline {
		var err error
		toks, err = st.run(p, sig, toks)
		if err != nil {
			return nil, stageError(st.name, err)
		}
	}
	return sig, nil
}

func stageError(stage string, err error) error {
	pe := &ParseError{Stage: stage}
	var reason Reason
	switch {
	case errors.As(err, &reason):
		pe.Reason = reason
	case errors.Is(err, bracket.ErrParenMismatch):
		pe.Reason, pe.Err = ReasonParenMismatch, err
	case errors.Is(err, bracket.ErrAngleMismatch):
		pe.Reason, pe.Err = ReasonAngleMismatch, err
	default:
		pe.Err = err
	}
	return pe
}

func isConvention(tok string) bool {
	return slices.Contains(CallingConventions, tok)
}

func isVisibility(tok string) bool {
	switch tok {
	case "public:", "protected:", "private:":
		return true
	}
	return false
}

// probeFunction accepts the line only if a calling convention appears outside
// every bracket. Data symbols, string literals and local statics fail here.
func probeFunction(_ *Parser, _ *Signature, toks []string) ([]string, error) {
	var t bracket.Tracker
	found := false
	for _, tok := range toks {
		if err := t.Feed(tok); err != nil {
			return nil, err
		}
		if t.Depth() != 0 {
			continue
		}
		// `adjustor{8}' and `vtordisp{4,0}' thunks keep their displacement.
		if strings.ContainsAny(tok, "{}") {
			return nil, ReasonAdjustorThunk
		}
		if isConvention(tok) {
			found = true
		}
	}
	if !found {
		return nil, ReasonConventionMissed
	}
	return toks, nil
}

// extractProperties takes the address, renders the short form and harvests
// the leading const/virtual/static/visibility markers.
func extractProperties(p *Parser, sig *Signature, toks []string) ([]string, error) {
	if len(toks) == 0 || !addressRe.MatchString(toks[0]) {
		return nil, ReasonAddressNotFound
	}
	sig.Addresses[p.version-1] = toks[0]

	rest := toks[1:]
	sig.Short = lexer.Join(rest)

	if n := len(rest); n > 0 && rest[n-1] == "const" {
		sig.IsConst = true
		rest = rest[:n-1]
	}

	var t bracket.Tracker
	out := make([]string, 0, len(rest))
	for i, tok := range rest {
		if err := t.Feed(tok); err != nil {
			return nil, err
		}
		if t.ParenBlocks() != 0 || t.AngleBlocks() != 0 {
			out = append(out, rest[i:]...)
			break
		}

		switch {
		case !sig.IsVirtual && tok == "virtual":
			sig.IsVirtual = true
		case !sig.IsStatic && tok == "static":
			sig.IsStatic = true
		case sig.Visibility == "" && isVisibility(tok):
			sig.Visibility = strings.TrimSuffix(tok, ":")
		default:
			out = append(out, tok)
		}
	}
	return out, nil
}

// coalesceTemplates folds every <...> run, at any depth, into the token in
// front of it, so that later stages never see template punctuation.
func coalesceTemplates(_ *Parser, _ *Signature, toks []string) ([]string, error) {
	var t bracket.Tracker
	out := make([][]byte, 0, len(toks))

	for _, tok := range toks {
		fold := t.AngleDepth() > 0 || tok == "<"
		if err := t.Feed(tok); err != nil {
			return nil, err
		}
		if fold && len(out) > 0 {
			out[len(out)-1] = lexer.AppendToken(out[len(out)-1], tok)
			continue
		}
		out = append(out, []byte(tok))
	}

	result := make([]string, len(out))
	for i, b := range out {
		result[i] = string(b)
	}
	return result, nil
}

func extractReturnAndConvention(_ *Parser, sig *Signature, toks []string) ([]string, error) {
	var t bracket.Tracker
	var ret []byte

	for i, tok := range toks {
		if err := t.Feed(tok); err != nil {
			return nil, err
		}
		if t.Depth() == 0 && isConvention(tok) {
			sig.ReturnType = string(ret)
			sig.CallingConvention = tok
			return toks[i+1:], nil
		}
		ret = lexer.AppendToken(ret, tok)
	}
	return nil, ReasonConventionNotFound
}

// extractClass splits at the last top-level "::". Free functions, which carry
// no visibility marker, keep their qualification in the name.
func extractClass(_ *Parser, sig *Signature, toks []string) ([]string, error) {
	if sig.Visibility == "" {
		return toks, nil
	}

	var t bracket.Tracker
	sep := -1
	for i, tok := range toks {
		if err := t.Feed(tok); err != nil {
			return nil, err
		}
		if t.Depth() == 0 && tok == "::" {
			sep = i
		}
	}
	if sep <= 0 {
		return nil, ReasonSeparatorNotFound
	}

	sig.Class = lexer.Join(toks[:sep])
	return toks[sep+1:], nil
}

func extractName(_ *Parser, sig *Signature, toks []string) ([]string, error) {
	var t bracket.Tracker
	var name []byte

	for i, tok := range toks {
		if err := t.Feed(tok); err != nil {
			return nil, err
		}
		if t.ParenDepth() > 0 {
			if i == 0 {
				break
			}
			sig.Name = string(name)
			return toks[i:], nil
		}
		name = lexer.AppendToken(name, tok)
	}
	return nil, ReasonNameNotFound
}

// extractParameters splits the outer parameter list on commas that are not
// nested inside another parenthesis or a template argument list.
func extractParameters(_ *Parser, sig *Signature, toks []string) ([]string, error) {
	n := len(toks)
	if n < 2 || toks[0] != "(" || toks[n-1] != ")" {
		return nil, ReasonParameterList
	}

	var t bracket.Tracker
	t.Push('(')

	var param []byte
	for _, tok := range toks[1:] {
		if t.Depth() == 0 {
			// The outer list closed before the last token.
			return nil, ReasonParameterList
		}

		top := t.AtTopLevelParen()
		boundary := tok == "," || tok == ")"
		if top && boundary && len(param) > 0 {
			sig.Parameters = append(sig.Parameters, string(param))
			param = param[:0]
		}
		if !top || !boundary {
			param = lexer.AppendToken(param, tok)
		}

		if err := t.Feed(tok); err != nil {
			return nil, err
		}
	}
	if t.Depth() != 0 {
		return nil, ReasonParameterList
	}
	return nil, nil
}
