// Package snippet renders hook code snippets for parsed signatures.
package snippet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/skdltmxn/gothic-functions/internal/bracket"
	"github.com/skdltmxn/gothic-functions/signature"
)

const maxShortcutName = 64

// DefaultTemplate is a Visual Studio code snippet used when no template file
// is configured.
const DefaultTemplate = `<?xml version="1.0" encoding="utf-8"?>
<CodeSnippets xmlns="http://schemas.microsoft.com/VisualStudio/2005/CodeSnippet">
  <CodeSnippet Format="1.0.0">
    <Header>
      <Title>{Title}</Title>
      <Shortcut>{Shortcut}</Shortcut>
      <Description>{Description}</Description>
      <SnippetTypes>
        <SnippetType>Expansion</SnippetType>
      </SnippetTypes>
    </Header>
    <Snippet>
      <Code Language="cpp"><![CDATA[{Code}]]></Code>
    </Snippet>
  </CodeSnippet>
</CodeSnippets>
`

// Snippet renders one signature.
type Snippet struct {
	sig   *signature.Signature
	names [signature.NumVersions]string
}

// New returns a Snippet for sig. names label the address slots in warnings.
func New(sig *signature.Signature, names [signature.NumVersions]string) *Snippet {
	return &Snippet{sig: sig, names: names}
}

// Title returns Class::Name(params): ret [const].
func (s *Snippet) Title() string {
	var b strings.Builder
	b.WriteString(s.sig.Qualified())
	b.WriteByte('(')
	b.WriteString(strings.Join(s.sig.Parameters, ", "))
	b.WriteByte(')')
	if s.sig.ReturnType != "" {
		b.WriteString(": ")
		b.WriteString(s.sig.ReturnType)
	}
	if s.sig.IsConst {
		b.WriteString(" [const]")
	}
	return b.String()
}

// Shortcut returns an identifier unique per function and newest address.
func (s *Snippet) Shortcut() string {
	name := "__"
	if s.sig.Class != "" {
		name += s.sig.Class + "_"
	}
	name += s.sig.Name
	if len(name) > maxShortcutName {
		name = name[:maxShortcutName]
	}
	return identifier(name + "_" + s.sig.Address())
}

// Description returns the compact signature text.
func (s *Snippet) Description() string { return s.sig.Short }

// Code returns the hook definition.
func (s *Snippet) Code() string {
	var b strings.Builder
	if w := s.warning(); w != "" {
		b.WriteString(w)
		b.WriteByte('\n')
	}

	constSuffix := ""
	if s.sig.IsConst {
		constSuffix = " const"
	}
	ret := s.returnType()

	if s.sig.Class != "" && !s.sig.IsStatic {
		conv := s.convention("__thiscall")
		st := s.structName()
		ivk := "Ivk_" + st

		fmt.Fprintf(&b, "struct %s : %s { %s%s operator()%s%s; };\n", st, s.sig.Class, ret, conv, s.paramList(false), constSuffix)
		fmt.Fprintf(&b, "BindedHook %s{ %s, &%s::operator() };\n", ivk, s.addresses(), st)
		fmt.Fprintf(&b, "%s%s %s::operator()%s%s\n", ret, conv, st, s.paramList(true), constSuffix)
		s.writeBody(&b, ret, "THISCALL("+ivk+")")
		return b.String()
	}

	conv := s.convention("__cdecl")
	hook := s.hookName("Hook_")
	ivk := s.hookName("Ivk_")

	fmt.Fprintf(&b, "%s%s %s%s;\n", ret, conv, hook, s.paramList(false))
	fmt.Fprintf(&b, "BindedHook %s{ %s, %s };\n", ivk, s.addresses(), hook)
	fmt.Fprintf(&b, "%s%s %s%s\n", ret, conv, hook, s.paramList(true))
	s.writeBody(&b, ret, ivk)
	return b.String()
}

func (s *Snippet) writeBody(b *strings.Builder, ret, call string) {
	b.WriteString("{\n")
	if ret == "void" {
		fmt.Fprintf(b, "\t%s%s;\n", call, s.argList())
	} else {
		fmt.Fprintf(b, "\t%s = %s%s;\n", declaration(ret, "result"), call, s.argList())
		b.WriteString("\treturn result;\n")
	}
	b.WriteString("}\n")
}

// Render fills the {Title}, {Shortcut}, {Description} and {Code}
// placeholders of tmpl.
func (s *Snippet) Render(tmpl string) string {
	return strings.NewReplacer(
		"{Title}", s.Title(),
		"{Shortcut}", s.Shortcut(),
		"{Description}", s.Description(),
		"{Code}", s.Code(),
	).Replace(tmpl)
}

// WriteAll renders every signature into dir/<Shortcut>.snippet.
func WriteAll(dir, tmpl string, names [signature.NumVersions]string, sigs []*signature.Signature) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, sig := range sigs {
		s := New(sig, names)
		path := filepath.Join(dir, s.Shortcut()+".snippet")
		if err := os.WriteFile(path, []byte(s.Render(tmpl)), 0644); err != nil {
			return fmt.Errorf("failed to write snippet %s: %w", path, err)
		}
	}
	return nil
}

// convention returns " __conv", or nothing for the form's default convention.
func (s *Snippet) convention(implicit string) string {
	if s.sig.CallingConvention == implicit {
		return ""
	}
	return " " + s.sig.CallingConvention
}

func (s *Snippet) warning() string {
	var supported []string
	for i, a := range s.sig.Addresses {
		if a != "" {
			supported = append(supported, s.names[i])
		}
	}
	if len(supported) == signature.NumVersions {
		return ""
	}
	return "// WARNING!!! Supported versions: " + strings.Join(supported, ", ")
}

func (s *Snippet) addresses() string {
	addrs := make([]string, signature.NumVersions)
	for i, a := range s.sig.Addresses {
		if a == "" {
			a = "0x00000000"
		}
		addrs[i] = a
	}
	return "ZENFOR(" + strings.Join(addrs, ", ") + ")"
}

func (s *Snippet) hookName(prefix string) string {
	name := prefix
	if s.sig.Class != "" {
		name += s.sig.Class + "_"
	}
	return identifier(name + s.sig.Name)
}

func (s *Snippet) structName() string {
	name := s.sig.Name
	if s.isDestructor() {
		name = "Destructor"
	}
	return identifier(s.sig.Class + "_" + name)
}

// returnType fills in what the grammar leaves implicit: constructors return
// the object, destructors and operators without one return void.
func (s *Snippet) returnType() string {
	switch {
	case s.sig.ReturnType != "":
		return s.sig.ReturnType
	case s.isConstructor():
		return s.sig.Class + "*"
	default:
		return "void"
	}
}

func (s *Snippet) isConstructor() bool { return s.sig.Class == s.sig.Name }

func (s *Snippet) isDestructor() bool { return strings.HasPrefix(s.sig.Name, "~") }

func (s *Snippet) paramList(named bool) string {
	params := s.sig.Parameters
	if named {
		params = make([]string, len(s.sig.Parameters))
		for i, p := range s.sig.Parameters {
			params[i] = declaration(p, fmt.Sprintf("a%d", i))
		}
	}
	return "(" + strings.Join(params, ", ") + ")"
}

func (s *Snippet) argList() string {
	args := make([]string, len(s.sig.Parameters))
	for i := range args {
		args[i] = fmt.Sprintf("a%d", i)
	}
	return "(" + strings.Join(args, ", ") + ")"
}

// declaration places name after typ, or inside the first parenthesized
// declarator for function pointers: void(__cdecl* name)(int).
func declaration(typ, name string) string {
	var t bracket.Tracker
	inParen := false
	star := -1

	for i := 0; i < len(typ); i++ {
		if err := t.FeedByte(typ[i]); err != nil {
			break
		}
		if t.AtTopLevelParen() {
			inParen = true
			if typ[i] == '*' {
				star = i
			}
		} else if inParen {
			break
		}
	}

	if star == -1 {
		return typ + " " + name
	}
	return typ[:star+1] + " " + name + typ[star+1:]
}

// identifier replaces everything but letters, digits and '_' with '_'.
func identifier(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, s)
}
