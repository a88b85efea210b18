// Package signature parses demangled MSVC function signatures, as printed by
// disassemblers next to a function address, into structured records.
package signature

import (
	"strconv"
	"strings"
)

// NumVersions is the number of toolchain builds a record carries addresses for.
const NumVersions = 4

// Recognized calling-convention markers.
var CallingConventions = []string{"__thiscall", "__stdcall", "__fastcall", "__cdecl"}

// Signature is one parsed function line.
type Signature struct {
	Original          string              `json:"original"`
	Short             string              `json:"short"`
	Visibility        string              `json:"visibility"`
	CallingConvention string              `json:"calling_convention"`
	ReturnType        string              `json:"return_type"`
	Class             string              `json:"class"`
	Name              string              `json:"name"`
	Parameters        []string            `json:"parameters"`
	IsStatic          bool                `json:"is_static"`
	IsVirtual         bool                `json:"is_virtual"`
	IsConst           bool                `json:"is_const"`
	Addresses         [NumVersions]string `json:"addresses"`
}

// Key identifies a function across toolchain builds. Records with equal keys
// describe the same function; const-ness and visibility do not take part.
func (s *Signature) Key() string {
	var b strings.Builder
	for _, part := range []string{s.Class, s.Name, s.CallingConvention, strconv.FormatBool(s.IsStatic), s.ReturnType} {
		b.WriteString(part)
		b.WriteByte('\n')
	}
	for _, p := range s.Parameters {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

// Address returns the address of the newest build that has one.
func (s *Signature) Address() string {
	for i := NumVersions - 1; i >= 0; i-- {
		if s.Addresses[i] != "" {
			return s.Addresses[i]
		}
	}
	return ""
}

// Versions returns the 1-based indices of the builds that carry an address.
func (s *Signature) Versions() []int {
	var versions []int
	for i, a := range s.Addresses {
		if a != "" {
			versions = append(versions, i+1)
		}
	}
	return versions
}

// Clone returns a deep copy of s.
func (s *Signature) Clone() *Signature {
	c := *s
	c.Parameters = append([]string(nil), s.Parameters...)
	if c.Parameters == nil {
		c.Parameters = []string{}
	}
	return &c
}

// Qualified returns Class::Name, or just Name for free functions.
func (s *Signature) Qualified() string {
	if s.Class == "" {
		return s.Name
	}
	return s.Class + "::" + s.Name
}
