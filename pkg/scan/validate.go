package scan

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matzehuels/importaudit/pkg/stdlib"
)

// invalidChars are characters that never appear in an importable module
// name but do appear in the tokens the line scanner picks up from template
// strings, paths and markup.
const invalidChars = "%${}<>\\/\"' \t\n\r"

// Validator rejects tokens that cannot be third-party package names.
type Validator struct {
	stdlib *stdlib.Table
}

// NewValidator creates a Validator that also rejects every name in table.
// A nil table rejects nothing on stdlib grounds.
func NewValidator(table *stdlib.Table) *Validator {
	return &Validator{stdlib: table}
}

// Valid reports whether name looks like a third-party module name.
//
// A trailing "#" comment is trimmed first. Names are rejected when they are
// empty, in the stdlib table, contain template or path punctuation, have no
// letter or digit, or do not start with a letter. A leading underscore marks a
// private module and is rejected too.
func (v *Validator) Valid(name string) bool {
	name = trimComment(name)
	if name == "" || v.stdlib.Contains(name) {
		return false
	}
	if strings.ContainsAny(name, invalidChars) {
		return false
	}
	if !strings.ContainsFunc(name, isAlnum) {
		return false
	}

	first, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLetter(first)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func trimComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
