package scan

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/importaudit/pkg/errors"
)

// Extractor pulls top-level module names out of Python source text.
//
// It is a line scanner, not a parser: it recognises lines that start with
// "import " or "from ", and nothing else. Line continuations, parenthesised
// import lists spanning several lines and "import" inside string literals
// are not handled.
type Extractor struct {
	validator *Validator
}

// NewExtractor creates an Extractor that filters names through v.
func NewExtractor(v *Validator) *Extractor {
	return &Extractor{validator: v}
}

// Raw returns every candidate top-level name referenced by text, before
// validation, in first-seen order and without duplicates.
func (e *Extractor) Raw(text string) []string {
	seen := make(map[string]bool)
	var names []string

	for line := range strings.Lines(text) {
		for _, name := range lineImports(line) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// Extract returns the set of names in text that pass validation.
func (e *Extractor) Extract(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, name := range e.Raw(text) {
		if e.validator.Valid(name) {
			out[name] = struct{}{}
		}
	}
	return out
}

// ExtractFile reads path and extracts its imports.
// Unreadable files and files that are not valid UTF-8 return an error with
// code [errors.ErrCodeScan]; callers skip such files.
func (e *Extractor) ExtractFile(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeScan, err, "read %s", path)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return nil, errors.New(errors.ErrCodeScan, "decode %s: not valid UTF-8", path)
	}
	return e.Extract(string(data)), nil
}

// lineImports returns the raw module names referenced by a single line.
func lineImports(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return nil
	}

	switch {
	case strings.HasPrefix(line, "import "):
		body := trimComment(line[len("import "):])
		var names []string
		for _, part := range strings.Split(body, ",") {
			name, _, _ := strings.Cut(strings.TrimSpace(part), " as ")
			if name = topLevel(name); name != "" {
				names = append(names, name)
			}
		}
		return names

	case strings.HasPrefix(line, "from "):
		fields := strings.Fields(trimComment(line))
		if len(fields) < 2 {
			return nil
		}
		if name := topLevel(fields[1]); name != "" {
			return []string{name}
		}
	}
	return nil
}

// topLevel truncates a dotted module path to its first segment.
// Relative imports (".mod", "..") have an empty first segment.
func topLevel(name string) string {
	name, _, _ = strings.Cut(name, ".")
	return strings.TrimSpace(name)
}
