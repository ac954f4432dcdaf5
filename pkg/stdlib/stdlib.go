// Package stdlib holds the static classification data used to tell Python
// standard-library modules apart from third-party distributions.
//
// A [Table] is immutable once built: [Table.With] returns a new table rather
// than mutating the receiver, so a single table can be shared by every
// goroutine of an audit run.
//
// The default table is embedded from modules.txt and covers the Python 3
// standard library, a handful of Python 2 names that still show up in older
// trees, and tokens the line scanner is known to pick up from docstrings.
package stdlib

import (
	"bufio"
	_ "embed"
	"maps"
	"slices"
	"strings"
	"sync"
)

//go:embed modules.txt
var modulesData string

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Table is a case-insensitive set of module names considered part of the
// base runtime. The zero value is an empty table.
type Table struct {
	names map[string]struct{}
}

// New creates a table containing names. Blank names are ignored.
func New(names ...string) *Table {
	t := &Table{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if key := normalize(n); key != "" {
			t.names[key] = struct{}{}
		}
	}
	return t
}

// Default returns the embedded standard-library table.
// The same instance is returned on every call.
func Default() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = New(parseList(modulesData)...)
	})
	return defaultTable
}

// Contains reports whether name is in the table, ignoring case.
func (t *Table) Contains(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.names[normalize(name)]
	return ok
}

// With returns a new table holding the receiver's names plus extra.
func (t *Table) With(extra ...string) *Table {
	out := &Table{names: make(map[string]struct{}, t.Len()+len(extra))}
	if t != nil {
		maps.Copy(out.names, t.names)
	}
	for _, n := range extra {
		if key := normalize(n); key != "" {
			out.names[key] = struct{}{}
		}
	}
	return out
}

// Len returns the number of names in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the lowercased names in the table, sorted.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(t.names))
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func parseList(data string) []string {
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names
}
