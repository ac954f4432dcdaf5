// Package manifest reads and writes requirements.txt files.
//
// The written format is deliberately minimal: one distribution name per
// line, sorted, no versions, no comments. Writing the same selection twice
// produces byte-identical files.
package manifest

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	apperr "github.com/matzehuels/importaudit/pkg/errors"
)

// DefaultName is the manifest file name used when no path is given.
const DefaultName = "requirements.txt"

var depNameRE = regexp.MustCompile(`^([a-zA-Z0-9][-a-zA-Z0-9._]*)`)

// Entry is a package record as seen by the manifest. ManifestName returns
// the install name and whether the record belongs in the manifest.
type Entry interface {
	ManifestName() (string, bool)
}

// WriteResult describes the outcome of Write.
type WriteResult struct {
	Path    string
	Names   []string // Names written, sorted
	NoOp    bool     // Nothing selected; no file was written
	Added   []string // Names not in the previous file
	Removed []string // Names in the previous file but not in this one
}

// Changed reports whether the file content differs from what was there.
func (r WriteResult) Changed() bool {
	return !r.NoOp && (len(r.Added) > 0 || len(r.Removed) > 0)
}

// Select returns the sorted, de-duplicated install names of the entries
// that belong in the manifest.
func Select[E Entry](entries []E) []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		name, ok := e.ManifestName()
		if !ok || name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Write selects names from entries and writes them to path, replacing any
// existing file. An empty selection writes nothing and returns NoOp.
func Write[E Entry](path string, entries []E) (WriteResult, error) {
	res := WriteResult{Path: path, Names: Select(entries)}
	if len(res.Names) == 0 {
		res.NoOp = true
		return res, nil
	}
	if err := apperr.ValidateManifestPath(path); err != nil {
		return res, err
	}

	// An unreadable previous file only affects the reported diff.
	previous, _ := Read(path)
	res.Added, res.Removed = diff(previous, res.Names)

	if err := writeAtomic(path, []byte(strings.Join(res.Names, "\n"))); err != nil {
		return res, apperr.Wrap(apperr.ErrCodeManifestWrite, err, "write %s", path)
	}
	return res, nil
}

// Read parses a requirements file and returns the distribution names it
// lists, in file order and without duplicates. Comments, pip options
// ("-r", "--index-url"), URLs and VCS references are skipped; version
// specifiers, extras and markers are stripped.
func Read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]bool)
	var result []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '-' {
			continue
		}
		if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			continue
		}
		if m := depNameRE.FindStringSubmatch(line); len(m) > 1 {
			name := strings.TrimRight(m[1], ".")
			if key := normalize(name); !seen[key] {
				seen[key] = true
				result = append(result, name)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidManifest, err, "read %s", path)
	}
	return result, nil
}

// Path resolves the manifest location for a scan root. An empty custom
// path yields <root>/requirements.txt; a relative custom path is made
// absolute against the working directory.
func Path(root, custom string) string {
	p := custom
	if p == "" {
		p = filepath.Join(root, DefaultName)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func diff(previous, current []string) (added, removed []string) {
	prev := make(map[string]bool, len(previous))
	for _, n := range previous {
		prev[normalize(n)] = true
	}
	cur := make(map[string]bool, len(current))
	for _, n := range current {
		cur[normalize(n)] = true
		if !prev[normalize(n)] {
			added = append(added, n)
		}
	}
	for _, n := range previous {
		if !cur[normalize(n)] {
			removed = append(removed, n)
		}
	}
	slices.Sort(removed)
	return added, removed
}

// normalize applies PEP 503 name normalization for comparisons.
func normalize(name string) string {
	s := strings.ToLower(name)
	return strings.NewReplacer("_", "-", ".", "-").Replace(s)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".requirements-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
