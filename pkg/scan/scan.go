// Package scan finds the third-party modules a Python source tree imports.
//
// Scanning is split in three parts that the audit runner drives as separate
// stages:
//
//   - [Enumerator] walks a root directory and lists candidate source files,
//     honouring gitignore-style exclude globs.
//   - [Extractor] reads each file line by line and collects the top-level
//     module names of "import" and "from ... import" statements.
//   - [Validator] drops tokens that cannot be package names: stdlib modules,
//     template placeholders, path fragments and private names.
//
// The extractor is deliberately a heuristic. It does not parse Python and
// accepts the false positives and negatives that come with that.
package scan

import (
	"context"
	"maps"
	"path/filepath"
	"slices"
)

// FileError records a file that could not be scanned.
type FileError struct {
	Path string
	Err  error
}

// Result is the union of the imports found across a set of files.
type Result struct {
	Files  int                 // Number of files read
	Names  map[string][]string // Import name -> files (relative to root) that import it
	Errors []FileError         // Files skipped because they could not be read
}

// SortedNames returns the import names in ascending order.
func (r *Result) SortedNames() []string {
	return slices.Sorted(maps.Keys(r.Names))
}

// ExtractAll extracts imports from every file and merges them. A file that
// fails to read is recorded in Result.Errors and contributes nothing; it
// never aborts the scan. Only context cancellation returns an error.
func (e *Extractor) ExtractAll(ctx context.Context, root string, files []string, logger func(string, ...any)) (*Result, error) {
	if logger == nil {
		logger = func(string, ...any) {}
	}
	res := &Result{Names: make(map[string][]string)}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		names, err := e.ExtractFile(path)
		if err != nil {
			logger("skipping %s: %v", path, err)
			res.Errors = append(res.Errors, FileError{Path: path, Err: err})
			continue
		}
		res.Files++

		rel := path
		if r, err := filepath.Rel(root, path); err == nil {
			rel = filepath.ToSlash(r)
		}
		for name := range names {
			res.Names[name] = append(res.Names[name], rel)
		}

		if n := i + 1; n%progressEvery == 0 || n == len(files) {
			logger("analyzed %d/%d files", n, len(files))
		}
	}

	for name := range res.Names {
		slices.Sort(res.Names[name])
	}
	return res, nil
}
