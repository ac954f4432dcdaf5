package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/matzehuels/importaudit/pkg/errors"
)

// progressEvery controls how often the enumerator reports directory progress.
const progressEvery = 100

// DefaultExtensions are the file extensions scanned when none are configured.
var DefaultExtensions = []string{".py"}

// DefaultExcludes skips VCS metadata, bytecode caches and the usual
// virtual-environment and tooling directories.
var DefaultExcludes = []string{
	".git",
	".hg",
	"__pycache__",
	".venv",
	"venv",
	".tox",
	".nox",
	".mypy_cache",
	".pytest_cache",
	"node_modules",
	"site-packages",
}

// EnumeratorOptions configures an Enumerator.
type EnumeratorOptions struct {
	Extensions []string             // File extensions to include (default: .py)
	Exclude    []string             // Glob patterns relative to the root (default: DefaultExcludes)
	Logger     func(string, ...any) // Progress callback (optional)
}

// Enumerator recursively lists candidate source files under a root.
type Enumerator struct {
	extensions map[string]struct{}
	exclude    []matcher
	logger     func(string, ...any)
}

// matcher is one compiled exclude pattern. Plain names without "/" or "*"
// match any path segment with that exact name, the way .gitignore entries do.
type matcher struct {
	pattern glob.Glob
	name    string
}

// NewEnumerator compiles the exclude patterns in opts.
func NewEnumerator(opts EnumeratorOptions) (*Enumerator, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	excludes := opts.Exclude
	if excludes == nil {
		excludes = DefaultExcludes
	}

	e := &Enumerator{
		extensions: make(map[string]struct{}, len(exts)),
		logger:     opts.Logger,
	}
	if e.logger == nil {
		e.logger = func(string, ...any) {}
	}
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.extensions[ext] = struct{}{}
	}

	for _, p := range excludes {
		m, err := compileExclude(p)
		if err != nil {
			return nil, err
		}
		e.exclude = append(e.exclude, m...)
	}
	return e, nil
}

func compileExclude(pattern string) ([]matcher, error) {
	pattern = strings.TrimSpace(filepath.ToSlash(pattern))
	pattern = strings.TrimPrefix(pattern, "./")
	if pattern == "" {
		return nil, nil
	}
	if !strings.ContainsAny(pattern, "/*") {
		return []matcher{{name: pattern}}, nil
	}
	pattern = strings.TrimSuffix(pattern, "/")

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "exclude pattern %q", pattern)
	}
	out := []matcher{{pattern: g}}

	// "**/x" does not match "x" at the root with this glob library.
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		g, err := glob.Compile(rest, '/')
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "exclude pattern %q", pattern)
		}
		out = append(out, matcher{pattern: g})
	}
	return out, nil
}

// Excluded reports whether rel, a slash-separated path relative to the scan
// root, matches an exclude pattern.
func (e *Enumerator) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, m := range e.exclude {
		if m.pattern != nil {
			if m.pattern.Match(rel) {
				return true
			}
			continue
		}
		for _, seg := range strings.Split(rel, "/") {
			if seg == m.name {
				return true
			}
		}
	}
	return false
}

// Files returns the paths of all matching files under root in lexical order.
// Unreadable subdirectories are logged and skipped; only a missing or
// non-directory root is an error.
func (e *Enumerator) Files(ctx context.Context, root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "scan root %s", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "scan root %s is not a directory", root)
	}

	var files []string
	dirs := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			e.logger("skipping %s: %v", path, err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}

		if d.IsDir() {
			if e.Excluded(rel) {
				return filepath.SkipDir
			}
			dirs++
			if dirs%progressEvery == 0 {
				e.logger("scanned %d directories, %d files so far", dirs, len(files))
			}
			return nil
		}

		if _, ok := e.extensions[filepath.Ext(path)]; ok && !e.Excluded(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
