// Package pkgmgr drives the external Python package manager.
//
// All operations go through an [Executor] so they can be faked in tests.
// [Pip] runs "python -m pip" against the interpreter it was configured
// with, which keeps installs inside whatever environment that interpreter
// belongs to.
package pkgmgr

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	apperr "github.com/matzehuels/importaudit/pkg/errors"
)

// DefaultPython is the interpreter used when none is configured.
const DefaultPython = "python3"

// probeScript resolves a top-level module without importing it.
const probeScript = `import importlib.util, sys
sys.exit(0 if importlib.util.find_spec(sys.argv[1]) is not None else 1)`

// Distribution is an installed package as reported by "pip list".
type Distribution struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Manager installs and removes distributions.
type Manager interface {
	Install(ctx context.Context, name string) error
	Uninstall(ctx context.Context, name string) error
	List(ctx context.Context) ([]Distribution, error)
	PurgeCache(ctx context.Context) error
}

// Prober checks whether a module is importable in the target environment.
type Prober interface {
	Probe(ctx context.Context, importName string) (bool, error)
}

// Pip implements Manager and Prober with "python -m pip".
// It is safe for concurrent use.
type Pip struct {
	python string
	exec   Executor
}

// NewPip creates a Pip for the given interpreter. Empty python uses
// [DefaultPython]; a nil executor uses [ExecExecutor].
func NewPip(python string, exec Executor) *Pip {
	if python == "" {
		python = DefaultPython
	}
	if exec == nil {
		exec = ExecExecutor{Env: []string{"PIP_DISABLE_PIP_VERSION_CHECK=1", "PYTHONIOENCODING=utf-8"}}
	}
	return &Pip{python: python, exec: exec}
}

// Python returns the configured interpreter.
func (p *Pip) Python() string { return p.python }

func (p *Pip) pip(ctx context.Context, args ...string) ([]byte, error) {
	return p.exec.Run(ctx, p.python, append([]string{"-m", "pip"}, args...)...)
}

// Version returns the "pip --version" line, or an error when pip is not
// usable with the configured interpreter.
func (p *Pip) Version(ctx context.Context) (string, error) {
	out, err := p.pip(ctx, "--version")
	if err != nil {
		return "", apperr.Wrap(apperr.ErrCodeUnsupported, err, "pip is not available for %s", p.python)
	}
	return strings.TrimSpace(string(out)), nil
}

// Install runs "pip install <name>". The name must already be validated.
func (p *Pip) Install(ctx context.Context, name string) error {
	if _, err := p.pip(ctx, "install", name); err != nil {
		return apperr.Wrap(apperr.ErrCodeInstall, err, "pip install %s", name)
	}
	return nil
}

// Uninstall runs "pip uninstall -y <name>".
func (p *Pip) Uninstall(ctx context.Context, name string) error {
	if _, err := p.pip(ctx, "uninstall", "-y", name); err != nil {
		return apperr.Wrap(apperr.ErrCodeUninstall, err, "pip uninstall %s", name)
	}
	return nil
}

// List returns the distributions installed in the environment.
func (p *Pip) List(ctx context.Context) ([]Distribution, error) {
	out, err := p.pip(ctx, "list", "--format=json")
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeUninstall, err, "pip list")
	}
	var dists []Distribution
	if err := json.Unmarshal(out, &dists); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeUninstall, err, "parse pip list output")
	}
	return dists, nil
}

// PurgeCache runs "pip cache purge". An already empty cache is not an error.
func (p *Pip) PurgeCache(ctx context.Context) error {
	_, err := p.pip(ctx, "cache", "purge")
	var cerr *CommandError
	if errors.As(err, &cerr) && cerr.Exited() && strings.Contains(cerr.Output, "No matching packages") {
		return nil
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeCacheClean, err, "pip cache purge")
	}
	return nil
}

// Exists asks the configured index whether name is published, using
// "pip index versions". Only pip's "No matching distribution" answer means
// not found; any other failure (unreachable index, pip crash) is an error.
func (p *Pip) Exists(ctx context.Context, name string) (bool, error) {
	out, err := p.pip(ctx, "index", "versions", name)
	if err != nil {
		var cerr *CommandError
		if errors.As(err, &cerr) && cerr.Exited() && strings.Contains(cerr.Output, "No matching distribution") {
			return false, nil
		}
		return false, apperr.Wrap(apperr.ErrCodeVerify, err, "pip index versions %s", name)
	}
	return strings.Contains(string(out), "versions:"), nil
}

// Probe reports whether importName resolves with the configured
// interpreter. The module is located, not executed.
func (p *Pip) Probe(ctx context.Context, importName string) (bool, error) {
	_, err := p.exec.Run(ctx, p.python, "-c", probeScript, importName)
	if err == nil {
		return true, nil
	}
	var cerr *CommandError
	if errors.As(err, &cerr) && cerr.ExitCode == 1 {
		return false, nil
	}
	return false, apperr.Wrap(apperr.ErrCodeVerify, err, "probe %s", importName)
}

var (
	_ Manager = (*Pip)(nil)
	_ Prober  = (*Pip)(nil)
)
