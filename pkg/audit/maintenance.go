package audit

import (
	"context"
	"maps"
	"slices"
	"strings"

	apperr "github.com/matzehuels/importaudit/pkg/errors"
)

// protectedDists are never uninstalled; removing them breaks the package
// manager itself.
var protectedDists = map[string]bool{
	"pip":        true,
	"setuptools": true,
	"wheel":      true,
}

// OperationResults maps a distribution name to whether the operation on it
// succeeded.
type OperationResults map[string]bool

// Counts returns the number of successful and failed operations.
func (o OperationResults) Counts() (ok, failed int) {
	for _, success := range o {
		if success {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// Failed returns the names whose operation failed, sorted.
func (o OperationResults) Failed() []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(o)) {
		if !o[name] {
			out = append(out, name)
		}
	}
	return out
}

// UninstallAll removes every installed distribution except the package
// manager's own tooling, in parallel. Listing failures return an error;
// individual uninstall failures are reported in the results.
func (r *Runner) UninstallAll(ctx context.Context, workers int) (OperationResults, error) {
	dists, err := r.Manager.List(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, d := range dists {
		key := strings.ToLower(d.Name)
		if protectedDists[key] || r.Classifier.Table().Contains(d.Name) {
			continue
		}
		names = append(names, d.Name)
	}
	slices.Sort(names)
	r.Logger.Info("uninstalling packages", "count", len(names))

	ok := make([]bool, len(names))
	err = forEach(ctx, len(names), workers, func(ctx context.Context, i int) {
		name := names[i]
		if verr := apperr.ValidatePythonPackageName(name); verr != nil {
			r.Logger.Warn("skipping uninstall", "package", name, "err", verr)
			return
		}
		if uerr := r.Manager.Uninstall(ctx, name); uerr != nil {
			r.Logger.Error("uninstall failed", "package", name, "err", uerr)
			return
		}
		ok[i] = true
		r.Logger.Debug("uninstalled", "package", name)
	})

	results := make(OperationResults, len(names))
	for i, name := range names {
		results[name] = ok[i]
	}
	return results, err
}

// CleanCache purges the package manager's download cache.
func (r *Runner) CleanCache(ctx context.Context) error {
	if err := r.Manager.PurgeCache(ctx); err != nil {
		return err
	}
	r.Logger.Info("package manager cache cleaned")
	return nil
}

// FullSetup starts from a clean environment: it purges the cache,
// uninstalls everything, then runs an installing audit that writes the
// manifest. A cache purge failure is logged and does not stop the setup.
func (r *Runner) FullSetup(ctx context.Context, opts Options) (*Result, error) {
	if err := r.CleanCache(ctx); err != nil {
		r.Logger.Warn("could not clean package cache", "err", err)
	}

	results, err := r.UninstallAll(ctx, opts.Workers)
	if err != nil {
		return nil, err
	}
	if done, failed := results.Counts(); failed > 0 {
		r.Logger.Warn("some packages could not be uninstalled", "uninstalled", done, "failed", failed)
	}

	opts.Install = true
	opts.SkipManifest = false
	return r.Run(ctx, opts)
}
