package audit

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	apperr "github.com/matzehuels/importaudit/pkg/errors"
	"github.com/matzehuels/importaudit/pkg/observability"
	"github.com/matzehuels/importaudit/pkg/pkgmgr"
)

// Verification strategies.
const (
	StrategyLocal    = "local"
	StrategyRegistry = "registry"
	StrategyAuto     = "auto"
)

// Verifier fills in IsAvailable (and Present) for a classified record.
// Verify never fails: problems are recorded in the returned record's
// ErrorMessage and the record is marked unavailable.
type Verifier interface {
	Verify(ctx context.Context, rec PackageRecord) PackageRecord
}

// Registry answers whether a distribution is published on a package index.
// pypi.Client and pkgmgr.Pip both implement it.
type Registry interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// LocalVerifier checks whether the module resolves in the target
// interpreter's environment.
type LocalVerifier struct {
	Prober pkgmgr.Prober
}

func (v LocalVerifier) Verify(ctx context.Context, rec PackageRecord) PackageRecord {
	if rec.IsStdlib {
		return rec
	}
	found, err := v.Prober.Probe(ctx, rec.ImportName)
	if err != nil {
		rec.IsAvailable = false
		rec.ErrorMessage = apperr.Wrap(apperr.ErrCodeVerify, err, "local lookup of %s", rec.ImportName).Error()
		return rec
	}
	rec.IsAvailable = found
	rec.Present = found
	return rec
}

// RegistryVerifier checks whether the record's install name is published.
type RegistryVerifier struct {
	Registry Registry
}

func (v RegistryVerifier) Verify(ctx context.Context, rec PackageRecord) PackageRecord {
	if rec.IsStdlib {
		return rec
	}
	if rec.InstallName == "" {
		rec.IsAvailable = false
		return rec
	}
	found, err := v.Registry.Exists(ctx, rec.InstallName)
	if err != nil {
		rec.IsAvailable = false
		rec.ErrorMessage = apperr.Wrap(apperr.ErrCodeVerify, err, "registry lookup of %s", rec.InstallName).Error()
		return rec
	}
	rec.IsAvailable = found
	return rec
}

// AutoVerifier tries the local environment first and falls back to the
// registry for modules that are not installed.
type AutoVerifier struct {
	Local    LocalVerifier
	Registry RegistryVerifier
}

func (v AutoVerifier) Verify(ctx context.Context, rec PackageRecord) PackageRecord {
	if rec.IsStdlib {
		return rec
	}
	local := v.Local.Verify(ctx, rec)
	if local.Present {
		return local
	}
	remote := v.Registry.Verify(ctx, rec)
	if remote.ErrorMessage == "" && local.ErrorMessage != "" && !remote.IsAvailable {
		remote.ErrorMessage = local.ErrorMessage
	}
	return remote
}

// NewVerifier builds the verifier for strategy. An empty strategy means
// [StrategyAuto].
func NewVerifier(strategy string, prober pkgmgr.Prober, registry Registry) (Verifier, error) {
	switch strategy {
	case StrategyLocal:
		return LocalVerifier{Prober: prober}, nil
	case StrategyRegistry:
		return RegistryVerifier{Registry: registry}, nil
	case StrategyAuto, "":
		return AutoVerifier{
			Local:    LocalVerifier{Prober: prober},
			Registry: RegistryVerifier{Registry: registry},
		}, nil
	default:
		return nil, apperr.New(apperr.ErrCodeInvalidConfig,
			"unknown verify strategy %q (want %s, %s or %s)", strategy, StrategyLocal, StrategyRegistry, StrategyAuto)
	}
}

// VerifyAll classifies and verifies every distinct name with a bounded
// pool and returns the records keyed by import name. Only cancellation
// returns an error.
func VerifyAll(ctx context.Context, c *Classifier, v Verifier, names []string, workers int) (map[string]PackageRecord, error) {
	unique := slices.Compact(slices.Sorted(slices.Values(names)))
	results := make([]PackageRecord, len(unique))
	hooks := observability.Audit()

	err := forEach(ctx, len(unique), workers, func(ctx context.Context, i int) {
		start := time.Now()
		rec := c.Classify(unique[i])
		if !rec.IsStdlib {
			rec = v.Verify(ctx, rec)
		}
		results[i] = rec
		hooks.OnVerify(ctx, rec.ImportName, rec.IsAvailable, time.Since(start))
	})
	if err != nil {
		return nil, err
	}

	records := make(map[string]PackageRecord, len(results))
	for _, rec := range results {
		records[rec.ImportName] = rec
	}
	return records, nil
}

// sortedNames returns the keys of records whose record satisfies keep.
func sortedNames(records map[string]PackageRecord, keep func(PackageRecord) bool) []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(records)) {
		if keep(records[name]) {
			out = append(out, name)
		}
	}
	return out
}

func describe(rec PackageRecord) string {
	switch {
	case rec.IsStdlib:
		return "stdlib"
	case rec.Present:
		return "installed"
	case rec.IsAvailable:
		return fmt.Sprintf("missing, installable as %s", rec.InstallName)
	default:
		return "not found"
	}
}
