// Package audit runs the import audit of a Python source tree.
//
// A run moves through fixed stages, strictly in order:
//
//	scanning → extracting → verifying → (installing) → manifest writing → done
//
// Scanning and extracting are sequential. Verifying and installing fan out
// over a bounded worker pool; each task owns one record and results are
// folded back by the orchestrating goroutine.
//
//	runner := audit.NewRunner(classifier, verifier, pip, logger)
//	res, err := runner.Run(ctx, audit.Options{Root: ".", Install: true})
//	if res.Failed() {
//	    // at least one install failed
//	}
package audit

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/importaudit/pkg/manifest"
	"github.com/matzehuels/importaudit/pkg/observability"
	"github.com/matzehuels/importaudit/pkg/pkgmgr"
	"github.com/matzehuels/importaudit/pkg/scan"
)

// Stage identifies a phase of a run.
type Stage int

const (
	StageScanning Stage = iota
	StageExtracting
	StageVerifying
	StageInstalling
	StageManifestWriting
	StageDone
)

var stageNames = [...]string{
	StageScanning:        "scanning",
	StageExtracting:      "extracting",
	StageVerifying:       "verifying",
	StageInstalling:      "installing",
	StageManifestWriting: "manifest writing",
	StageDone:            "done",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Options configures a single run.
type Options struct {
	Root         string   // Directory to scan (default ".")
	ManifestPath string   // Output path (default <Root>/requirements.txt)
	Install      bool     // Install missing packages
	SkipManifest bool     // Do not write the manifest
	Workers      int      // Pool size (default DefaultWorkers())
	Extensions   []string // Source extensions (default .py)
	Exclude      []string // Exclude globs (nil means scan.DefaultExcludes)

	// OnStage is called from the orchestrating goroutine when a stage starts.
	OnStage func(Stage)
}

// Summary groups import names by outcome. All slices are sorted.
type Summary struct {
	Succeeded []string // Installed in this run
	Failed    []string // Install attempted and failed
	Skipped   []string // Stdlib or not available
	Present   []string // Already installed
}

// Result is the outcome of a run.
type Result struct {
	RunID      string
	Root       string
	Files      int
	FileErrors []scan.FileError
	Records    map[string]PackageRecord
	Summary    Summary
	Manifest   manifest.WriteResult
	Durations  map[Stage]time.Duration
}

// Failed reports whether any install failed.
func (r *Result) Failed() bool {
	for _, rec := range r.Records {
		if rec.InstallStatus == StatusFailed {
			return true
		}
	}
	return false
}

// Runner wires the audit components together. It holds no per-run state,
// so one Runner may serve several runs.
type Runner struct {
	Classifier *Classifier
	Verifier   Verifier
	Installer  *Installer
	Manager    pkgmgr.Manager
	Logger     *log.Logger
}

// NewRunner creates a runner. A nil logger uses log.Default().
func NewRunner(c *Classifier, v Verifier, m pkgmgr.Manager, logger *log.Logger) *Runner {
	if c == nil {
		c = NewClassifier(nil, nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Classifier: c,
		Verifier:   v,
		Installer:  NewInstaller(m),
		Manager:    m,
		Logger:     logger,
	}
}

// Run executes the stages for opts. Per-file and per-package problems are
// recorded in the result; only systemic failures (bad root, manifest write
// failure, cancellation) return an error. On error the partial result is
// still returned.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Root:      opts.Root,
		Records:   map[string]PackageRecord{},
		Durations: map[Stage]time.Duration{},
	}
	logger := r.Logger.With("run", res.RunID[:8])
	debugf := func(format string, args ...any) { logger.Debugf(format, args...) }

	var files []string
	err := r.stage(ctx, res, StageScanning, opts, func() (int, error) {
		enum, err := scan.NewEnumerator(scan.EnumeratorOptions{
			Extensions: opts.Extensions,
			Exclude:    opts.Exclude,
			Logger:     debugf,
		})
		if err != nil {
			return 0, err
		}
		files, err = enum.Files(ctx, opts.Root)
		logger.Info("found source files", "files", len(files), "root", opts.Root)
		return len(files), err
	})
	if err != nil {
		return res, err
	}

	var scanned *scan.Result
	err = r.stage(ctx, res, StageExtracting, opts, func() (int, error) {
		extractor := scan.NewExtractor(scan.NewValidator(r.Classifier.Table()))
		var err error
		scanned, err = extractor.ExtractAll(ctx, opts.Root, files, debugf)
		if err != nil {
			return 0, err
		}
		res.Files = scanned.Files
		res.FileErrors = scanned.Errors
		for _, fe := range scanned.Errors {
			logger.Warn("skipped unreadable file", "path", fe.Path, "err", fe.Err)
		}
		logger.Info("extracted imports", "packages", len(scanned.Names), "files", scanned.Files)
		return len(scanned.Names), nil
	})
	if err != nil {
		return res, err
	}

	err = r.stage(ctx, res, StageVerifying, opts, func() (int, error) {
		records, err := VerifyAll(ctx, r.Classifier, r.Verifier, scanned.SortedNames(), opts.Workers)
		if err != nil {
			return 0, err
		}
		for name, rec := range records {
			rec.Files = scanned.Names[name]
			records[name] = rec
			logger.Debug("verified", "import", name, "status", describe(rec), "err", rec.ErrorMessage)
		}
		res.Records = records
		logger.Info("verified packages",
			"total", len(records),
			"missing", len(sortedNames(records, PackageRecord.NeedsInstall)),
			"unavailable", len(sortedNames(records, func(p PackageRecord) bool { return !p.IsAvailable })))
		return len(records), nil
	})
	if err != nil {
		return res, err
	}

	if opts.Install {
		err = r.stage(ctx, res, StageInstalling, opts, func() (int, error) {
			if r.Manager == nil {
				return 0, nil
			}
			attempted, err := r.Installer.InstallAll(ctx, res.Records, opts.Workers)
			for _, name := range attempted {
				rec := res.Records[name]
				if rec.InstallStatus == StatusFailed {
					logger.Error("install failed", "package", rec.InstallName, "err", lastLine(rec.ErrorMessage))
				} else {
					logger.Info("installed", "package", rec.InstallName)
				}
			}
			return len(attempted), err
		})
		if err != nil {
			res.Summary = summarize(res.Records)
			return res, err
		}
	}
	res.Summary = summarize(res.Records)

	if !opts.SkipManifest {
		err = r.stage(ctx, res, StageManifestWriting, opts, func() (int, error) {
			path := ManifestPath(opts.Root, opts.ManifestPath)
			wr, err := manifest.Write(path, slices.Collect(maps.Values(res.Records)))
			res.Manifest = wr
			switch {
			case err != nil:
			case wr.NoOp:
				logger.Info("no requirements to write")
			default:
				logger.Info("wrote manifest", "path", wr.Path, "packages", len(wr.Names),
					"added", len(wr.Added), "removed", len(wr.Removed))
			}
			return len(wr.Names), err
		})
		if err != nil {
			return res, err
		}
	}

	if opts.OnStage != nil {
		opts.OnStage(StageDone)
	}
	return res, nil
}

// stage runs fn as stage s, timing it and reporting it to the hooks.
func (r *Runner) stage(ctx context.Context, res *Result, s Stage, opts Options, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opts.OnStage != nil {
		opts.OnStage(s)
	}
	hooks := observability.Audit()
	hooks.OnStageStart(ctx, res.RunID, s.String())

	start := time.Now()
	n, err := fn()
	d := time.Since(start)
	res.Durations[s] = d

	hooks.OnStageComplete(ctx, res.RunID, s.String(), n, d, err)
	r.Logger.Debug("stage complete", "stage", s, "items", n, "duration", d)
	return err
}

func summarize(records map[string]PackageRecord) Summary {
	return Summary{
		Succeeded: sortedNames(records, func(p PackageRecord) bool { return p.InstallStatus == StatusSucceeded }),
		Failed:    sortedNames(records, func(p PackageRecord) bool { return p.InstallStatus == StatusFailed }),
		Skipped:   sortedNames(records, func(p PackageRecord) bool { return p.IsStdlib || !p.IsAvailable }),
		Present:   sortedNames(records, func(p PackageRecord) bool { return p.Present }),
	}
}

// ManifestPath resolves where the manifest for root is written.
func ManifestPath(root, custom string) string {
	return manifest.Path(root, custom)
}
