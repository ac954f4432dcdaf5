package audit

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	apperr "github.com/matzehuels/importaudit/pkg/errors"
	"github.com/matzehuels/importaudit/pkg/observability"
	"github.com/matzehuels/importaudit/pkg/pkgmgr"
)

// Installer installs missing distributions through a package manager.
type Installer struct {
	manager pkgmgr.Manager
}

// NewInstaller creates an Installer backed by m.
func NewInstaller(m pkgmgr.Manager) *Installer {
	return &Installer{manager: m}
}

// Install installs rec.InstallName and records the outcome on rec. It
// reports success and never returns an error: failures set
// StatusFailed and ErrorMessage. A record whose status is already set is
// left alone.
func (in *Installer) Install(ctx context.Context, rec *PackageRecord) bool {
	if rec.InstallStatus != StatusNotAttempted {
		return rec.InstallStatus == StatusSucceeded
	}
	if err := apperr.ValidatePythonPackageName(rec.InstallName); err != nil {
		rec.InstallStatus = StatusFailed
		rec.ErrorMessage = apperr.UserMessage(err)
		return false
	}

	start := time.Now()
	err := in.manager.Install(ctx, rec.InstallName)
	observability.Audit().OnInstall(ctx, rec.InstallName, err == nil, time.Since(start))

	if err != nil {
		rec.InstallStatus = StatusFailed
		rec.ErrorMessage = failureMessage(err)
		return false
	}
	rec.InstallStatus = StatusSucceeded
	rec.ErrorMessage = ""
	return true
}

// InstallAll installs every record that needs it, in parallel, and writes
// the outcomes back into records. It returns the import names that were
// attempted, sorted. One failure never stops the others; only
// cancellation returns an error.
func (in *Installer) InstallAll(ctx context.Context, records map[string]PackageRecord, workers int) ([]string, error) {
	targets := sortedNames(records, PackageRecord.NeedsInstall)
	results := make([]PackageRecord, len(targets))
	for i, name := range targets {
		results[i] = records[name]
	}

	err := forEach(ctx, len(targets), workers, func(ctx context.Context, i int) {
		in.Install(ctx, &results[i])
	})

	var attempted []string
	for _, rec := range results {
		records[rec.ImportName] = rec
		if rec.InstallStatus != StatusNotAttempted {
			attempted = append(attempted, rec.ImportName)
		}
	}
	slices.Sort(attempted)
	return attempted, err
}

// failureMessage prefers the package manager's own output, which names
// the actual problem, over the wrapped error chain.
func failureMessage(err error) string {
	var cerr *pkgmgr.CommandError
	if errors.As(err, &cerr) && cerr.Output != "" {
		return cerr.Output
	}
	return err.Error()
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
