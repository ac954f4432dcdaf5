package audit

// InstallStatus is the outcome of an install attempt.
type InstallStatus int

const (
	StatusNotAttempted InstallStatus = iota
	StatusSucceeded
	StatusFailed
)

func (s InstallStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "not attempted"
	}
}

// PackageRecord is everything known about one imported top-level module.
//
// Records are created by the Classifier, filled in by a Verifier and then
// by the Installer. Within a run, each record is only ever written by the
// task that owns it.
type PackageRecord struct {
	ImportName    string        // Top-level module name as imported
	InstallName   string        // Distribution name for the package manager; empty for stdlib
	IsStdlib      bool          // In the standard-library table
	IsAvailable   bool          // Resolves locally or is published on the index; always true for stdlib
	Present       bool          // Resolves in the local environment
	InstallStatus InstallStatus // Set at most once per run
	ErrorMessage  string        // Last verification or installation failure
	Files         []string      // Source files importing the module, relative to the scan root
}

// ManifestName implements manifest.Entry: available third-party packages
// with an install name belong in the manifest.
func (r PackageRecord) ManifestName() (string, bool) {
	return r.InstallName, r.IsAvailable && !r.IsStdlib && r.InstallName != ""
}

// NeedsInstall reports whether the record is an install target: published,
// not stdlib, not already present, and not yet attempted.
func (r PackageRecord) NeedsInstall() bool {
	return r.IsAvailable && !r.IsStdlib && r.InstallName != "" &&
		!r.Present && r.InstallStatus == StatusNotAttempted
}
