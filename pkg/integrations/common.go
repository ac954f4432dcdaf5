package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/importaudit/pkg/buildinfo"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// DefaultHeaders identifies the tool to the registry.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent": buildinfo.UserAgent(),
		"Accept":     "application/json",
	}
}

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores and dots with hyphens,
// following PEP 503 normalization rules used by PyPI.
func NormalizePkgName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", ".", "-").Replace(s)
}

// URLEncode percent-encodes a path segment.
func URLEncode(s string) string { return url.PathEscape(s) }
