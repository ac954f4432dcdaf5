package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", New(ErrCodeInvalidPath, "scan root %s", "/nope"), "INVALID_PATH: scan root /nope"},
		{"wrapped", Wrap(ErrCodeScan, errors.New("permission denied"), "read a.py"), "SCAN_FAILED: read a.py: permission denied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("exit status 1")
	err := Wrap(ErrCodeInstall, cause, "pip install flask")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	nested := Wrap(ErrCodeInstall, New(ErrCodeInvalidPackage, "bad name"), "install")

	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching", New(ErrCodeVerify, "x"), ErrCodeVerify, true},
		{"other code", New(ErrCodeVerify, "x"), ErrCodeScan, false},
		{"outer of nested", nested, ErrCodeInstall, true},
		{"inner of nested", nested, ErrCodeInvalidPackage, true},
		{"behind fmt wrap", fmt.Errorf("audit: %w", nested), ErrCodeInvalidPackage, true},
		{"plain", errors.New("x"), ErrCodeScan, false},
		{"nil", nil, ErrCodeScan, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"coded", New(ErrCodeCacheClean, "x"), ErrCodeCacheClean},
		{"outermost wins", Wrap(ErrCodeUninstall, New(ErrCodeInvalidPackage, "x"), "y"), ErrCodeUninstall},
		{"plain", errors.New("x"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", New(ErrCodeInvalidPackage, "invalid Python package name: %q", "-x"), `invalid Python package name: "-x"`},
		{"nested", Wrap(ErrCodeManifestWrite, New(ErrCodeInvalidPath, "no parent"), "write requirements.txt"), "write requirements.txt: no parent"},
		{"plain cause dropped", Wrap(ErrCodeScan, errors.New("EACCES"), "read a.py"), "read a.py"},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitedError(t *testing.T) {
	if got := (&RateLimitedError{RetryAfter: 60}).Error(); got != "rate limited: retry after 60 seconds" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&RateLimitedError{}).Error(); got != "rate limited" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&RateLimitedError{}).Code(); got != ErrCodeRateLimited {
		t.Errorf("Code() = %v", got)
	}
}
