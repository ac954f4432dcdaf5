// Package errors defines the coded errors importaudit reports.
//
// Every failure that reaches the CLI carries a [Code]. The audit stages use
// codes to tell a per-item failure (one file, one package) apart from a
// failure of the whole run:
//
//	INVALID_*          bad input: flags, config, paths, package names
//	SCAN_FAILED        a source file could not be read or decoded
//	VERIFY_FAILED      an availability check could not be completed
//	INSTALL_FAILED     the package manager rejected an install
//	UNINSTALL_FAILED   likewise for uninstall
//	*_FAILED           other maintenance actions
//
// Codes survive wrapping, so a caller can ask
//
//	if errors.Is(err, errors.ErrCodeInvalidConfig) { ... }
//
// regardless of how many layers added context.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"

	ErrCodeScan          Code = "SCAN_FAILED"
	ErrCodeVerify        Code = "VERIFY_FAILED"
	ErrCodeInstall       Code = "INSTALL_FAILED"
	ErrCodeUninstall     Code = "UNINSTALL_FAILED"
	ErrCodeManifestWrite Code = "MANIFEST_WRITE_FAILED"
	ErrCodeCacheClean    Code = "CACHE_CLEAN_FAILED"

	// Registry lookups.
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// The environment cannot run the requested action (no pip, for instance).
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether any *Error in err's chain has code. An install error
// wrapping an invalid package name matches both codes.
func Is(err error, code Code) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns err's message without codes, for display next to a
// package or file name. Messages of nested coded errors are joined with ": ".
// Non-coded causes are left out; they are usually subprocess or syscall
// noise that the caller logs separately.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	msg := e.Message
	var inner *Error
	if errors.As(e.Cause, &inner) {
		msg += ": " + UserMessage(inner)
	}
	return msg
}

// RateLimitedError is returned by registry clients on HTTP 429.
type RateLimitedError struct {
	RetryAfter int // seconds, 0 if the server gave no hint
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns ErrCodeRateLimited.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
