package pkgmgr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Executor runs an external command and returns its standard output.
// A non-zero exit is reported as a *CommandError.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func (f ExecutorFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// CommandError describes a command that failed to start or exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int    // -1 when the process never ran or was killed
	Output   string // stderr, or stdout when stderr was empty
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Output != "" {
		msg += ": " + lastLine(e.Output)
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Exited reports whether the command ran to completion with a non-zero
// status, as opposed to failing to start or being cancelled.
func (e *CommandError) Exited() bool { return e.ExitCode > 0 }

// ExecExecutor runs commands with os/exec. Cancelling the context kills
// the child process.
type ExecExecutor struct {
	Env []string // extra KEY=VALUE pairs appended to the inherited environment
}

func (x ExecExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(x.Env) > 0 {
		cmd.Env = append(cmd.Environ(), x.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	cerr := &CommandError{
		Args:     append([]string{name}, args...),
		ExitCode: -1,
		Output:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
	if cerr.Output == "" {
		cerr.Output = strings.TrimSpace(stdout.String())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		cerr.ExitCode = exitErr.ExitCode()
	}
	if ctx.Err() != nil {
		cerr.Err = ctx.Err()
	}
	return stdout.Bytes(), cerr
}

// lastLine returns the last non-empty line of s, which for pip is usually
// the actual error ("ERROR: No matching distribution found for ...").
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
