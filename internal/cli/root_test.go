package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/importaudit/internal/config"
	apperr "github.com/matzehuels/importaudit/pkg/errors"
	"github.com/matzehuels/importaudit/pkg/pkgmgr"
)

// fakePip answers the interpreter and pip invocations made by pkgmgr.Pip.
type fakePip struct {
	mu      sync.Mutex
	calls   []string
	present map[string]bool // import names that resolve locally
	fail    map[string]bool // distributions whose install fails
}

func (f *fakePip) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(args) == 3 && args[0] == "-c" {
		f.calls = append(f.calls, "probe "+args[2])
		if f.present[args[2]] {
			return nil, nil
		}
		return nil, &pkgmgr.CommandError{Args: args, ExitCode: 1}
	}

	cmd := strings.Join(args[2:], " ")
	f.calls = append(f.calls, cmd)
	switch args[2] {
	case "--version":
		return []byte("pip 24.2 from /usr/lib/python3/site-packages/pip (python 3.12)\n"), nil
	case "index":
		return []byte(args[4] + " (1.0.0)\nAvailable versions: 1.0.0\n"), nil
	case "install":
		if f.fail[args[3]] {
			return nil, &pkgmgr.CommandError{Args: args, ExitCode: 1, Output: "ERROR: No matching distribution found for " + args[3]}
		}
		return nil, nil
	case "list":
		return []byte(`[{"name":"pip","version":"24.2"},{"name":"requests","version":"2.32.3"},{"name":"flask","version":"3.0.0"}]`), nil
	}
	return nil, nil
}

func (f *fakePip) called(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

func runCLI(t *testing.T, exec pkgmgr.Executor, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv(config.RedisURLEnv, "")

	c := New(io.Discard, LogInfo)
	c.Exec = exec
	c.Interactive = false
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readManifest(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	return string(data)
}

func TestRootDetectLocal(t *testing.T) {
	dir := project(t, map[string]string{
		"app.py": "import os\nimport requests\nimport flask\n",
	})
	pip := &fakePip{present: map[string]bool{"requests": true}}

	if err := runCLI(t, pip, "-d", dir, "--strategy", "local", "--no-cache"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := readManifest(t, filepath.Join(dir, "requirements.txt")); got != "requests" {
		t.Errorf("manifest = %q, want %q", got, "requests")
	}
	if len(pip.called("install")) != 0 {
		t.Error("detection must not install anything")
	}
	if len(pip.called("--version")) != 0 {
		t.Error("detection should not need pip itself")
	}
}

func TestRootInstallFailure(t *testing.T) {
	dir := project(t, map[string]string{
		"app.py":        "import requests\nimport flask\nimport yaml\n",
		config.FileName: "[verify]\nstrategy = \"registry\"\nregistry = \"pip\"\n",
	})
	pip := &fakePip{fail: map[string]bool{"flask": true}}
	out := filepath.Join(dir, "out", "reqs.txt")

	err := runCLI(t, pip, "-d", dir, "-i", "-r", out, "--workers", "2")
	if !errors.Is(err, ErrInstallFailed) {
		t.Fatalf("err = %v, want ErrInstallFailed", err)
	}

	want := []string{"install PyYAML", "install flask", "install requests"}
	if got := pip.called("install"); !slices.Equal(got, want) {
		t.Errorf("installs = %v, want %v", got, want)
	}
	if got := readManifest(t, out); got != "PyYAML\nflask\nrequests" {
		t.Errorf("manifest = %q", got)
	}
}

func TestRootUninstallNeedsConfirmation(t *testing.T) {
	dir := project(t, nil)
	pip := &fakePip{}

	err := runCLI(t, pip, "-d", dir, "-u", "--no-cache")
	if !apperr.Is(err, apperr.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT without --yes", err)
	}
	if len(pip.called("uninstall")) != 0 {
		t.Error("nothing may be uninstalled without confirmation")
	}
}

func TestRootUninstallAndClean(t *testing.T) {
	dir := project(t, map[string]string{"app.py": "import requests\n"})
	pip := &fakePip{}

	if err := runCLI(t, pip, "-d", dir, "-u", "-c", "--yes", "--no-cache"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := pip.called("uninstall"); !slices.Equal(got, []string{"uninstall -y flask", "uninstall -y requests"}) {
		t.Errorf("uninstalls = %v", got)
	}
	if len(pip.called("cache purge")) != 1 {
		t.Error("cache should be purged once")
	}
	if _, err := os.Stat(filepath.Join(dir, "requirements.txt")); !os.IsNotExist(err) {
		t.Error("maintenance-only run should not write a manifest")
	}
}

func TestRootErrors(t *testing.T) {
	dir := project(t, nil)

	tests := []struct {
		name string
		args []string
		code apperr.Code
	}{
		{"strategy", []string{"-d", dir, "--strategy", "psychic"}, apperr.ErrCodeInvalidConfig},
		{"workers", []string{"-d", dir, "--workers", "-4"}, apperr.ErrCodeInvalidConfig},
		{"root", []string{"-d", filepath.Join(dir, "missing"), "--no-cache"}, apperr.ErrCodeInvalidPath},
		{"config", []string{"-d", dir, "--config", filepath.Join(dir, "nope.toml")}, apperr.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(t, &fakePip{}, tt.args...)
			if !apperr.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRootMenuNeedsTerminal(t *testing.T) {
	if err := runCLI(t, &fakePip{}, "-d", project(t, nil), "-o", "--no-cache"); err == nil {
		t.Error("--option without a terminal should fail")
	}
}

func TestRootNoArgs(t *testing.T) {
	if err := runCLI(t, &fakePip{}, "extra"); err == nil {
		t.Error("positional arguments should be rejected")
	}
}
