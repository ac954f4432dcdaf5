package audit

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/importaudit/pkg/pkgmgr"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

type fakeProber struct {
	present map[string]bool
	err     error
	calls   atomic.Int32
}

func (f *fakeProber) Probe(ctx context.Context, name string) (bool, error) {
	f.calls.Add(1)
	if f.err != nil {
		return false, f.err
	}
	return f.present[name], nil
}

type fakeRegistry struct {
	published map[string]bool
	failing   map[string]bool
	calls     atomic.Int32
}

func (f *fakeRegistry) Exists(ctx context.Context, name string) (bool, error) {
	f.calls.Add(1)
	if f.failing[name] {
		return false, errors.New("index unreachable")
	}
	return f.published[name], nil
}

type fakeManager struct {
	mu          sync.Mutex
	installed   []string
	uninstalled []string
	purged      int
	ops         []string

	failInstall   map[string]bool
	failUninstall map[string]bool
	dists         []pkgmgr.Distribution
	listErr       error
	purgeErr      error
}

func (m *fakeManager) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
}

func (m *fakeManager) Install(ctx context.Context, name string) error {
	m.record("install")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installed = append(m.installed, name)
	if m.failInstall[name] {
		return &pkgmgr.CommandError{
			Args:     []string{"python3", "-m", "pip", "install", name},
			ExitCode: 1,
			Output:   "ERROR: Could not build wheels for " + name,
			Err:      errors.New("exit status 1"),
		}
	}
	return nil
}

func (m *fakeManager) Uninstall(ctx context.Context, name string) error {
	m.record("uninstall")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uninstalled = append(m.uninstalled, name)
	if m.failUninstall[name] {
		return errors.New("permission denied")
	}
	return nil
}

func (m *fakeManager) List(ctx context.Context) ([]pkgmgr.Distribution, error) {
	m.record("list")
	return m.dists, m.listErr
}

func (m *fakeManager) PurgeCache(ctx context.Context) error {
	m.record("purge")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged++
	return m.purgeErr
}
