// Package cli implements the importaudit command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/importaudit/internal/config"
	"github.com/matzehuels/importaudit/pkg/audit"
	"github.com/matzehuels/importaudit/pkg/cache"
	"github.com/matzehuels/importaudit/pkg/integrations/pypi"
	"github.com/matzehuels/importaudit/pkg/observability"
	"github.com/matzehuels/importaudit/pkg/pkgmgr"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "importaudit"

	// redisPrefix namespaces every key this tool writes to a shared Redis.
	redisPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// ErrInstallFailed is returned when a run completed but at least one
// package failed to install. main maps it to exit status 1.
var ErrInstallFailed = errors.New("one or more packages failed to install")

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Exec runs interpreter and pip commands. Nil uses the real executor.
	Exec pkgmgr.Executor

	// Interactive reports whether stdin is a terminal that can answer
	// prompts and drive the menu.
	Interactive bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:      newLogger(w, level),
		Interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
}

// SetLogLevel updates the logger's level. At debug level the audit, cache
// and HTTP events are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		h := logHooks{logger: c.Logger}
		observability.SetAuditHooks(h)
		observability.SetCacheHooks(h)
		observability.SetHTTPHooks(h)
	}
}

// =============================================================================
// Session - per-invocation wiring
// =============================================================================

// session bundles the components one invocation works with.
type session struct {
	cfg    *config.Config
	pip    *pkgmgr.Pip
	runner *audit.Runner
	cache  cache.Cache
}

func (s *session) Close() error {
	return s.cache.Close()
}

// newSession loads the configuration for f.dir, applies flag overrides and
// wires the runner.
func (c *CLI) newSession(ctx context.Context, f *rootFlags) (*session, error) {
	cfg, err := config.Load(f.dir, f.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Source != "" {
		c.Logger.Debug("loaded config", "path", cfg.Source)
	}
	for _, key := range cfg.Unknown {
		c.Logger.Warn("unknown config key", "key", key, "path", cfg.Source)
	}
	if err := f.apply(cfg); err != nil {
		return nil, err
	}

	pip := pkgmgr.NewPip(cfg.Python, c.Exec)
	backend := c.newCache(ctx, cfg.Cache, f.noCache)

	var registry audit.Registry = pip
	if cfg.Verify.Registry == config.RegistryPyPI {
		registry = pypi.NewClient(backend, cfg.Cache.TTL, cfg.Verify.IndexURL)
	}
	verifier, err := audit.NewVerifier(cfg.Verify.Strategy, pip, registry)
	if err != nil {
		backend.Close()
		return nil, err
	}

	classifier := audit.NewClassifier(cfg.StdlibTable(), cfg.RenameTable())
	return &session{
		cfg:    cfg,
		pip:    pip,
		runner: audit.NewRunner(classifier, verifier, pip, c.Logger),
		cache:  backend,
	}, nil
}

// options builds the run options shared by every action.
func (s *session) options(f *rootFlags) audit.Options {
	return audit.Options{
		Root:         f.dir,
		ManifestPath: f.requirements,
		Workers:      s.cfg.Workers,
		Extensions:   s.cfg.Extensions,
		Exclude:      s.cfg.Exclude,
	}
}

// =============================================================================
// Cache
// =============================================================================

// newCache picks the registry response cache: Redis when configured and
// reachable, else the file cache, else none.
func (c *CLI) newCache(ctx context.Context, cfg config.Cache, noCache bool) cache.Cache {
	if noCache || cfg.Disabled {
		return cache.NewNullCache()
	}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err == nil {
			return cache.WithPrefix(rc, redisPrefix)
		}
		c.Logger.Warn("redis cache unavailable, falling back to file cache", "err", err)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("file cache unavailable", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// cacheDir returns the cache directory using XDG standard (~/.cache/importaudit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
