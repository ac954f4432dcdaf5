// Package config loads importaudit settings from TOML.
//
// Settings are read from the first source that exists:
//
//  1. the file passed with --config
//  2. .importaudit.toml in the scanned directory
//  3. the [tool.importaudit] table of pyproject.toml in the scanned directory
//
// Missing keys keep their defaults and command-line flags override
// everything loaded here.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/importaudit/pkg/audit"
	"github.com/matzehuels/importaudit/pkg/cache"
	apperr "github.com/matzehuels/importaudit/pkg/errors"
	"github.com/matzehuels/importaudit/pkg/pkgmgr"
	"github.com/matzehuels/importaudit/pkg/stdlib"
)

const (
	// FileName is the dedicated config file looked up in the scan root.
	FileName = ".importaudit.toml"

	// RedisURLEnv overrides cache.redis_url.
	RedisURLEnv = "IMPORTAUDIT_REDIS_URL"
)

// Registry backends for verification.
const (
	RegistryPyPI = "pypi" // JSON API, cached
	RegistryPip  = "pip"  // "pip index versions", uncached
)

// Config is the merged configuration.
type Config struct {
	Exclude    []string          `toml:"exclude"`
	Extensions []string          `toml:"extensions"`
	Stdlib     []string          `toml:"stdlib"`
	Renames    map[string]string `toml:"renames"`
	Workers    int               `toml:"workers"`
	Python     string            `toml:"python"`
	Verify     Verify            `toml:"verify"`
	Cache      Cache             `toml:"cache"`

	// Source is the file the settings came from; empty for defaults.
	Source string `toml:"-"`
	// Unknown lists keys present in the source that no setting uses.
	Unknown []string `toml:"-"`
}

type Verify struct {
	Strategy string `toml:"strategy"`
	Registry string `toml:"registry"`
	IndexURL string `toml:"index_url"`
}

type Cache struct {
	TTL      time.Duration `toml:"ttl"`
	RedisURL string        `toml:"redis_url"`
	Disabled bool          `toml:"disabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Python: pkgmgr.DefaultPython,
		Verify: Verify{
			Strategy: audit.StrategyAuto,
			Registry: RegistryPyPI,
		},
		Cache: Cache{TTL: cache.DefaultTTL},
	}
}

// Load reads the configuration for a scan of dir. An explicit path must
// exist; the implicit sources are optional.
func Load(dir, path string) (*Config, error) {
	cfg := Default()

	switch {
	case path != "":
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	default:
		if err := cfg.decodeFile(filepath.Join(dir, FileName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if cfg.Source == "" {
			if err := cfg.decodePyproject(filepath.Join(dir, "pyproject.toml")); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if url := os.Getenv(RedisURLEnv); url != "" {
		cfg.Cache.RedisURL = url
	}
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "config %s", path)
		}
		return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	c.Source = path
	c.Unknown = undecoded(md, nil)
	return nil
}

// decodePyproject reads [tool.importaudit]. A pyproject.toml without that
// table leaves the config untouched.
func (c *Config) decodePyproject(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc struct {
		Tool struct {
			ImportAudit toml.Primitive `toml:"importaudit"`
		} `toml:"tool"`
	}
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if !md.IsDefined("tool", "importaudit") {
		return nil
	}
	if err := md.PrimitiveDecode(doc.Tool.ImportAudit, c); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "decode [tool.importaudit] in %s", path)
	}
	c.Source = path
	c.Unknown = undecoded(md, []string{"tool", "importaudit"})
	return nil
}

// undecoded returns the unused keys below prefix, without the prefix.
func undecoded(md toml.MetaData, prefix []string) []string {
	var out []string
	for _, key := range md.Undecoded() {
		if len(key) <= len(prefix) || !slices.Equal(key[:len(prefix)], prefix) {
			continue
		}
		out = append(out, strings.Join(key[len(prefix):], "."))
	}
	return out
}

func (c *Config) fill() {
	d := Default()
	if c.Python == "" {
		c.Python = d.Python
	}
	if c.Verify.Strategy == "" {
		c.Verify.Strategy = d.Verify.Strategy
	}
	if c.Verify.Registry == "" {
		c.Verify.Registry = d.Verify.Registry
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = d.Cache.TTL
	}
	c.Verify.Strategy = strings.ToLower(c.Verify.Strategy)
	c.Verify.Registry = strings.ToLower(c.Verify.Registry)
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Verify.Strategy {
	case audit.StrategyAuto, audit.StrategyLocal, audit.StrategyRegistry:
	default:
		return apperr.New(apperr.ErrCodeInvalidConfig, "verify.strategy: unknown value %q", c.Verify.Strategy)
	}
	switch c.Verify.Registry {
	case RegistryPyPI, RegistryPip:
	default:
		return apperr.New(apperr.ErrCodeInvalidConfig, "verify.registry: unknown value %q", c.Verify.Registry)
	}
	if c.Workers < 0 {
		return apperr.New(apperr.ErrCodeInvalidConfig, "workers: must not be negative, got %d", c.Workers)
	}
	if c.Cache.TTL < 0 {
		return apperr.New(apperr.ErrCodeInvalidConfig, "cache.ttl: must not be negative, got %s", c.Cache.TTL)
	}
	for name, dist := range c.Renames {
		if err := apperr.ValidatePythonPackageName(dist); err != nil {
			return apperr.Wrap(apperr.ErrCodeInvalidConfig, err, "renames.%s", name)
		}
	}
	return nil
}

// StdlibTable returns the default table extended with the configured names.
func (c *Config) StdlibTable() *stdlib.Table {
	if len(c.Stdlib) == 0 {
		return stdlib.Default()
	}
	return stdlib.Default().With(c.Stdlib...)
}

// RenameTable returns the default renames with the configured ones layered
// on top.
func (c *Config) RenameTable() stdlib.Renames {
	return stdlib.DefaultRenames().Merge(c.Renames)
}
