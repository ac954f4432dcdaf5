package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/importaudit/internal/config"
	"github.com/matzehuels/importaudit/pkg/cache"
)

// cacheCommand creates the command managing the registry lookup cache.
func (c *CLI) cacheCommand(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the registry lookup cache",
	}

	cmd.AddCommand(c.cacheClearCommand(f))
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. It empties the
// file cache and, when one is configured, this tool's keys in Redis.
func (c *CLI) cacheClearCommand(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached registry lookups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(f.dir, f.configPath)
			if err != nil {
				return err
			}

			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("File cache is empty")
			} else {
				fc, err := cache.NewFileCache(dir)
				if err != nil {
					return err
				}
				n, err := fc.Clear()
				if err != nil {
					return fmt.Errorf("clear %s: %w", dir, err)
				}
				printSuccess("Cleared %d cached entries", n)
				printDetail("Directory: %s", dir)
			}

			if cfg.Cache.RedisURL == "" {
				return nil
			}
			rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
			if err != nil {
				return err
			}
			defer rc.Close()
			n, err := rc.Clear(ctx, redisPrefix)
			if err != nil {
				return fmt.Errorf("clear redis cache: %w", err)
			}
			printSuccess("Cleared %d Redis entries", n)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
