package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/importaudit/internal/config"
	"github.com/matzehuels/importaudit/pkg/audit"
	"github.com/matzehuels/importaudit/pkg/buildinfo"
	apperr "github.com/matzehuels/importaudit/pkg/errors"
)

// rootFlags are the root command's flags. Zero values leave the loaded
// configuration untouched.
type rootFlags struct {
	dir          string
	requirements string
	configPath   string
	python       string
	strategy     string
	workers      int

	install      bool
	uninstallAll bool
	cleanCache   bool
	menu         bool
	yes          bool
	noCache      bool
}

// apply layers the flags over cfg.
func (f *rootFlags) apply(cfg *config.Config) error {
	if f.python != "" {
		cfg.Python = f.python
	}
	if f.strategy != "" {
		cfg.Verify.Strategy = f.strategy
	}
	if f.workers != 0 {
		cfg.Workers = f.workers
	}
	return cfg.Validate()
}

// maintenanceOnly reports whether only cache cleaning or uninstalling was
// asked for, in which case no audit runs.
func (f *rootFlags) maintenanceOnly() bool {
	return (f.cleanCache || f.uninstallAll) && !f.install
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var f rootFlags

	root := &cobra.Command{
		Use:   appName,
		Short: "Find, verify and install the third-party imports of a Python project",
		Long: `importaudit scans a Python source tree for import statements, separates
standard-library modules from third-party ones, checks that the third-party
packages exist, optionally installs the missing ones with pip, and writes a
sorted requirements.txt.`,
		Example: `  importaudit                      # audit . and write requirements.txt
  importaudit -d src -i            # audit src and install what is missing
  importaudit -u -c --yes          # uninstall everything and purge pip's cache
  importaudit -o                   # interactive menu`,
		Version:       buildinfo.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoot(cmd.Context(), &f)
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVarP(&f.dir, "directory", "d", ".", "directory to scan")
	pf.StringVar(&f.configPath, "config", "", "config file (default: .importaudit.toml or pyproject.toml in the directory)")
	pf.BoolVar(&f.noCache, "no-cache", false, "do not cache registry lookups")

	flags := root.Flags()
	flags.StringVarP(&f.requirements, "requirements", "r", "", "manifest path (default: <directory>/requirements.txt)")
	flags.BoolVarP(&f.install, "install", "i", false, "install missing packages")
	flags.BoolVarP(&f.uninstallAll, "uninstall-all", "u", false, "uninstall every installed non-stdlib package")
	flags.BoolVarP(&f.cleanCache, "clean-cache", "c", false, "purge pip's download cache")
	flags.BoolVarP(&f.menu, "option", "o", false, "choose an action from an interactive menu")
	flags.BoolVarP(&f.yes, "yes", "y", false, "do not ask for confirmation")
	flags.StringVar(&f.python, "python", "", "Python interpreter whose environment is inspected (default: python3)")
	flags.StringVar(&f.strategy, "strategy", "", "verification strategy: auto, local or registry")
	flags.IntVar(&f.workers, "workers", 0, "parallel verify and install tasks (default: min(32, CPUs))")

	_ = root.RegisterFlagCompletionFunc("strategy", cobra.FixedCompletions(
		[]string{audit.StrategyAuto, audit.StrategyLocal, audit.StrategyRegistry}, cobra.ShellCompDirectiveNoFileComp))
	_ = root.MarkFlagDirname("directory")

	root.AddCommand(c.cacheCommand(&f))
	root.AddCommand(c.completionCommand())

	return root
}

// runRoot performs the actions selected by f, in the order clean cache,
// uninstall, audit.
func (c *CLI) runRoot(ctx context.Context, f *rootFlags) error {
	s, err := c.newSession(ctx, f)
	if err != nil {
		return err
	}
	defer s.Close()

	if f.menu {
		return c.runMenu(ctx, s, f)
	}

	if f.install || f.uninstallAll || f.cleanCache {
		if err := c.checkPip(ctx, s); err != nil {
			return err
		}
	}
	if f.cleanCache {
		if err := c.cleanCache(ctx, s); err != nil {
			return err
		}
	}
	if f.uninstallAll {
		if err := c.uninstallAll(ctx, s, f); err != nil {
			return err
		}
	}
	if f.maintenanceOnly() {
		return nil
	}

	opts := s.options(f)
	opts.Install = f.install
	return c.audit(ctx, s, opts)
}

// checkPip fails early when the interpreter has no usable pip.
func (c *CLI) checkPip(ctx context.Context, s *session) error {
	v, err := s.pip.Version(ctx)
	if err != nil {
		return err
	}
	c.Logger.Debug("using pip", "python", s.pip.Python(), "version", v)
	return nil
}

// audit runs the pipeline and prints its summary.
func (c *CLI) audit(ctx context.Context, s *session, opts audit.Options) error {
	prog := newProgress(c.Logger)
	res, err := s.runner.Run(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Audited %d files", res.Files))
	c.printResult(res, opts.Install)
	if res.Failed() {
		return ErrInstallFailed
	}
	return nil
}

func (c *CLI) fullSetup(ctx context.Context, s *session, f *rootFlags) error {
	if err := c.confirm(ctx, f, "Full setup uninstalls every installed package first. Continue?"); err != nil {
		return err
	}
	res, err := s.runner.FullSetup(ctx, s.options(f))
	if err != nil {
		return err
	}
	c.printResult(res, true)
	if res.Failed() {
		return ErrInstallFailed
	}
	return nil
}

func (c *CLI) cleanCache(ctx context.Context, s *session) error {
	spinner := newSpinnerWithContext(ctx, "Purging pip cache...")
	spinner.Start()
	if err := s.runner.CleanCache(ctx); err != nil {
		spinner.StopWithError("Could not purge pip cache")
		return err
	}
	spinner.StopWithSuccess("Pip cache purged")
	return nil
}

func (c *CLI) uninstallAll(ctx context.Context, s *session, f *rootFlags) error {
	if err := c.confirm(ctx, f, fmt.Sprintf("Uninstall every package from %s?", s.pip.Python())); err != nil {
		return err
	}
	spinner := newSpinnerWithContext(ctx, "Uninstalling packages...")
	spinner.Start()
	results, err := s.runner.UninstallAll(ctx, s.cfg.Workers)
	spinner.Stop()
	if err != nil {
		return err
	}

	ok, failed := results.Counts()
	if failed > 0 {
		printWarning("Uninstalled %d packages, %d failed", ok, failed)
		for _, name := range results.Failed() {
			printDetail("%s", name)
		}
		return nil
	}
	printSuccess("Uninstalled %d packages", ok)
	return nil
}

// errNotConfirmed is returned when the user declines a destructive action.
var errNotConfirmed = errors.New("aborted")

// confirm asks the user to approve a destructive action. --yes approves
// without asking; without a terminal the action is refused.
func (c *CLI) confirm(ctx context.Context, f *rootFlags, prompt string) error {
	if f.yes {
		return nil
	}
	if !c.Interactive {
		return apperr.New(apperr.ErrCodeInvalidInput, "refusing to continue without a terminal; pass --yes to confirm")
	}
	ok, err := askConfirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return errNotConfirmed
	}
	return nil
}
