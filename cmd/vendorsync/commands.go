package vendorsync

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/arthur-debert/vendorsync/internal/version"
	"github.com/arthur-debert/vendorsync/pkg/config"
	"github.com/arthur-debert/vendorsync/pkg/errors"
	"github.com/arthur-debert/vendorsync/pkg/filesystem"
	"github.com/arthur-debert/vendorsync/pkg/gitutil"
	"github.com/arthur-debert/vendorsync/pkg/logging"
	"github.com/arthur-debert/vendorsync/pkg/paths"
	"github.com/arthur-debert/vendorsync/pkg/types"
	"github.com/arthur-debert/vendorsync/pkg/ui"
	"github.com/arthur-debert/vendorsync/pkg/update"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// environment holds what the commands touch outside the process.
type environment struct {
	newRunner func(verbose bool) (gitutil.Runner, error)
	fs        types.FS
}

func defaultEnvironment() environment {
	return environment{
		newRunner: func(verbose bool) (gitutil.Runner, error) {
			return gitutil.NewLocalRunner(verbose)
		},
		fs: filesystem.NewOS(),
	}
}

// app carries the global flags and the configuration loaded for the running
// command.
type app struct {
	env environment

	verbosity  int
	configFile string
	targetDir  string
	baseDir    string
	format     string
	timings    bool

	cfg *config.Config
}

func newApp(env environment) *app {
	return &app{env: env}
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return newApp(defaultEnvironment()).rootCmd()
}

// Execute runs the command line and returns the process exit code. Failures
// are rendered on stderr.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(defaultEnvironment())
	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, a.renderError(err, os.Stderr))
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	initTemplateFormatting()

	rootCmd := &cobra.Command{
		Use:     "vendorsync",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLogger(a.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			_, err := ui.ParseFormat(a.format)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.ErrInvalidInput, MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&a.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVarP(&a.configFile, "config", "c", "", MsgFlagConfig)
	flags.StringVarP(&a.targetDir, "target-dir", "d", "", MsgFlagTargetDir)
	flags.StringVar(&a.baseDir, "base-dir", "", MsgFlagBaseDir)
	flags.StringVar(&a.format, "format", "auto", MsgFlagFormat)
	flags.BoolVar(&a.timings, "timings", false, MsgFlagTimings)

	rootCmd.AddGroup(&cobra.Group{
		ID:    "update",
		Title: "UPDATES:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(a.newMinorCmd())
	rootCmd.AddCommand(a.newMajorCmd())
	rootCmd.AddCommand(a.newBackportCmd())
	rootCmd.AddCommand(a.newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func (a *app) verbose() bool {
	return a.verbosity > 0 || (a.cfg != nil && a.cfg.Verbose)
}

// outputFormat resolves --format for w. Writers that are not files never get
// terminal styling unless it was asked for.
func (a *app) outputFormat(w io.Writer) ui.Format {
	format, err := ui.ParseFormat(a.format)
	if err != nil {
		format = ui.FormatAuto
	}
	if file, ok := w.(*os.File); ok {
		return format.Resolve(file)
	}
	if format == ui.FormatAuto {
		return ui.FormatText
	}
	return format
}

func (a *app) renderError(err error, w io.Writer) string {
	return ui.RenderError(err, a.outputFormat(w), a.verbose())
}

// loadConfig layers the command-line flags over the configuration sources.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := map[string]interface{}{}
	if cmd.Flags().Changed("target-dir") {
		overrides["target.dir"] = a.targetDir
	}
	if cmd.Flags().Changed("base-dir") {
		overrides["base_dir"] = a.baseDir
	}
	if a.verbosity > 0 {
		overrides["verbose"] = true
	}

	cfg, err := config.Load(config.Options{ConfigFile: a.configFile, Flags: overrides})
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	log.Debug().
		Str("target", cfg.Target.Dir).
		Str("mirror", cfg.MirrorDir()).
		Msg("Configuration loaded")
	return cfg, nil
}

func (a *app) newUpdater(cmd *cobra.Command) (*config.Config, *update.Updater, error) {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	runner, err := a.env.newRunner(a.verbose())
	if err != nil {
		return nil, nil, err
	}

	out := cmd.OutOrStdout()
	renderer := ui.NewStepRenderer(out, a.outputFormat(out))
	renderer.Timings = a.timings
	return cfg, update.New(cfg, runner, a.env.fs).WithObserver(renderer), nil
}

func printCommits(w io.Writer, commits []string) {
	if len(commits) == 0 {
		return
	}
	fmt.Fprintf(w, MsgCommitsCreated, len(commits))
	for _, title := range commits {
		fmt.Fprintf(w, MsgCommitItem, title)
	}
}

func (a *app) newMinorCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "minor",
		Short:   MsgMinorShort,
		Long:    MsgMinorLong,
		Args:    cobra.NoArgs,
		GroupID: "update",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, updater, err := a.newUpdater(cmd)
			if err != nil {
				return err
			}
			c, _, err := updater.Minor(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			name := cfg.Upstream.Name
			switch {
			case c.Ahead:
				fmt.Fprintf(out, MsgAhead, name, c.Current, c.Current.Line())
			case c.Skipped:
				fmt.Fprintf(out, MsgUpToDate, name, c.Current)
			default:
				fmt.Fprintf(out, MsgUpdated, name, c.Current, c.NewVersion)
			}
			printCommits(out, c.Commits)
			return nil
		},
	}
}

func (a *app) newMajorCmd() *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:     "major",
		Short:   MsgMajorShort,
		Long:    MsgMajorLong,
		Example: MsgMajorExample,
		Args:    cobra.NoArgs,
		GroupID: "update",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, updater, err := a.newUpdater(cmd)
			if err != nil {
				return err
			}
			c, _, err := updater.Major(cmd.Context(), branch)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, MsgUpdated, cfg.Upstream.Name, c.Current, c.NewVersion)
			printCommits(out, c.Commits)
			return nil
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", MsgFlagBranch)
	return cmd
}

func (a *app) newBackportCmd() *cobra.Command {
	var (
		sha    string
		noBump bool
	)

	cmd := &cobra.Command{
		Use:     "backport",
		Short:   MsgBackportShort,
		Long:    MsgBackportLong,
		Example: MsgBackportExample,
		Args:    cobra.NoArgs,
		GroupID: "update",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, updater, err := a.newUpdater(cmd)
			if err != nil {
				return err
			}
			c, _, err := updater.Backport(cmd.Context(), sha, !noBump)
			if err != nil {
				return err
			}

			vendored := c.Current
			if c.Bump {
				vendored = c.NewVersion
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, MsgBackported, sha[:7], cfg.Upstream.Name, vendored)
			printCommits(out, c.Commits)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sha, "sha", "s", "", MsgFlagSHA)
	cmd.Flags().BoolVar(&noBump, "no-bump", false, MsgFlagNoBump)
	return cmd
}

func (a *app) newConfigCmd() *cobra.Command {
	var (
		asYAML    bool
		showPaths bool
	)

	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		Args:    cobra.NoArgs,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showPaths {
				fmt.Fprintf(out, "config file: %s\n", paths.ConfigFile())
				fmt.Fprintf(out, "log file:    %s\n", paths.LogFile())
				fmt.Fprintf(out, "mirror:      %s\n", cfg.MirrorDir())
				fmt.Fprintf(out, "vendored:    %s\n", cfg.VendoredDir())
				return nil
			}

			format := config.FormatTOML
			if asYAML {
				format = config.FormatYAML
			}
			data, err := cfg.Dump(format)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, MsgFlagYAML)
	cmd.Flags().BoolVar(&showPaths, "paths", false, MsgFlagPaths)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		Args:    cobra.NoArgs,
		GroupID: "misc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get())
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		GroupID:               "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
