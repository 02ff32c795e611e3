// Package main is the weave command. It scans Go packages for //weave::
// annotations, builds the interception model of every component and
// reports, prints or serves the result.
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/toyz/weave/internal/cli"
	"github.com/toyz/weave/internal/config"
	"github.com/toyz/weave/internal/utils"
)

// errFailed ends a command whose problems were already reported
var errFailed = stderrors.New("weave: failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !stderrors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app holds what every subcommand shares once flags are parsed
type app struct {
	configPath string
	logLevel   string
	quiet      bool
	verbose    bool

	cfg         *config.Config
	logger      *slog.Logger
	diagnostics *utils.DiagnosticSystem
	reporter    *cli.ErrorReporter
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "weave",
		Short: "Interception model builder for annotated Go components",
		Long: `weave scans Go packages for //weave:: annotations and computes, for every
component, which interceptors run around its construction, lifecycle
callbacks and business methods.

Directory arguments accept Go-style patterns like ./... and are always
scanned recursively.

Examples:
  weave check ./...
  weave inspect --class Orders --json ./internal/...
  weave serve --framework gin --watch ./...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to the configuration file (default weave.yaml when present)")
	flags.StringVarP(&a.logLevel, "log-level", "l", "", "Log level (debug, info, warn, error), overrides the configuration")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "Only show errors and final results")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output and detailed error reporting")
	rootCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")

	rootCmd.AddCommand(newCheckCmd(a), newInspectCmd(a), newServeCmd(a))
	return rootCmd
}

// setup loads the configuration and builds the logger and reporters
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := config.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))

	level := utils.DiagnosticInfo
	switch {
	case a.quiet:
		level = utils.DiagnosticError
	case a.verbose:
		level = utils.DiagnosticVerbose
	}
	a.diagnostics = utils.NewDiagnosticSystem(level)
	if !isStdio(cmd.OutOrStdout(), cmd.ErrOrStderr()) {
		a.diagnostics.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	a.reporter = cli.NewErrorReporter(cmd.ErrOrStderr(), a.verbose)
	if !isStdio(cmd.ErrOrStderr()) {
		a.reporter.DisableColor()
	}
	return nil
}

func isStdio(writers ...io.Writer) bool {
	for _, w := range writers {
		if w != io.Writer(os.Stdout) && w != io.Writer(os.Stderr) {
			return false
		}
	}
	return true
}

// analyze runs the analyzer and reports run level failures
func (a *app) analyze(cmd *cobra.Command, analyzer *cli.Analyzer, dirs []string) (*cli.Analysis, error) {
	analysis, err := analyzer.Analyze(cmd.Context(), dirs)
	if err != nil {
		a.reporter.ReportError(err)
		return nil, errFailed
	}
	a.diagnostics.Verbose("scanned %d packages", len(analysis.Directories))
	return analysis, nil
}
