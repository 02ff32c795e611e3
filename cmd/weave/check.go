package main

import (
	"github.com/spf13/cobra"

	"github.com/toyz/weave/internal/cli"
	"github.com/toyz/weave/internal/telemetry"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <directory-paths...>",
		Short: "Build every interception model and report deployment problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.check(cmd, args)
		},
	}
}

func (a *app) check(cmd *cobra.Command, dirs []string) error {
	a.diagnostics.Header("checking interception models")

	analysis, err := a.analyze(cmd, cli.NewAnalyzer(a.cfg, nil, a.logger), dirs)
	if err != nil {
		return err
	}

	a.diagnostics.PhaseHeader("Components")
	for _, outcome := range analysis.Report.Classes {
		switch outcome.Outcome {
		case telemetry.OutcomeRegistered:
			a.diagnostics.PhaseItem(string(outcome.Class))
		case telemetry.OutcomeSkipped:
			a.diagnostics.Verbose("%s has no interceptors", outcome.Class)
		case telemetry.OutcomeFailed:
			a.diagnostics.PhaseFailure(string(outcome.Class))
		}
	}

	a.diagnostics.Summary("Summary", map[string]interface{}{
		"Packages":     len(analysis.Directories),
		"Components":   len(analysis.Result.Components),
		"Interceptors": len(analysis.Container.Interceptors().Definitions()),
		"Bindings":     len(analysis.Container.Bindings().BindingTypes()),
		"Stereotypes":  len(analysis.Container.Bindings().Stereotypes()),
		"Registered":   analysis.Report.Count(telemetry.OutcomeRegistered),
		"Skipped":      analysis.Report.Count(telemetry.OutcomeSkipped),
		"Failed":       analysis.Report.Count(telemetry.OutcomeFailed),
	})

	if analysis.Failed() {
		a.reporter.ReportError(analysis.Err)
		return errFailed
	}
	a.diagnostics.Success("all interception models are valid")
	return nil
}
