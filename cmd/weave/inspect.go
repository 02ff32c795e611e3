package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toyz/weave/internal/cli"
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/interception"
	"github.com/toyz/weave/internal/models"
)

type inspectOptions struct {
	class  string
	asJSON bool
}

func newInspectCmd(a *app) *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect <directory-paths...>",
		Short: "Print the interception models of the scanned components",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.class, "class", "", "Only print the component with this name or class id")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print models as JSON")
	return cmd
}

func (a *app) inspect(cmd *cobra.Command, dirs []string, opts *inspectOptions) error {
	analysis, err := a.analyze(cmd, cli.NewAnalyzer(a.cfg, nil, a.logger), dirs)
	if err != nil {
		return err
	}

	views, err := selectViews(analysis, opts.class)
	if err != nil {
		a.reporter.ReportError(err)
		return errFailed
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if opts.class != "" && len(views) == 1 {
			err = encoder.Encode(views[0])
		} else {
			err = encoder.Encode(views)
		}
		if err != nil {
			return err
		}
	} else {
		for _, view := range views {
			printView(out, view)
		}
	}

	if analysis.Failed() {
		a.reporter.ReportError(analysis.Err)
		return errFailed
	}
	return nil
}

// selectViews returns every registered model, or the model of one component
func selectViews(analysis *cli.Analysis, class string) ([]interception.View, error) {
	registry := analysis.Container.Models()

	if class == "" {
		views := make([]interception.View, 0, registry.Size())
		for _, id := range registry.Classes() {
			if model, ok := registry.Get(id); ok {
				views = append(views, model.View())
			}
		}
		return views, nil
	}

	component, ok := analysis.Result.Component(class)
	if !ok {
		return nil, errors.NewValidationError("class", "a scanned component name or class id", class).
			WithSuggestion("Use the full class id when two packages declare a component with the same name")
	}
	model, ok := registry.Get(component.ID)
	if !ok {
		return nil, errors.Newf(errors.ValidationErrorCode, "component %s has no interception model", component.ID).
			WithSuggestion("Components without interceptors, or that failed enablement, have no model")
	}
	return []interception.View{model.View()}, nil
}

func printView(w io.Writer, view interception.View) {
	fmt.Fprintf(w, "%s\n", view.Class)
	fmt.Fprintf(w, "  interceptors: %s\n", joinOrNone(view.AllInterceptors))
	for _, kind := range models.AllKinds {
		if list, ok := view.Global[kind.String()]; ok {
			fmt.Fprintf(w, "  %s: %s\n", kind, strings.Join(list, ", "))
		}
	}
	for _, method := range view.Methods {
		fmt.Fprintf(w, "  %s %s: %s\n", method.Kind, method.Method, joinOrNone(method.Interceptors))
	}
	if len(view.MethodsIgnoringGlobalInterceptors) > 0 {
		fmt.Fprintf(w, "  ignoring class interceptors: %s\n", strings.Join(view.MethodsIgnoringGlobalInterceptors, ", "))
	}
	fmt.Fprintln(w)
}

func joinOrNone(list []string) string {
	if len(list) == 0 {
		return "none"
	}
	return strings.Join(list, ", ")
}
