package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/weave/internal/errors"
)

// ErrorReporter renders weave errors with their location, context and suggestions
type ErrorReporter struct {
	out     io.Writer
	verbose bool

	title   *color.Color
	warning *color.Color
	faint   *color.Color
}

// NewErrorReporter creates a reporter writing to out
func NewErrorReporter(out io.Writer, verbose bool) *ErrorReporter {
	return &ErrorReporter{
		out:     out,
		verbose: verbose,
		title:   color.New(color.FgRed, color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		faint:   color.New(color.FgHiBlack),
	}
}

// DisableColor forces plain output, regardless of the terminal
func (r *ErrorReporter) DisableColor() {
	r.title.DisableColor()
	r.warning.DisableColor()
	r.faint.DisableColor()
}

// ReportWarning prints a single-line warning
func (r *ErrorReporter) ReportWarning(message string) {
	r.warning.Fprint(r.out, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
}

// ReportError prints err. Aggregated errors are reported one by one.
func (r *ErrorReporter) ReportError(err error) {
	if err == nil {
		return
	}

	switch e := err.(type) {
	case *errors.MultipleErrors:
		fmt.Fprintf(r.out, "\n%d errors found\n", e.Count())
		for i, inner := range e.Errors {
			fmt.Fprintf(r.out, "\n[%d/%d] ", i+1, e.Count())
			r.reportWeaveError(inner)
		}
	case errors.WeaveError:
		fmt.Fprintln(r.out)
		r.reportWeaveError(e)
	default:
		fmt.Fprintln(r.out)
		r.title.Fprintf(r.out, "%s\n", errors.UnknownErrorCode)
		fmt.Fprintf(r.out, "  %s\n", err.Error())
	}
	fmt.Fprintln(r.out)
}

func (r *ErrorReporter) reportWeaveError(err errors.WeaveError) {
	r.title.Fprintf(r.out, "%s\n", err.ErrorCode())

	message := err.Error()
	if loc := err.Location(); !loc.IsEmpty() {
		message = strings.TrimPrefix(message, loc.String()+": ")
		fmt.Fprintf(r.out, "  at %s\n", loc)
	}
	fmt.Fprintf(r.out, "  %s\n", message)

	if r.verbose {
		r.printContext(err.Context())
		if cause := err.Unwrap(); cause != nil {
			r.faint.Fprintf(r.out, "  cause: %v\n", cause)
		}
	}

	if hints := err.Suggestions(); len(hints) > 0 {
		fmt.Fprintf(r.out, "  Suggestions:\n")
		for _, hint := range hints {
			fmt.Fprintf(r.out, "    - %s\n", hint)
		}
	}
}

// printContext prints context entries sorted by key
func (r *ErrorReporter) printContext(context map[string]interface{}) {
	if len(context) == 0 {
		return
	}
	keys := make([]string, 0, len(context))
	for key := range context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		r.faint.Fprintf(r.out, "  %s: %v\n", formatContextKey(key), context[key])
	}
}

// formatContextKey turns snake_case keys into readable labels
func formatContextKey(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
