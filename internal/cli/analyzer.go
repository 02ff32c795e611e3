package cli

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/toyz/weave/internal/config"
	"github.com/toyz/weave/internal/container"
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/parser"
	"github.com/toyz/weave/internal/telemetry"
)

// Analysis is the outcome of one analyzer run
type Analysis struct {
	Directories []string
	Result      *parser.Result
	Container   *container.Container
	Report      *container.Report

	// Err aggregates scan, registration and enablement errors
	Err error
}

// Failed reports whether any error was found
func (a *Analysis) Failed() bool {
	return a.Err != nil
}

// Analyzer scans source directories and builds the interception model of
// every component found
type Analyzer struct {
	cfg     *config.Config
	scanner *DirectoryScanner
	parser  *parser.Parser
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NewAnalyzer creates an analyzer. Metrics are shared by every run so a
// long-running server keeps its counters across rebuilds.
func NewAnalyzer(cfg *config.Config, metrics *telemetry.Metrics, logger *slog.Logger) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		cfg:     cfg,
		scanner: NewDirectoryScanner(),
		parser:  parser.NewParser(parser.WithLogger(logger)),
		metrics: metrics,
		logger:  logger,
	}
}

// Analyze runs a full pass over dirs. Class level problems are collected in
// Analysis.Err; the returned error is set only when the run itself could not
// complete (unreadable directories or cancellation).
func (a *Analyzer) Analyze(ctx context.Context, dirs []string) (*Analysis, error) {
	packages, err := a.scanner.ScanDirectories(dirs)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("directories scanned", "roots", dirs, "packages", len(packages))

	errs := errors.NewMultipleErrors()
	result, err := a.parser.ParseDirectories(packages...)
	if result == nil {
		return nil, err
	}
	errs.Append(err)

	c := container.New(
		container.WithLogger(a.logger),
		container.WithMetrics(a.metrics),
		container.WithConcurrency(a.cfg.Concurrency),
	)
	errs.Append(c.Load(result))
	errs.Append(c.Configure(a.cfg.Interceptors))
	if err := c.Start(); err != nil {
		return nil, err
	}

	report, err := c.Enable(ctx, result.Components)
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	errs.Append(err)

	return &Analysis{
		Directories: packages,
		Result:      result,
		Container:   c,
		Report:      report,
		Err:         errs.ErrorOrNil(),
	}, nil
}

// CacheStats exposes the parsed file cache, useful in watch mode
func (a *Analyzer) CacheStats() (hits, misses int) {
	stats := a.parser.CacheStats()
	return stats.Hits, stats.Misses
}
