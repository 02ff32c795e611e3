package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/toyz/weave/internal/cli"
	"github.com/toyz/weave/internal/telemetry"
	"github.com/toyz/weave/pkg/inspect"
	"github.com/toyz/weave/pkg/inspect/adapters"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	addr      string
	framework string
	watch     bool
	debounce  time.Duration
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve <directory-paths...>",
		Short: "Serve the interception models and metrics over HTTP",
		Long: `Serve the interception models over HTTP:

  GET /models          registered class ids
  GET /models/<class>  interception model of one class
  GET /metrics         Prometheus metrics
  GET /healthz         liveness

With --watch the models are rebuilt whenever a scanned Go file changes.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd, args, opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default from configuration, :8089)")
	cmd.Flags().StringVar(&opts.framework, "framework", "", "HTTP framework: echo, gin or fiber (default from configuration)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Rebuild models when sources change")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", cli.DefaultDebounce, "Quiet period before a rebuild in watch mode")
	return cmd
}

// server is the inspection server of one serve run
type server struct {
	web      inspect.WebServer
	service  *inspect.Service
	metrics  *telemetry.Metrics
	analyzer *cli.Analyzer
}

// newServer analyzes dirs and mounts the resulting models on framework
func (a *app) newServer(cmd *cobra.Command, dirs []string, framework string) (*server, *cli.Analysis, error) {
	metrics := telemetry.NewMetrics()
	analyzer := cli.NewAnalyzer(a.cfg, metrics, a.logger)

	analysis, err := a.analyze(cmd, analyzer, dirs)
	if err != nil {
		return nil, nil, err
	}
	if analysis.Failed() {
		a.reporter.ReportError(analysis.Err)
	}

	web, err := adapters.New(framework)
	if err != nil {
		return nil, nil, err
	}
	service := inspect.NewService(analysis.Container.Models(), metrics.Handler())
	service.Register(web)

	return &server{web: web, service: service, metrics: metrics, analyzer: analyzer}, analysis, nil
}

// rebuild analyzes dirs again and swaps the served models. A failed run
// keeps the previous models.
func (a *app) rebuild(ctx context.Context, s *server, dirs []string) {
	analysis, err := s.analyzer.Analyze(ctx, dirs)
	if err != nil {
		a.logger.Error("rebuild failed", "error", err)
		return
	}
	if analysis.Failed() {
		a.reporter.ReportError(analysis.Err)
	}
	s.service.SetSource(analysis.Container.Models())
	s.metrics.SetModels(analysis.Container.Models().Size())

	hits, misses := s.analyzer.CacheStats()
	a.logger.Info("models rebuilt", "summary", analysis.Report.String(), "cache_hits", hits, "cache_misses", misses)
}

func (a *app) serve(cmd *cobra.Command, dirs []string, opts *serveOptions) error {
	addr := opts.addr
	if addr == "" {
		addr = a.cfg.Inspect.Address
	}
	framework := opts.framework
	if framework == "" {
		framework = a.cfg.Inspect.Framework
	}

	s, analysis, err := a.newServer(cmd, dirs, framework)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("inspection server started", "addr", addr, "framework", s.web.Name(), "models", analysis.Container.Models().Size())
		return s.web.Start(addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down inspection server")
		return s.web.Stop(shutdownCtx)
	})

	if opts.watch {
		watcher, err := cli.NewSourceWatcher(analysis.Directories, opts.debounce, a.logger)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer watcher.Close()

		g.Go(func() error {
			return watcher.Run(gctx, func(ctx context.Context, files []string) {
				a.diagnostics.Info("%d files changed, rebuilding", len(files))
				a.rebuild(ctx, s, dirs)
			})
		})
	}

	return g.Wait()
}
