// Package container ties the registries, the model initializer and
// telemetry together and enables classes concurrently.
package container

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/toyz/weave/internal/config"
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/initializer"
	"github.com/toyz/weave/internal/models"
	"github.com/toyz/weave/internal/parser"
	"github.com/toyz/weave/internal/registry"
	"github.com/toyz/weave/internal/telemetry"
)

// DefaultConcurrency bounds how many classes are enabled at once
const DefaultConcurrency = 4

// Container owns the registries of one deployment
type Container struct {
	bindings     *registry.BindingTypeRegistry
	interceptors *registry.InterceptorRegistry
	models       *registry.ModelRegistry
	initializer  *initializer.Initializer

	metrics     *telemetry.Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
	concurrency int

	mu      sync.Mutex
	started bool
}

// Option configures a Container
type Option func(*Container)

// WithLogger sets the container logger, also used by the initializer
func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records enablement metrics into m
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Container) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracer sets the tracer used for per-class spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Container) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithConcurrency bounds concurrent class enablement. Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(c *Container) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a container with empty registries
func New(opts ...Option) *Container {
	bindings := registry.NewBindingTypeRegistry()
	c := &Container{
		bindings:     bindings,
		interceptors: registry.NewInterceptorRegistry(bindings),
		models:       registry.NewModelRegistry(),
		metrics:      telemetry.NewMetrics(),
		tracer:       telemetry.Tracer(),
		logger:       slog.Default(),
		concurrency:  DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.initializer = initializer.New(c.bindings, c.interceptors, c.interceptors, c.models, initializer.WithLogger(c.logger))
	c.models.Subscribe(c.registered)
	return c
}

func (c *Container) registered(event registry.RegistrationEvent) {
	c.metrics.RecordRegistration(event.Replaced)
	c.logger.Debug("interception model registered",
		"class", event.Class,
		"event", event.ID,
		"replaced", event.Replaced,
	)
}

// Bindings returns the binding type registry
func (c *Container) Bindings() *registry.BindingTypeRegistry { return c.bindings }

// Interceptors returns the interceptor registry
func (c *Container) Interceptors() *registry.InterceptorRegistry { return c.interceptors }

// Models returns the model registry
func (c *Container) Models() *registry.ModelRegistry { return c.models }

// Metrics returns the container metrics
func (c *Container) Metrics() *telemetry.Metrics { return c.metrics }

// Load registers the binding types, stereotypes and interceptors of a scan
func (c *Container) Load(result *parser.Result) error {
	return result.Register(c.bindings, c.interceptors)
}

// Configure applies configured priorities, then enables the configured
// interceptors in order
func (c *Container) Configure(cfg config.InterceptorsConfig) error {
	errs := errors.NewMultipleErrors()
	for name, priority := range cfg.Priorities {
		if err := c.interceptors.SetPriority(name, priority); err != nil {
			errs.Add(errors.WrapConfigurationError("interceptors", "apply priorities of", err))
		}
	}
	if err := c.interceptors.Enable(cfg.Enabled...); err != nil {
		errs.Add(errors.WrapConfigurationError("interceptors", "enable", err))
	}
	return errs.ErrorOrNil()
}

// Start allows classes to be enabled
func (c *Container) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return errors.New(errors.IllegalStateErrorCode, "container already started")
	}
	c.started = true
	c.logger.Info("container started", "interceptors", len(c.interceptors.Enabled()))
	return nil
}

// Stop clears every registered model
func (c *Container) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models.Clear()
	c.metrics.SetModels(0)
	c.started = false
	c.logger.Info("container stopped")
}

// Started reports whether Start was called without a matching Stop
func (c *Container) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// ClassOutcome is the result of enabling one class
type ClassOutcome struct {
	Class    models.ClassID
	Outcome  telemetry.Outcome
	Err      error
	Duration time.Duration
}

// Report lists class outcomes in input order
type Report struct {
	Classes []ClassOutcome
}

// Count returns how many classes ended with outcome
func (r *Report) Count(outcome telemetry.Outcome) int {
	n := 0
	for _, c := range r.Classes {
		if c.Outcome == outcome {
			n++
		}
	}
	return n
}

// Enable builds and registers the interception model of every class.
// Classes are independent: a deployment error fails its class only and all
// errors are returned together, in input order.
func (c *Container) Enable(ctx context.Context, classes []*models.ClassMetadata) (*Report, error) {
	if !c.Started() {
		return nil, errors.New(errors.IllegalStateErrorCode, "container is not started")
	}

	report := &Report{Classes: make([]ClassOutcome, len(classes))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, class := range classes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Classes[i] = c.enable(gctx, class)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	c.metrics.SetModels(c.models.Size())

	errs := errors.NewMultipleErrors()
	for _, outcome := range report.Classes {
		errs.Append(outcome.Err)
	}
	c.logger.Info("classes enabled",
		"registered", report.Count(telemetry.OutcomeRegistered),
		"skipped", report.Count(telemetry.OutcomeSkipped),
		"failed", report.Count(telemetry.OutcomeFailed))
	return report, errs.ErrorOrNil()
}

func (c *Container) enable(ctx context.Context, class *models.ClassMetadata) ClassOutcome {
	_, span := c.tracer.Start(ctx, "weave.enable",
		trace.WithAttributes(attribute.String("weave.class", string(class.ID))))
	defer span.End()

	start := time.Now()
	result, err := c.initializer.Init(class)
	outcome := ClassOutcome{Class: class.ID, Duration: time.Since(start)}

	switch {
	case err != nil:
		outcome.Outcome = telemetry.OutcomeFailed
		outcome.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var deployment *errors.DeploymentError
		if stderrors.As(err, &deployment) {
			c.metrics.RecordDeploymentError(string(deployment.Reason))
		}
		c.logger.Warn("class enablement failed", "class", string(class.ID), "error", err)
	case result.Registered:
		outcome.Outcome = telemetry.OutcomeRegistered
		span.SetAttributes(attribute.Int("weave.interceptors", len(result.Model.AllInterceptors())))
	default:
		outcome.Outcome = telemetry.OutcomeSkipped
	}

	span.SetAttributes(attribute.String("weave.outcome", string(outcome.Outcome)))
	c.metrics.RecordClass(outcome.Outcome, outcome.Duration)
	return outcome
}

// String summarizes the report
func (r *Report) String() string {
	return fmt.Sprintf("%d registered, %d skipped, %d failed",
		r.Count(telemetry.OutcomeRegistered), r.Count(telemetry.OutcomeSkipped), r.Count(telemetry.OutcomeFailed))
}
