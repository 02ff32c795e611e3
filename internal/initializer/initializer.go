package initializer

import (
	"log/slog"

	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/interception"
	"github.com/toyz/weave/internal/models"
	"github.com/toyz/weave/internal/utils"
)

// Initializer builds and registers the interception model of component classes.
// It holds no per-class state, so one Initializer can serve concurrent calls.
type Initializer struct {
	catalog  BindingCatalog
	resolver BindingResolver
	reader   MetadataReader
	sink     ModelSink
	logger   *slog.Logger
}

// Option configures an Initializer
type Option func(*Initializer)

// WithLogger sets the logger used for per-class diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(i *Initializer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New creates an initializer over the given collaborators
func New(catalog BindingCatalog, resolver BindingResolver, reader MetadataReader, sink ModelSink, opts ...Option) *Initializer {
	i := &Initializer{
		catalog:  catalog,
		resolver: resolver,
		reader:   reader,
		sink:     sink,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Result describes the outcome of initializing one class
type Result struct {
	Model      *interception.Model
	Registered bool // false when the class needs no interception
}

// Init builds the interception model of class, validates it and registers
// it when the class needs interception. Nothing is registered on error.
func (i *Initializer) Init(class *models.ClassMetadata) (*Result, error) {
	p := &pass{
		Initializer: i,
		class:       class,
		constructor: class.BeanConstructor(),
		builder:     interception.NewBuilder(class.ID),
		metadata:    utils.NewCache[models.ClassID, models.InterceptorMetadata](),
	}
	return p.run()
}

// pass holds the state of one initialization
type pass struct {
	*Initializer

	class           *models.ClassMetadata
	constructor     *models.ConstructorMetadata
	builder         *interception.Builder
	businessMethods []*models.MethodMetadata
	metadata        *utils.Cache[models.ClassID, models.InterceptorMetadata]

	hasTargetClassInterceptorMethods bool
}

func (p *pass) run() (*Result, error) {
	logger := p.logger.With("class", string(p.class.ID))

	if err := p.initTargetClassInterceptors(); err != nil {
		return nil, err
	}
	p.businessMethods = p.class.InterceptableMethods()

	if err := p.initExplicitInterceptors(); err != nil {
		return nil, err
	}
	if err := p.initBindingInterceptors(); err != nil {
		return nil, err
	}

	model, err := p.builder.Build()
	if err != nil {
		return nil, err
	}

	if model.IsEmpty() {
		logger.Debug("class needs no interception")
		return &Result{Model: model}, nil
	}

	if p.class.Final {
		return nil, errors.FinalClassWithInterceptors(string(p.class.ID)).WithLocation(p.class.Location)
	}
	if p.constructor.Private {
		return nil, errors.PrivateConstructor(string(p.class.ID), p.constructor.Name).WithLocation(p.constructor.Location)
	}

	p.sink.Put(p.class.ID, model)
	logger.Debug("registered interception model",
		"interceptors", len(model.AllInterceptors()),
		"target_class_interceptors", model.HasTargetClassInterceptors())
	return &Result{Model: model, Registered: true}, nil
}

func (p *pass) initTargetClassInterceptors() error {
	if !p.class.Interceptor {
		kinds := p.class.InterceptorMethodKinds()
		p.hasTargetClassInterceptorMethods = kinds[models.AroundInvoke] ||
			kinds[models.AroundTimeout] ||
			kinds[models.PrePassivate] ||
			kinds[models.PostActivate]
	}
	// an interceptor class intercepts other classes, never itself
	return p.builder.SetHasTargetClassInterceptors(p.hasTargetClassInterceptorMethods)
}

func (p *pass) initExplicitInterceptors() error {
	if err := p.initClassDeclaredInterceptors(); err != nil {
		return err
	}
	if err := p.initConstructorDeclaredInterceptors(); err != nil {
		return err
	}
	for _, method := range p.businessMethods {
		if err := p.initMethodDeclaredInterceptors(method); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) initClassDeclaredInterceptors() error {
	excludeAroundConstruct := p.constructor.ExcludeClassInterceptors
	origin := interception.OriginExplicit{Member: "class"}

	for _, id := range p.class.Interceptors {
		interceptor, err := p.explicitInterceptor(id, string(p.class.ID), p.class.Location)
		if err != nil {
			return err
		}
		for _, kind := range models.AllKinds {
			if excludeAroundConstruct && kind == models.AroundConstruct {
				continue
			}
			if !interceptor.IsEligible(kind) {
				continue
			}
			d, err := p.builder.Intercept(kind)
			if err != nil {
				return err
			}
			if err := d.From(origin).With(interceptor); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pass) initConstructorDeclaredInterceptors() error {
	origin := interception.OriginExplicit{Member: p.constructor.Name}
	for _, id := range p.constructor.Interceptors {
		interceptor, err := p.explicitInterceptor(id, p.constructor.Name, p.constructor.Location)
		if err != nil {
			return err
		}
		d, err := p.builder.Intercept(models.AroundConstruct)
		if err != nil {
			return err
		}
		if err := d.From(origin).With(interceptor); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) initMethodDeclaredInterceptors(method *models.MethodMetadata) error {
	ref := method.Ref()
	if method.ExcludeClassInterceptors {
		if err := p.builder.AddMethodIgnoringGlobalInterceptors(ref); err != nil {
			return err
		}
	}

	if len(method.Interceptors) == 0 {
		return nil
	}
	if method.Final {
		return errors.FinalInterceptedMethod(string(p.class.ID), method.Name, string(method.Interceptors[0])).WithLocation(method.Location)
	}

	kind := models.AroundInvoke
	if method.Timeout {
		kind = models.AroundTimeout
	}

	interceptors := make([]models.InterceptorMetadata, 0, len(method.Interceptors))
	for _, id := range method.Interceptors {
		interceptor, err := p.explicitInterceptor(id, method.Name, method.Location)
		if err != nil {
			return err
		}
		interceptors = append(interceptors, interceptor)
	}

	d, err := p.builder.InterceptMethod(kind, ref)
	if err != nil {
		return err
	}
	return d.From(interception.OriginExplicit{Member: method.Name}).With(interceptors...)
}

func (p *pass) initBindingInterceptors() error {
	classSet, err := classBindings(p.catalog, p.class)
	if err != nil {
		return err
	}
	if err := p.initLifecycleInterceptors(classSet); err != nil {
		return err
	}
	if err := p.initConstructorInterceptors(classSet); err != nil {
		return err
	}
	for _, method := range p.businessMethods {
		if err := p.initBusinessMethodInterceptors(classSet, method); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) initLifecycleInterceptors(classSet *models.BindingSet) error {
	if classSet.Len() == 0 {
		return nil
	}
	bindings := classSet.Values()
	for _, kind := range []models.InterceptionKind{models.PostConstruct, models.PreDestroy, models.PrePassivate, models.PostActivate} {
		resolved, err := p.resolve(kind, bindings)
		if err != nil {
			return err
		}
		if len(resolved) == 0 {
			continue
		}
		d, err := p.builder.Intercept(kind)
		if err != nil {
			return err
		}
		if err := d.From(interception.OriginBinding{Bindings: bindings}).With(resolved...); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) initConstructorInterceptors(classSet *models.BindingSet) error {
	merged, err := memberBindings(p.catalog, p.class.ID, p.constructor.Name, p.constructor.Location, classSet, p.constructor.Annotations)
	if err != nil {
		return err
	}
	if merged.Len() == 0 {
		return nil
	}

	bindings := merged.Values()
	resolved, err := p.resolve(models.AroundConstruct, bindings)
	if err != nil {
		return err
	}
	if len(resolved) == 0 {
		return nil
	}
	d, err := p.builder.Intercept(models.AroundConstruct)
	if err != nil {
		return err
	}
	return d.From(interception.OriginBinding{Bindings: bindings}).WithNew(resolved...)
}

func (p *pass) initBusinessMethodInterceptors(classSet *models.BindingSet, method *models.MethodMetadata) error {
	merged, err := memberBindings(p.catalog, p.class.ID, method.Name, method.Location, classSet, method.Annotations)
	if err != nil {
		return err
	}
	if merged.Len() == 0 {
		return nil
	}

	bindings := merged.Values()
	for _, kind := range []models.InterceptionKind{models.AroundInvoke, models.AroundTimeout} {
		resolved, err := p.resolve(kind, bindings)
		if err != nil {
			return err
		}
		if len(resolved) == 0 {
			continue
		}
		if method.Final {
			return errors.FinalInterceptedMethod(string(p.class.ID), method.Name, string(resolved[0].ClassID())).WithLocation(method.Location)
		}
		d, err := p.builder.InterceptMethod(kind, method.Ref())
		if err != nil {
			return err
		}
		if err := d.From(interception.OriginBinding{Bindings: bindings}).WithNew(resolved...); err != nil {
			return err
		}
	}
	return nil
}

// resolve maps resolved interceptor handles to metadata, memoized per pass
func (p *pass) resolve(kind models.InterceptionKind, bindings []models.Annotation) ([]models.InterceptorMetadata, error) {
	handles := p.resolver.Resolve(kind, bindings)
	resolved := make([]models.InterceptorMetadata, 0, len(handles))
	for _, handle := range handles {
		metadata, err := p.metadata.GetOrCompute(handle.ClassID(), func() (models.InterceptorMetadata, error) {
			return p.reader.InterceptorMetadata(handle)
		})
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, metadata)
	}
	return resolved, nil
}

func (p *pass) explicitInterceptor(id models.ClassID, member string, loc errors.SourceLocation) (models.InterceptorMetadata, error) {
	metadata, err := p.metadata.GetOrCompute(id, func() (models.InterceptorMetadata, error) {
		return p.reader.ClassInterceptorMetadata(id)
	})
	if err != nil {
		return nil, errors.UnknownInterceptor(string(p.class.ID), member, string(id)).WithLocation(loc)
	}
	return metadata, nil
}
