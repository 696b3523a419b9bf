package inject

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/junioryono/inject/internal/registry"
)

// Injector resolves keys to values. An injector owns the providers it was
// created with and delegates everything else to its parent.
//
// Injectors are safe for concurrent use.
type Injector interface {
	// ID returns the unique identifier of the injector.
	ID() string

	// Name returns the name given with WithName, or "".
	Name() string

	// Parent returns the parent injector, or nil for a root.
	Parent() Injector

	// Get resolves key. Keys wrapped with Optional resolve to nil when no
	// provider exists; otherwise a missing provider is a NotFoundError.
	Get(key Key) (any, error)

	// GetOr resolves key, returning notFound when no provider exists.
	// Other failures are still returned as errors.
	GetOr(key Key, notFound any) (any, error)

	// OnDestroy registers a function run by Destroy. Functions run in
	// registration order.
	OnDestroy(hook func()) error

	// Destroy closes the Disposable instances the injector built, runs the
	// destroy hooks and releases cached instances. Only the first call has
	// any effect. Children are not destroyed.
	Destroy() error

	// IsDestroyed reports whether Destroy has been called.
	IsDestroyed() bool
}

var (
	_ Injector = (*injector)(nil)
	_ Injector = (*boundInjector)(nil)
)

type injector struct {
	id     string
	name   string
	parent Injector

	registry *registry.Registry
	env      bool
	root     bool
	logger   *slog.Logger

	mu    sync.Mutex
	slots map[any]*slot

	lifecycle lifecycleManager
	destroyed atomic.Bool
}

// Create builds an injector from providers. parent may be nil.
//
// Providers are validated before anything runs; a malformed list fails with
// a ConfigurationError and no injector is returned. Functions registered
// under EnvironmentInitializer run once, in order, before Create returns.
// If one fails, the injector is destroyed and an InitializerError returned.
func Create(providers []Provider, parent Injector, opts ...Option) (Injector, error) {
	o := options{environment: true}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&o)
		}
	}

	if view, ok := parent.(*boundInjector); ok {
		parent = view.injector
	}
	if parent != nil && parent.IsDestroyed() {
		return nil, UseAfterDestroyError{Injector: describeInjector(parent), Operation: "create child"}
	}

	reg, err := buildRegistry(providers)
	if err != nil {
		return nil, err
	}

	inj := &injector{
		id:       uuid.NewString(),
		name:     o.name,
		parent:   parent,
		registry: reg,
		env:      o.environment,
		root:     o.environment && (parent == nil || o.root),
		logger:   o.logger,
		slots:    make(map[any]*slot),
	}

	if inj.logger == nil {
		if p, ok := parent.(*injector); ok {
			inj.logger = p.logger
		} else {
			inj.logger = slog.New(slog.DiscardHandler)
		}
	}

	if o.validate {
		if err := dependencyGraph(reg).DetectCycles(); err != nil {
			return nil, err
		}
	}

	if err := inj.runInitializers(); err != nil {
		inj.abort(err)
		return nil, err
	}

	if o.eager {
		if err := inj.instantiateEager(); err != nil {
			inj.abort(err)
			return nil, err
		}
	}

	inj.logger.Debug("injector created",
		"injector", inj.String(),
		"providers", reg.Len(),
		"environment", inj.env,
		"root", inj.root)

	return inj, nil
}

func (inj *injector) ID() string { return inj.id }

func (inj *injector) Name() string { return inj.name }

func (inj *injector) Parent() Injector { return inj.parent }

func (inj *injector) IsDestroyed() bool { return inj.destroyed.Load() }

func (inj *injector) String() string {
	if inj.name != "" {
		return fmt.Sprintf("injector %q", inj.name)
	}
	return "injector " + inj.id
}

func (inj *injector) Get(key Key) (any, error) {
	return inj.get(key, nil, false)
}

func (inj *injector) GetOr(key Key, notFound any) (any, error) {
	return inj.get(key, notFound, true)
}

func (inj *injector) get(key Key, notFound any, hasFallback bool) (any, error) {
	return inj.getWith(&resolution{}, key, notFound, hasFallback)
}

func (inj *injector) getWith(r *resolution, key Key, notFound any, hasFallback bool) (any, error) {
	if key == nil {
		return nil, ConfigurationError{Reason: "cannot resolve a nil key"}
	}
	if inj.destroyed.Load() {
		return nil, UseAfterDestroyError{Injector: inj.String(), Operation: "get " + key.String()}
	}

	req := key.request()
	v, found, err := inj.lookup(r, req)
	if err != nil {
		return nil, err
	}

	if !found {
		switch {
		case hasFallback:
			return notFound, nil
		case req.optional:
			return nil, nil
		default:
			return nil, NotFoundError{Key: req.key, Injector: inj.String()}
		}
	}

	return v, nil
}

func (inj *injector) OnDestroy(hook func()) error {
	if hook == nil {
		return nil
	}
	if !inj.lifecycle.onDestroy(hook) {
		return UseAfterDestroyError{Injector: inj.String(), Operation: "register destroy hook"}
	}
	return nil
}

func (inj *injector) Destroy() error {
	if !inj.destroyed.CompareAndSwap(false, true) {
		return nil
	}

	errs := inj.lifecycle.run()

	inj.mu.Lock()
	inj.slots = make(map[any]*slot)
	inj.mu.Unlock()

	if len(errs) > 0 {
		inj.logger.Warn("injector destroyed with errors", "injector", inj.String(), "errors", len(errs))
		return DisposalError{Context: inj.String(), Errors: errs}
	}

	inj.logger.Debug("injector destroyed", "injector", inj.String())
	return nil
}

// abort destroys a half-built injector after a failed Create.
func (inj *injector) abort(cause error) {
	if err := inj.Destroy(); err != nil {
		inj.logger.Error("failed to destroy injector after creation error",
			"injector", inj.String(), "cause", cause, "error", err)
	}
}

func (inj *injector) runInitializers() error {
	if _, ok := inj.registry.Lookup(Key(EnvironmentInitializer)); !ok {
		return nil
	}

	v, err := inj.Get(Self(EnvironmentInitializer))
	if err != nil {
		return err
	}

	for i, fn := range v.([]func() error) {
		if err := callInitializer(fn); err != nil {
			return InitializerError{Index: i, Cause: err}
		}
	}
	return nil
}

func callInitializer(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("panicked: %v", v)
		}
	}()

	return fn()
}

// Initializer registers fn under EnvironmentInitializer.
func Initializer(fn func() error) Provider {
	return Multi(Value(EnvironmentInitializer, fn))
}

// grants reports whether the injector may run a default factory declared
// for scope.
func (inj *injector) grants(scope ProvidedIn) bool {
	switch scope {
	case ProvidedInEnvironment:
		return inj.env
	case ProvidedInRoot:
		return inj.env && inj.root
	default:
		return false
	}
}

// selfBinding returns the injector for the keys every injector binds to
// itself.
func (inj *injector) selfBinding(key Key) (Injector, bool) {
	switch key {
	case InjectorToken, injectorType:
		return inj, true
	case EnvironmentInjectorToken:
		if inj.env {
			return inj, true
		}
	}
	return nil, false
}

// ancestorRegisters reports whether a parent in the chain has a provider for
// key. The walk stops at the first injector of another implementation, which
// is returned so the caller can ask it.
func (inj *injector) ancestorRegisters(key Key) (bool, Injector) {
	for cur := inj.parent; cur != nil; {
		p, ok := cur.(*injector)
		if !ok {
			return false, cur
		}
		if _, found := p.registry.Lookup(key); found {
			return true, nil
		}
		cur = p.parent
	}
	return false, nil
}

func describeInjector(inj Injector) string {
	if s, ok := inj.(fmt.Stringer); ok {
		return s.String()
	}
	if inj.Name() != "" {
		return fmt.Sprintf("injector %q", inj.Name())
	}
	return "injector " + inj.ID()
}

// boundInjector is the injector handed to a factory or class that depends on
// a self-binding. While the factory runs, lookups through it continue the
// resolution that called the factory, so re-entering a key under
// construction is reported as a cycle. Afterwards it behaves like the
// injector it wraps.
type boundInjector struct {
	*injector

	// r is nil once the factory returned; guarded by waitMu.
	r *resolution
}

func (inj *injector) bind(r *resolution) *boundInjector {
	return &boundInjector{injector: inj, r: r}
}

func (b *boundInjector) release() {
	waitMu.Lock()
	b.r = nil
	waitMu.Unlock()
}

func (b *boundInjector) Get(key Key) (any, error) {
	return b.get(key, nil, false)
}

func (b *boundInjector) GetOr(key Key, notFound any) (any, error) {
	return b.get(key, notFound, true)
}

func (b *boundInjector) get(key Key, notFound any, hasFallback bool) (any, error) {
	waitMu.Lock()
	parent := b.r
	if parent == nil {
		waitMu.Unlock()
		return b.injector.get(key, notFound, hasFallback)
	}
	r := &resolution{parent: parent}
	parent.child = r
	waitMu.Unlock()

	defer func() {
		waitMu.Lock()
		if parent.child == r {
			parent.child = nil
		}
		waitMu.Unlock()
	}()

	return b.getWith(r, key, notFound, hasFallback)
}
