package inject_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/junioryono/inject"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Shared Test Types
// ============================================================================

// TService is a basic service for testing.
type TService struct {
	ID    string
	Value int
}

func (s *TService) GetID() string { return s.ID }

// TDependency is a basic dependency for testing.
type TDependency struct {
	Name string
}

// TServiceWithDeps is allocated by class providers.
type TServiceWithDeps struct {
	Svc *TService    `inject:""`
	Dep *TDependency `inject:""`

	// Unexported and untagged fields are left alone.
	note string
}

// TOptionalDeps has an optional field.
type TOptionalDeps struct {
	Svc *TService    `inject:""`
	Dep *TDependency `inject:"optional"`
}

// TInterface is a basic interface for testing.
type TInterface interface {
	GetID() string
}

// TDisposable records Close calls.
type TDisposable struct {
	Name     string
	closed   atomic.Int32
	closeErr error
	log      *callLog
}

func (d *TDisposable) Close() error {
	d.closed.Add(1)
	if d.log != nil {
		d.log.add("close " + d.Name)
	}
	return d.closeErr
}

func (d *TDisposable) Closed() int { return int(d.closed.Load()) }

// callLog collects events from factories, hooks and disposables.
type callLog struct {
	mu     sync.Mutex
	events []string
}

func (l *callLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// ============================================================================
// Circular Dependency Test Types
// ============================================================================

type TCircularA struct{ B *TCircularB }
type TCircularB struct{ A *TCircularA }

func NewTCircularA(b *TCircularB) *TCircularA { return &TCircularA{B: b} }
func NewTCircularB(a *TCircularA) *TCircularB { return &TCircularB{A: a} }

// ============================================================================
// Shared Tokens and Constructors
// ============================================================================

var (
	NameToken   = inject.NewToken[string]("Name")
	PluginToken = inject.NewToken[[]string]("Plugins")
)

// counting returns a factory for *TService and the number of times it ran.
func counting(id string) (func() *TService, *atomic.Int32) {
	var calls atomic.Int32
	return func() *TService {
		calls.Add(1)
		return &TService{ID: id}
	}, &calls
}

// ============================================================================
// Helpers
// ============================================================================

// newInjector creates an injector destroyed at the end of the test.
func newInjector(t *testing.T, providers []inject.Provider, parent inject.Injector, opts ...inject.Option) inject.Injector {
	t.Helper()

	inj, err := inject.Create(providers, parent, opts...)
	require.NoError(t, err)
	require.NotNil(t, inj)

	t.Cleanup(func() { inj.Destroy() })
	return inj
}

// requireErrorAs asserts err matches target's type and returns it.
func requireErrorAs[E error](t *testing.T, err error) E {
	t.Helper()

	var target E
	require.Error(t, err)
	require.True(t, errors.As(err, &target), "expected %v, got %T: %v", reflect.TypeFor[E](), err, err)
	return target
}

// foreignInjector is an Injector implemented outside the package.
type foreignInjector struct {
	values    map[inject.Key]any
	destroyed atomic.Bool
}

var _ inject.Injector = (*foreignInjector)(nil)

func (f *foreignInjector) ID() string              { return "foreign" }
func (f *foreignInjector) Name() string            { return "foreign" }
func (f *foreignInjector) Parent() inject.Injector { return nil }
func (f *foreignInjector) IsDestroyed() bool       { return f.destroyed.Load() }
func (f *foreignInjector) OnDestroy(func()) error  { return nil }

func (f *foreignInjector) Destroy() error {
	f.destroyed.Store(true)
	return nil
}

func (f *foreignInjector) Get(key inject.Key) (any, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return nil, inject.NotFoundError{Key: key, Injector: "foreign"}
}

func (f *foreignInjector) GetOr(key inject.Key, notFound any) (any, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return notFound, nil
}

type ctxKey struct{}

func contextWith(v string) context.Context {
	return context.WithValue(context.Background(), ctxKey{}, v)
}
