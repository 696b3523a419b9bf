package inject

import (
	"fmt"
	"reflect"
)

// Key identifies a dependency. Keys are compared by identity: a *Token is
// equal only to itself, and Type[T]() is equal to every other Type[T]().
//
// Keys returned by Optional, Self and SkipSelf carry resolution flags and
// are accepted wherever a Key is.
type Key interface {
	// Name is the display name used in errors and logs.
	Name() string

	// Type is the declared type of the resolved value.
	Type() reflect.Type

	String() string

	request() request
	defaults() *tokenDefault
}

// request is a Key with its resolution flags split out.
type request struct {
	key      Key
	optional bool
	self     bool
	skipSelf bool
}

// tokenDefault is the built-in factory of a token.
type tokenDefault struct {
	factory *builtFactory
	scope   ProvidedIn
}

// Token is an identity key for values of type T.
//
//	var BaseURL = inject.NewToken[string]("BaseURL")
//
// Two tokens with the same name are distinct.
type Token[T any] struct {
	name string
	typ  reflect.Type
	def  *tokenDefault
}

// TokenOption configures a token.
type TokenOption interface {
	apply(*tokenOptions)
}

type tokenOptions struct {
	factory    any
	deps       []Key
	providedIn ProvidedIn
	scopeSet   bool
}

type tokenOptionFunc func(*tokenOptions)

func (f tokenOptionFunc) apply(opts *tokenOptions) {
	f(opts)
}

// WithFactory gives the token a default factory. The token then resolves
// without being registered, in every injector its scope grants (see
// WithProvidedIn). The factory's dependencies resolve against the injector
// that runs it. Without WithProvidedIn the scope is ProvidedInRoot.
func WithFactory(fn any, deps ...Key) TokenOption {
	return tokenOptionFunc(func(opts *tokenOptions) {
		opts.factory = fn
		opts.deps = deps
	})
}

// WithProvidedIn sets the scope in which the default factory may run.
func WithProvidedIn(scope ProvidedIn) TokenOption {
	return tokenOptionFunc(func(opts *tokenOptions) {
		opts.providedIn = scope
		opts.scopeSet = true
	})
}

// NewToken creates a token for values of type T. It panics with a
// ConfigurationError when the default factory is malformed, since tokens
// are package-level declarations.
func NewToken[T any](name string, opts ...TokenOption) *Token[T] {
	t := &Token[T]{
		name: name,
		typ:  reflect.TypeFor[T](),
	}

	var o tokenOptions
	for _, opt := range opts {
		opt.apply(&o)
	}

	if o.factory != nil {
		if !o.scopeSet {
			o.providedIn = ProvidedInRoot
		}
		if !o.providedIn.IsValid() {
			panic(ConfigurationError{Key: t, Cause: ProvidedInError{Value: o.providedIn}})
		}

		built, err := buildFactory(t, t.typ, o.factory, o.deps)
		if err != nil {
			panic(err)
		}
		t.def = &tokenDefault{factory: built, scope: o.providedIn}
	}

	return t
}

// Name returns the token's display name.
func (t *Token[T]) Name() string { return t.name }

// Type returns the reflect.Type of T.
func (t *Token[T]) Type() reflect.Type { return t.typ }

// ProvidedIn returns the scope of the default factory, or ProvidedInNone.
func (t *Token[T]) ProvidedIn() ProvidedIn {
	if t.def == nil {
		return ProvidedInNone
	}
	return t.def.scope
}

func (t *Token[T]) String() string {
	return fmt.Sprintf("Token(%s)", t.name)
}

func (t *Token[T]) request() request { return request{key: t} }

func (t *Token[T]) defaults() *tokenDefault { return t.def }

// typeKey keys a dependency by its Go type.
type typeKey struct {
	typ reflect.Type
}

// Type returns the key for type T. Every call for the same T returns an
// equal key, so a type can be registered in one place and requested in another
// without sharing a variable.
func Type[T any]() Key {
	return typeKey{typ: reflect.TypeFor[T]()}
}

// TypeOf returns the key for t.
func TypeOf(t reflect.Type) Key {
	return typeKey{typ: t}
}

func (k typeKey) Name() string { return formatType(k.typ) }

func (k typeKey) Type() reflect.Type { return k.typ }

func (k typeKey) String() string { return formatType(k.typ) }

func (k typeKey) request() request { return request{key: k} }

func (k typeKey) defaults() *tokenDefault { return nil }

// flagged wraps a key with resolution flags.
type flagged struct {
	inner    Key
	optional bool
	self     bool
	skipSelf bool
}

// Optional marks key as optional: a missing provider yields nil instead of
// a NotFoundError.
func Optional(key Key) Key {
	return flagged{inner: key, optional: true}
}

// Self restricts the lookup to the injector being asked.
func Self(key Key) Key {
	return flagged{inner: key, self: true}
}

// SkipSelf starts the lookup at the parent of the injector being asked.
func SkipSelf(key Key) Key {
	return flagged{inner: key, skipSelf: true}
}

func (f flagged) Name() string { return f.inner.Name() }

func (f flagged) Type() reflect.Type { return f.inner.Type() }

func (f flagged) String() string {
	s := f.inner.String()
	switch {
	case f.optional:
		s = "Optional(" + s + ")"
	case f.self:
		s = "Self(" + s + ")"
	case f.skipSelf:
		s = "SkipSelf(" + s + ")"
	}
	return s
}

func (f flagged) request() request {
	r := f.inner.request()
	r.optional = r.optional || f.optional
	r.self = r.self || f.self
	r.skipSelf = r.skipSelf || f.skipSelf
	return r
}

func (f flagged) defaults() *tokenDefault { return f.inner.defaults() }

// Reserved keys.
var (
	// InjectorToken resolves to the injector being asked.
	InjectorToken = NewToken[Injector]("Injector")

	// EnvironmentInjectorToken resolves to the nearest environment-capable
	// injector, starting with the one being asked.
	EnvironmentInjectorToken = NewToken[Injector]("EnvironmentInjector")

	// EnvironmentInitializer collects functions run once while an injector
	// is created. It must be registered with Multi.
	EnvironmentInitializer = NewToken[[]func() error]("EnvironmentInitializer")
)

// injectorType is the key Type[Injector]() resolves to the asking injector.
var injectorType = Type[Injector]()

func isReserved(key Key) bool {
	return key == InjectorToken || key == EnvironmentInjectorToken || key == injectorType
}
