// Package inject provides a hierarchical dependency injection container.
//
// # Overview
//
// An Injector resolves keys to values. Each injector owns a list of
// providers, builds values lazily, caches them for its own lifetime, and
// delegates everything it does not provide to its parent. The package
// provides:
//   - Identity tokens (NewToken) and type keys (Type)
//   - Value, factory, class and alias providers
//   - Multi providers that aggregate into a slice
//   - Shadowing: a child's provider hides its parent's for the same key
//   - Tokens with default factories scoped to root or environment injectors
//   - Initializers run once while an injector is created
//   - Cycle detection, deterministic destroy hooks and disposal
//   - Thread-safe resolution
//
// # Basic Usage
//
//	var BaseURL = inject.NewToken[string]("BaseURL")
//
//	root, err := inject.Create([]inject.Provider{
//	    inject.Value(BaseURL, "https://api.example.com"),
//	    inject.Factory(inject.Type[*Client](), NewClient, BaseURL),
//	}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer root.Destroy()
//
//	client, err := inject.Resolve[*Client](root)
//
// # Keys
//
// A *Token is equal only to itself; two tokens with the same name are
// different keys. Type[T]() is keyed by the Go type, so any package can ask
// for it without sharing a variable. Wrap a key with Optional, Self or
// SkipSelf to change how it is looked up, both in Get and in dependency
// lists.
//
// # Providers
//
//   - Value(key, v) hands out v.
//   - Factory(key, fn, deps...) calls fn with the resolved deps. fn returns
//     T or (T, error). Without deps, the parameter types are used as keys.
//   - Class(key, (*T)(nil), deps...) allocates T and assigns the deps to its
//     exported fields tagged `inject:""`, in order.
//   - Existing(key, target) aliases target, resolved from the asking
//     injector.
//   - Multi(p) makes p contribute one element to a slice-typed key. The
//     nearest injector with multi providers for a key supplies the whole
//     slice; children never append to their parent's elements.
//
// # Hierarchy
//
// Create(providers, parent) makes a child. A value built for a provider is
// cached in the injector that owns the provider, so siblings share what
// their parent provides. Destroying a child leaves the parent untouched;
// destroying a parent makes lookups that reach it from a child fail with
// UseAfterDestroyError.
//
// # Self Bindings
//
// InjectorToken and Type[Injector]() resolve to the injector being asked.
// EnvironmentInjectorToken resolves to the nearest environment-capable
// injector; injectors created with WithoutEnvironment are not.
//
// A factory or class that depends on one of these keys receives a view of
// the injector with the same ID, parent and lifecycle. Lookups made through
// it while the factory runs belong to the same resolution, so asking for a
// key that is still being built fails with CircularDependencyError instead
// of blocking.
//
// # Default Factories
//
//	var Clock = inject.NewToken[func() time.Time]("Clock",
//	    inject.WithFactory(func() func() time.Time { return time.Now }),
//	    inject.WithProvidedIn(inject.ProvidedInEnvironment),
//	)
//
// A token with a default factory resolves without being registered, as
// long as no injector in the chain registers it. ProvidedInEnvironment
// builds one instance per environment injector; ProvidedInRoot builds one in
// the root.
//
// # Initializers
//
//	inject.Create([]inject.Provider{
//	    inject.Initializer(func() error { return migrate(db) }),
//	}, root)
//
// Initializers registered under EnvironmentInitializer run once, in order,
// before Create returns. Registering EnvironmentInitializer without Multi is
// a ConfigurationError.
//
// # Error Handling
//
// Errors are typed and match sentinels with errors.Is:
//
//	_, err := injector.Get(Missing)
//	if errors.Is(err, inject.ErrNotFound) {
//	    var nf inject.NotFoundError
//	    errors.As(err, &nf)
//	    log.Printf("missing %s", nf.Key)
//	}
//
// ConfigurationError, NotFoundError, CircularDependencyError and
// UseAfterDestroyError cover the failure classes of resolution.
package inject
