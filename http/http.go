// Package http provides inject integration for net/http.
//
// ScopeMiddleware creates a child injector for every request and attaches
// it to the request context. Handle resolves a controller from that
// injector and calls one of its methods.
//
// Example usage:
//
//	root, _ := inject.Create(inject.NewModule("app",
//	    inject.Value(DSN, "postgres://..."),
//	).Providers(), nil)
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("GET /users/{id}", injecthttp.Handle((*UserController).GetByID))
//
//	handler := injecthttp.ScopeMiddleware(root,
//	    injecthttp.WithProviders(inject.ClassOf[*UserController]()),
//	)(mux)
package http

import (
	"log/slog"
	"net/http"

	"github.com/junioryono/inject"
)

var (
	// RequestToken resolves to the incoming request in a request injector.
	RequestToken = inject.NewToken[*http.Request]("http.Request")

	// ResponseWriterToken resolves to the response writer in a request
	// injector.
	ResponseWriterToken = inject.NewToken[http.ResponseWriter]("http.ResponseWriter")
)

// Config holds the configuration for the scope middleware.
type Config struct {
	// Providers are registered in every request injector.
	Providers []inject.Provider

	// RequestProviders build additional providers from the request.
	RequestProviders []func(*http.Request) []inject.Provider

	// InjectorOptions are passed to inject.Create.
	InjectorOptions []inject.Option

	// ErrorHandler is called when the request injector cannot be created
	// or a middleware fails. The default responds with 500.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// DestroyErrorHandler is called when destroying the request injector
	// fails. The default logs with slog.
	DestroyErrorHandler func(error)

	// Middlewares run after the request injector is created, in order.
	Middlewares []func(inject.Injector, *http.Request) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithProviders adds providers registered in every request injector.
func WithProviders(providers ...inject.Provider) Option {
	return func(c *Config) {
		c.Providers = append(c.Providers, providers...)
	}
}

// WithRequestProviders adds a function that builds providers from the
// request.
func WithRequestProviders(fn func(*http.Request) []inject.Provider) Option {
	return func(c *Config) {
		c.RequestProviders = append(c.RequestProviders, fn)
	}
}

// WithInjectorOptions sets options passed to inject.Create for every
// request injector.
func WithInjectorOptions(opts ...inject.Option) Option {
	return func(c *Config) {
		c.InjectorOptions = append(c.InjectorOptions, opts...)
	}
}

// WithErrorHandler sets the error handler for injector creation failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithDestroyErrorHandler sets the handler for injector destroy failures.
func WithDestroyErrorHandler(h func(error)) Option {
	return func(c *Config) {
		c.DestroyErrorHandler = h
	}
}

// WithMiddleware adds a function that runs after the request injector is
// created. Middlewares run in the order they are added.
func WithMiddleware(mw func(inject.Injector, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		DestroyErrorHandler: func(err error) {
			slog.Error("failed to destroy injector", "error", err)
		},
	}
}

// NewConfig applies opts to the default configuration. Framework
// integrations built on net/http use it to share option handling.
func NewConfig(opts ...Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// CreateInjector creates the request injector for r.
func (c *Config) CreateInjector(parent inject.Injector, w http.ResponseWriter, r *http.Request) (inject.Injector, error) {
	providers := make([]inject.Provider, 0, len(c.Providers)+2)
	providers = append(providers, c.Providers...)
	for _, fn := range c.RequestProviders {
		providers = append(providers, fn(r)...)
	}
	providers = append(providers,
		inject.Value(RequestToken, r),
		inject.Value(ResponseWriterToken, w),
	)

	return inject.Create(providers, parent, c.InjectorOptions...)
}

// Destroy destroys inj, reporting failures to DestroyErrorHandler.
func (c *Config) Destroy(inj inject.Injector) {
	if err := inj.Destroy(); err != nil {
		c.DestroyErrorHandler(err)
	}
}

// ScopeMiddleware creates a middleware that creates a child injector of
// parent for each request. The injector is attached to the request context
// and can be retrieved with inject.FromContext. It is destroyed when the
// handler returns.
//
// Example:
//
//	handler := injecthttp.ScopeMiddleware(root)(mux)
func ScopeMiddleware(parent inject.Injector, opts ...Option) func(http.Handler) http.Handler {
	cfg := NewConfig(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inj, err := cfg.CreateInjector(parent, w, r)
			if err != nil {
				cfg.ErrorHandler(w, r, err)
				return
			}
			defer cfg.Destroy(inj)

			r = r.WithContext(inject.NewContext(r.Context(), inj))

			for _, mw := range cfg.Middlewares {
				if err := mw(inj, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// InjectorErrorHandler is called when the request has no usable
	// injector.
	InjectorErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when the controller cannot be
	// resolved.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithInjectorErrorHandler sets the handler for requests without an
// injector.
func WithInjectorErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.InjectorErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the handler for controller resolution
// failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(w http.ResponseWriter, r *http.Request, v any) {
			slog.Error("panic in handler", "panic", v)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		InjectorErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("failed to get injector from context", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ResolutionErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("failed to resolve controller", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// Handle wraps a controller method. The controller is resolved as
// inject.Type[T]() from the injector attached to the request context.
//
//	mux.HandleFunc("GET /users/{id}", injecthttp.Handle((*UserController).GetByID))
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		inj, err := inject.FromContext(r.Context())
		if err != nil {
			cfg.InjectorErrorHandler(w, r, err)
			return
		}

		controller, err := inject.Resolve[T](inj)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}
