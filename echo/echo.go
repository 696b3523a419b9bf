// Package echo provides inject integration for the Echo web framework.
//
// Example usage:
//
//	e := echo.New()
//	e.Use(injectecho.ScopeMiddleware(root,
//	    injectecho.WithProviders(inject.ClassOf[*UserController]()),
//	))
//
//	e.GET("/users/:id", injectecho.Handle((*UserController).GetByID))
package echo

import (
	"log/slog"
	"net/http"

	"github.com/junioryono/inject"
	"github.com/labstack/echo/v4"
)

// ContextToken resolves to the echo.Context of the request.
var ContextToken = inject.NewToken[echo.Context]("echo.Context")

// Config holds the configuration for the scope middleware.
type Config struct {
	// Providers are registered in every request injector.
	Providers []inject.Provider

	// InjectorOptions are passed to inject.Create.
	InjectorOptions []inject.Option

	// ErrorHandler is called when the request injector cannot be created
	// or a middleware fails. The default returns a 500 HTTPError.
	ErrorHandler func(echo.Context, error) error

	// DestroyErrorHandler is called when destroying the request injector
	// fails. The default logs with slog.
	DestroyErrorHandler func(error)

	// Middlewares run after the request injector is created, in order.
	Middlewares []func(inject.Injector, echo.Context) error
}

// Option configures the scope middleware.
type Option func(*Config)

// WithProviders adds providers registered in every request injector.
func WithProviders(providers ...inject.Provider) Option {
	return func(c *Config) {
		c.Providers = append(c.Providers, providers...)
	}
}

// WithInjectorOptions sets options passed to inject.Create.
func WithInjectorOptions(opts ...inject.Option) Option {
	return func(c *Config) {
		c.InjectorOptions = append(c.InjectorOptions, opts...)
	}
}

// WithErrorHandler sets the error handler for injector creation failures.
func WithErrorHandler(h func(echo.Context, error) error) Option {
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
// created.
func WithMiddleware(mw func(inject.Injector, echo.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error").SetInternal(err)
		},
		DestroyErrorHandler: func(err error) {
			slog.Error("failed to destroy injector", "error", err)
		},
	}
}

// ScopeMiddleware creates an Echo middleware that creates a child injector
// of parent for each request. The injector is attached to the request
// context and destroyed when the handler returns.
//
// Example:
//
//	e := echo.New()
//	e.Use(injectecho.ScopeMiddleware(root))
func ScopeMiddleware(parent inject.Injector, opts ...Option) echo.MiddlewareFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			providers := append([]inject.Provider{inject.Value(ContextToken, c)}, cfg.Providers...)

			inj, err := inject.Create(providers, parent, cfg.InjectorOptions...)
			if err != nil {
				return cfg.ErrorHandler(c, err)
			}

			defer func() {
				if err := inj.Destroy(); err != nil {
					cfg.DestroyErrorHandler(err)
				}
			}()

			c.SetRequest(c.Request().WithContext(inject.NewContext(c.Request().Context(), inj)))

			for _, mw := range cfg.Middlewares {
				if err := mw(inj, c); err != nil {
					return cfg.ErrorHandler(c, err)
				}
			}

			return next(c)
		}
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(echo.Context, any) error

	// InjectorErrorHandler is called when the request has no usable
	// injector.
	InjectorErrorHandler func(echo.Context, error) error

	// ResolutionErrorHandler is called when the controller cannot be
	// resolved.
	ResolutionErrorHandler func(echo.Context, error) error
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
func WithPanicHandler(h func(echo.Context, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithInjectorErrorHandler sets the handler for requests without an
// injector.
func WithInjectorErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.InjectorErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the handler for controller resolution
// failures.
func WithResolutionErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c echo.Context, v any) error {
			slog.Error("panic in handler", "panic", v)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
		InjectorErrorHandler: func(c echo.Context, err error) error {
			slog.Error("failed to get injector from context", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error").SetInternal(err)
		},
		ResolutionErrorHandler: func(c echo.Context, err error) error {
			slog.Error("failed to resolve controller", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error").SetInternal(err)
		},
	}
}

// Handle wraps a controller method. The controller is resolved as
// inject.Type[T]() from the request injector.
//
// The method signature should be: func(T, echo.Context) error
//
// Example:
//
//	e.GET("/users/:id", injectecho.Handle((*UserController).GetByID))
func Handle[T any](method func(T, echo.Context) error, opts ...HandlerOption) echo.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c echo.Context) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		inj, err := inject.FromContext(c.Request().Context())
		if err != nil {
			return cfg.InjectorErrorHandler(c, err)
		}

		controller, err := inject.Resolve[T](inj)
		if err != nil {
			return cfg.ResolutionErrorHandler(c, err)
		}

		return method(controller, c)
	}
}
