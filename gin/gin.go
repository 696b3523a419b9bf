// Package gin provides inject integration for the Gin web framework.
//
// Example usage:
//
//	g := gin.New()
//	g.Use(injectgin.ScopeMiddleware(root,
//	    injectgin.WithProviders(inject.ClassOf[*UserController]()),
//	))
//
//	g.POST("/login", injectgin.Handle((*AuthController).Login))
//	g.GET("/users/:id", injectgin.Handle((*UserController).GetByID))
package gin

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junioryono/inject"
)

// ContextToken resolves to the *gin.Context of the request.
var ContextToken = inject.NewToken[*gin.Context]("gin.Context")

// Config holds the configuration for the scope middleware.
type Config struct {
	// Providers are registered in every request injector.
	Providers []inject.Provider

	// InjectorOptions are passed to inject.Create.
	InjectorOptions []inject.Option

	// ErrorHandler is called when the request injector cannot be created
	// or a middleware fails. The default aborts with 500.
	ErrorHandler func(*gin.Context, error)

	// DestroyErrorHandler is called when destroying the request injector
	// fails. The default logs with slog.
	DestroyErrorHandler func(error)

	// Middlewares run after the request injector is created, in order.
	Middlewares []func(inject.Injector, *gin.Context) error
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
func WithErrorHandler(h func(*gin.Context, error)) Option {
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
func WithMiddleware(mw func(inject.Injector, *gin.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *gin.Context, err error) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal Server Error",
			})
		},
		DestroyErrorHandler: func(err error) {
			slog.Error("failed to destroy injector", "error", err)
		},
	}
}

// ScopeMiddleware creates a Gin middleware that creates a child injector of
// parent for each request. The injector is attached to the request context
// and destroyed after the remaining handlers run.
//
// Example:
//
//	g := gin.New()
//	g.Use(injectgin.ScopeMiddleware(root))
func ScopeMiddleware(parent inject.Injector, opts ...Option) gin.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		providers := append([]inject.Provider{inject.Value(ContextToken, c)}, cfg.Providers...)

		inj, err := inject.Create(providers, parent, cfg.InjectorOptions...)
		if err != nil {
			cfg.ErrorHandler(c, err)
			return
		}

		defer func() {
			if err := inj.Destroy(); err != nil {
				cfg.DestroyErrorHandler(err)
			}
		}()

		c.Request = c.Request.WithContext(inject.NewContext(c.Request.Context(), inj))

		for _, mw := range cfg.Middlewares {
			if err := mw(inj, c); err != nil {
				cfg.ErrorHandler(c, err)
				return
			}
		}

		c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*gin.Context, any)

	// InjectorErrorHandler is called when the request has no usable
	// injector.
	InjectorErrorHandler func(*gin.Context, error)

	// ResolutionErrorHandler is called when the controller cannot be
	// resolved.
	ResolutionErrorHandler func(*gin.Context, error)
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
func WithPanicHandler(h func(*gin.Context, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithInjectorErrorHandler sets the handler for requests without an
// injector.
func WithInjectorErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.InjectorErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the handler for controller resolution
// failures.
func WithResolutionErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	abort := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal Server Error",
		})
	}

	return &HandlerConfig{
		PanicHandler: func(c *gin.Context, v any) {
			slog.Error("panic in handler", "panic", v)
			abort(c)
		},
		InjectorErrorHandler: func(c *gin.Context, err error) {
			slog.Error("failed to get injector from context", "error", err)
			abort(c)
		},
		ResolutionErrorHandler: func(c *gin.Context, err error) {
			slog.Error("failed to resolve controller", "error", err)
			abort(c)
		},
	}
}

// Handle wraps a controller method. The controller is resolved as
// inject.Type[T]() from the request injector.
//
// The method signature should be: func(T, *gin.Context)
//
// Example:
//
//	g.GET("/users/:id", injectgin.Handle((*UserController).GetByID))
func Handle[T any](method func(T, *gin.Context), opts ...HandlerOption) gin.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(c, v)
				}
			}()
		}

		inj, err := inject.FromContext(c.Request.Context())
		if err != nil {
			cfg.InjectorErrorHandler(c, err)
			return
		}

		controller, err := inject.Resolve[T](inj)
		if err != nil {
			cfg.ResolutionErrorHandler(c, err)
			return
		}

		method(controller, c)
	}
}
