// Package fiber provides inject integration for the Fiber web framework.
//
// Example usage:
//
//	app := fiber.New()
//	app.Use(injectfiber.ScopeMiddleware(root,
//	    injectfiber.WithProviders(inject.ClassOf[*UserController]()),
//	))
//
//	app.Get("/users/:id", injectfiber.Handle((*UserController).GetByID))
package fiber

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/junioryono/inject"
)

// injectorKey is the key used to store the injector in fiber.Ctx.Locals.
const injectorKey = "inject_injector"

// CtxToken resolves to the *fiber.Ctx of the request.
var CtxToken = inject.NewToken[*fiber.Ctx]("fiber.Ctx")

// Config holds the configuration for the scope middleware.
type Config struct {
	// Providers are registered in every request injector.
	Providers []inject.Provider

	// InjectorOptions are passed to inject.Create.
	InjectorOptions []inject.Option

	// ErrorHandler is called when the request injector cannot be created
	// or a middleware fails. The default responds with a 500 JSON body.
	ErrorHandler func(*fiber.Ctx, error) error

	// DestroyErrorHandler is called when destroying the request injector
	// fails. The default logs with slog.
	DestroyErrorHandler func(error)

	// Middlewares run after the request injector is created, in order.
	Middlewares []func(inject.Injector, *fiber.Ctx) error
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
func WithErrorHandler(h func(*fiber.Ctx, error) error) Option {
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
func WithMiddleware(mw func(inject.Injector, *fiber.Ctx) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal Server Error",
	})
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return internalError(c)
		},
		DestroyErrorHandler: func(err error) {
			slog.Error("failed to destroy injector", "error", err)
		},
	}
}

// ScopeMiddleware creates a Fiber middleware that creates a child injector
// of parent for each request. The injector is stored in fiber.Ctx.Locals
// and attached to the UserContext. It is destroyed when the handler chain
// returns.
//
// Example:
//
//	app := fiber.New()
//	app.Use(injectfiber.ScopeMiddleware(root))
func ScopeMiddleware(parent inject.Injector, opts ...Option) fiber.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) error {
		providers := append([]inject.Provider{inject.Value(CtxToken, c)}, cfg.Providers...)

		inj, err := inject.Create(providers, parent, cfg.InjectorOptions...)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		defer func() {
			if err := inj.Destroy(); err != nil {
				cfg.DestroyErrorHandler(err)
			}
		}()

		c.SetUserContext(inject.NewContext(c.UserContext(), inj))
		c.Locals(injectorKey, inj)

		for _, mw := range cfg.Middlewares {
			if err := mw(inj, c); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		return c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*fiber.Ctx, any) error

	// InjectorErrorHandler is called when the request has no usable
	// injector.
	InjectorErrorHandler func(*fiber.Ctx, error) error

	// ResolutionErrorHandler is called when the controller cannot be
	// resolved.
	ResolutionErrorHandler func(*fiber.Ctx, error) error
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
func WithPanicHandler(h func(*fiber.Ctx, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithInjectorErrorHandler sets the handler for requests without an
// injector.
func WithInjectorErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.InjectorErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the handler for controller resolution
// failures.
func WithResolutionErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(c *fiber.Ctx, v any) error {
			slog.Error("panic in handler", "panic", v)
			return internalError(c)
		},
		InjectorErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("failed to get injector from context", "error", err)
			return internalError(c)
		},
		ResolutionErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("failed to resolve controller", "error", err)
			return internalError(c)
		},
	}
}

// Handle wraps a controller method. The controller is resolved as
// inject.Type[T]() from the injector stored in fiber.Ctx.Locals.
//
// The method signature should be: func(T, *fiber.Ctx) error
//
// Example:
//
//	app.Get("/users/:id", injectfiber.Handle((*UserController).GetByID))
func Handle[T any](method func(T, *fiber.Ctx) error, opts ...HandlerOption) fiber.Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		inj, injErr := FromContext(c)
		if injErr != nil {
			return cfg.InjectorErrorHandler(c, injErr)
		}

		controller, resolveErr := inject.Resolve[T](inj)
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(controller, c)
	}
}

// FromContext returns the request injector stored in fiber.Ctx.Locals.
//
// Example:
//
//	inj, err := injectfiber.FromContext(c)
//	users := inject.MustResolve[*UserService](inj)
func FromContext(c *fiber.Ctx) (inject.Injector, error) {
	inj, ok := c.Locals(injectorKey).(inject.Injector)
	if !ok || inj == nil {
		return nil, inject.ErrNoInjectorInContext
	}
	if inj.IsDestroyed() {
		return nil, inject.UseAfterDestroyError{Injector: "request injector", Operation: "get from fiber context"}
	}
	return inj, nil
}
