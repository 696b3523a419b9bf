// Package chi provides inject integration for the Chi router.
//
// It builds on the net/http integration and additionally binds the Chi
// route context in every request injector.
//
// Example usage:
//
//	r := chi.NewRouter()
//	r.Use(injectchi.ScopeMiddleware(root,
//	    injectchi.WithProviders(inject.ClassOf[*UserController]()),
//	))
//
//	r.Get("/users/{id}", injectchi.Handle((*UserController).GetByID))
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/junioryono/inject"
	injecthttp "github.com/junioryono/inject/http"
)

// RouteContextToken resolves to the Chi route context of the request.
// It is nil when the request was not routed by Chi.
var RouteContextToken = inject.NewToken[*chi.Context]("chi.Context")

// Re-exported request tokens.
var (
	RequestToken        = injecthttp.RequestToken
	ResponseWriterToken = injecthttp.ResponseWriterToken
)

// Option configures the scope middleware.
type Option = injecthttp.Option

// HandlerOption configures the Handle wrapper.
type HandlerOption = injecthttp.HandlerOption

// Options shared with the net/http integration.
var (
	WithProviders              = injecthttp.WithProviders
	WithRequestProviders       = injecthttp.WithRequestProviders
	WithInjectorOptions        = injecthttp.WithInjectorOptions
	WithErrorHandler           = injecthttp.WithErrorHandler
	WithDestroyErrorHandler    = injecthttp.WithDestroyErrorHandler
	WithMiddleware             = injecthttp.WithMiddleware
	WithPanicRecovery          = injecthttp.WithPanicRecovery
	WithPanicHandler           = injecthttp.WithPanicHandler
	WithInjectorErrorHandler   = injecthttp.WithInjectorErrorHandler
	WithResolutionErrorHandler = injecthttp.WithResolutionErrorHandler
)

// ScopeMiddleware creates a Chi middleware that creates a child injector
// of parent for each request. The injector is attached to the request
// context and destroyed when the request completes.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(injectchi.ScopeMiddleware(root))
func ScopeMiddleware(parent inject.Injector, opts ...Option) func(http.Handler) http.Handler {
	opts = append([]Option{
		injecthttp.WithRequestProviders(func(r *http.Request) []inject.Provider {
			return []inject.Provider{inject.Value(RouteContextToken, chi.RouteContext(r.Context()))}
		}),
	}, opts...)

	return injecthttp.ScopeMiddleware(parent, opts...)
}

// Handle wraps a controller method for type-safe resolution from the
// request injector.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
//
// Example:
//
//	r.Get("/users/{id}", injectchi.Handle((*UserController).GetByID))
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	return injecthttp.Handle(method, opts...)
}

// URLParam returns the named route parameter of the request served by inj.
func URLParam(inj inject.Injector, name string) (string, error) {
	rctx, err := inject.Get(inj, RouteContextToken)
	if err != nil {
		return "", err
	}
	if rctx == nil {
		return "", nil
	}
	return rctx.URLParam(name), nil
}
