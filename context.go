package inject

import "context"

// injectorContextKey is the key for storing an injector in a context.
type injectorContextKey struct{}

// NewContext returns a copy of ctx carrying inj.
func NewContext(ctx context.Context, inj Injector) context.Context {
	return context.WithValue(ctx, injectorContextKey{}, inj)
}

// FromContext returns the injector carried by ctx.
func FromContext(ctx context.Context) (Injector, error) {
	inj, ok := ctx.Value(injectorContextKey{}).(Injector)
	if !ok || inj == nil {
		return nil, ErrNoInjectorInContext
	}

	if inj.IsDestroyed() {
		return nil, UseAfterDestroyError{Injector: describeInjector(inj), Operation: "get from context"}
	}

	return inj, nil
}
