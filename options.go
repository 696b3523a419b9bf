package inject

import "log/slog"

// Option configures Create.
type Option interface {
	apply(*options)
}

// options holds creation configuration.
type options struct {
	name        string
	logger      *slog.Logger
	environment bool
	root        bool
	eager       bool
	validate    bool
}

// optionFunc adapts a function to Option.
type optionFunc func(*options)

func (f optionFunc) apply(opts *options) {
	f(opts)
}

// WithName sets the injector's display name, used in errors and logs.
func WithName(name string) Option {
	return optionFunc(func(opts *options) {
		opts.name = name
	})
}

// WithLogger sets the logger. Children inherit their parent's logger unless
// they set their own; the default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// WithoutEnvironment creates an injector that is not environment-capable:
// it does not bind EnvironmentInjectorToken and never runs default factories.
func WithoutEnvironment() Option {
	return optionFunc(func(opts *options) {
		opts.environment = false
	})
}

// AsRoot marks an injector with a parent as a root, so it runs
// ProvidedInRoot default factories. Injectors without a parent are roots.
func AsRoot() Option {
	return optionFunc(func(opts *options) {
		opts.root = true
	})
}

// Eager instantiates every local single factory and class provider during
// Create, dependencies first.
func Eager() Option {
	return optionFunc(func(opts *options) {
		opts.eager = true
	})
}

// ValidateOnCreate checks the local providers for dependency cycles before
// anything is instantiated.
func ValidateOnCreate() Option {
	return optionFunc(func(opts *options) {
		opts.validate = true
	})
}
