package inject_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/junioryono/inject"
	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("root cause")

	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "ConfigurationError",
			err:      inject.ConfigurationError{Key: NameToken, Module: "core", Reason: "bad", Cause: cause},
			sentinel: inject.ErrConfiguration,
			message:  `invalid provider for Token(Name) (module "core"): bad: root cause`,
		},
		{
			name:     "ConfigurationError without key",
			err:      inject.ConfigurationError{Reason: "provider 3 has no key"},
			sentinel: inject.ErrConfiguration,
			message:  "invalid provider: provider 3 has no key",
		},
		{
			name:     "NotFoundError",
			err:      inject.NotFoundError{Key: NameToken, Injector: `injector "app"`},
			sentinel: inject.ErrNotFound,
			message:  `no provider for Token(Name) in injector "app"`,
		},
		{
			name: "NotFoundError with path",
			err: inject.NotFoundError{
				Key:      NameToken,
				Injector: `injector "app"`,
				Path:     []inject.Key{inject.Type[*TService]()},
			},
			sentinel: inject.ErrNotFound,
			message:  `no provider for Token(Name) in injector "app" (*TService -> Token(Name))`,
		},
		{
			name:     "UseAfterDestroyError",
			err:      inject.UseAfterDestroyError{Injector: `injector "app"`, Operation: "get Token(Name)"},
			sentinel: inject.ErrInjectorDestroyed,
			message:  `get Token(Name): injector "app" has been destroyed`,
		},
		{
			name:     "FactoryError",
			err:      inject.FactoryError{Key: NameToken, Cause: cause},
			sentinel: cause,
			message:  "factory for Token(Name) failed: root cause",
		},
		{
			name:     "InitializerError",
			err:      inject.InitializerError{Index: 2, Cause: cause},
			sentinel: cause,
			message:  "environment initializer 2 failed: root cause",
		},
		{
			name:     "DisposalError",
			err:      inject.DisposalError{Context: `injector "app"`, Errors: []error{cause}},
			sentinel: cause,
			message:  `injector "app" disposal failed: root cause`,
		},
		{
			name: "CircularDependencyError",
			err: inject.CircularDependencyError{
				Node: NameToken,
				Path: nil,
			},
			sentinel: inject.ErrCircularDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)
			if tt.message != "" {
				assert.Equal(t, tt.message, tt.err.Error())
			}
		})
	}
}

func TestDisposalError_Multiple(t *testing.T) {
	t.Parallel()

	first := errors.New("first")
	second := errors.New("second")
	err := inject.DisposalError{Context: "injector x", Errors: []error{first, second}}

	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Equal(t, "injector x disposal failed with 2 errors:\n  1. first\n  2. second", err.Error())
}

func TestFactoryPanicError(t *testing.T) {
	t.Parallel()

	err := inject.FactoryPanicError{Key: NameToken, Panic: "oops", Stack: []byte("goroutine 1")}
	assert.Contains(t, err.Error(), "factory for Token(Name) panicked: oops")
	assert.Contains(t, err.Error(), "Stack trace:\ngoroutine 1")
}

func TestCircularDependencyError_Message(t *testing.T) {
	t.Parallel()

	a := inject.NewToken[string]("A")
	b := inject.NewToken[string]("B")
	inj := newInjector(t, []inject.Provider{
		inject.Factory(a, func(s string) string { return s }, b),
		inject.Factory(b, func(s string) string { return s }, a),
	}, nil)

	_, err := inj.Get(a)
	msg := err.Error()
	assert.Contains(t, msg, "    Token(A)\n      ↓\n    Token(B)\n      ↓\n    Token(A) (cycle)")
	assert.Contains(t, msg, "To resolve this:")
}
