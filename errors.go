package inject

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/inject/internal/graph"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// Typed errors below match these with errors.Is.

var (
	// ErrNotFound is matched by NotFoundError.
	ErrNotFound = errors.New("no provider found")

	// ErrConfiguration is matched by ConfigurationError.
	ErrConfiguration = errors.New("invalid provider configuration")

	// ErrInjectorDestroyed is matched by UseAfterDestroyError.
	ErrInjectorDestroyed = errors.New("injector has been destroyed")

	// ErrCircularDependency is matched by CircularDependencyError.
	ErrCircularDependency = graph.ErrCircularDependency

	// ErrNoInjectorInContext is returned by FromContext.
	ErrNoInjectorInContext = errors.New("no injector in context")
)

var (
	_ error = ConfigurationError{}
	_ error = NotFoundError{}
	_ error = CircularDependencyError{}
	_ error = UseAfterDestroyError{}
	_ error = FactoryError{}
	_ error = FactoryPanicError{}
	_ error = InitializerError{}
	_ error = DisposalError{}
	_ error = ProvidedInError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// CircularDependencyError reports a dependency cycle. Path holds the keys
// of the cycle in resolution order.
type CircularDependencyError = graph.CircularDependencyError

// ConfigurationError reports a malformed provider or token declaration.
type ConfigurationError struct {
	Key    Key    // nil when the provider has no key
	Module string // module that contributed the provider, if any
	Reason string
	Cause  error
}

func (e ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid provider")
	if e.Key != nil {
		b.WriteString(" for ")
		b.WriteString(e.Key.String())
	}
	if e.Module != "" {
		b.WriteString(fmt.Sprintf(" (module %q)", e.Module))
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e ConfigurationError) Unwrap() error {
	return e.Cause
}

func (e ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NotFoundError indicates that no injector in the chain provides Key.
type NotFoundError struct {
	Key      Key
	Injector string // the injector the lookup started from
	Path     []Key  // keys being constructed when the lookup failed
}

func (e NotFoundError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("no provider for %s in %s", e.Key, e.Injector))

	if len(e.Path) > 0 {
		names := make([]string, 0, len(e.Path)+1)
		for _, k := range e.Path {
			names = append(names, k.String())
		}
		names = append(names, e.Key.String())
		b.WriteString(" (")
		b.WriteString(strings.Join(names, " -> "))
		b.WriteString(")")
	}

	return b.String()
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UseAfterDestroyError indicates an operation on a destroyed injector.
type UseAfterDestroyError struct {
	Injector  string
	Operation string
}

func (e UseAfterDestroyError) Error() string {
	return fmt.Sprintf("%s: %s has been destroyed", e.Operation, e.Injector)
}

func (e UseAfterDestroyError) Is(target error) bool {
	return target == ErrInjectorDestroyed
}

// FactoryError wraps an error returned by a factory.
type FactoryError struct {
	Key   Key
	Cause error
}

func (e FactoryError) Error() string {
	return fmt.Sprintf("factory for %s failed: %v", e.Key, e.Cause)
}

func (e FactoryError) Unwrap() error {
	return e.Cause
}

// FactoryPanicError indicates a factory or class allocation panicked.
// It captures the panic value and stack trace for debugging.
type FactoryPanicError struct {
	Key   Key
	Panic any
	Stack []byte
}

func (e FactoryPanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("factory for %s panicked: %v\n", e.Key, e.Panic))

	if len(e.Stack) > 0 {
		b.WriteString("\nStack trace:\n")
		b.Write(e.Stack)
	}

	return b.String()
}

// InitializerError indicates an EnvironmentInitializer function failed.
// The injector being created is destroyed.
type InitializerError struct {
	Index int
	Cause error
}

func (e InitializerError) Error() string {
	return fmt.Sprintf("environment initializer %d failed: %v", e.Index, e.Cause)
}

func (e InitializerError) Unwrap() error {
	return e.Cause
}

// DisposalError aggregates failures collected while destroying an injector.
type DisposalError struct {
	Context string
	Errors  []error
}

func (e DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s disposal failed: %v", e.Context, e.Errors[0])
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s disposal failed with %d errors:", e.Context, len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return sb.String()
}

func (e DisposalError) Unwrap() []error {
	return e.Errors
}

// ProvidedInError indicates an invalid ProvidedIn value.
type ProvidedInError struct {
	Value any
}

func (e ProvidedInError) Error() string {
	return fmt.Sprintf("invalid provided-in scope: %v", e.Value)
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
