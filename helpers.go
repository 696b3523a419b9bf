package inject

import "fmt"

// Get is a generic helper that resolves tok as T.
func Get[T any](inj Injector, tok *Token[T]) (T, error) {
	v, err := inj.Get(tok)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](tok, v)
}

// GetOr resolves tok as T, returning fallback when nothing provides it.
func GetOr[T any](inj Injector, tok *Token[T], fallback T) (T, error) {
	v, err := inj.GetOr(tok, fallback)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](tok, v)
}

// MustGet resolves tok and panics on error.
func MustGet[T any](inj Injector, tok *Token[T]) T {
	v, err := Get(inj, tok)
	if err != nil {
		panic(err)
	}
	return v
}

// Resolve is a generic helper that resolves Type[T]().
func Resolve[T any](inj Injector) (T, error) {
	key := Type[T]()
	v, err := inj.Get(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](key, v)
}

// MustResolve resolves Type[T]() and panics on error.
func MustResolve[T any](inj Injector) T {
	v, err := Resolve[T](inj)
	if err != nil {
		panic(err)
	}
	return v
}

func as[T any](key Key, v any) (T, error) {
	if v == nil {
		var zero T
		return zero, nil
	}

	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, ConfigurationError{
			Key:    key,
			Reason: fmt.Sprintf("resolved %T, which is not a %s", v, formatType(key.Type())),
		}
	}
	return t, nil
}
