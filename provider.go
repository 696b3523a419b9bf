package inject

import (
	"fmt"
	"reflect"

	"github.com/junioryono/inject/internal/reflection"
	"github.com/junioryono/inject/internal/registry"
)

// ProviderKind is the recipe a Provider uses to produce its value.
type ProviderKind int

const (
	// KindValue providers hand out a fixed instance.
	KindValue ProviderKind = iota

	// KindFactory providers call a function with resolved dependencies.
	KindFactory

	// KindClass providers allocate a struct and assign resolved
	// dependencies to its fields tagged `inject`.
	KindClass

	// KindExisting providers alias another key.
	KindExisting
)

func (k ProviderKind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindFactory:
		return "factory"
	case KindClass:
		return "class"
	case KindExisting:
		return "existing"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Provider binds a key to a recipe. Use the Value, Factory, Class and
// Existing constructors rather than filling the struct by hand.
type Provider struct {
	Provide Key
	Kind    ProviderKind

	Value    any
	Factory  any
	Class    reflect.Type
	Existing Key

	// Deps are the dependency keys passed to a factory's parameters or a
	// class's tagged fields, in order. When empty, they are derived from
	// the parameter or field types with TypeOf.
	Deps []Key

	// Multi makes the provider contribute one element to the slice
	// resolved for Provide.
	Multi bool

	module string
}

// Value provides a fixed instance.
func Value(key Key, v any) Provider {
	return Provider{Provide: key, Kind: KindValue, Value: v}
}

// Factory provides the result of fn. fn must return T or (T, error); its
// parameters receive deps in order.
//
//	inject.Factory(Repo, func(db *sql.DB, log *slog.Logger) *Repository {
//		return &Repository{db: db, log: log}
//	}, DB, Logger)
func Factory(key Key, fn any, deps ...Key) Provider {
	return Provider{Provide: key, Kind: KindFactory, Factory: fn, Deps: deps}
}

// Class provides a new instance of a struct type. class is a reflect.Type
// or any value of the wanted type, typically a typed nil pointer:
//
//	inject.Class(Store, (*MemoryStore)(nil), Clock)
//
// Each dependency is assigned to the next exported field tagged `inject`.
func Class(key Key, class any, deps ...Key) Provider {
	var t reflect.Type
	switch c := class.(type) {
	case nil:
	case reflect.Type:
		t = c
	default:
		t = reflect.TypeOf(class)
	}
	return Provider{Provide: key, Kind: KindClass, Class: t, Deps: deps}
}

// ClassOf provides T under Type[T]().
func ClassOf[T any](deps ...Key) Provider {
	return Class(Type[T](), reflect.TypeFor[T](), deps...)
}

// Existing makes key an alias of target. The target is resolved from the
// injector being asked, so shadowing applies to it.
func Existing(key, target Key) Provider {
	return Provider{Provide: key, Kind: KindExisting, Existing: target}
}

// Multi marks p as a multi provider.
func Multi(p Provider) Provider {
	p.Multi = true
	return p
}

var analyzer = reflection.New()

// builtFactory is a validated factory with its final dependency list.
type builtFactory struct {
	fn   *reflection.Func
	deps []Key
}

func buildFactory(key Key, want reflect.Type, fn any, deps []Key) (*builtFactory, error) {
	info, err := analyzer.AnalyzeFunc(fn)
	if err != nil {
		return nil, ConfigurationError{Key: key, Reason: "invalid factory", Cause: err}
	}
	if !assignable(info.Result, want) {
		return nil, ConfigurationError{
			Key:    key,
			Reason: fmt.Sprintf("factory returns %s, expected %s", formatType(info.Result), formatType(want)),
		}
	}

	deps, err = checkDeps(key, "factory parameter", info.Params, nil, deps)
	if err != nil {
		return nil, err
	}
	return &builtFactory{fn: info, deps: deps}, nil
}

func buildClass(key Key, want reflect.Type, class reflect.Type, deps []Key) (*reflection.Class, []Key, error) {
	info, err := analyzer.AnalyzeClass(class)
	if err != nil {
		return nil, nil, ConfigurationError{Key: key, Reason: "invalid class", Cause: err}
	}
	if !assignable(info.Type, want) {
		return nil, nil, ConfigurationError{
			Key:    key,
			Reason: fmt.Sprintf("class %s is not assignable to %s", formatType(info.Type), formatType(want)),
		}
	}

	types := make([]reflect.Type, len(info.Fields))
	optional := make([]bool, len(info.Fields))
	for i, f := range info.Fields {
		types[i] = f.Type
		optional[i] = f.Optional
	}

	deps, err = checkDeps(key, "class field", types, optional, deps)
	if err != nil {
		return nil, nil, err
	}
	return info, deps, nil
}

// checkDeps derives deps from types when none are declared and checks that
// each dependency can be assigned to its slot.
func checkDeps(key Key, what string, types []reflect.Type, optional []bool, deps []Key) ([]Key, error) {
	if len(deps) == 0 && len(types) > 0 {
		deps = make([]Key, len(types))
		for i, t := range types {
			deps[i] = TypeOf(t)
			if optional != nil && optional[i] {
				deps[i] = Optional(deps[i])
			}
		}
		return deps, nil
	}

	if len(deps) != len(types) {
		return nil, ConfigurationError{
			Key:    key,
			Reason: fmt.Sprintf("%d dependencies declared for %d %ss", len(deps), len(types), what),
		}
	}

	out := make([]Key, len(deps))
	for i, dep := range deps {
		if dep == nil {
			return nil, ConfigurationError{Key: key, Reason: fmt.Sprintf("dependency %d is nil", i)}
		}
		if !assignable(dep.Type(), types[i]) {
			return nil, ConfigurationError{
				Key: key,
				Reason: fmt.Sprintf("dependency %s (%s) is not assignable to %s %d (%s)",
					dep, formatType(dep.Type()), what, i, formatType(types[i])),
			}
		}
		out[i] = dep
		if optional != nil && optional[i] {
			out[i] = Optional(dep)
		}
	}
	return out, nil
}

// assignable reports whether a value of static type from may be stored as
// to. Interface results are checked again at resolution time.
func assignable(from, to reflect.Type) bool {
	return from.AssignableTo(to) || from.Kind() == reflect.Interface
}

// buildRegistry normalizes providers into a registry.
func buildRegistry(providers []Provider) (*registry.Registry, error) {
	reg := registry.New()

	for i, p := range providers {
		rec, err := buildRecord(i, p)
		if err != nil {
			return nil, err
		}

		if err := reg.Add(rec); err != nil {
			return nil, ConfigurationError{
				Key:    p.Provide,
				Module: p.module,
				Reason: "multi and single providers cannot share a key in one injector",
				Cause:  err,
			}
		}
	}

	return reg, nil
}

func buildRecord(index int, p Provider) (*registry.Record, error) {
	rec, err := normalize(index, p)
	if err != nil {
		if cfgErr, ok := err.(ConfigurationError); ok && cfgErr.Module == "" {
			cfgErr.Module = p.module
			return nil, cfgErr
		}
		return nil, err
	}
	return rec, nil
}

func normalize(index int, p Provider) (*registry.Record, error) {
	if p.Provide == nil {
		return nil, ConfigurationError{Reason: fmt.Sprintf("provider %d has no key", index)}
	}

	key := p.Provide
	if _, ok := key.(flagged); ok {
		return nil, ConfigurationError{Key: key, Reason: "a provided key cannot carry resolution flags"}
	}
	if isReserved(key) {
		return nil, ConfigurationError{Key: key, Reason: "the key is bound by every injector and cannot be provided"}
	}
	if key == Key(EnvironmentInitializer) && !p.Multi {
		return nil, ConfigurationError{
			Key: key,
			Reason: fmt.Sprintf("unexpected type of the %s token value (expected an array, but got %s). "+
				"Please check that the %s token is configured as a multi provider",
				EnvironmentInitializer.Name(), describe(p), EnvironmentInitializer.Name()),
		}
	}

	want := key.Type()
	if p.Multi {
		if want.Kind() != reflect.Slice {
			return nil, ConfigurationError{
				Key:    key,
				Reason: fmt.Sprintf("multi provider requires a slice type, got %s", formatType(want)),
			}
		}
		want = want.Elem()
	}

	rec := &registry.Record{Key: key, Multi: p.Multi}

	switch p.Kind {
	case KindValue:
		if _, ok := reflection.Convert(p.Value, want); !ok {
			return nil, ConfigurationError{
				Key:    key,
				Reason: fmt.Sprintf("value of type %T is not assignable to %s", p.Value, formatType(want)),
			}
		}
		rec.Kind = registry.Value
		rec.Value = p.Value

	case KindFactory:
		built, err := buildFactory(key, want, p.Factory, p.Deps)
		if err != nil {
			return nil, err
		}
		rec.Kind = registry.Factory
		rec.Func = built.fn
		rec.Deps = keysToAny(built.deps)

	case KindClass:
		class, deps, err := buildClass(key, want, p.Class, p.Deps)
		if err != nil {
			return nil, err
		}
		rec.Kind = registry.Class
		rec.Class = class
		rec.Deps = keysToAny(deps)

	case KindExisting:
		if p.Existing == nil {
			return nil, ConfigurationError{Key: key, Reason: "alias target cannot be nil"}
		}
		if !assignable(p.Existing.Type(), want) {
			return nil, ConfigurationError{
				Key: key,
				Reason: fmt.Sprintf("alias target %s (%s) is not assignable to %s",
					p.Existing, formatType(p.Existing.Type()), formatType(want)),
			}
		}
		rec.Kind = registry.Existing
		rec.Target = p.Existing

	default:
		return nil, ConfigurationError{Key: key, Reason: fmt.Sprintf("unknown provider kind %s", p.Kind)}
	}

	return rec, nil
}

// describe names what a provider yields, for error messages.
func describe(p Provider) string {
	switch p.Kind {
	case KindValue:
		if p.Value == nil {
			return "nil"
		}
		return formatType(reflect.TypeOf(p.Value))
	case KindFactory:
		if t := reflect.TypeOf(p.Factory); t != nil && t.Kind() == reflect.Func && t.NumOut() > 0 {
			return formatType(t.Out(0))
		}
		return "factory"
	case KindClass:
		return formatType(p.Class)
	case KindExisting:
		return fmt.Sprintf("alias of %s", p.Existing)
	}
	return p.Kind.String()
}

func keysToAny(keys []Key) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
