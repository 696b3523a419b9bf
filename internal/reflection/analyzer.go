package reflection

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"
	"sync"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Analyzer performs reflection-based analysis of factories and classes.
// It caches analysis results for performance.
type Analyzer struct {
	mu      sync.RWMutex
	funcs   map[reflect.Type]*Func
	classes map[reflect.Type]*Class
}

// Func is an analyzed factory function.
type Func struct {
	Type  reflect.Type
	Value reflect.Value

	// Params are the parameter types, in order.
	Params []reflect.Type

	// Result is the produced type.
	Result reflect.Type

	// ReturnsError is true when the function returns (T, error).
	ReturnsError bool
}

// Class is an analyzed struct type whose tagged fields receive dependencies.
type Class struct {
	// Type is the type handed out: the struct itself or a pointer to it.
	Type reflect.Type

	// Struct is the underlying struct type.
	Struct reflect.Type

	Fields []Field
}

// Field is an injectable struct field.
type Field struct {
	Name     string
	Index    []int
	Type     reflect.Type
	Optional bool
}

// PanicError captures a panic raised by user code invoked through this package.
type PanicError struct {
	Panic any
	Stack []byte
}

func (e PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Panic)
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		funcs:   make(map[reflect.Type]*Func),
		classes: make(map[reflect.Type]*Class),
	}
}

// AnalyzeFunc validates fn as a factory: a non-nil function returning
// either T or (T, error).
func (a *Analyzer) AnalyzeFunc(fn any) (*Func, error) {
	if fn == nil {
		return nil, fmt.Errorf("factory cannot be nil")
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func {
		return nil, fmt.Errorf("factory must be a function, got %T", fn)
	}
	if val.IsNil() {
		return nil, fmt.Errorf("factory cannot be nil")
	}

	// Closures share code pointers, so only the signature is cached.
	typ := val.Type()
	a.mu.RLock()
	cached, ok := a.funcs[typ]
	a.mu.RUnlock()
	if ok {
		info := *cached
		info.Value = val
		return &info, nil
	}

	if typ.IsVariadic() {
		return nil, fmt.Errorf("factory %s cannot be variadic", typ)
	}

	info := &Func{Type: typ}
	for i := 0; i < typ.NumIn(); i++ {
		info.Params = append(info.Params, typ.In(i))
	}

	switch typ.NumOut() {
	case 1:
		if typ.Out(0) == errType {
			return nil, fmt.Errorf("factory %s must return a value", typ)
		}
		info.Result = typ.Out(0)
	case 2:
		if typ.Out(1) != errType {
			return nil, fmt.Errorf("factory %s: second result must be error", typ)
		}
		info.Result = typ.Out(0)
		info.ReturnsError = true
	default:
		return nil, fmt.Errorf("factory %s must return T or (T, error)", typ)
	}

	a.mu.Lock()
	a.funcs[typ] = info
	a.mu.Unlock()

	out := *info
	out.Value = val
	return &out, nil
}

// AnalyzeClass validates t as a class: a struct or pointer-to-struct type.
// Exported fields tagged `inject:""` receive dependencies in declaration
// order; `inject:"optional"` marks the dependency as optional.
func (a *Analyzer) AnalyzeClass(t reflect.Type) (*Class, error) {
	if t == nil {
		return nil, fmt.Errorf("class cannot be nil")
	}

	a.mu.RLock()
	if cached, ok := a.classes[t]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	structType := t
	if t.Kind() == reflect.Pointer {
		structType = t.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("class must be a struct or pointer to struct, got %s", t)
	}

	info := &Class{Type: t, Struct: structType}
	for _, f := range reflect.VisibleFields(structType) {
		tag, ok := f.Tag.Lookup("inject")
		if !ok || tag == "-" {
			continue
		}
		if !f.IsExported() {
			return nil, fmt.Errorf("class %s: field %s is tagged but unexported", t, f.Name)
		}

		field := Field{Name: f.Name, Index: f.Index, Type: f.Type}
		for _, opt := range strings.Split(tag, ",") {
			if strings.TrimSpace(opt) == "optional" {
				field.Optional = true
			}
		}
		info.Fields = append(info.Fields, field)
	}

	a.mu.Lock()
	a.classes[t] = info
	a.mu.Unlock()

	return info, nil
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return len(a.funcs) + len(a.classes)
}

// Call invokes the factory. A panic is returned as a PanicError and a
// non-nil error result is returned unchanged.
func (f *Func) Call(args []reflect.Value) (result reflect.Value, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = PanicError{Panic: v, Stack: debug.Stack()}
		}
	}()

	out := f.Value.Call(args)
	if f.ReturnsError && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

// New allocates the class and assigns args to its fields in order.
func (c *Class) New(args []reflect.Value) (result reflect.Value, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = PanicError{Panic: v, Stack: debug.Stack()}
		}
	}()

	ptr := reflect.New(c.Struct)
	elem := ptr.Elem()
	for i, f := range c.Fields {
		elem.FieldByIndex(f.Index).Set(args[i])
	}

	if c.Type.Kind() == reflect.Pointer {
		return ptr, nil
	}
	return elem, nil
}

// Convert returns v as a reflect.Value assignable to t. A nil v yields the
// zero value of t. ok is false when v cannot be assigned to t.
func Convert(v any, t reflect.Type) (reflect.Value, bool) {
	if v == nil {
		return reflect.Zero(t), true
	}

	val := reflect.ValueOf(v)
	if !val.Type().AssignableTo(t) {
		return reflect.Value{}, false
	}
	if val.Type() != t {
		out := reflect.New(t).Elem()
		out.Set(val)
		return out, true
	}
	return val, true
}
