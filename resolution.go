package inject

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/junioryono/inject/internal/graph"
	"github.com/junioryono/inject/internal/reflection"
	"github.com/junioryono/inject/internal/registry"
)

// resolution is one top-level Get. It records the keys under construction
// so re-entry can be reported as a cycle.
type resolution struct {
	// parent is the resolution whose factory started this one through a
	// bound injector.
	parent *resolution
	frames []frame

	// waiting is the slot this resolution blocks on and child the nested
	// resolution its running factory is blocked on; both guarded by waitMu.
	waiting *slot
	child   *resolution
}

type frame struct {
	inj *injector
	key Key
}

// waitMu guards resolution.waiting across all injectors.
var waitMu sync.Mutex

// slot is a cached instance or one under construction.
type slot struct {
	owner *resolution
	done  chan struct{}
	value any
	err   error
}

// elementKey identifies the instance built by one multi record.
type elementKey struct {
	key   Key
	index int
}

// notFoundMarker is passed to foreign parents as the GetOr fallback.
var notFoundMarker = &struct{ _ byte }{}

func (r *resolution) push(inj *injector, key Key) {
	r.frames = append(r.frames, frame{inj: inj, key: key})
}

func (r *resolution) pop() {
	r.frames = r.frames[:len(r.frames)-1]
}

// trail returns the frames of r preceded by those of the resolutions it was
// started from. Parent frames do not change while a nested resolution runs.
func (r *resolution) trail() []frame {
	if r.parent == nil {
		return r.frames
	}
	return append(append([]frame(nil), r.parent.trail()...), r.frames...)
}

// within reports whether r is o or was started while o was building.
func (r *resolution) within(o *resolution) bool {
	for ; r != nil; r = r.parent {
		if r == o {
			return true
		}
	}
	return false
}

func (r *resolution) keys() []Key {
	frames := r.trail()
	if len(frames) == 0 {
		return nil
	}
	keys := make([]Key, len(frames))
	for i, f := range frames {
		keys[i] = f.key
	}
	return keys
}

// cycle builds the error for re-entering key at inj.
func (r *resolution) cycle(inj *injector, key Key) error {
	frames := r.trail()

	start := -1
	for i, f := range frames {
		if f.inj == inj && f.key == key {
			start = i
			break
		}
	}

	var path []graph.NodeKey
	if start < 0 {
		for _, f := range frames {
			path = append(path, f.key)
		}
		path = append(path, key)
	} else {
		for _, f := range frames[start:] {
			path = append(path, f.key)
		}
	}

	inj.logger.Debug("circular dependency", "injector", inj.String(), "key", key.String())
	return CircularDependencyError{Node: key, Path: path}
}

// wait blocks until another resolution finishes s. It fails instead when
// that resolution is itself waiting, directly or not, on this one.
func (r *resolution) wait(inj *injector, key Key, s *slot) (any, error) {
	waitMu.Lock()
	for o := s.owner; o != nil; {
		if r.within(o) {
			waitMu.Unlock()
			return nil, r.cycle(inj, key)
		}
		switch {
		case o.waiting != nil:
			o = o.waiting.owner
		case o.child != nil:
			o = o.child
		default:
			o = nil
		}
	}
	r.waiting = s
	waitMu.Unlock()

	<-s.done

	waitMu.Lock()
	r.waiting = nil
	waitMu.Unlock()

	return s.value, s.err
}

// lookup walks the injector chain for req. found is false when no injector
// provides the key; errors from a provider that was found are returned with
// found set.
func (inj *injector) lookup(r *resolution, req request) (any, bool, error) {
	key := req.key

	var cur Injector = inj
	if req.skipSelf {
		cur = inj.parent
	}

	for cur != nil {
		scope, ok := cur.(*injector)
		if !ok {
			return lookupForeign(cur, key)
		}

		if scope.destroyed.Load() {
			return nil, true, UseAfterDestroyError{Injector: scope.String(), Operation: "get " + key.String()}
		}

		if v, ok := scope.selfBinding(key); ok {
			return v, true, nil
		}

		if entry, ok := scope.registry.Lookup(key); ok {
			v, err := scope.instantiate(r, inj, key, entry)
			return v, true, err
		}

		if def := key.defaults(); def != nil && scope.grants(def.scope) {
			registered, foreign := scope.ancestorRegisters(key)
			if !registered {
				if foreign != nil {
					if v, found, err := lookupForeign(foreign, key); found {
						return v, true, err
					}
				}
				v, err := scope.cached(r, key, key, func() (any, error) {
					return scope.construct(r, key, key.Type(), def.factory.fn, nil, keysToAny(def.factory.deps))
				})
				return v, true, err
			}
		}

		if req.self {
			break
		}
		cur = scope.parent
	}

	return nil, false, nil
}

func lookupForeign(parent Injector, key Key) (any, bool, error) {
	v, err := parent.GetOr(key, notFoundMarker)
	if err != nil {
		return nil, true, err
	}
	if v == any(notFoundMarker) {
		return nil, false, nil
	}
	return v, true, nil
}

// resolveDep resolves a dependency of a provider owned by inj.
func (inj *injector) resolveDep(r *resolution, dep Key) (any, error) {
	req := dep.request()

	v, found, err := inj.lookup(r, req)
	if err != nil {
		return nil, err
	}
	if !found {
		if req.optional {
			return nil, nil
		}
		return nil, NotFoundError{Key: req.key, Injector: inj.String(), Path: r.keys()}
	}
	return v, nil
}

// instantiate produces the value of a local entry. start is the injector the
// lookup began at; aliases resolve from there.
func (inj *injector) instantiate(r *resolution, start *injector, key Key, entry *registry.Entry) (any, error) {
	if entry.Multi {
		return inj.instantiateMulti(r, start, key, entry)
	}

	rec := entry.Record()
	switch rec.Kind {
	case registry.Value:
		return rec.Value, nil
	case registry.Existing:
		return start.resolveAlias(r, key, rec.Target.(Key))
	default:
		return inj.cached(r, key, key, func() (any, error) {
			return inj.construct(r, key, key.Type(), rec.Func, rec.Class, rec.Deps)
		})
	}
}

// instantiateMulti resolves every record of a multi entry, in order, into a
// slice of the key's type. The slice is rebuilt on every call; instances
// built by factory and class records are cached per record.
func (inj *injector) instantiateMulti(r *resolution, start *injector, key Key, entry *registry.Entry) (any, error) {
	sliceType := key.Type()
	elemType := sliceType.Elem()
	out := reflect.MakeSlice(sliceType, 0, len(entry.Records))

	for i, rec := range entry.Records {
		var (
			v   any
			err error
		)

		switch rec.Kind {
		case registry.Value:
			v = rec.Value
		case registry.Existing:
			v, err = start.resolveAlias(r, key, rec.Target.(Key))
		default:
			v, err = inj.cached(r, elementKey{key: key, index: i}, key, func() (any, error) {
				return inj.construct(r, key, elemType, rec.Func, rec.Class, rec.Deps)
			})
		}
		if err != nil {
			return nil, err
		}

		elem, ok := reflection.Convert(v, elemType)
		if !ok {
			return nil, ConfigurationError{
				Key:    key,
				Reason: fmt.Sprintf("multi element %d of type %T is not assignable to %s", i, v, formatType(elemType)),
			}
		}
		out = reflect.Append(out, elem)
	}

	return out.Interface(), nil
}

// resolveAlias resolves target from inj on behalf of alias.
func (inj *injector) resolveAlias(r *resolution, alias, target Key) (any, error) {
	for _, f := range r.trail() {
		if f.inj == inj && f.key == alias {
			return nil, r.cycle(inj, alias)
		}
	}

	r.push(inj, alias)
	defer r.pop()

	return inj.resolveDep(r, target)
}

// cached returns the instance in slot id, building it once. Concurrent
// callers wait for the first build; re-entry from the building resolution
// is a cycle. Failed builds are not cached.
func (inj *injector) cached(r *resolution, id any, key Key, build func() (any, error)) (any, error) {
	inj.mu.Lock()
	if s, ok := inj.slots[id]; ok {
		inj.mu.Unlock()

		select {
		case <-s.done:
			return s.value, s.err
		default:
		}

		if r.within(s.owner) {
			return nil, r.cycle(inj, key)
		}
		return r.wait(inj, key, s)
	}

	s := &slot{owner: r, done: make(chan struct{})}
	inj.slots[id] = s
	inj.mu.Unlock()

	r.push(inj, key)
	v, err := build()
	r.pop()

	inj.mu.Lock()
	if err != nil {
		if inj.slots[id] == s {
			delete(inj.slots, id)
		}
		s.err = err
	} else {
		s.value = v
	}
	inj.mu.Unlock()
	close(s.done)

	return v, err
}

// construct calls a factory or allocates a class with dependencies resolved
// against inj, and tracks the result for disposal.
func (inj *injector) construct(
	r *resolution,
	key Key,
	want reflect.Type,
	fn *reflection.Func,
	class *reflection.Class,
	deps []any,
) (any, error) {
	var params []reflect.Type
	if fn != nil {
		params = fn.Params
	} else {
		params = make([]reflect.Type, len(class.Fields))
		for i, f := range class.Fields {
			params[i] = f.Type
		}
	}

	var views []*boundInjector
	defer func() {
		for _, view := range views {
			view.release()
		}
	}()

	args := make([]reflect.Value, len(deps))
	for i, d := range deps {
		dep := d.(Key)
		v, err := inj.resolveDep(r, dep)
		if err != nil {
			return nil, err
		}
		if self, ok := v.(*injector); ok {
			view := self.bind(r)
			views = append(views, view)
			v = view
		}

		arg, ok := reflection.Convert(v, params[i])
		if !ok {
			return nil, ConfigurationError{
				Key: key,
				Reason: fmt.Sprintf("dependency %s resolved to %T, which is not assignable to %s",
					dep, v, formatType(params[i])),
			}
		}
		args[i] = arg
	}

	var (
		out reflect.Value
		err error
	)
	if fn != nil {
		out, err = fn.Call(args)
	} else {
		out, err = class.New(args)
	}
	if err != nil {
		if panicErr, ok := err.(reflection.PanicError); ok {
			return nil, FactoryPanicError{Key: key, Panic: panicErr.Panic, Stack: panicErr.Stack}
		}
		return nil, FactoryError{Key: key, Cause: err}
	}

	value := out.Interface()
	if value != nil && !reflect.TypeOf(value).AssignableTo(want) {
		return nil, ConfigurationError{
			Key:    key,
			Reason: fmt.Sprintf("factory produced %T, which is not assignable to %s", value, formatType(want)),
		}
	}

	inj.lifecycle.track(value)
	inj.logger.Debug("instance created", "injector", inj.String(), "key", key.String())

	return value, nil
}
