package inject

import (
	"io"

	"github.com/junioryono/inject/internal/graph"
	"github.com/junioryono/inject/internal/registry"
)

// dependencyGraph links every local key to the local keys its records
// depend on. SkipSelf dependencies point at the parent and are left out.
func dependencyGraph(reg *registry.Registry) *graph.DependencyGraph {
	g := graph.NewDependencyGraph()

	for _, k := range reg.Keys() {
		key := k.(Key)
		entry, _ := reg.Lookup(key)

		var deps []graph.NodeKey
		for _, rec := range entry.Records {
			if rec.Kind == registry.Existing {
				deps = append(deps, rec.Target.(Key).request().key)
				continue
			}
			for _, d := range rec.Deps {
				req := d.(Key).request()
				if req.skipSelf {
					continue
				}
				deps = append(deps, req.key)
			}
		}

		// Keys come from the registry and deps are never nil.
		_ = g.AddNode(key, deps...)
	}

	return g
}

// instantiateEager builds every local single factory and class provider,
// dependencies first.
func (inj *injector) instantiateEager() error {
	order, err := dependencyGraph(inj.registry).TopologicalSort()
	if err != nil {
		return err
	}

	for _, k := range order {
		key, ok := k.(Key)
		if !ok {
			continue
		}
		entry, ok := inj.registry.Lookup(key)
		if !ok || entry.Multi {
			continue
		}
		if kind := entry.Record().Kind; kind != registry.Factory && kind != registry.Class {
			continue
		}
		if _, err := inj.Get(Self(key)); err != nil {
			return err
		}
	}

	return nil
}

// Validate reports the first dependency cycle among providers, or any
// configuration error, without creating an injector.
func Validate(providers []Provider) error {
	reg, err := buildRegistry(providers)
	if err != nil {
		return err
	}
	return dependencyGraph(reg).DetectCycles()
}

// WriteDOT writes the dependency graph of providers in Graphviz DOT format.
// Keys provided elsewhere are drawn gray.
func WriteDOT(w io.Writer, providers []Provider) error {
	reg, err := buildRegistry(providers)
	if err != nil {
		return err
	}
	return graph.NewVisualizer(dependencyGraph(reg)).WriteDOT(w)
}

// WriteGraph writes the dependency graph of providers as text.
func WriteGraph(w io.Writer, providers []Provider) error {
	reg, err := buildRegistry(providers)
	if err != nil {
		return err
	}
	return graph.NewVisualizer(dependencyGraph(reg)).WriteText(w)
}
