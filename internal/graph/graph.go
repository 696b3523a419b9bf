package graph

import (
	"fmt"
	"sync"
)

// NodeKey identifies a node in the graph. Implementations must be comparable.
type NodeKey interface {
	String() string
}

// DependencyGraph records which keys depend on which. It is used to validate
// provider lists before any factory runs and to order eager instantiation.
type DependencyGraph struct {
	mu    sync.RWMutex
	nodes map[NodeKey]*Node
	order []NodeKey // insertion order, keeps traversal deterministic
}

// Node represents a key in the dependency graph
type Node struct {
	Key NodeKey

	// Declared reports whether the node was added explicitly, as opposed to
	// being created as the target of another node's edge.
	Declared bool

	Dependencies []NodeKey // keys this node depends on
	Dependents   []NodeKey // keys that depend on this node
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[NodeKey]*Node),
	}
}

// AddNode declares key with the given dependencies. Adding a key twice
// replaces its outgoing edges.
func (g *DependencyGraph) AddNode(key NodeKey, deps ...NodeKey) error {
	if key == nil {
		return fmt.Errorf("node key cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.ensure(key)
	node.Declared = true

	for _, old := range node.Dependencies {
		if n := g.nodes[old]; n != nil {
			n.Dependents = remove(n.Dependents, key)
		}
	}

	node.Dependencies = make([]NodeKey, 0, len(deps))
	for _, dep := range deps {
		if dep == nil {
			return fmt.Errorf("dependency of %s cannot be nil", key)
		}
		node.Dependencies = append(node.Dependencies, dep)
		target := g.ensure(dep)
		target.Dependents = append(target.Dependents, key)
	}

	return nil
}

func (g *DependencyGraph) ensure(key NodeKey) *Node {
	node, ok := g.nodes[key]
	if !ok {
		node = &Node{Key: key}
		g.nodes[key] = node
		g.order = append(g.order, key)
	}
	return node
}

func remove(keys []NodeKey, key NodeKey) []NodeKey {
	out := keys[:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

// DetectCycles returns a CircularDependencyError for the first cycle found,
// walking nodes in insertion order.
func (g *DependencyGraph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.detectCycles()
}

func (g *DependencyGraph) detectCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[NodeKey]int, len(g.nodes))
	var stack []NodeKey

	var visit func(key NodeKey) error
	visit = func(key NodeKey) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, k := range stack {
				if k == key {
					start = i
					break
				}
			}
			path := append([]NodeKey(nil), stack[start:]...)
			return CircularDependencyError{Node: key, Path: path}
		}

		state[key] = visiting
		stack = append(stack, key)
		if node := g.nodes[key]; node != nil {
			for _, dep := range node.Dependencies {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[key] = done
		return nil
	}

	for _, key := range g.order {
		if err := visit(key); err != nil {
			return err
		}
	}
	return nil
}

// IsAcyclic returns true if the graph has no cycles
func (g *DependencyGraph) IsAcyclic() bool {
	return g.DetectCycles() == nil
}

// TopologicalSort returns keys in dependency order (dependencies first).
// Ties keep insertion order.
func (g *DependencyGraph) TopologicalSort() ([]NodeKey, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Kahn's algorithm over the dependency counts.
	remaining := make(map[NodeKey]int, len(g.nodes))
	queue := make([]NodeKey, 0, len(g.nodes))
	for _, key := range g.order {
		remaining[key] = len(g.nodes[key].Dependencies)
		if remaining[key] == 0 {
			queue = append(queue, key)
		}
	}

	result := make([]NodeKey, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		for _, dependent := range g.nodes[current].Dependents {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		err := g.detectCycles()
		if err == nil {
			err = fmt.Errorf("%w: graph contains %d nodes but only %d could be sorted",
				ErrCircularDependency, len(g.nodes), len(result))
		}
		return nil, err
	}

	return result, nil
}

// Dependencies returns the direct dependencies of key.
func (g *DependencyGraph) Dependencies(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[key]; ok {
		return append([]NodeKey(nil), node.Dependencies...)
	}
	return nil
}

// Dependents returns the keys that depend on key.
func (g *DependencyGraph) Dependents(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[key]; ok {
		return append([]NodeKey(nil), node.Dependents...)
	}
	return nil
}

// Node returns the node for key, or nil.
func (g *DependencyGraph) Node(key NodeKey) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.nodes[key]
}

// HasNode checks if a node exists in the graph
func (g *DependencyGraph) HasNode(key NodeKey) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.nodes[key]
	return ok
}

// Size returns the number of nodes in the graph
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// String returns a string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("Node{%s, deps:%d, dependents:%d}",
		n.Key.String(), len(n.Dependencies), len(n.Dependents))
}
