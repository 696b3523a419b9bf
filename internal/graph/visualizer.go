package graph

import (
	"fmt"
	"io"
	"strings"
)

// Visualizer provides methods to visualize the dependency graph
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format. Keys that were only
// referenced as dependencies are drawn gray.
func (v *Visualizer) WriteDOT(w io.Writer) error {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	ids := make(map[NodeKey]string, len(v.graph.order))
	for i, key := range v.graph.order {
		id := fmt.Sprintf("n%d", i)
		ids[key] = id

		color := "lightblue"
		if !v.graph.nodes[key].Declared {
			color = "lightgray"
		}
		fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q, style=filled];\n", id, key.String(), color)
	}

	for _, key := range v.graph.order {
		for _, dep := range v.graph.nodes[key].Dependencies {
			fmt.Fprintf(&b, "  %s -> %s;\n", ids[key], ids[dep])
		}
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes the graph as an adjacency list in insertion order,
// followed by the cycle report if any.
func (v *Visualizer) WriteText(w io.Writer) error {
	v.graph.mu.RLock()
	defer v.graph.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	for _, key := range v.graph.order {
		node := v.graph.nodes[key]
		deps := make([]string, len(node.Dependencies))
		for i, dep := range node.Dependencies {
			deps[i] = dep.String()
		}

		marker := ""
		if !node.Declared {
			marker = " (external)"
		}
		fmt.Fprintf(&b, "%s%s -> [%s]\n", key.String(), marker, strings.Join(deps, ", "))
	}

	b.WriteString("\n")
	if err := v.graph.detectCycles(); err != nil {
		b.WriteString("Cycles: DETECTED\n")
	} else {
		b.WriteString("Cycles: None (graph is acyclic)\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
