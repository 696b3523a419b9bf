package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCircularDependency is matched by every CircularDependencyError.
var ErrCircularDependency = errors.New("circular dependency detected")

// CircularDependencyError represents a cycle between keys. Path lists the
// keys of the cycle in resolution order, starting and ending before Node
// repeats.
type CircularDependencyError struct {
	Node NodeKey
	Path []NodeKey
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	if len(e.Path) == 0 {
		b.WriteString(fmt.Sprintf("    %s\n", nodeString(e.Node)))
		b.WriteString("      ↓\n")
		b.WriteString(fmt.Sprintf("    %s (cycle)\n", nodeString(e.Node)))
	} else {
		for i, node := range e.Path {
			b.WriteString(fmt.Sprintf("    %s\n", nodeString(node)))
			if i < len(e.Path)-1 {
				b.WriteString("      ↓\n")
			}
		}
		b.WriteString("      ↓\n")
		b.WriteString(fmt.Sprintf("    %s (cycle)\n", nodeString(e.Path[0])))
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Inject the injector and resolve one side lazily\n")
	b.WriteString("  • Move the shared state into a third provider\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}

// Is reports whether target is ErrCircularDependency.
func (e CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

func nodeString(k NodeKey) string {
	if k == nil {
		return "<nil>"
	}
	return k.String()
}
