package graph

import (
	"fmt"
	"sort"
	"strings"
)

// IncompatibleInterfaceShapeError reports a connection between structurally
// mismatched endpoints. The connection is rejected as a whole; no subset of
// pins is merged.
type IncompatibleInterfaceShapeError struct {
	A, B   string // node paths
	Reason string
}

func (e *IncompatibleInterfaceShapeError) Error() string {
	return fmt.Sprintf("cannot connect %q ~ %q: %s", e.A, e.B, e.Reason)
}

// Connect merges the equivalence classes of two pins, or recurses pairwise
// into two interfaces of identical shape. Connecting already-merged pins is
// a no-op. Interfaces with mismatched sub-pin sets are rejected with
// IncompatibleInterfaceShapeError before any net is touched.
func (g *Graph) Connect(a, b *Node) error {
	if a.graph != g || b.graph != g {
		return fmt.Errorf("cannot connect nodes from a different graph")
	}
	if a.removed || b.removed {
		return fmt.Errorf("cannot connect removed nodes")
	}
	if err := checkShape(a, b); err != nil {
		return err
	}
	g.connect(a, b)
	return nil
}

// checkShape validates the whole connection before any mutation.
func checkShape(a, b *Node) error {
	if a.kind != b.kind {
		return &IncompatibleInterfaceShapeError{
			A: a.Path(), B: b.Path(),
			Reason: fmt.Sprintf("%s vs %s", a.kind, b.kind),
		}
	}
	switch a.kind {
	case KindPin:
		return nil
	case KindModule:
		return &IncompatibleInterfaceShapeError{
			A: a.Path(), B: b.Path(),
			Reason: "modules are not connectable; connect their interfaces or pins",
		}
	case KindInterface:
	}

	if len(a.children) != len(b.children) {
		return &IncompatibleInterfaceShapeError{
			A: a.Path(), B: b.Path(),
			Reason: fmt.Sprintf("arity mismatch: %d vs %d members", len(a.children), len(b.children)),
		}
	}
	// Interfaces match by member name, not declaration order.
	for _, ca := range a.children {
		cb, ok := b.childIndex[ca.name]
		if !ok {
			return &IncompatibleInterfaceShapeError{
				A: a.Path(), B: b.Path(),
				Reason: fmt.Sprintf("%q has no member %q (members: %s)", b.Path(), ca.name, memberNames(b)),
			}
		}
		if err := checkShape(ca, cb); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) connect(a, b *Node) {
	if a.kind == KindPin {
		g.edges = append(g.edges, [2]PinID{a.pin, b.pin})
		g.union(a.pin, b.pin)
		return
	}
	for _, ca := range a.children {
		g.connect(ca, b.childIndex[ca.name])
	}
}

func memberNames(n *Node) string {
	names := make([]string, 0, len(n.children))
	for _, c := range n.children {
		names = append(names, c.name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
