package graph

import (
	"fmt"
	"strings"

	"github.com/voltforge/voltc/equation"
	"github.com/voltforge/voltc/internal/utils"
)

// DanglingEquationError reports a subtree removal that would leave equations
// outside the subtree referencing removed variables. Nothing is mutated when
// this error is returned.
type DanglingEquationError struct {
	Subtree   string
	Equations []string // String() of each offending equation
}

func (e *DanglingEquationError) Error() string {
	return fmt.Sprintf("removing %q would orphan %d equation(s): %s",
		e.Subtree, len(e.Equations), strings.Join(e.Equations, "; "))
}

// RemoveSubtree destroys n and every node, variable, connection and
// internally-scoped equation inside it. Equations referencing both removed
// and surviving variables fail the removal with DanglingEquationError before
// any mutation. The root cannot be removed.
func (g *Graph) RemoveSubtree(n *Node, store *equation.Store) error {
	if n.graph != g {
		return fmt.Errorf("node %q belongs to a different graph", n.Path())
	}
	if n.parent == nil {
		return fmt.Errorf("cannot remove the root module")
	}

	removedVars := map[uint32]struct{}{}
	it := n.SubtreeIterator()
	for node := it(); node != nil; node = it() {
		for _, v := range node.vars {
			removedVars[v.id] = struct{}{}
		}
	}

	var internal []*equation.Equation
	var dangling []string
	for _, eq := range store.Equations() {
		vars := eq.Vars()
		if len(vars) == 0 {
			continue
		}
		inside := 0
		for _, v := range vars {
			if _, ok := removedVars[v.ID()]; ok {
				inside++
			}
		}
		switch {
		case inside == 0:
		case inside == len(vars):
			internal = append(internal, eq)
		default:
			dangling = append(dangling, eq.String())
		}
	}
	if len(dangling) > 0 {
		return &DanglingEquationError{Subtree: n.Path(), Equations: dangling}
	}

	for _, eq := range internal {
		store.Remove(eq)
	}

	// detach from the parent, tombstone pins and drop variables
	parent := n.parent
	for i, c := range parent.children {
		if c == n {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	delete(parent.childIndex, n.name)

	it = n.SubtreeIterator()
	for node := it(); node != nil; node = it() {
		node.removed = true
		if node.kind == KindPin {
			g.pins[node.pin] = nil
		}
	}
	g.vars = utils.Filter(g.vars, func(v *Variable) bool {
		_, ok := removedVars[v.id]
		return !ok
	})

	g.rebuildNets()
	return nil
}
