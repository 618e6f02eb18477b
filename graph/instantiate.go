package graph

import (
	"fmt"

	"github.com/voltforge/voltc/equation"
)

// Instantiate deep-clones the named definition into a fresh subtree owned by
// parent (root when nil), binding the blueprint's internal connections and
// internally-scoped equations against the new instance. Internal equations
// are declared into store. Fails with DefinitionNotFoundError when the name,
// or any submodule reference inside it, is unknown.
func (g *Graph) Instantiate(reg *Registry, name, binding string, parent *Node, store *equation.Store) (*Node, error) {
	def, err := reg.Get(name)
	if err != nil {
		return nil, err
	}
	return g.instantiate(reg, def, binding, parent, store)
}

func (g *Graph) instantiate(reg *Registry, def *Definition, binding string, parent *Node, store *equation.Store) (*Node, error) {
	mod, err := g.NewModule(parent, binding)
	if err != nil {
		return nil, err
	}
	if err := g.expand(reg, def.root, mod, store); err != nil {
		return nil, err
	}

	for _, c := range def.connections {
		a, err := g.nodeUnder(mod, c[0])
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", def.name, err)
		}
		b, err := g.nodeUnder(mod, c[1])
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", def.name, err)
		}
		if err := g.Connect(a, b); err != nil {
			return nil, err
		}
	}

	lookup := func(path string) (equation.Var, error) {
		return g.variableUnder(mod, path)
	}
	for _, t := range def.equations {
		lhs, err := equation.Bind(t.LHS, lookup)
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", def.name, err)
		}
		rhs, err := equation.Bind(t.RHS, lookup)
		if err != nil {
			return nil, fmt.Errorf("definition %q: %w", def.name, err)
		}
		store.Declare(&equation.Equation{LHS: lhs, RHS: rhs, Op: t.Op, Pos: t.Pos})
	}
	return mod, nil
}

// expand clones the blueprint children of dn under n, recursing into
// referenced definitions.
func (g *Graph) expand(reg *Registry, dn *defNode, n *Node, store *equation.Store) error {
	for _, name := range dn.vars {
		if _, err := g.NewVariable(n, name); err != nil {
			return err
		}
	}
	for _, dc := range dn.children {
		if dc.ref != "" {
			sub, err := reg.Get(dc.ref)
			if err != nil {
				return err
			}
			if _, err := g.instantiate(reg, sub, dc.name, n, store); err != nil {
				return err
			}
			continue
		}
		var child *Node
		var err error
		switch dc.kind {
		case KindModule:
			child, err = g.NewModule(n, dc.name)
		case KindInterface:
			child, err = g.NewInterface(n, dc.name)
		case KindPin:
			child, err = g.NewPin(n, dc.name)
		default:
			panic(fmt.Sprintf("unknown node kind %d", dc.kind))
		}
		if err != nil {
			return err
		}
		if err := g.expand(reg, dc, child, store); err != nil {
			return err
		}
	}
	return nil
}

// nodeUnder resolves a dotted path relative to base.
func (g *Graph) nodeUnder(base *Node, path string) (*Node, error) {
	full := path
	if p := base.Path(); p != "" {
		full = p + "." + path
	}
	return g.Node(full)
}

// variableUnder resolves a dotted variable path relative to base.
func (g *Graph) variableUnder(base *Node, path string) (*Variable, error) {
	full := path
	if p := base.Path(); p != "" {
		full = p + "." + path
	}
	return g.VariableAt(full)
}
