package graph

import (
	"fmt"
	"strings"

	"github.com/voltforge/voltc/equation"
)

// DefinitionNotFoundError reports an instantiation of an unknown module
// template.
type DefinitionNotFoundError struct {
	Name string
}

func (e *DefinitionNotFoundError) Error() string {
	return fmt.Sprintf("module definition %q not found", e.Name)
}

// Definition is an immutable blueprint of a module: a node shape, internal
// connections, and internally-scoped equation templates over the
// definition's own variable paths. Instantiation deep-clones the blueprint
// into a fresh, independently owned subtree, so instances never share
// mutable state. Definitions must not be mutated after registration.
type Definition struct {
	name        string
	root        *defNode
	connections [][2]string
	equations   []TemplateEquation
}

// TemplateEquation is an internally-scoped equation of a definition, with
// variable references as definition-local dotted paths.
type TemplateEquation struct {
	LHS, RHS equation.TemplateExpr
	Op       equation.Kind
	Pos      equation.Pos
}

type defNode struct {
	kind     Kind
	name     string
	ref      string // non-empty: expand this definition here
	children []*defNode
	index    map[string]*defNode
	vars     []string
}

func NewDefinition(name string) *Definition {
	return &Definition{name: name, root: &defNode{kind: KindModule}}
}

func (d *Definition) Name() string { return d.name }

// AddModule declares a child module at the dotted path; parents must exist.
func (d *Definition) AddModule(path string) error {
	return d.addNode(path, KindModule, "")
}

// AddInterface declares an interface node at the dotted path.
func (d *Definition) AddInterface(path string) error {
	return d.addNode(path, KindInterface, "")
}

// AddPin declares a pin at the dotted path.
func (d *Definition) AddPin(path string) error {
	return d.addNode(path, KindPin, "")
}

// AddSubmodule declares a child that expands another registered definition
// at instantiation time. The reference is resolved lazily, so mutually
// recursive registration order does not matter; an unknown reference fails
// the instantiation with DefinitionNotFoundError.
func (d *Definition) AddSubmodule(path, definition string) error {
	return d.addNode(path, KindModule, definition)
}

// AddVariable declares a quantity slot; the last path segment is the
// variable name, the prefix the owning node ("" for the module itself).
func (d *Definition) AddVariable(path string) error {
	i := strings.LastIndexByte(path, '.')
	nodePath, name := "", path
	if i >= 0 {
		nodePath, name = path[:i], path[i+1:]
	}
	n, err := d.node(nodePath)
	if err != nil {
		return err
	}
	for _, existing := range n.vars {
		if existing == name {
			return fmt.Errorf("definition %q: node %q already has variable %q", d.name, nodePath, name)
		}
	}
	n.vars = append(n.vars, name)
	return nil
}

// ConnectInternal declares a connection between two definition-local pin or
// interface paths, applied at every instantiation.
func (d *Definition) ConnectInternal(a, b string) {
	d.connections = append(d.connections, [2]string{a, b})
}

// Assert declares an internally-scoped equation over definition-local
// variable paths.
func (d *Definition) Assert(lhs equation.TemplateExpr, op equation.Kind, rhs equation.TemplateExpr, pos equation.Pos) {
	d.equations = append(d.equations, TemplateEquation{LHS: lhs, RHS: rhs, Op: op, Pos: pos})
}

func (d *Definition) addNode(path string, kind Kind, ref string) error {
	i := strings.LastIndexByte(path, '.')
	parentPath, name := "", path
	if i >= 0 {
		parentPath, name = path[:i], path[i+1:]
	}
	parent, err := d.node(parentPath)
	if err != nil {
		return err
	}
	if parent.kind == KindPin {
		return fmt.Errorf("definition %q: pin %q cannot own %q", d.name, parentPath, name)
	}
	if _, ok := parent.index[name]; ok {
		return fmt.Errorf("definition %q: duplicate node %q", d.name, path)
	}
	n := &defNode{kind: kind, name: name, ref: ref}
	if parent.index == nil {
		parent.index = map[string]*defNode{}
	}
	parent.children = append(parent.children, n)
	parent.index[name] = n
	return nil
}

func (d *Definition) node(path string) (*defNode, error) {
	n := d.root
	if path == "" {
		return n, nil
	}
	for _, seg := range strings.Split(path, ".") {
		c, ok := n.index[seg]
		if !ok {
			return nil, fmt.Errorf("definition %q: no node %q", d.name, path)
		}
		n = c
	}
	return n, nil
}

// Registry maps definition names to blueprints.
type Registry struct {
	defs map[string]*Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: map[string]*Definition{}}
}

func (r *Registry) Register(d *Definition) error {
	if _, ok := r.defs[d.name]; ok {
		return fmt.Errorf("definition %q already registered", d.name)
	}
	r.defs[d.name] = d
	return nil
}

// Get returns the named definition, failing with DefinitionNotFoundError.
func (r *Registry) Get(name string) (*Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, &DefinitionNotFoundError{Name: name}
	}
	return d, nil
}
