// Package graph implements the hierarchical component graph of a design:
// module instances owning interfaces, pins and variables, and the electrical
// equivalence relation ("nets") over pins.
//
// Nets are a union-find over an integer pin arena (parent-pointer slice with
// path compression and union by rank); connections are never represented as
// cyclic object graphs. Module definitions are immutable blueprints deep-
// cloned per instantiation, so sibling instances share no mutable state.
package graph

import (
	"fmt"
	"strings"

	"github.com/voltforge/voltc/equation"
	"github.com/voltforge/voltc/quantity"
)

// Kind discriminates the three node variants.
type Kind uint8

const (
	// KindModule is a hierarchical container of child nodes.
	KindModule Kind = iota
	// KindInterface is a named bundle of pins and sub-interfaces.
	KindInterface
	// KindPin is a leaf electrical terminal.
	KindPin
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindInterface:
		return "interface"
	case KindPin:
		return "pin"
	default:
		return "?"
	}
}

// PinID indexes the pin arena.
type PinID uint32

// NetID is the canonical identifier of an equivalence class of pins.
type NetID uint32

// Graph owns the node hierarchy, the variable arena and the net relation.
// It is built single-threaded during the compilation pass; the solver only
// writes variable resolved-value slots.
type Graph struct {
	root *Node

	// pin arena; parent/rank implement the union-find over PinIDs.
	pins   []*Node
	parent []PinID
	rank   []uint8

	// edges records every declared pin-level connection so the relation can
	// be rebuilt after a subtree removal.
	edges [][2]PinID

	vars      []*Variable
	nextVarID uint32
}

// New returns a graph holding only the implicit root module.
func New() *Graph {
	g := &Graph{}
	g.root = &Node{kind: KindModule, graph: g}
	return g
}

// Root returns the implicit top-level module.
func (g *Graph) Root() *Node {
	return g.root
}

// Variables returns every live variable in creation order.
func (g *Graph) Variables() []*Variable {
	return g.vars
}

// NewModule creates a child module under parent (root when nil).
func (g *Graph) NewModule(parent *Node, name string) (*Node, error) {
	return g.newNode(parent, name, KindModule)
}

// NewInterface creates a child interface under parent.
func (g *Graph) NewInterface(parent *Node, name string) (*Node, error) {
	return g.newNode(parent, name, KindInterface)
}

// NewPin creates a child pin under parent and registers it in the net arena
// as its own singleton equivalence class.
func (g *Graph) NewPin(parent *Node, name string) (*Node, error) {
	n, err := g.newNode(parent, name, KindPin)
	if err != nil {
		return nil, err
	}
	id := PinID(len(g.pins))
	n.pin = id
	g.pins = append(g.pins, n)
	g.parent = append(g.parent, id)
	g.rank = append(g.rank, 0)
	return n, nil
}

func (g *Graph) newNode(parent *Node, name string, kind Kind) (*Node, error) {
	if parent == nil {
		parent = g.root
	}
	if parent.graph != g {
		return nil, fmt.Errorf("parent node %q belongs to a different graph", parent.Path())
	}
	if name == "" {
		return nil, fmt.Errorf("node name must not be empty")
	}
	if parent.kind == KindPin {
		return nil, fmt.Errorf("pin %q cannot own child nodes", parent.Path())
	}
	if _, ok := parent.childIndex[name]; ok {
		return nil, fmt.Errorf("node %q already has a child named %q", parent.Path(), name)
	}
	n := &Node{kind: kind, name: name, parent: parent, graph: g}
	if parent.childIndex == nil {
		parent.childIndex = map[string]*Node{}
	}
	parent.children = append(parent.children, n)
	parent.childIndex[name] = n
	return n, nil
}

// NewVariable attaches a named quantity slot to owner.
func (g *Graph) NewVariable(owner *Node, name string) (*Variable, error) {
	if owner == nil {
		owner = g.root
	}
	if owner.graph != g {
		return nil, fmt.Errorf("owner node %q belongs to a different graph", owner.Path())
	}
	if _, ok := owner.varIndex[name]; ok {
		return nil, fmt.Errorf("node %q already has a variable named %q", owner.Path(), name)
	}
	v := &Variable{id: g.nextVarID, owner: owner, name: name}
	g.nextVarID++
	if owner.varIndex == nil {
		owner.varIndex = map[string]*Variable{}
	}
	owner.vars = append(owner.vars, v)
	owner.varIndex[name] = v
	g.vars = append(g.vars, v)
	return v, nil
}

// Node resolves a dotted path from the root; the empty path is the root.
func (g *Graph) Node(path string) (*Node, error) {
	if path == "" {
		return g.root, nil
	}
	n := g.root
	for _, seg := range strings.Split(path, ".") {
		child, ok := n.childIndex[seg]
		if !ok {
			return nil, fmt.Errorf("no node %q under %q", seg, n.Path())
		}
		n = child
	}
	return n, nil
}

// VariableAt resolves a dotted variable path: the last segment is the
// variable name, the prefix is the owning node.
func (g *Graph) VariableAt(path string) (*Variable, error) {
	i := strings.LastIndexByte(path, '.')
	nodePath, name := "", path
	if i >= 0 {
		nodePath, name = path[:i], path[i+1:]
	}
	n, err := g.Node(nodePath)
	if err != nil {
		return nil, err
	}
	v, ok := n.varIndex[name]
	if !ok {
		return nil, fmt.Errorf("node %q has no variable %q", n.Path(), name)
	}
	return v, nil
}

// Node is one vertex of the hierarchy: a module, interface or pin. A node is
// owned by its parent; destroying a module destroys its subtree.
type Node struct {
	kind       Kind
	name       string
	parent     *Node
	children   []*Node
	childIndex map[string]*Node
	vars       []*Variable
	varIndex   map[string]*Variable
	pin        PinID // valid when kind == KindPin
	graph      *Graph
	removed    bool
}

func (n *Node) Kind() Kind    { return n.kind }
func (n *Node) Name() string  { return n.name }
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes in creation order. The slice is owned by
// the node.
func (n *Node) Children() []*Node {
	return n.children
}

// Child returns the named child, or nil.
func (n *Node) Child(name string) *Node {
	return n.childIndex[name]
}

// Variable returns the named variable slot, or nil.
func (n *Node) Variable(name string) *Variable {
	return n.varIndex[name]
}

// Variables returns the node's own variables in creation order.
func (n *Node) Variables() []*Variable {
	return n.vars
}

// Pin returns the arena id when the node is a pin.
func (n *Node) Pin() (PinID, bool) {
	return n.pin, n.kind == KindPin
}

// Path returns the fully-qualified dotted path from the root. The root's
// path is empty.
func (n *Node) Path() string {
	if n.parent == nil {
		return ""
	}
	p := n.parent.Path()
	if p == "" {
		return n.name
	}
	return p + "." + n.name
}

func (n *Node) String() string {
	return fmt.Sprintf("%s %q", n.kind, n.Path())
}

// Variable is a named quantity slot attached to a node. It implements
// equation.Var. The resolved-value slot is written only by the solver.
type Variable struct {
	id    uint32
	owner *Node
	name  string

	val      quantity.Quantity
	resolved bool
}

var _ equation.Var = (*Variable)(nil)

// ID is the dense creation-order index of the variable.
func (v *Variable) ID() uint32 { return v.id }

func (v *Variable) Name() string { return v.name }
func (v *Variable) Owner() *Node { return v.owner }

// Path returns the fully-qualified dotted path, unique within the graph.
func (v *Variable) Path() string {
	p := v.owner.Path()
	if p == "" {
		return v.name
	}
	return p + "." + v.name
}

// Value returns the resolved quantity, if any.
func (v *Variable) Value() (quantity.Quantity, bool) {
	return v.val, v.resolved
}

// SetValue writes the resolved-value slot. Only the solver calls this; a
// second write only ever narrows the first.
func (v *Variable) SetValue(q quantity.Quantity) {
	v.val = q
	v.resolved = true
}
