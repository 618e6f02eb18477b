// Package equation holds the declared algebraic relations of a design: an
// expression tree over variables and quantity literals, the Eq/Within
// relation kinds, and a store indexing every equation by the variables it
// references. The store is a pure index; all rewriting happens in the solver.
package equation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/voltforge/voltc/quantity"
)

// Var is a named quantity slot attached to a graph node. The graph package
// supplies the implementation; equations reference variables by identity, so
// a value resolved by the solver is visible to every equation using the
// variable.
type Var interface {
	// ID is a dense creation-order index, stable for a given declaration
	// sequence. The solver relies on it for deterministic ordering.
	ID() uint32
	// Path is the fully-qualified dotted path, unique within the graph.
	Path() string
	// Value returns the resolved quantity, if any.
	Value() (quantity.Quantity, bool)
	// SetValue writes the resolved-value slot. Only the solver calls this;
	// it overwrites solely to narrow a previous derivation.
	SetValue(quantity.Quantity)
}

// Op is one of the four arithmetic operators the constraint grammar allows.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		return "?"
	}
}

// Expr is a node of an expression tree. Exactly three variants exist:
// Literal, VarRef and Binary. Traversals switch exhaustively on them.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// Literal is a constant quantity in an expression.
type Literal struct {
	Value quantity.Quantity
}

// VarRef references a variable by identity.
type VarRef struct {
	V Var
}

// Binary applies Op to two subtrees.
type Binary struct {
	Op          Op
	Left, Right Expr
}

func (Literal) isExpr() {}
func (VarRef) isExpr()  {}
func (Binary) isExpr()  {}

func (l Literal) String() string { return l.Value.String() }
func (v VarRef) String() string  { return v.V.Path() }

func (b Binary) String() string {
	var sbb strings.Builder
	sbb.WriteByte('(')
	sbb.WriteString(b.Left.String())
	sbb.WriteByte(' ')
	sbb.WriteString(b.Op.String())
	sbb.WriteByte(' ')
	sbb.WriteString(b.Right.String())
	sbb.WriteByte(')')
	return sbb.String()
}

// Vars returns every variable referenced by e, in first-occurrence order,
// without duplicates.
func Vars(e Expr) []Var {
	var out []Var
	seen := map[uint32]struct{}{}
	walkVars(e, &out, seen)
	return out
}

func walkVars(e Expr, out *[]Var, seen map[uint32]struct{}) {
	switch n := e.(type) {
	case Literal:
	case VarRef:
		if _, ok := seen[n.V.ID()]; !ok {
			seen[n.V.ID()] = struct{}{}
			*out = append(*out, n.V)
		}
	case Binary:
		walkVars(n.Left, out, seen)
		walkVars(n.Right, out, seen)
	default:
		panic(fmt.Sprintf("unknown expression node %T", e))
	}
}

// Occurrences counts how many times v appears in e. The solver's isolation
// rule table only supports targets occurring exactly once.
func Occurrences(e Expr, v Var) int {
	switch n := e.(type) {
	case Literal:
		return 0
	case VarRef:
		if n.V.ID() == v.ID() {
			return 1
		}
		return 0
	case Binary:
		return Occurrences(n.Left, v) + Occurrences(n.Right, v)
	default:
		panic(fmt.Sprintf("unknown expression node %T", e))
	}
}

// ErrUnresolved is returned by Eval when the expression references a variable
// without a resolved value.
var ErrUnresolved = errors.New("expression references an unresolved variable")

// Eval computes the quantity of e using the current resolved values,
// propagating intervals conservatively.
func Eval(e Expr) (quantity.Quantity, error) {
	switch n := e.(type) {
	case Literal:
		return n.Value, nil
	case VarRef:
		q, ok := n.V.Value()
		if !ok {
			return quantity.Quantity{}, fmt.Errorf("%w: %s", ErrUnresolved, n.V.Path())
		}
		return q, nil
	case Binary:
		l, err := Eval(n.Left)
		if err != nil {
			return quantity.Quantity{}, err
		}
		r, err := Eval(n.Right)
		if err != nil {
			return quantity.Quantity{}, err
		}
		return apply(n.Op, l, r)
	default:
		panic(fmt.Sprintf("unknown expression node %T", e))
	}
}

func apply(op Op, l, r quantity.Quantity) (quantity.Quantity, error) {
	switch op {
	case OpAdd:
		return l.Add(r)
	case OpSub:
		return l.Sub(r)
	case OpMul:
		return l.Mul(r)
	case OpDiv:
		return l.Div(r)
	default:
		panic(fmt.Sprintf("unknown operator %d", op))
	}
}
