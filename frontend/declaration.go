// Package frontend is the boundary between the parser collaborators and the
// core: it consumes an ordered sequence of declarations (instantiate,
// connect, assign, assert), builds the component graph and equation store,
// and runs the constraint solver. Name resolution of references is the
// parser's job; the frontend validates what it touches and batches
// structural errors so one compile surfaces every problem at once.
package frontend

import (
	"fmt"

	"github.com/voltforge/voltc/equation"
	"github.com/voltforge/voltc/quantity"
)

// Declaration is one element of the parsed input stream. Exactly four
// variants exist: InstantiateModule, ConnectPins, AssignLiteral and
// DeclareEquation. Declarations are processed strictly in stream order.
type Declaration interface {
	Pos() equation.Pos
	isDeclaration()
}

// InstantiateModule clones the named definition into the graph under the
// binding name.
type InstantiateModule struct {
	Definition string
	Binding    string
	At         equation.Pos
}

// ConnectPins merges the nets of two pins, or pairwise-connects two
// interfaces, addressed by dotted path from the root.
type ConnectPins struct {
	A, B string
	At   equation.Pos
}

// AssignLiteral fixes a variable to a literal quantity. It lowers to an
// Eq equation against the literal; the solver has no special-cased
// assignment path.
type AssignLiteral struct {
	Variable string
	Value    quantity.Quantity
	At       equation.Pos
}

// DeclareEquation records an algebraic relation over variable paths.
type DeclareEquation struct {
	LHS equation.TemplateExpr
	Op  equation.Kind
	RHS equation.TemplateExpr
	At  equation.Pos
}

func (d InstantiateModule) Pos() equation.Pos { return d.At }
func (d ConnectPins) Pos() equation.Pos       { return d.At }
func (d AssignLiteral) Pos() equation.Pos     { return d.At }
func (d DeclareEquation) Pos() equation.Pos   { return d.At }

func (InstantiateModule) isDeclaration() {}
func (ConnectPins) isDeclaration()       {}
func (AssignLiteral) isDeclaration()     {}
func (DeclareEquation) isDeclaration()   {}

// DeclarationError wraps a structural error with the position of the
// declaration that caused it.
type DeclarationError struct {
	At  equation.Pos
	Err error
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("%s: %s", e.At, e.Err)
}

func (e *DeclarationError) Unwrap() error {
	return e.Err
}

// CompileErrors aggregates every structural error of a compile run.
type CompileErrors []error

func (e CompileErrors) Error() string {
	switch len(e) {
	case 0:
		return "no errors"
	case 1:
		return e[0].Error()
	default:
		msg := fmt.Sprintf("%d structural errors:", len(e))
		for _, err := range e {
			msg += "\n\t" + err.Error()
		}
		return msg
	}
}

// Unwrap supports errors.Is/As across the batch.
func (e CompileErrors) Unwrap() []error {
	return e
}
