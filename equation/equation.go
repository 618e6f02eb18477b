package equation

import "fmt"

// Kind discriminates the two relation kinds of the constraint grammar.
type Kind uint8

const (
	// Eq demands lhs == rhs up to tolerance-interval consistency.
	Eq Kind = iota
	// Within demands the resolved interval of lhs be a subset of rhs's
	// interval.
	Within
)

func (k Kind) String() string {
	switch k {
	case Eq:
		return "is"
	case Within:
		return "within"
	default:
		return "?"
	}
}

// Pos is an opaque source location carried through from the input
// declarations so diagnostics can point back at source. The core never
// interprets it.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) IsZero() bool {
	return p == Pos{}
}

func (p Pos) String() string {
	if p.IsZero() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Equation is one declared relation. Equations are immutable once declared
// and reference variables by identity; resolving a variable is visible to
// every equation using it.
type Equation struct {
	LHS, RHS Expr
	Op       Kind
	Pos      Pos

	seq int // declaration order, assigned by the store
}

// Seq is the declaration-order sequence number, or -1 before Declare.
func (eq *Equation) Seq() int {
	if eq.seq == 0 {
		return -1
	}
	return eq.seq - 1
}

// Vars returns every variable the equation references, first-occurrence
// order, no duplicates.
func (eq *Equation) Vars() []Var {
	vars := Vars(eq.LHS)
	seen := make(map[uint32]struct{}, len(vars))
	for _, v := range vars {
		seen[v.ID()] = struct{}{}
	}
	for _, v := range Vars(eq.RHS) {
		if _, ok := seen[v.ID()]; !ok {
			seen[v.ID()] = struct{}{}
			vars = append(vars, v)
		}
	}
	return vars
}

// Occurrences counts occurrences of v across both sides.
func (eq *Equation) Occurrences(v Var) int {
	return Occurrences(eq.LHS, v) + Occurrences(eq.RHS, v)
}

func (eq *Equation) String() string {
	return fmt.Sprintf("%s %s %s", eq.LHS, eq.Op, eq.RHS)
}
