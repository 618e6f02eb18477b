package solver

import (
	"errors"
	"fmt"

	"github.com/voltforge/voltc/equation"
	"github.com/voltforge/voltc/quantity"
)

// DomainError reports a division whose divisor interval spans zero during
// isolation; the resulting interval would be unbounded and discontinuous.
type DomainError struct {
	Divisor quantity.Interval
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("division by interval %s which spans zero", e.Divisor)
}

func (e *DomainError) Unwrap() error {
	return quantity.ErrZeroSpanDivisor
}

// isolate algebraically solves eq for v, which must occur exactly once
// across both sides. The rearrangement is a closed-form rule table over the
// four arithmetic operators, applying interval-arithmetic inverse rules
// (e.g. solving a = b/c for c yields c = b/a, the exact image of the inverse
// operation). This is not a general computer-algebra system: equation shapes
// are restricted to single-unknown forms at solve time by construction, and
// multi-occurrence targets are rejected before this point.
func isolate(eq *equation.Equation, v equation.Var) (quantity.Quantity, error) {
	var target, other equation.Expr
	if equation.Occurrences(eq.LHS, v) == 1 {
		target, other = eq.LHS, eq.RHS
	} else {
		target, other = eq.RHS, eq.LHS
	}

	k, err := evalSide(other)
	if err != nil {
		return quantity.Quantity{}, err
	}

	for {
		switch n := target.(type) {
		case equation.VarRef:
			return k, nil
		case equation.Binary:
			inLeft := equation.Occurrences(n.Left, v) == 1
			var sibling quantity.Quantity
			if inLeft {
				sibling, err = evalSide(n.Right)
			} else {
				sibling, err = evalSide(n.Left)
			}
			if err != nil {
				return quantity.Quantity{}, err
			}

			switch n.Op {
			case equation.OpAdd:
				// k = target_sub + sibling  =>  target_sub = k - sibling
				k, err = k.Sub(sibling)
			case equation.OpSub:
				if inLeft {
					// k = target_sub - sibling  =>  target_sub = k + sibling
					k, err = k.Add(sibling)
				} else {
					// k = sibling - target_sub  =>  target_sub = sibling - k
					k, err = sibling.Sub(k)
				}
			case equation.OpMul:
				// k = target_sub * sibling  =>  target_sub = k / sibling
				k, err = divChecked(k, sibling)
			case equation.OpDiv:
				if inLeft {
					// k = target_sub / sibling  =>  target_sub = k * sibling
					k, err = k.Mul(sibling)
				} else {
					// k = sibling / target_sub  =>  target_sub = sibling / k
					k, err = divChecked(sibling, k)
				}
			}
			if err != nil {
				return quantity.Quantity{}, err
			}

			if inLeft {
				target = n.Left
			} else {
				target = n.Right
			}
		case equation.Literal:
			// unreachable given the occurrence precondition
			return quantity.Quantity{}, fmt.Errorf("internal: lost track of %s while isolating %s", v.Path(), eq)
		}
	}
}

func divChecked(num, den quantity.Quantity) (quantity.Quantity, error) {
	q, err := num.Div(den)
	if errors.Is(err, quantity.ErrZeroSpanDivisor) {
		return quantity.Quantity{}, &DomainError{Divisor: den.Bounds}
	}
	return q, err
}

// evalSide evaluates a fully-resolved sub-expression, converting zero-span
// divisions into DomainError so diagnostics carry the divisor interval.
func evalSide(e equation.Expr) (quantity.Quantity, error) {
	q, err := equation.Eval(e)
	if errors.Is(err, quantity.ErrZeroSpanDivisor) {
		return quantity.Quantity{}, &DomainError{Divisor: findZeroSpanDivisor(e)}
	}
	return q, err
}

// findZeroSpanDivisor locates the divisor interval that made evaluation
// fail, for the diagnostic. Best effort; returns the zero interval when the
// shape is unexpected.
func findZeroSpanDivisor(e equation.Expr) quantity.Interval {
	switch n := e.(type) {
	case equation.Binary:
		if n.Op == equation.OpDiv {
			if d, err := equation.Eval(n.Right); err == nil {
				if d.Bounds.Lo <= 0 && d.Bounds.Hi >= 0 {
					return d.Bounds
				}
			}
		}
		if iv := findZeroSpanDivisor(n.Left); iv != (quantity.Interval{}) {
			return iv
		}
		return findZeroSpanDivisor(n.Right)
	default:
		return quantity.Interval{}
	}
}
