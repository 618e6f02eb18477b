package quantity

import (
	"errors"
	"fmt"
	"math"
)

// ErrZeroSpanDivisor is returned by Interval.Div and Quantity.Div when the
// divisor interval contains zero; the image of such a division is unbounded
// and discontinuous, so no interval can represent it.
var ErrZeroSpanDivisor = errors.New("divisor interval spans zero")

// Interval is a closed interval [Lo, Hi] over float64. Arithmetic computes
// the exact image of the operation over the Cartesian product of the operand
// intervals (no first-order approximation).
type Interval struct {
	Lo, Hi float64
}

// Point returns the degenerate interval [v, v].
func Point(v float64) Interval {
	return Interval{Lo: v, Hi: v}
}

func (i Interval) IsPoint() bool {
	return i.Lo == i.Hi
}

func (i Interval) Width() float64 {
	return i.Hi - i.Lo
}

// Contains reports whether o is a subset of i.
func (i Interval) Contains(o Interval) bool {
	return i.Lo <= o.Lo && o.Hi <= i.Hi
}

// ContainsValue reports whether the scalar v lies in i.
func (i Interval) ContainsValue(v float64) bool {
	return i.Lo <= v && v <= i.Hi
}

// Intersect returns the intersection of i and o; ok is false when the
// intersection is empty.
func (i Interval) Intersect(o Interval) (Interval, bool) {
	r := Interval{Lo: math.Max(i.Lo, o.Lo), Hi: math.Min(i.Hi, o.Hi)}
	if r.Lo > r.Hi {
		return Interval{}, false
	}
	return r, true
}

func (i Interval) Add(o Interval) Interval {
	return Interval{Lo: i.Lo + o.Lo, Hi: i.Hi + o.Hi}
}

func (i Interval) Sub(o Interval) Interval {
	return Interval{Lo: i.Lo - o.Hi, Hi: i.Hi - o.Lo}
}

func (i Interval) Mul(o Interval) Interval {
	a := i.Lo * o.Lo
	b := i.Lo * o.Hi
	c := i.Hi * o.Lo
	d := i.Hi * o.Hi
	return Interval{
		Lo: math.Min(math.Min(a, b), math.Min(c, d)),
		Hi: math.Max(math.Max(a, b), math.Max(c, d)),
	}
}

// Div returns the image of i/o. It fails with ErrZeroSpanDivisor when o
// contains zero, including the degenerate [0,0].
func (i Interval) Div(o Interval) (Interval, error) {
	if o.Lo <= 0 && o.Hi >= 0 {
		return Interval{}, ErrZeroSpanDivisor
	}
	inv := Interval{Lo: 1 / o.Hi, Hi: 1 / o.Lo}
	return i.Mul(inv), nil
}

func (i Interval) String() string {
	if i.IsPoint() {
		return fmt.Sprintf("[%g]", i.Lo)
	}
	return fmt.Sprintf("[%g, %g]", i.Lo, i.Hi)
}
