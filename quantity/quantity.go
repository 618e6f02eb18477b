// Package quantity implements physical quantities: scalar values carrying a
// unit dimension and an uncertainty interval, with conservative interval
// arithmetic over the four operators.
//
// Scalars are float64, not rationals. Interval endpoints already bound the
// true value conservatively, and the tolerance grammar of the language (±
// absolute, ± percent, lo..hi) never needs exact rational identity.
package quantity

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned by Add/Sub and comparisons over quantities
// whose dimensions differ after simplification.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Quantity is a physical value: a center point with absolute bounds and a
// unit dimension.
//
// Invariant: Bounds.Lo <= Center <= Bounds.Hi. This is the absolute form of
// the tolerance offset invariant (offset.Lo <= 0 <= offset.Hi around the
// center); the two are interconvertible.
type Quantity struct {
	Dim    Dimension
	Center float64
	Bounds Interval
}

// New returns an exact (zero-tolerance) quantity.
func New(v float64, d Dimension) Quantity {
	return Quantity{Dim: d, Center: v, Bounds: Point(v)}
}

// PlusMinus returns v ± tol (absolute symmetric tolerance). tol must be >= 0.
func PlusMinus(v, tol float64, d Dimension) Quantity {
	return Quantity{Dim: d, Center: v, Bounds: Interval{Lo: v - tol, Hi: v + tol}}
}

// Percent returns v ± pct% (relative symmetric tolerance).
func Percent(v, pct float64, d Dimension) Quantity {
	tol := math.Abs(v) * pct / 100
	return PlusMinus(v, tol, d)
}

// Between returns the quantity covering [lo, hi], centered on the midpoint.
func Between(lo, hi float64, d Dimension) Quantity {
	return Quantity{Dim: d, Center: (lo + hi) / 2, Bounds: Interval{Lo: lo, Hi: hi}}
}

// FromInterval returns a quantity covering i, keeping center when it lies in
// i and snapping to the midpoint otherwise.
func FromInterval(i Interval, center float64, d Dimension) Quantity {
	if !i.ContainsValue(center) {
		center = (i.Lo + i.Hi) / 2
	}
	return Quantity{Dim: d, Center: center, Bounds: i}
}

// Compatible reports whether q and o share a dimension after simplification.
func (q Quantity) Compatible(o Quantity) bool {
	return q.Dim == o.Dim
}

// IsPoint reports whether the quantity carries zero tolerance.
func (q Quantity) IsPoint() bool {
	return q.Bounds.IsPoint()
}

func (q Quantity) Add(o Quantity) (Quantity, error) {
	if !q.Compatible(o) {
		return Quantity{}, fmt.Errorf("%w: %s + %s", ErrDimensionMismatch, q.Dim, o.Dim)
	}
	return Quantity{Dim: q.Dim, Center: q.Center + o.Center, Bounds: q.Bounds.Add(o.Bounds)}, nil
}

func (q Quantity) Sub(o Quantity) (Quantity, error) {
	if !q.Compatible(o) {
		return Quantity{}, fmt.Errorf("%w: %s - %s", ErrDimensionMismatch, q.Dim, o.Dim)
	}
	return Quantity{Dim: q.Dim, Center: q.Center - o.Center, Bounds: q.Bounds.Sub(o.Bounds)}, nil
}

func (q Quantity) Mul(o Quantity) (Quantity, error) {
	return Quantity{Dim: q.Dim.Mul(o.Dim), Center: q.Center * o.Center, Bounds: q.Bounds.Mul(o.Bounds)}, nil
}

func (q Quantity) Div(o Quantity) (Quantity, error) {
	b, err := q.Bounds.Div(o.Bounds)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Dim: q.Dim.Div(o.Dim), Center: q.Center / o.Center, Bounds: b}, nil
}

// Intersect narrows q to the values allowed by both q and o. ok is false when
// the quantities are disjoint. The center is kept when it survives the
// narrowing and snaps to the midpoint otherwise.
func (q Quantity) Intersect(o Quantity) (Quantity, bool, error) {
	if !q.Compatible(o) {
		return Quantity{}, false, fmt.Errorf("%w: %s vs %s", ErrDimensionMismatch, q.Dim, o.Dim)
	}
	b, ok := q.Bounds.Intersect(o.Bounds)
	if !ok {
		return Quantity{}, false, nil
	}
	return FromInterval(b, q.Center, q.Dim), true, nil
}

func (q Quantity) String() string {
	unit := q.Dim.String()
	if unit != "" {
		unit = " " + unit
	}
	if q.IsPoint() {
		return fmt.Sprintf("%g%s", q.Center, unit)
	}
	return fmt.Sprintf("%g%s %s", q.Center, unit, q.Bounds)
}
