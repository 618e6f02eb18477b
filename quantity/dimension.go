package quantity

import (
	"strconv"
	"strings"
)

// Dimension is an exponent vector over the seven SI base units, in the order
// metre, kilogram, second, ampere, kelvin, mole, candela. Two quantities are
// unit-compatible iff their Dimensions are equal after this normal form, so
// derived units simplify for free: V/A and Ω are the same vector.
type Dimension [7]int8

var baseSymbols = [7]string{"m", "kg", "s", "A", "K", "mol", "cd"}

// Derived electrical dimensions used throughout the component libraries.
var (
	Dimensionless = Dimension{}
	Metre         = Dimension{1, 0, 0, 0, 0, 0, 0}
	Kilogram      = Dimension{0, 1, 0, 0, 0, 0, 0}
	Second        = Dimension{0, 0, 1, 0, 0, 0, 0}
	Ampere        = Dimension{0, 0, 0, 1, 0, 0, 0}
	Kelvin        = Dimension{0, 0, 0, 0, 1, 0, 0}

	Hertz = Dimension{0, 0, -1, 0, 0, 0, 0}
	Volt  = Dimension{2, 1, -3, -1, 0, 0, 0}
	Ohm   = Dimension{2, 1, -3, -2, 0, 0, 0}
	Watt  = Dimension{2, 1, -3, 0, 0, 0, 0}
	Farad = Dimension{-2, -1, 4, 2, 0, 0, 0}
	Henry = Dimension{2, 1, -2, -2, 0, 0, 0}
)

// Mul returns the dimension of a product: exponents add.
func (d Dimension) Mul(o Dimension) Dimension {
	var r Dimension
	for i := range d {
		r[i] = d[i] + o[i]
	}
	return r
}

// Div returns the dimension of a quotient: exponents subtract.
func (d Dimension) Div(o Dimension) Dimension {
	var r Dimension
	for i := range d {
		r[i] = d[i] - o[i]
	}
	return r
}

// IsDimensionless reports whether every exponent is zero.
func (d Dimension) IsDimensionless() bool {
	return d == Dimension{}
}

var derivedSymbols = []struct {
	dim    Dimension
	symbol string
}{
	{Volt, "V"},
	{Ohm, "Ω"},
	{Watt, "W"},
	{Farad, "F"},
	{Henry, "H"},
	{Hertz, "Hz"},
	{Ampere, "A"},
	{Second, "s"},
}

func (d Dimension) String() string {
	if d.IsDimensionless() {
		return ""
	}
	for _, ds := range derivedSymbols {
		if d == ds.dim {
			return ds.symbol
		}
	}
	var sbb strings.Builder
	for i, e := range d {
		if e == 0 {
			continue
		}
		if sbb.Len() > 0 {
			sbb.WriteByte('·')
		}
		sbb.WriteString(baseSymbols[i])
		if e != 1 {
			sbb.WriteByte('^')
			sbb.WriteString(strconv.Itoa(int(e)))
		}
	}
	return sbb.String()
}
