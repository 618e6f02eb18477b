package solver

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voltforge/voltc/equation"
	"github.com/voltforge/voltc/graph"
	"github.com/voltforge/voltc/quantity"
	"github.com/voltforge/voltc/report"
)

type fixture struct {
	g     *graph.Graph
	store *equation.Store
	vars  map[string]*graph.Variable
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{g: graph.New(), store: equation.NewStore(), vars: map[string]*graph.Variable{}}
}

func (f *fixture) variable(t *testing.T, path string) *graph.Variable {
	t.Helper()
	if v, ok := f.vars[path]; ok {
		return v
	}
	v, err := f.g.NewVariable(f.g.Root(), path)
	require.NoError(t, err)
	f.vars[path] = v
	return v
}

func (f *fixture) ref(t *testing.T, path string) equation.VarRef {
	return equation.VarRef{V: f.variable(t, path)}
}

func (f *fixture) assign(t *testing.T, path string, q quantity.Quantity) {
	f.store.Declare(&equation.Equation{
		LHS: f.ref(t, path),
		Op:  equation.Eq,
		RHS: equation.Literal{Value: q},
	})
}

func (f *fixture) within(t *testing.T, path string, q quantity.Quantity) {
	f.store.Declare(&equation.Equation{
		LHS: f.ref(t, path),
		Op:  equation.Within,
		RHS: equation.Literal{Value: q},
	})
}

func (f *fixture) assert(lhs equation.Expr, op equation.Kind, rhs equation.Expr) {
	f.store.Declare(&equation.Equation{LHS: lhs, Op: op, RHS: rhs})
}

func (f *fixture) solve(t *testing.T, opts ...Option) *report.Report {
	t.Helper()
	rep, err := Solve(f.g, f.store, opts...)
	require.NoError(t, err)
	return rep
}

func bin(op equation.Op, l, r equation.Expr) equation.Binary {
	return equation.Binary{Op: op, Left: l, Right: r}
}

func TestDeriveChain(t *testing.T) {
	f := newFixture(t)
	// v = 10V, i = 2A, r = v / i
	f.assign(t, "v", quantity.New(10, quantity.Volt))
	f.assign(t, "i", quantity.New(2, quantity.Ampere))
	f.assert(f.ref(t, "r"), equation.Eq, bin(equation.OpDiv, f.ref(t, "v"), f.ref(t, "i")))

	rep := f.solve(t)
	require.Equal(t, report.Derived, rep.StatusOf("r"))
	q, ok := rep.Value("r")
	require.True(t, ok)
	require.Equal(t, quantity.Ohm, q.Dim)
	require.Equal(t, 5.0, q.Center)
}

func TestIsolateAgainstNestedExpression(t *testing.T) {
	f := newFixture(t)
	// 10 = (x + 2) * 4  =>  x = 0.5
	f.assert(
		equation.Literal{Value: quantity.New(10, quantity.Dimensionless)},
		equation.Eq,
		bin(equation.OpMul,
			bin(equation.OpAdd, f.ref(t, "x"), equation.Literal{Value: quantity.New(2, quantity.Dimensionless)}),
			equation.Literal{Value: quantity.New(4, quantity.Dimensionless)},
		),
	)
	rep := f.solve(t)
	q, ok := rep.Value("x")
	require.True(t, ok)
	require.Equal(t, 0.5, q.Center)
}

func TestContradiction(t *testing.T) {
	f := newFixture(t)
	f.assign(t, "x", quantity.Percent(10, 1, quantity.Volt))
	f.assign(t, "x", quantity.Percent(12, 1, quantity.Volt))

	rep := f.solve(t)
	require.Equal(t, report.Contradicted, rep.StatusOf("x"))

	// no single resolved value for x
	_, ok := rep.Value("x")
	require.False(t, ok)

	// the contradiction names both equations and the disjoint intervals
	require.Len(t, rep.Contradictions, 1)
	c := rep.Contradictions[0]
	require.Equal(t, "x", c.Path)
	require.Equal(t, 0, c.First.Seq)
	require.Equal(t, 1, c.Second.Seq)
	_, ok = c.A.Intersect(c.B)
	require.False(t, ok)
}

func TestOverConstrainedConsistent(t *testing.T) {
	f := newFixture(t)
	// the same value stated twice with different tolerances is a deliberate
	// cross-check, not an error
	f.assign(t, "x", quantity.Percent(10, 1, quantity.Volt))
	f.assign(t, "x", quantity.Percent(10, 5, quantity.Volt))

	rep := f.solve(t)
	require.Equal(t, report.OverConstrainedConsistent, rep.StatusOf("x"))
	q, ok := rep.Value("x")
	require.True(t, ok)
	// the tighter interval wins
	require.InDelta(t, 9.9, q.Bounds.Lo, 1e-9)
	require.InDelta(t, 10.1, q.Bounds.Hi, 1e-9)
	require.Empty(t, rep.Contradictions)
}

func TestTighteningIntersection(t *testing.T) {
	f := newFixture(t)
	// two overlapping but distinct derivations: the result is their
	// intersection
	f.assign(t, "x", quantity.Between(9, 11, quantity.Volt))
	f.assign(t, "x", quantity.Between(10, 12, quantity.Volt))

	rep := f.solve(t)
	q, ok := rep.Value("x")
	require.True(t, ok)
	require.Equal(t, 10.0, q.Bounds.Lo)
	require.Equal(t, 11.0, q.Bounds.Hi)
	require.Equal(t, report.OverConstrainedConsistent, rep.StatusOf("x"))
}

func TestUnderdetermined(t *testing.T) {
	f := newFixture(t)
	f.variable(t, "floating")
	// a pure cycle with no literal anchor must not be assigned a fixed point
	one := equation.Literal{Value: quantity.New(1, quantity.Ohm)}
	f.assert(f.ref(t, "a"), equation.Eq, bin(equation.OpAdd, f.ref(t, "b"), one))
	f.assert(f.ref(t, "b"), equation.Eq, bin(equation.OpSub, f.ref(t, "a"), one))

	rep := f.solve(t)
	require.Equal(t, report.Underdetermined, rep.StatusOf("floating"))
	require.Equal(t, report.Underdetermined, rep.StatusOf("a"))
	require.Equal(t, report.Underdetermined, rep.StatusOf("b"))
	_, ok := rep.Value("a")
	require.False(t, ok)
	require.Empty(t, rep.Contradictions)
}

func TestDivisionDomain(t *testing.T) {
	f := newFixture(t)
	f.assign(t, "y", quantity.PlusMinus(0, 1, quantity.Ampere))
	f.assert(f.ref(t, "x"), equation.Eq, bin(equation.OpDiv,
		equation.Literal{Value: quantity.New(1, quantity.Volt)}, f.ref(t, "y")))

	rep := f.solve(t)
	// the target stays underdetermined, contradiction-free, and the domain
	// issue is surfaced distinctly
	require.Equal(t, report.Underdetermined, rep.StatusOf("x"))
	require.Empty(t, rep.Contradictions)
	require.Len(t, rep.DomainIssues, 1)
	require.Equal(t, quantity.Interval{Lo: -1, Hi: 1}, rep.DomainIssues[0].Divisor)
}

func TestUnsupportedShape(t *testing.T) {
	f := newFixture(t)
	// y + y cannot be isolated by the rule table; it is reported, not
	// silently dropped
	f.assert(
		equation.Literal{Value: quantity.New(10, quantity.Volt)},
		equation.Eq,
		bin(equation.OpAdd, f.ref(t, "y"), f.ref(t, "y")),
	)

	rep := f.solve(t)
	require.Equal(t, report.Underdetermined, rep.StatusOf("y"))
	require.Len(t, rep.Unsupported, 1)
	require.Equal(t, "y", rep.Unsupported[0].Path)
}

func TestWithinDomainIssue(t *testing.T) {
	f := newFixture(t)
	// both sides resolve during propagation, so only the post-pass ever
	// evaluates the range expression; the zero-spanning divisor must still
	// surface as a domain issue
	f.assign(t, "x", quantity.New(5, quantity.Volt))
	f.assign(t, "y", quantity.PlusMinus(0, 1, quantity.Dimensionless))
	f.assert(f.ref(t, "x"), equation.Within, bin(equation.OpDiv,
		equation.Literal{Value: quantity.New(1, quantity.Volt)}, f.ref(t, "y")))

	rep := f.solve(t)
	require.Len(t, rep.DomainIssues, 1)
	require.Equal(t, quantity.Interval{Lo: -1, Hi: 1}, rep.DomainIssues[0].Divisor)
	require.Empty(t, rep.Contradictions)

	// the operands themselves stay resolved
	require.Equal(t, report.Derived, rep.StatusOf("x"))
	require.Equal(t, report.Derived, rep.StatusOf("y"))
}

func TestWithinDimensionMismatch(t *testing.T) {
	f := newFixture(t)
	// a voltage can never lie within a resistance range
	f.assign(t, "x", quantity.New(5, quantity.Volt))
	f.within(t, "x", quantity.Between(3, 4, quantity.Ohm))

	rep := f.solve(t)
	require.Len(t, rep.AllViolations(), 1)
	require.Equal(t, "x", rep.AllViolations()[0].Path)
}

func TestRangeViolation(t *testing.T) {
	f := newFixture(t)
	f.assign(t, "x", quantity.New(5, quantity.Volt))
	f.within(t, "x", quantity.Percent(3.3, 10, quantity.Volt))

	rep := f.solve(t)
	require.Len(t, rep.AllViolations(), 1)
	v := rep.AllViolations()[0]
	require.Equal(t, "x", v.Path)
	require.False(t, v.Want.Contains(v.Got))
	require.True(t, rep.HasErrors())

	// the report is still produced; x keeps its resolved value
	q, ok := rep.Value("x")
	require.True(t, ok)
	require.Equal(t, 5.0, q.Center)
}

// The voltage-divider round trip: a 10V ± 1% source, a 3.3V ± 10% output
// target and a 10µA..100µA current budget must yield positive resistance
// intervals for both legs, consistent across the direct and the sum
// cross-check derivations, with the output inside its target band.
func TestVoltageDividerRoundTrip(t *testing.T) {
	f := newFixture(t)

	f.assign(t, "power.voltage", quantity.Percent(10, 1, quantity.Volt))
	f.within(t, "max_current", quantity.Between(10e-6, 100e-6, quantity.Ampere))
	f.within(t, "output.reference.voltage", quantity.Percent(3.3, 10, quantity.Volt))

	vIn := f.ref(t, "power.voltage")
	vOut := f.ref(t, "output.reference.voltage")
	iMax := f.ref(t, "max_current")
	rTop := f.ref(t, "r_top.resistance")
	rBottom := f.ref(t, "r_bottom.resistance")
	rTotal := f.ref(t, "r_total")

	// direct-division family
	f.assert(rTop, equation.Eq, bin(equation.OpDiv, bin(equation.OpSub, vIn, vOut), iMax))
	f.assert(rBottom, equation.Eq, bin(equation.OpDiv, vOut, iMax))
	f.assert(rTotal, equation.Eq, bin(equation.OpDiv, vIn, iMax))
	// ratio family, stated as cross-checks
	f.assert(rTotal, equation.Eq, bin(equation.OpAdd, rTop, rBottom))
	f.assert(vOut, equation.Eq, bin(equation.OpMul, rBottom, iMax))

	rep := f.solve(t)
	require.Empty(t, rep.Contradictions, rep.String())
	require.Empty(t, rep.AllViolations(), rep.String())

	top, ok := rep.Value("r_top.resistance")
	require.True(t, ok)
	require.Equal(t, quantity.Ohm, top.Dim)
	require.Greater(t, top.Bounds.Lo, 0.0, "r_top must be a positive resistance")

	bottom, ok := rep.Value("r_bottom.resistance")
	require.True(t, ok)
	require.Equal(t, quantity.Ohm, bottom.Dim)
	require.Greater(t, bottom.Bounds.Lo, 0.0, "r_bottom must be a positive resistance")

	out, ok := rep.Value("output.reference.voltage")
	require.True(t, ok)
	require.InDelta(t, 2.97, out.Bounds.Lo, 1e-9, "v_out lower bound")
	require.InDelta(t, 3.63, out.Bounds.Hi, 1e-9, "v_out upper bound")

	// the duplicated derivations are consistent cross-checks, not errors
	require.Equal(t, report.OverConstrainedConsistent, rep.StatusOf("r_total"))
}

func TestIndependentComponentsParallel(t *testing.T) {
	// two disjoint subproblems plus a floating variable; resolved-value
	// slots are written during a solve, so each parallelism level gets a
	// fresh graph
	build := func() *fixture {
		f := newFixture(t)
		f.assign(t, "a.v", quantity.New(10, quantity.Volt))
		f.assert(f.ref(t, "a.r"), equation.Eq, bin(equation.OpDiv, f.ref(t, "a.v"),
			equation.Literal{Value: quantity.New(2, quantity.Ampere)}))
		f.assign(t, "b.v", quantity.New(3, quantity.Volt))
		f.variable(t, "c.unbound")
		return f
	}

	for _, tasks := range []int{1, 4} {
		rep := build().solve(t, WithNbTasks(tasks))
		require.Equal(t, report.Derived, rep.StatusOf("a.r"))
		require.Equal(t, report.Derived, rep.StatusOf("b.v"))
		require.Equal(t, report.Underdetermined, rep.StatusOf("c.unbound"))
	}
}

func buildDivider(t *testing.T) *fixture {
	f := newFixture(t)
	f.assign(t, "power.voltage", quantity.Percent(10, 1, quantity.Volt))
	f.within(t, "max_current", quantity.Between(10e-6, 100e-6, quantity.Ampere))
	f.within(t, "output.reference.voltage", quantity.Percent(3.3, 10, quantity.Volt))
	f.assert(f.ref(t, "r_top.resistance"), equation.Eq,
		bin(equation.OpDiv,
			bin(equation.OpSub, f.ref(t, "power.voltage"), f.ref(t, "output.reference.voltage")),
			f.ref(t, "max_current")))
	f.assert(f.ref(t, "r_bottom.resistance"), equation.Eq,
		bin(equation.OpDiv, f.ref(t, "output.reference.voltage"), f.ref(t, "max_current")))
	f.assert(f.ref(t, "r_total"), equation.Eq,
		bin(equation.OpAdd, f.ref(t, "r_top.resistance"), f.ref(t, "r_bottom.resistance")))
	return f
}

// Two solver runs over the same declaration sequence must produce
// byte-identical reports.
func TestDeterminism(t *testing.T) {
	first := buildDivider(t).solve(t)
	second := buildDivider(t).solve(t, WithNbTasks(8))

	b1, err := first.ToBytes()
	require.NoError(t, err)
	b2, err := second.ToBytes()
	require.NoError(t, err)
	require.True(t, bytes.Equal(b1, b2))
}

func TestInvalidOption(t *testing.T) {
	f := newFixture(t)
	_, err := Solve(f.g, f.store, WithNbTasks(0))
	require.Error(t, err)
}
