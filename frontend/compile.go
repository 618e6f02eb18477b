package frontend

import (
	"fmt"

	"github.com/voltforge/voltc/debug"
	"github.com/voltforge/voltc/equation"
	"github.com/voltforge/voltc/graph"
	"github.com/voltforge/voltc/logger"
	"github.com/voltforge/voltc/report"
	"github.com/voltforge/voltc/solver"
)

// Result is the output of a compile: the solved graph for netlist emission
// and the resolution report for part-value selection.
type Result struct {
	Graph  *graph.Graph
	Store  *equation.Store
	Report *report.Report
}

// Compile processes the declaration stream in order, building the graph and
// the equation store, then solves. Structural errors (unknown definitions,
// incompatible interface shapes, bad paths) abort their own declaration but
// the stream keeps processing, so diagnostics are batched; if any occurred
// the batch is returned as CompileErrors and no solve runs. Solver-time
// diagnostics live inside the returned report.
func Compile(reg *graph.Registry, decls []Declaration, opts ...solver.Option) (*Result, error) {
	log := logger.Logger()
	log.Info().Int("declarations", len(decls)).Msg("compiling design")

	g := graph.New()
	store := equation.NewStore()

	var errs CompileErrors
	fail := func(d Declaration, err error) {
		if d.Pos().IsZero() {
			// declarations built from Go code carry no source position;
			// the caller stack is the next best provenance
			log.Debug().Str("stack", debug.Stack()).Err(err).Msg("declaration failed without source position")
		}
		errs = append(errs, &DeclarationError{At: d.Pos(), Err: err})
	}

	lookupVar := func(path string) (equation.Var, error) {
		return g.VariableAt(path)
	}

	for _, d := range decls {
		switch decl := d.(type) {
		case InstantiateModule:
			if _, err := g.Instantiate(reg, decl.Definition, decl.Binding, nil, store); err != nil {
				fail(d, err)
			}
		case ConnectPins:
			a, err := g.Node(decl.A)
			if err != nil {
				fail(d, err)
				continue
			}
			b, err := g.Node(decl.B)
			if err != nil {
				fail(d, err)
				continue
			}
			if err := g.Connect(a, b); err != nil {
				fail(d, err)
			}
		case AssignLiteral:
			v, err := g.VariableAt(decl.Variable)
			if err != nil {
				fail(d, err)
				continue
			}
			store.Declare(&equation.Equation{
				LHS: equation.VarRef{V: v},
				Op:  equation.Eq,
				RHS: equation.Literal{Value: decl.Value},
				Pos: decl.At,
			})
		case DeclareEquation:
			lhs, err := equation.Bind(decl.LHS, lookupVar)
			if err != nil {
				fail(d, err)
				continue
			}
			rhs, err := equation.Bind(decl.RHS, lookupVar)
			if err != nil {
				fail(d, err)
				continue
			}
			store.Declare(&equation.Equation{LHS: lhs, RHS: rhs, Op: decl.Op, Pos: decl.At})
		default:
			fail(d, fmt.Errorf("unknown declaration type %T", d))
		}
	}

	if len(errs) > 0 {
		log.Error().Int("errors", len(errs)).Msg("structural errors; skipping solve")
		return nil, errs
	}

	rep, err := solver.Solve(g, store, opts...)
	if err != nil {
		return nil, err
	}
	return &Result{Graph: g, Store: store, Report: rep}, nil
}
