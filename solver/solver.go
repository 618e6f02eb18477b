// Package solver resolves the declared equations of a design into concrete
// quantities. It runs an iterative constraint propagation over the bipartite
// variable/equation dependency graph: equations with a single unresolved
// variable are algebraically isolated and their result assigned, which may
// unlock further equations, until a fixed point. Re-derivations of an
// already-resolved variable are intersected; an empty intersection is a
// contradiction, never silently dropped.
//
// The propagation order is a FIFO worklist seeded in declaration order, so
// solver output and diagnostics are reproducible across runs. Independent
// connected components of the dependency graph are solved in parallel; each
// component's worklist is privately owned and the merge is a disjoint union.
package solver

import (
	"errors"
	"math"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/voltforge/voltc"
	"github.com/voltforge/voltc/equation"
	"github.com/voltforge/voltc/graph"
	"github.com/voltforge/voltc/quantity"
	"github.com/voltforge/voltc/report"
	"golang.org/x/sync/errgroup"
)

// Solve consumes a fully built graph and equation store and produces, for
// every variable, a resolved quantity, an underdetermined status, or a
// contradiction report. Solver-time problems (contradictions, range
// violations, division domain errors) are collected into the report rather
// than returned as errors, so a single run surfaces every constraint problem
// at once. The graph topology and equation set are never mutated; only
// variable resolved-value slots are written.
func Solve(g *graph.Graph, store *equation.Store, opts ...Option) (*report.Report, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	start := time.Now()

	vars := g.Variables()
	idxOf := make(map[uint32]int, len(vars))
	for i, v := range vars {
		idxOf[v.ID()] = i
	}

	rep := report.New(voltc.Version.String())

	// constant relations (no variables) are plain checks, handled inline
	var constant []*equation.Equation
	for _, eq := range store.Equations() {
		if len(eq.Vars()) == 0 {
			constant = append(constant, eq)
		}
	}
	checkConstant(rep, constant)

	comps := components(vars, idxOf, store)

	results := make([]*compResult, len(comps))
	var eg errgroup.Group
	eg.SetLimit(cfg.NbTasks)
	for i, comp := range comps {
		i, comp := i, comp
		eg.Go(func() error {
			results[i] = solveComponent(comp, idxOf, store)
			return nil
		})
	}
	// the workers return no errors; Wait is a join
	_ = eg.Wait()

	sources := map[uint32][]*equation.Equation{}
	contradicted := map[uint32]struct{}{}
	for _, res := range results {
		for id, srcs := range res.sources {
			sources[id] = srcs
		}
		for id := range res.contradicted {
			contradicted[id] = struct{}{}
		}
		rep.Contradictions = append(rep.Contradictions, res.contradictions...)
		rep.Violations = append(rep.Violations, res.violations...)
		rep.DomainIssues = append(rep.DomainIssues, res.domainIssues...)
		rep.Unsupported = append(rep.Unsupported, res.unsupported...)
	}

	for _, v := range vars {
		vr := report.VariableResult{Path: v.Path()}
		for _, eq := range sources[v.ID()] {
			vr.Sources = append(vr.Sources, report.Ref(eq))
		}
		if _, bad := contradicted[v.ID()]; bad {
			vr.Status = report.Contradicted
		} else if q, ok := v.Value(); ok {
			vr.Value = q
			if len(sources[v.ID()]) >= 2 {
				vr.Status = report.OverConstrainedConsistent
			} else {
				vr.Status = report.Derived
			}
		} else {
			vr.Status = report.Underdetermined
		}
		rep.Results = append(rep.Results, vr)
	}
	rep.Finalize()

	log.Debug().
		Int("variables", len(vars)).
		Int("equations", store.Len()).
		Int("components", len(comps)).
		Int("contradictions", len(rep.Contradictions)).
		Int("violations", len(rep.Violations)).
		Dur("took", time.Since(start)).
		Msg("constraint solve")

	return rep, nil
}

// components groups equations into independent connected subproblems: two
// equations belong together iff they share a variable (transitively). The
// returned groups preserve declaration order internally and are ordered by
// their first declared equation.
func components(vars []*graph.Variable, idxOf map[uint32]int, store *equation.Store) [][]*equation.Equation {
	parent := make([]int, len(vars))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for _, eq := range store.Equations() {
		evs := eq.Vars()
		for i := 1; i < len(evs); i++ {
			union(idxOf[evs[0].ID()], idxOf[evs[i].ID()])
		}
	}

	var order []int
	byRoot := map[int][]*equation.Equation{}
	for _, eq := range store.Equations() {
		evs := eq.Vars()
		if len(evs) == 0 {
			continue
		}
		root := find(idxOf[evs[0].ID()])
		if _, ok := byRoot[root]; !ok {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], eq)
	}

	comps := make([][]*equation.Equation, 0, len(order))
	for _, root := range order {
		comps = append(comps, byRoot[root])
	}
	return comps
}

type compResult struct {
	sources      map[uint32][]*equation.Equation
	contradicted map[uint32]struct{}

	contradictions []report.Contradiction
	violations     []report.RangeViolation
	domainIssues   []report.DomainIssue
	unsupported    []report.UnsupportedShape
}

type compSolver struct {
	eqs     []*equation.Equation
	indexOf map[*equation.Equation]int
	idxOf   map[uint32]int
	store   *equation.Store

	queue  []int
	queued *bitset.BitSet

	// one diagnostic per equation, however often it requeues
	domainReported      *bitset.BitSet
	unsupportedReported *bitset.BitSet

	res *compResult
}

func solveComponent(eqs []*equation.Equation, idxOf map[uint32]int, store *equation.Store) *compResult {
	s := &compSolver{
		eqs:                 eqs,
		indexOf:             make(map[*equation.Equation]int, len(eqs)),
		idxOf:               idxOf,
		store:               store,
		queued:              bitset.New(uint(len(eqs))),
		domainReported:      bitset.New(uint(len(eqs))),
		unsupportedReported: bitset.New(uint(len(eqs))),
		res: &compResult{
			sources:      map[uint32][]*equation.Equation{},
			contradicted: map[uint32]struct{}{},
		},
	}
	for i, eq := range eqs {
		s.indexOf[eq] = i
	}

	// seed with every equation that has at most one unresolved variable
	for i, eq := range eqs {
		if len(s.unresolvedVars(eq)) <= 1 {
			s.push(i)
		}
	}

	for len(s.queue) > 0 {
		i := s.queue[0]
		s.queue = s.queue[1:]
		s.queued.Clear(uint(i))
		s.step(s.eqs[i])
	}

	// post-propagation: every within-relation is checked against the final
	// resolved intervals
	for _, eq := range eqs {
		if eq.Op == equation.Within {
			s.checkWithin(eq)
		}
	}
	return s.res
}

func (s *compSolver) push(i int) {
	if !s.queued.Test(uint(i)) {
		s.queued.Set(uint(i))
		s.queue = append(s.queue, i)
	}
}

func (s *compSolver) unresolvedVars(eq *equation.Equation) []equation.Var {
	var out []equation.Var
	for _, v := range eq.Vars() {
		if _, ok := v.Value(); !ok {
			out = append(out, v)
		}
	}
	return out
}

func (s *compSolver) step(eq *equation.Equation) {
	// derivations against a contradicted variable would only cascade noise
	for _, v := range eq.Vars() {
		if _, bad := s.res.contradicted[v.ID()]; bad {
			return
		}
	}

	unresolved := s.unresolvedVars(eq)
	switch len(unresolved) {
	case 0:
		if eq.Op == equation.Eq {
			s.crossCheck(eq)
		}
	case 1:
		s.derive(eq, unresolved[0])
	default:
		// not solvable yet; requeued when one of its variables resolves
	}
}

// derive isolates the single unresolved variable of eq and assigns it.
// A within-relation only bounds its left-hand side, so its right-hand
// variables are never derived from it.
func (s *compSolver) derive(eq *equation.Equation, v equation.Var) {
	if eq.Op == equation.Within && equation.Occurrences(eq.LHS, v) == 0 {
		return
	}
	if eq.Occurrences(v) != 1 {
		s.reportUnsupported(eq, v)
		return
	}
	q, err := isolate(eq, v)
	if err != nil {
		s.reportIsolationError(eq, err)
		return
	}
	v.SetValue(q)
	s.res.sources[v.ID()] = append(s.res.sources[v.ID()], eq)
	s.requeueDependents(v, eq)
}

// crossCheck re-derives each single-occurrence variable of a fully resolved
// equation and intersects with the current value: an empty intersection is a
// contradiction naming both equations; a narrower one tightens the variable
// and requeues its dependents; an equal or wider one counts the equation as
// a consistent cross-check.
func (s *compSolver) crossCheck(eq *equation.Equation) {
	checked := false
	for _, v := range eq.Vars() {
		if eq.Occurrences(v) != 1 {
			continue
		}
		checked = true
		cand, err := isolate(eq, v)
		if err != nil {
			s.reportIsolationError(eq, err)
			continue
		}
		cur, _ := v.Value()
		inter, ok, err := cur.Intersect(cand)
		if err != nil {
			s.reportIsolationError(eq, err)
			continue
		}
		if !ok {
			s.res.contradictions = append(s.res.contradictions, report.Contradiction{
				Path:   v.Path(),
				First:  report.Ref(s.firstSource(v, eq)),
				Second: report.Ref(eq),
				A:      cur.Bounds,
				B:      cand.Bounds,
			})
			s.res.contradicted[v.ID()] = struct{}{}
			continue
		}
		s.addSource(v, eq)
		if strictlyNarrower(inter.Bounds, cur.Bounds) {
			v.SetValue(inter)
			s.requeueDependents(v, eq)
		}
	}
	if checked {
		return
	}

	// every variable occurs several times; fall back to evaluating both
	// sides and checking consistency
	l, errL := evalSide(eq.LHS)
	r, errR := evalSide(eq.RHS)
	if errL != nil || errR != nil {
		s.reportIsolationError(eq, errors.Join(errL, errR))
		return
	}
	if _, ok, err := l.Intersect(r); err == nil && !ok {
		v := eq.Vars()[0]
		s.res.contradictions = append(s.res.contradictions, report.Contradiction{
			Path:   v.Path(),
			First:  report.Ref(s.firstSource(v, eq)),
			Second: report.Ref(eq),
			A:      l.Bounds,
			B:      r.Bounds,
		})
		s.res.contradicted[v.ID()] = struct{}{}
	}
}

func (s *compSolver) checkWithin(eq *equation.Equation) {
	// unresolved operands mean an underdetermined side, already visible in
	// the report; zero-span divisors here were never seen by propagation and
	// must surface as domain issues
	l, err := evalSide(eq.LHS)
	if err != nil {
		s.reportIsolationError(eq, err)
		return
	}
	r, err := evalSide(eq.RHS)
	if err != nil {
		s.reportIsolationError(eq, err)
		return
	}
	// a dimension mismatch can never satisfy the subset relation
	if l.Compatible(r) && r.Bounds.Contains(l.Bounds) {
		return
	}
	path := ""
	if vs := equation.Vars(eq.LHS); len(vs) > 0 {
		path = vs[0].Path()
	}
	s.res.violations = append(s.res.violations, report.RangeViolation{
		Path: path,
		Eq:   report.Ref(eq),
		Got:  l.Bounds,
		Want: r.Bounds,
	})
}

func (s *compSolver) requeueDependents(v equation.Var, except *equation.Equation) {
	for _, dep := range s.store.ForVariable(v) {
		if dep == except {
			continue
		}
		if j, ok := s.indexOf[dep]; ok {
			s.push(j)
		}
	}
}

func (s *compSolver) addSource(v equation.Var, eq *equation.Equation) {
	for _, e := range s.res.sources[v.ID()] {
		if e == eq {
			return
		}
	}
	s.res.sources[v.ID()] = append(s.res.sources[v.ID()], eq)
}

// firstSource returns the equation that first resolved v, falling back to eq
// itself when v has no recorded source.
func (s *compSolver) firstSource(v equation.Var, eq *equation.Equation) *equation.Equation {
	if srcs := s.res.sources[v.ID()]; len(srcs) > 0 {
		return srcs[0]
	}
	return eq
}

func (s *compSolver) reportUnsupported(eq *equation.Equation, v equation.Var) {
	i := s.indexOf[eq]
	if s.unsupportedReported.Test(uint(i)) {
		return
	}
	s.unsupportedReported.Set(uint(i))
	s.res.unsupported = append(s.res.unsupported, report.UnsupportedShape{
		Eq:   report.Ref(eq),
		Path: v.Path(),
	})
}

func (s *compSolver) reportIsolationError(eq *equation.Equation, err error) {
	var de *DomainError
	if !errors.As(err, &de) {
		// dimension mismatches surface through the equation rendering;
		// the variable stays underdetermined
		return
	}
	i := s.indexOf[eq]
	if s.domainReported.Test(uint(i)) {
		return
	}
	s.domainReported.Set(uint(i))
	s.res.domainIssues = append(s.res.domainIssues, report.DomainIssue{
		Eq:      report.Ref(eq),
		Divisor: de.Divisor,
	})
}

// checkConstant validates relations that reference no variables.
func checkConstant(rep *report.Report, eqs []*equation.Equation) {
	for _, eq := range eqs {
		l, errL := equation.Eval(eq.LHS)
		r, errR := equation.Eval(eq.RHS)
		if errL != nil || errR != nil {
			continue
		}
		switch eq.Op {
		case equation.Eq:
			if _, ok, err := l.Intersect(r); err == nil && !ok {
				rep.Contradictions = append(rep.Contradictions, report.Contradiction{
					First:  report.Ref(eq),
					Second: report.Ref(eq),
					A:      l.Bounds,
					B:      r.Bounds,
				})
			}
		case equation.Within:
			if !l.Compatible(r) || !r.Bounds.Contains(l.Bounds) {
				rep.Violations = append(rep.Violations, report.RangeViolation{
					Eq:   report.Ref(eq),
					Got:  l.Bounds,
					Want: r.Bounds,
				})
			}
		}
	}
}

// strictlyNarrower reports whether a is meaningfully tighter than b. The
// epsilon guard keeps asymptotic float shrinkage from requeueing forever.
func strictlyNarrower(a, b quantity.Interval) bool {
	eps := 1e-12 * math.Max(1, math.Max(math.Abs(b.Lo), math.Abs(b.Hi)))
	return a.Lo > b.Lo+eps || a.Hi < b.Hi-eps
}
