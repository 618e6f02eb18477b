// Package report exposes the outcome of a solve: a read-only summary of
// resolved values, unresolved unknowns and violated constraints, consumed by
// code-generation collaborators for part-value selection.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/voltforge/voltc/equation"
	"github.com/voltforge/voltc/quantity"
)

// Status of a variable after solving.
type Status uint8

const (
	// Underdetermined: no value derivable from the declared equations. Not
	// an error; the design may deliberately leave the degree of freedom to
	// downstream choice.
	Underdetermined Status = iota
	// Derived: resolved by exactly one equation.
	Derived
	// OverConstrainedConsistent: resolved and cross-checked by two or more
	// equations without contradiction. Reported, not an error; designs
	// duplicate equations as deliberate cross-checks.
	OverConstrainedConsistent
	// Contradicted: two equations derived disjoint intervals; no resolved
	// value is reported.
	Contradicted
)

func (s Status) String() string {
	switch s {
	case Underdetermined:
		return "underdetermined"
	case Derived:
		return "derived"
	case OverConstrainedConsistent:
		return "over-constrained-consistent"
	case Contradicted:
		return "contradicted"
	default:
		return "?"
	}
}

// EquationRef identifies a declared equation in diagnostics: its
// declaration-order sequence number, rendering, and source position.
type EquationRef struct {
	Seq  int
	Text string
	Pos  equation.Pos
}

func Ref(eq *equation.Equation) EquationRef {
	return EquationRef{Seq: eq.Seq(), Text: eq.String(), Pos: eq.Pos}
}

func (r EquationRef) String() string {
	return fmt.Sprintf("#%d %s (%s)", r.Seq, r.Text, r.Pos)
}

// VariableResult is the solved state of one variable.
type VariableResult struct {
	Path   string
	Status Status
	// Value is meaningful for Derived and OverConstrainedConsistent.
	Value quantity.Quantity
	// Sources are the equations that contributed the value or the
	// contradiction, in the order they contributed.
	Sources []EquationRef
}

// Contradiction reports two equations resolving one variable to disjoint
// intervals. Never auto-resolved by picking one side.
type Contradiction struct {
	Path          string
	First, Second EquationRef
	A, B          quantity.Interval
}

func (c Contradiction) String() string {
	return fmt.Sprintf("contradiction on %s: %s gives %s but %s gives %s",
		c.Path, c.First, c.A, c.Second, c.B)
}

// RangeViolation reports a within-equation whose target range does not
// contain the resolved interval.
type RangeViolation struct {
	Path      string
	Eq        EquationRef
	Got, Want quantity.Interval
}

func (v RangeViolation) String() string {
	return fmt.Sprintf("range violation on %s: resolved %s is not within %s (%s)",
		v.Path, v.Got, v.Want, v.Eq)
}

// DomainIssue reports a division whose divisor interval spans zero during
// solving. The target variable stays underdetermined; the issue is surfaced
// distinctly from genuine underdetermination.
type DomainIssue struct {
	Eq      EquationRef
	Divisor quantity.Interval
}

func (d DomainIssue) String() string {
	return fmt.Sprintf("division domain error in %s: divisor %s spans zero", d.Eq, d.Divisor)
}

// UnsupportedShape reports an equation the rule table cannot isolate: its
// only unresolved variable occurs more than once in the expression tree.
type UnsupportedShape struct {
	Eq   EquationRef
	Path string
}

func (u UnsupportedShape) String() string {
	return fmt.Sprintf("unsupported equation shape for %s: %s occurs more than once in %s",
		u.Path, u.Path, u.Eq)
}

// Report is the read-only result of a solve. Results are sorted by variable
// path and diagnostics by declaration order, so two solves over the same
// declaration sequence produce identical reports.
type Report struct {
	Version string

	Results        []VariableResult
	Contradictions []Contradiction
	Violations     []RangeViolation
	DomainIssues   []DomainIssue
	Unsupported    []UnsupportedShape

	byPath map[string]int `cbor:"-"`
}

// New returns an empty report stamped with the given core version.
func New(version string) *Report {
	return &Report{Version: version}
}

// Finalize sorts the report into its canonical order and builds the lookup
// index. Must be called once all results are added.
func (r *Report) Finalize() {
	sort.Slice(r.Results, func(i, j int) bool { return r.Results[i].Path < r.Results[j].Path })
	sort.Slice(r.Contradictions, func(i, j int) bool {
		a, b := r.Contradictions[i], r.Contradictions[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Second.Seq < b.Second.Seq
	})
	sort.Slice(r.Violations, func(i, j int) bool { return r.Violations[i].Eq.Seq < r.Violations[j].Eq.Seq })
	sort.Slice(r.DomainIssues, func(i, j int) bool { return r.DomainIssues[i].Eq.Seq < r.DomainIssues[j].Eq.Seq })
	sort.Slice(r.Unsupported, func(i, j int) bool { return r.Unsupported[i].Eq.Seq < r.Unsupported[j].Eq.Seq })
	r.byPath = make(map[string]int, len(r.Results))
	for i, res := range r.Results {
		r.byPath[res.Path] = i
	}
}

// Value returns the resolved quantity for a variable path.
func (r *Report) Value(path string) (quantity.Quantity, bool) {
	i, ok := r.byPath[path]
	if !ok {
		return quantity.Quantity{}, false
	}
	res := r.Results[i]
	if res.Status != Derived && res.Status != OverConstrainedConsistent {
		return quantity.Quantity{}, false
	}
	return res.Value, true
}

// StatusOf returns the status of a variable path; unknown paths are
// Underdetermined.
func (r *Report) StatusOf(path string) Status {
	i, ok := r.byPath[path]
	if !ok {
		return Underdetermined
	}
	return r.Results[i].Status
}

// AllViolations returns every range violation, in declaration order of the
// violated equation.
func (r *Report) AllViolations() []RangeViolation {
	return r.Violations
}

// HasErrors reports whether the solve surfaced contradictions or range
// violations. Downstream may treat violations as warnings or hard failures.
func (r *Report) HasErrors() bool {
	return len(r.Contradictions) > 0 || len(r.Violations) > 0
}

func (r *Report) String() string {
	var sbb strings.Builder
	for _, res := range r.Results {
		fmt.Fprintf(&sbb, "%-40s %s", res.Path, res.Status)
		if res.Status == Derived || res.Status == OverConstrainedConsistent {
			fmt.Fprintf(&sbb, " = %s", res.Value)
		}
		sbb.WriteByte('\n')
	}
	for _, c := range r.Contradictions {
		sbb.WriteString(c.String())
		sbb.WriteByte('\n')
	}
	for _, v := range r.Violations {
		sbb.WriteString(v.String())
		sbb.WriteByte('\n')
	}
	for _, d := range r.DomainIssues {
		sbb.WriteString(d.String())
		sbb.WriteByte('\n')
	}
	for _, u := range r.Unsupported {
		sbb.WriteString(u.String())
		sbb.WriteByte('\n')
	}
	return sbb.String()
}
