// Package voltc is the compiler core for a declarative hardware-description
// language: it lowers an already-parsed stream of declarations (instantiate
// module, connect, assign, assert) into a hierarchical component graph, and
// resolves every declared algebraic constraint over physical quantities into
// concrete values or tightest derivable ranges.
//
// The core is split into:
//   - quantity: physical values with unit dimensions and tolerance intervals
//   - graph: module/interface/pin hierarchy and electrical nets (union-find)
//   - equation: declared relations between quantities, indexed by variable
//   - solver: deterministic interval-propagation constraint solver
//   - report: per-variable resolution statuses and constraint diagnostics
//   - frontend: the declaration-stream entry point used by parser collaborators
//
// Parsing, package/import resolution and netlist/KiCad emission are external
// collaborators; voltc consumes declarations and produces a solved graph plus
// a resolution report.
package voltc

import (
	"github.com/blang/semver/v4"
)

var Version = semver.MustParse("0.3.0")
