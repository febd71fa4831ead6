// Package plan turns a parsed internal/query/ast.Query into an ordered
// sequence of execution steps (spec §4.8): source routing assigns each
// pattern to the native index or a named virtual graph, pushdown
// extraction lifts pushable filters/VALUES onto the owning scan group,
// and the top-level join strategy between scan groups from different
// sources is decided (hash vs. cartesian). FK-edge traversal *within*
// one virtual graph's multi-table mapping (spec §4.11 step 6) needs no
// dedicated logic here: this package's ordinary shared-variable join
// decision already traverses an FK edge exactly when a query reuses the
// same variable for the child's resolved reference and the parent's
// subject, because internal/vg resolves both through the same
// subject-template path. A query that doesn't reuse that variable name
// falls through to the guarded cartesian join, which is the correct
// fallback — internal/vg only has to keep its bindings correlated; it
// never has to tell this package where its FK edges are.
package plan

import (
	"github.com/fluree/db-sub010/internal/query/ast"
)

// SourceRouter answers source-routing questions plan.Build needs:
// which virtual graph (if any) owns a given class or predicate IRI,
// and whether a predicate's object column accepts pushdown.
type SourceRouter interface {
	// RouteClass returns the virtual graph alias that maps the given
	// rdf:type class, or ok=false for the native ledger.
	RouteClass(class ast.IRI) (alias string, ok bool)
	// RoutePredicate returns the virtual graph alias that maps the
	// given predicate IRI, or ok=false for the native ledger.
	RoutePredicate(pred ast.IRI) (alias string, ok bool)
	// Pushable reports whether values of the given predicate, as
	// exposed by the named virtual graph, can accept a pushed-down
	// equality/range/IN filter (spec §4.8 step 2).
	Pushable(alias string, pred ast.IRI) bool
}

// nativeSource is the sentinel alias used for scan groups routed to
// the native ledger index rather than any virtual graph.
const nativeSource = ""

// JoinKind names the strategy decided for a top-level join between two
// scan groups (spec §4.8 step 5, §4.9).
type JoinKind int

const (
	JoinHash JoinKind = iota
	JoinCartesian
)

// Pushdown is one pushable predicate lifted from a residual FILTER (or
// a VALUES pattern) onto the scan group that owns the bound variable
// (spec §4.8 steps 2-3).
type Pushdown struct {
	Var    string
	Op     ast.Op // OpEq, OpLt, OpLtEq, OpGt, OpGtEq, OpIn
	Values []ast.Expr
}

// ScanGroup is a maximal run of TriplePattern/ClassPattern elements
// routed to the same source, plus the pushdown predicates lifted onto
// it.
type ScanGroup struct {
	Source    string // "" = native ledger; else virtual-graph alias
	Patterns  []ast.GroupElement
	Pushdowns []Pushdown
}

// StepKind enumerates the ordered step forms a Plan is built from.
type StepKind int

const (
	StepScan StepKind = iota
	StepFilter
	StepBind
	StepOptional
	StepUnion
	StepAntiJoin
	StepValues
	StepSubSelect
	StepJoin
)

// Step is one element of a Plan's ordered step sequence. Exactly the
// fields matching Kind are populated.
type Step struct {
	Kind StepKind

	Scan      *ScanGroup
	Filter    *ast.Filter
	Bind      *ast.Bind
	Optional  *Plan
	Union     []*Plan
	AntiJoin  *AntiJoinStep
	Values    *ast.Values
	SubSelect *ast.Query
	Join      *JoinStep
}

// AntiJoinStep pairs an anti-join kind with its decorrelated inner
// plan (spec §4.10).
type AntiJoinStep struct {
	Kind ast.AntiJoinKind
	Inner *Plan
}

// JoinStep records the decided strategy between two consecutive scan
// groups sharing variables (spec §4.8 step 5).
type JoinStep struct {
	Kind JoinKind
	// SharedVars is the set of variable names bound by both sides,
	// used as the hash-join key; empty when Kind is JoinCartesian.
	SharedVars []string
}

// Plan is the ordered, routed, pushdown-annotated execution plan for
// one query (or nested group).
type Plan struct {
	Query *ast.Query // non-nil only for the top-level/sub-select plan
	Steps []Step
}
