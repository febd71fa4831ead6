// Package ast defines the tagged-variant query AST of spec §4.8: graph
// patterns (triple, class, filter, bind, optional, union, minus,
// exists/not-exists, values, sub-select) and the expression language
// that filters, binds, and aggregates dispatch over.
//
// Per spec §9's re-architecture note on "dynamic types / runtime
// reflection for query functions", expressions are a tagged variant
// with an enumerated operator set rather than first-class functions:
// dispatch is by tag, never by loaded code.
package ast

// Term is one slot of a triple pattern: a variable, an IRI, or a typed
// literal. Exactly one of the concrete Term implementations is used per
// slot; nil is never a valid Term.
type Term interface {
	term()
}

// Var is a query variable, written `?name` in surface syntax.
type Var struct {
	Name string
}

func (Var) term() {}

// IRI is a bound, fully-qualified or prefixed identifier.
type IRI struct {
	Value string
}

func (IRI) term() {}

// Literal is a bound scalar value with an associated xsd datatype IRI.
// The executor and the virtual-graph source treat an empty Datatype as
// xsd:string; no datatype is inferred from Value's Go type.
type Literal struct {
	Value    any
	Datatype string
	Lang     string
}

func (Literal) term() {}

// TriplePattern is `(s, p, o)` where each slot is a Term (spec §4.8).
type TriplePattern struct {
	S, P, O Term
}

func (*TriplePattern) groupElement() {}

// ClassPattern is the `(?s rdf:type <IRI>)` shorthand (spec §4.8).
type ClassPattern struct {
	Subject Term
	Class   IRI
}

func (*ClassPattern) groupElement() {}

// Filter restricts the current solution set to those for which Expr
// evaluates truthy.
type Filter struct {
	Expr Expr
}

func (*Filter) groupElement() {}

// Bind introduces a new variable computed from Expr over the solution
// so far.
type Bind struct {
	Expr Expr
	As   Var
}

func (*Bind) groupElement() {}

// Optional is a left-outer join: solutions from Group are merged in
// where compatible, and the outer solution passes through unchanged
// when no compatible inner solution exists (spec §4.9).
type Optional struct {
	Group []GroupElement
}

func (*Optional) groupElement() {}

// Union is a disjunction over two or more alternative pattern groups
// (spec §4.8).
type Union struct {
	Groups [][]GroupElement
}

func (*Union) groupElement() {}

// AntiJoinKind distinguishes the three anti-join forms of spec §4.10,
// which share execution machinery but differ in how the match result
// is applied to the outer solution.
type AntiJoinKind int

const (
	// Minus removes outer solutions whose shared-variable bindings
	// match any inner solution.
	Minus AntiJoinKind = iota
	// Exists keeps an outer solution iff the inner group has >=1 match.
	Exists
	// NotExists keeps an outer solution iff the inner group has 0 matches.
	NotExists
)

// AntiJoin is MINUS / EXISTS / NOT EXISTS (spec §4.10); all three are
// modeled as one node because they share the decorrelation strategy
// (§4.10: execute the inner group once, hash-index its projection onto
// the shared variables, filter outer rows by lookup) and differ only
// in AntiJoinKind.
type AntiJoin struct {
	Kind  AntiJoinKind
	Group []GroupElement
}

func (*AntiJoin) groupElement() {}

// Values is an inline multi-row binding table for one or more
// variables (spec §4.8's VALUES pattern).
type Values struct {
	Vars Var
	// MultiVars holds the variable list when binding more than one
	// variable per row; Rows then holds one Term slice per row, with one
	// Term per MultiVars entry in the same order.
	// For the common single-variable form, Vars/Rows (1-tuple rows)
	// are used instead and MultiVars is empty.
	MultiVars []Var
	Rows      [][]Term
}

func (*Values) groupElement() {}

// SubSelectPattern embeds a nested SELECT as a pattern group (spec
// §4.8's sub-select).
type SubSelectPattern struct {
	Query *Query
}

func (*SubSelectPattern) groupElement() {}

// GroupElement is one element of a WHERE pattern group: a pattern,
// filter, bind, or nested control-structure (optional/union/anti-
// join/values/sub-select).
type GroupElement interface {
	groupElement()
}

// AggFunc is the enumerated aggregate operator set of spec §4.9.
type AggFunc int

const (
	AggCount AggFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

// Op is the enumerated scalar expression operator set referenced by
// spec §9's "tagged variant AST" strategy.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpAnd
	OpOr
	OpNot
	OpIn
	OpStrContains
	OpLang
	OpDatatype
	OpBound
)

// Expr is the tagged-variant expression AST: Literal | VarRef | App.
type Expr interface {
	expr()
}

// ExprLiteral is a constant value occurring inside an expression.
type ExprLiteral struct {
	Value    any
	Datatype string
}

func (ExprLiteral) expr() {}

// VarRef references a variable bound earlier in the solution.
type VarRef struct {
	Name string
}

func (VarRef) expr() {}

// App applies an Op to its argument expressions (a function/operator
// application node, per spec §9's "App(op, args)" shape).
type App struct {
	Op   Op
	Args []Expr
}

func (App) expr() {}

// AggExpr is an aggregate function application, valid only in a
// SELECT projection or HAVING clause.
type AggExpr struct {
	Func     AggFunc
	Arg      Expr // nil for COUNT(*)
	Distinct bool
}

func (AggExpr) expr() {}

// SelectItem is one projected column: either a bare variable or an
// expression aliased `AS ?name` (spec §4.8/§4.9).
type SelectItem struct {
	Expr  Expr
	Var   Var
	Alias *Var // non-nil when the item is `(expr AS ?alias)`
}

// OrderKey is one ORDER BY key with its direction (spec §4.9).
type OrderKey struct {
	Expr Expr
	Desc bool
}

// Query is a full parsed query: SELECT projection, WHERE pattern
// group, and the solution modifiers of spec §4.9, applied in SPARQL
// order (GROUP BY+aggregates -> HAVING -> DISTINCT -> ORDER BY ->
// LIMIT/OFFSET).
type Query struct {
	Select   []SelectItem
	Where    []GroupElement
	GroupBy  []Expr
	Having   Expr
	Distinct bool
	OrderBy  []OrderKey
	Limit    *int64
	Offset   *int64

	// From names the graph set this query targets: empty means the
	// native ledger db; non-empty names one or more virtual-graph
	// aliases plus, optionally, the native db (spec §4.8's "target
	// graph set").
	From []string
}
