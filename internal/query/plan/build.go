package plan

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluree/db-sub010/internal/errs"
	"github.com/fluree/db-sub010/internal/query/ast"
)

// Build routes, pushdown-annotates, and join-orders q's WHERE group
// into a Plan (spec §4.8 steps 1-5). router may be nil, in which case
// every pattern routes to the native ledger (the common case for a
// query with no virtual-graph sources).
func Build(ctx context.Context, q *ast.Query, router SourceRouter) (*Plan, error) {
	_, span := tracer.Start(ctx, "plan.build", trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int("where_elements", len(q.Where))))
	defer span.End()

	steps, err := buildGroup(q.Where, router)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	steps = insertJoins(steps)
	steps = pushdownFilters(steps)

	if err := checkHavingRouting(q, steps); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	planMetrics.buildCount.Add(ctx, 1, metric.WithAttributes(attribute.Int("steps", len(steps))))
	return &Plan{Query: q, Steps: steps}, nil
}

// checkHavingRouting implements the Open Question #3 resolution
// (SPEC_FULL.md "HAVING over virtual graphs"): a HAVING clause that
// embeds an aggregate expression directly — rather than referencing one
// through its SELECT alias — can only be evaluated against solutions
// that are already fully materialized, which is never true mid-scan for
// a pattern group routed to a virtual graph. Reject such a query at
// plan time instead of letting it fail deep in exec's expression
// evaluator.
func checkHavingRouting(q *ast.Query, steps []Step) error {
	if q.Having == nil || !containsAggExpr(q.Having) {
		return nil
	}
	if !anyVirtualGraphScan(steps) {
		return nil
	}
	return errs.Wrap("query.plan", errs.Validation,
		fmt.Errorf("%w: HAVING over a virtual graph must reference an aggregate through its SELECT alias", errs.ErrInvalidQuery))
}

func containsAggExpr(e ast.Expr) bool {
	switch v := e.(type) {
	case ast.AggExpr:
		return true
	case ast.App:
		for _, a := range v.Args {
			if containsAggExpr(a) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func anyVirtualGraphScan(steps []Step) bool {
	for _, s := range steps {
		switch s.Kind {
		case StepScan:
			if s.Scan.Source != nativeSource {
				return true
			}
		case StepOptional:
			if anyVirtualGraphScan(s.Optional.Steps) {
				return true
			}
		case StepUnion:
			for _, p := range s.Union {
				if anyVirtualGraphScan(p.Steps) {
					return true
				}
			}
		case StepAntiJoin:
			if anyVirtualGraphScan(s.AntiJoin.Inner.Steps) {
				return true
			}
		}
	}
	return false
}

func buildGroup(elements []ast.GroupElement, router SourceRouter) ([]Step, error) {
	var steps []Step
	var pending *ScanGroup

	flush := func() {
		if pending != nil {
			steps = append(steps, Step{Kind: StepScan, Scan: pending})
			pending = nil
		}
	}

	for _, el := range elements {
		switch e := el.(type) {
		case *ast.TriplePattern, *ast.ClassPattern:
			src := routeOf(el, router)
			if pending != nil && pending.Source != src {
				flush()
			}
			if pending == nil {
				pending = &ScanGroup{Source: src}
			}
			pending.Patterns = append(pending.Patterns, el)

		case *ast.Filter:
			flush()
			steps = append(steps, Step{Kind: StepFilter, Filter: e})

		case *ast.Bind:
			flush()
			steps = append(steps, Step{Kind: StepBind, Bind: e})

		case *ast.Optional:
			flush()
			inner, err := buildGroup(e.Group, router)
			if err != nil {
				return nil, err
			}
			steps = append(steps, Step{Kind: StepOptional, Optional: &Plan{Steps: insertJoins(inner)}})

		case *ast.Union:
			flush()
			var alts []*Plan
			for _, g := range e.Groups {
				inner, err := buildGroup(g, router)
				if err != nil {
					return nil, err
				}
				alts = append(alts, &Plan{Steps: insertJoins(inner)})
			}
			steps = append(steps, Step{Kind: StepUnion, Union: alts})

		case *ast.AntiJoin:
			flush()
			inner, err := buildGroup(e.Group, router)
			if err != nil {
				return nil, err
			}
			steps = append(steps, Step{Kind: StepAntiJoin, AntiJoin: &AntiJoinStep{
				Kind:  e.Kind,
				Inner: &Plan{Steps: insertJoins(inner)},
			}})

		case *ast.Values:
			flush()
			steps = append(steps, Step{Kind: StepValues, Values: e})

		case *ast.SubSelectPattern:
			flush()
			steps = append(steps, Step{Kind: StepSubSelect, SubSelect: e.Query})
		}
	}
	flush()
	return steps, nil
}

func routeOf(el ast.GroupElement, router SourceRouter) string {
	if router == nil {
		return nativeSource
	}
	switch e := el.(type) {
	case *ast.ClassPattern:
		if alias, ok := router.RouteClass(e.Class); ok {
			return alias
		}
		return nativeSource
	case *ast.TriplePattern:
		if iri, ok := e.P.(ast.IRI); ok {
			if alias, ok := router.RoutePredicate(iri); ok {
				return alias
			}
		}
	}
	return nativeSource
}

// insertJoins inserts a JoinStep between every pair of consecutive
// StepScan steps, deciding hash-vs-cartesian from their shared
// variables (spec §4.8 step 5).
func insertJoins(steps []Step) []Step {
	var out []Step
	var prevScan *ScanGroup
	for _, s := range steps {
		if s.Kind == StepScan && prevScan != nil {
			shared := sharedVars(prevScan, s.Scan)
			kind := JoinCartesian
			if len(shared) > 0 {
				kind = JoinHash
			}
			out = append(out, Step{Kind: StepJoin, Join: &JoinStep{Kind: kind, SharedVars: shared}})
		}
		out = append(out, s)
		if s.Kind == StepScan {
			prevScan = s.Scan
		}
	}
	return out
}

func sharedVars(a, b *ScanGroup) []string {
	left := varsOf(a.Patterns)
	right := varsOf(b.Patterns)
	var shared []string
	for v := range left {
		if right[v] {
			shared = append(shared, v)
		}
	}
	return shared
}

func varsOf(patterns []ast.GroupElement) map[string]bool {
	out := map[string]bool{}
	addTerm := func(t ast.Term) {
		if v, ok := t.(ast.Var); ok {
			out[v.Name] = true
		}
	}
	for _, p := range patterns {
		switch e := p.(type) {
		case *ast.TriplePattern:
			addTerm(e.S)
			addTerm(e.P)
			addTerm(e.O)
		case *ast.ClassPattern:
			addTerm(e.Subject)
		}
	}
	return out
}
