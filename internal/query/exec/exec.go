package exec

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluree/db-sub010/internal/errs"
	"github.com/fluree/db-sub010/internal/flake"
	"github.com/fluree/db-sub010/internal/ledger"
	"github.com/fluree/db-sub010/internal/query/ast"
	"github.com/fluree/db-sub010/internal/query/plan"
)

// VirtualSource executes one virtual-graph-routed ScanGroup (spec §4.11):
// internal/vg implements this against a tabular backend, translating
// IN pushdowns on column-backed variables into the backend's native
// filter clauses.
type VirtualSource interface {
	Scan(ctx context.Context, group *plan.ScanGroup) ([]Solution, error)
}

// Executor runs a built Plan to completion against a ledger snapshot,
// dispatching each ScanGroup to the native ledger or to the virtual
// source registered under its alias.
type Executor struct {
	Db         *ledger.Db
	Namespaces *flake.Namespaces
	Sources    map[string]VirtualSource
}

// Run executes p's steps and applies its query's solution modifiers
// (spec §4.9). Cancellation is checked at each step boundary — spec §5's
// cooperative cancellation, not preemption mid-scan.
func (e *Executor) Run(ctx context.Context, p *plan.Plan) ([]Solution, error) {
	ctx, span := tracer.Start(ctx, "query.exec.run", trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int("steps", len(p.Steps))))
	defer span.End()

	sols, err := e.execSteps(ctx, p.Steps)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	out, err := ApplyModifiers(e.Namespaces, p.Query, sols)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	execMetrics.solutionCount.Add(ctx, int64(len(out)))
	return out, nil
}

func (e *Executor) execSteps(ctx context.Context, steps []plan.Step) ([]Solution, error) {
	current := []Solution{{}}
	firstScanDone := false
	var pendingJoin *plan.JoinStep

	join := func(left, right []Solution, leftName, rightName string) ([]Solution, error) {
		shared := sharedVarNames(left, right)
		if len(shared) == 0 {
			return CartesianJoin(left, right, leftName, rightName)
		}
		return HashJoin(left, right, shared)
	}

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		switch st.Kind {
		case plan.StepScan:
			scanned, serr := e.execScanGroup(ctx, st.Scan)
			if serr != nil {
				return nil, serr
			}
			if !firstScanDone {
				current = scanned
				firstScanDone = true
				break
			}
			kind := plan.JoinCartesian
			shared := []string(nil)
			if pendingJoin != nil {
				kind = pendingJoin.Kind
				shared = pendingJoin.SharedVars
			}
			if kind == plan.JoinHash {
				current, err = HashJoin(current, scanned, shared)
			} else {
				current, err = CartesianJoin(current, scanned, "left", "right")
			}

		case plan.StepJoin:
			pendingJoin = st.Join

		case plan.StepFilter:
			current, err = filterSolutions(e.Namespaces, current, st.Filter.Expr)

		case plan.StepBind:
			current, err = bindSolutions(e.Namespaces, current, st.Bind)

		case plan.StepOptional:
			inner, ierr := e.execSteps(ctx, st.Optional.Steps)
			if ierr != nil {
				return nil, ierr
			}
			current, err = LeftOuterHashJoin(current, inner, sharedVarNames(current, inner))

		case plan.StepUnion:
			var all []Solution
			for _, alt := range st.Union {
				altSols, aerr := e.execSteps(ctx, alt.Steps)
				if aerr != nil {
					return nil, aerr
				}
				all = append(all, altSols...)
			}
			current, err = join(current, all, "left", "union")

		case plan.StepAntiJoin:
			inner, ierr := e.execSteps(ctx, st.AntiJoin.Inner.Steps)
			if ierr != nil {
				return nil, ierr
			}
			current = AntiJoin(st.AntiJoin.Kind, current, inner)

		case plan.StepValues:
			vsols, verr := MaterializeValues(e.Namespaces, st.Values)
			if verr != nil {
				return nil, verr
			}
			current, err = join(current, vsols, "left", "values")

		case plan.StepSubSelect:
			sub, berr := plan.Build(ctx, st.SubSelect, nil)
			if berr != nil {
				return nil, berr
			}
			subSols, serr := e.Run(ctx, sub)
			if serr != nil {
				return nil, serr
			}
			current, err = join(current, subSols, "left", "subselect")
		}
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

func (e *Executor) execScanGroup(ctx context.Context, group *plan.ScanGroup) ([]Solution, error) {
	if group.Source == "" {
		return ScanNative(ctx, e.Db, e.Namespaces, group)
	}
	src, ok := e.Sources[group.Source]
	if !ok {
		return nil, errs.Wrap("query.exec", errs.Validation,
			fmt.Errorf("%w: no virtual source registered for %q", errs.ErrInvalidQuery, group.Source))
	}
	return src.Scan(ctx, group)
}

func filterSolutions(ns *flake.Namespaces, sols []Solution, e ast.Expr) ([]Solution, error) {
	out := make([]Solution, 0, len(sols))
	for _, s := range sols {
		m, err := EvalExpr(ns, s, e)
		if err != nil {
			return nil, err
		}
		if truthy(m) {
			out = append(out, s)
		}
	}
	return out, nil
}

func bindSolutions(ns *flake.Namespaces, sols []Solution, b *ast.Bind) ([]Solution, error) {
	out := make([]Solution, 0, len(sols))
	for _, s := range sols {
		m, err := EvalExpr(ns, s, b.Expr)
		if err != nil {
			return nil, err
		}
		ext := s.Clone()
		ext[b.As.Name] = m
		out = append(out, ext)
	}
	return out, nil
}
