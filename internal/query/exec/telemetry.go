package exec

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/fluree/db-sub010/query/exec")

var execMetrics struct {
	solutionCount metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/fluree/db-sub010/query/exec")
	execMetrics.solutionCount, _ = m.Int64Counter("fluree.query.solution_count",
		metric.WithDescription("solutions a query run produced after modifiers"),
		metric.WithUnit("{solution}"))
}
