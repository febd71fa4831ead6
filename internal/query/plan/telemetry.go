package plan

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/fluree/db-sub010/query/plan")

var planMetrics struct {
	buildCount metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/fluree/db-sub010/query/plan")
	planMetrics.buildCount, _ = m.Int64Counter("fluree.query.plan_build_count",
		metric.WithDescription("query plans built"),
		metric.WithUnit("{plan}"))
}
