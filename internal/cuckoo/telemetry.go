package cuckoo

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/fluree/db-sub010/cuckoo")

var cuckooMetrics struct {
	reclaimedCount metric.Int64Counter
	retainedCount  metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/fluree/db-sub010/cuckoo")
	cuckooMetrics.reclaimedCount, _ = m.Int64Counter("fluree.cuckoo.reclaimed_count",
		metric.WithDescription("garbage addresses deleted by a cross-branch sweep"),
		metric.WithUnit("{address}"))
	cuckooMetrics.retainedCount, _ = m.Int64Counter("fluree.cuckoo.retained_count",
		metric.WithDescription("garbage addresses a sweep retained because another branch still claims them"),
		metric.WithUnit("{address}"))
}
