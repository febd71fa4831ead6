package indexer

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/fluree/db-sub010/indexer")

var indexerMetrics struct {
	garbageCount metric.Int64Counter
	addedCount   metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/fluree/db-sub010/indexer")
	indexerMetrics.garbageCount, _ = m.Int64Counter("fluree.indexer.garbage_count",
		metric.WithDescription("index-node addresses a refresh made obsolete"),
		metric.WithUnit("{address}"))
	indexerMetrics.addedCount, _ = m.Int64Counter("fluree.indexer.added_count",
		metric.WithDescription("index-node addresses a refresh newly wrote"),
		metric.WithUnit("{address}"))
}
