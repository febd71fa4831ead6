package vg

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/fluree/db-sub010/vg")

var vgMetrics struct {
	rowsScanned metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/fluree/db-sub010/vg")
	vgMetrics.rowsScanned, _ = m.Int64Counter("fluree.vg.rows_scanned",
		metric.WithDescription("rows returned by a virtual-graph foreign table scan"),
		metric.WithUnit("{row}"))
}
