package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitWithStdoutExporterInstallsGlobalProviders(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "test-service"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	tracer := otel.Tracer("telemetry-test")
	assert.NotNil(t, tracer)
}

func TestInitWithOTLPExporterRequiresEndpoint(t *testing.T) {
	_, err := Init(context.Background(), Config{Exporter: OTLPHTTP})
	assert.Error(t, err)
}

func TestServiceNameDefaultsWhenUnset(t *testing.T) {
	assert.Equal(t, "fluree-db", serviceName(Config{}))
	assert.Equal(t, "custom", serviceName(Config{ServiceName: "custom"}))
}
