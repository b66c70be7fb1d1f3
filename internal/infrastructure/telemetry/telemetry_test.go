package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestMetricsHandlerExposesOtelInstruments(t *testing.T) {
	ctx := context.Background()
	tel, err := New(ctx, config.TelemetryConfig{ServiceName: "catalog-test"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(ctx) })

	counter, err := otel.Meter("telemetry-test").Int64Counter("catalog.test.requests")
	require.NoError(t, err)
	counter.Add(ctx, 3, metric.WithAttributes(attribute.String("entity", "product")))

	rec := httptest.NewRecorder()
	tel.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_test_requests")
	assert.Contains(t, rec.Body.String(), `entity="product"`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewWithoutEndpointStillTraces(t *testing.T) {
	ctx := context.Background()
	tel, err := New(ctx, config.TelemetryConfig{ServiceName: "catalog-test"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(ctx) })

	_, span := otel.Tracer("telemetry-test").Start(ctx, "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}
