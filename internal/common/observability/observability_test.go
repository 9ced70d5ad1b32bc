package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"incident-assistant/internal/common/config"
)

func TestObservability_RecordExportsToRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := New("helpdesk-test", reg, nil)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	obs.Record(context.Background(), "search_incidents", "success", 12*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["helpdesk_calls_total"], "got %v", names)
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	obs.Record(context.Background(), "x", "success", time.Millisecond)
	assert.Nil(t, obs.Tracing())
	assert.NoError(t, obs.Shutdown(context.Background()))

	ctx, span := obs.Tracing().StartSpan(context.Background(), "zeebe.job", nil)
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("ignored"))
}

func TestTracing_EndSpanRecordsError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := NewTracingFromProvider(provider, "test")

	_, span := tr.StartSpan(context.Background(), "tool.create_incident", map[string]string{"tool": "create_incident"})
	EndSpan(span, errors.New("duplicate"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "tool.create_incident", ended[0].Name())
	assert.Len(t, ended[0].Events(), 1)
}

func TestNewTracing_WithoutEndpoint(t *testing.T) {
	tr, err := NewTracing(config.TracingConfig{SampleRatio: 1}, "helpdesk-test")
	require.NoError(t, err)
	assert.NoError(t, tr.Shutdown(context.Background()))
}
