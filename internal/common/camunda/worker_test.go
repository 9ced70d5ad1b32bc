package camunda

import (
	"context"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"incident-assistant/internal/common/camunda/camundatest"
	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/common/observability"
)

type handlerFunc func(worker.JobClient, entities.Job)

func (f handlerFunc) Handle(c worker.JobClient, j entities.Job) { f(c, j) }

func newTestWorker(t *testing.T, taskType string, h JobHandler) (*CamundaWorker, *tracetest.SpanRecorder, *prometheus.Registry) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tracing := observability.NewTracingFromProvider(
		sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)), "worker-test")
	reg := prometheus.NewRegistry()
	obs, err := observability.New("worker-test", reg, tracing)
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	return &CamundaWorker{
		handler:  h,
		obs:      obs,
		logger:   logger.NewTestLogger(t),
		taskType: taskType,
	}, recorder, reg
}

// callCount reads helpdesk_calls_total for one operation and status.
func callCount(t *testing.T, reg *prometheus.Registry, operation, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "helpdesk_calls_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["operation"] == operation && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestWorker_TracesCompletedJob(t *testing.T) {
	w, recorder, reg := newTestWorker(t, "search-incidents", handlerFunc(func(c worker.JobClient, j entities.Job) {
		CompleteJob(context.Background(), c, j, map[string]interface{}{"result": []interface{}{}}, logger.NewNoOpLogger())
	}))
	client := camundatest.NewJobClient()

	w.handle(client, camundatest.NewJob(21, "search-incidents", 3, nil))

	require.Len(t, client.Completed(), 1)
	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "zeebe.job", ended[0].Name())
	assert.NotEqual(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, float64(1), callCount(t, reg, "search-incidents", "success"))
	assert.Equal(t, float64(0), callCount(t, reg, "search-incidents", "error"))
}

func TestWorker_TracesFailedJob(t *testing.T) {
	w, recorder, reg := newTestWorker(t, "create-incident", handlerFunc(func(c worker.JobClient, j entities.Job) {
		FailJob(context.Background(), c, j, errors.NewDuplicateIncidentError("INC1"), logger.NewNoOpLogger())
	}))
	client := camundatest.NewJobClient()

	w.handle(client, camundatest.NewJob(22, "create-incident", 3, nil))

	require.Len(t, client.Thrown(), 1)
	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "create-incident", attrs["taskType"])
	assert.Equal(t, "22", attrs["jobKey"])
	assert.Equal(t, float64(1), callCount(t, reg, "create-incident", "error"))
}

func TestWorker_WithoutObservability(t *testing.T) {
	w := &CamundaWorker{
		handler: handlerFunc(func(c worker.JobClient, j entities.Job) {
			CompleteJob(context.Background(), c, j, map[string]interface{}{}, logger.NewNoOpLogger())
		}),
		logger:   logger.NewNoOpLogger(),
		taskType: "email-send",
	}
	client := camundatest.NewJobClient()

	w.handle(client, camundatest.NewJob(23, "email-send", 3, nil))
	assert.Len(t, client.Completed(), 1)
}
