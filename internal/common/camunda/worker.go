package camunda

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/common/metrics"
	"incident-assistant/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every task-type handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type CamundaWorker struct {
	worker   worker.JobWorker
	handler  JobHandler
	obs      *observability.Observability
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. Handlers complete or fail the
// job themselves; the wrapper traces each job and records its outcome.
func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) *CamundaWorker {
	w := &CamundaWorker{
		handler:  handler,
		obs:      obs,
		logger:   log,
		taskType: taskType,
	}
	w.worker = client.NewJobWorker().
		JobType(taskType).
		Handler(w.handle).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	w.logger.Info("worker started", map[string]interface{}{"taskType": taskType, "maxJobsActive": maxJobsActive})
	return w
}

func (w *CamundaWorker) handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, span := w.obs.Tracing().StartSpan(context.Background(), "zeebe.job", map[string]string{
		"taskType": w.taskType,
		"jobKey":   strconv.FormatInt(job.GetKey(), 10),
	})

	tracked := &outcomeClient{JobClient: client}
	w.handler.Handle(tracked, job)

	var err error
	status := metrics.StatusSuccess
	if tracked.failed.Load() {
		status = metrics.StatusError
		err = fmt.Errorf("job %d of type %s failed", job.GetKey(), w.taskType)
	}
	observability.EndSpan(span, err)

	d := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(w.taskType).Observe(d.Seconds())
	w.obs.Record(ctx, w.taskType, status, d)
}

// outcomeClient notes whether a handler failed its job or threw an error.
type outcomeClient struct {
	worker.JobClient
	failed atomic.Bool
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.failed.Store(true)
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.failed.Store(true)
	return c.JobClient.NewThrowErrorCommand()
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	done := make(chan struct{})
	go func() {
		w.worker.Close()
		w.worker.AwaitClose()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("worker stop timed out", map[string]interface{}{"taskType": w.taskType})
	}
}
