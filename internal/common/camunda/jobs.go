package camunda

import (
	"context"

	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// CompleteJob completes job with output as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		log.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		FailJob(ctx, client, job, errors.NewValidationError(err.Error()), log)
		return
	}

	err = sendJobCommand(ctx, "complete job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		log.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(job.Type).Inc()
	log.Info("job completed", map[string]interface{}{"jobKey": job.Key})
}

// FailJob routes err through the shared BPMN error handler.
func FailJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, log logger.Logger) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(job.Type, string(stdErr.Code)).Inc()
	errors.NewErrorHandler(log, errors.WithSend(sendJobCommand)).HandleJobError(ctx, client, job, stdErr)
}

func sendJobCommand(ctx context.Context, operation string, send func(context.Context) error) error {
	return sendWithRetry(ctx, JobCommandRetry, operation, send)
}
