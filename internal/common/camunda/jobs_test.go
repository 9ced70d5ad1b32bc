package camunda

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"incident-assistant/internal/common/camunda/camundatest"
	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/common/metrics"
)

func useFastJobRetry(t *testing.T) {
	t.Helper()
	saved := JobCommandRetry
	JobCommandRetry = fastRetry(3)
	t.Cleanup(func() { JobCommandRetry = saved })
}

func TestCompleteJob_SendsOutputAsVariables(t *testing.T) {
	client := camundatest.NewJobClient()
	job := camundatest.NewJob(7, "search-knowledge-base", 3, nil)
	before := testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues("search-knowledge-base"))

	CompleteJob(context.Background(), client, job, map[string]interface{}{
		"result": []map[string]string{{"number": "KB0001"}},
	}, logger.NewTestLogger(t))

	completed := client.Completed()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(7), completed[0].JobKey)
	vars := camundatest.Variables(completed[0].Variables)
	assert.Equal(t, []interface{}{map[string]interface{}{"number": "KB0001"}}, vars["result"])
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues("search-knowledge-base")))
}

func TestCompleteJob_RetriesTransientSendFailure(t *testing.T) {
	useFastJobRetry(t)
	client := camundatest.NewJobClient()
	client.FailSends(
		status.Error(codes.Unavailable, "gateway restarting"),
		status.Error(codes.ResourceExhausted, "backpressure"),
	)

	CompleteJob(context.Background(), client, camundatest.NewJob(8, "search-incidents", 3, nil),
		map[string]interface{}{"result": []interface{}{}}, logger.NewTestLogger(t))

	assert.Equal(t, 3, client.Attempts())
	assert.Len(t, client.Completed(), 1)
}

func TestCompleteJob_PermanentSendFailureIsNotRetried(t *testing.T) {
	useFastJobRetry(t)
	client := camundatest.NewJobClient()
	client.FailSends(status.Error(codes.NotFound, "job 9 not found"))
	before := testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues("email-send"))

	CompleteJob(context.Background(), client, camundatest.NewJob(9, "email-send", 3, nil),
		map[string]interface{}{"status": "ok"}, logger.NewTestLogger(t))

	assert.Equal(t, 1, client.Attempts())
	assert.Empty(t, client.Completed())
	assert.Equal(t, before, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues("email-send")))
}

func TestFailJob(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		jobRetries  int32
		wantRetries int32 // -1 means a BPMN error is thrown
		wantCode    string
	}{
		{
			name:        "retryable error keeps remaining retries",
			err:         errors.NewDatabaseConnectionFailedError(plainErr("connection refused")),
			jobRetries:  3,
			wantRetries: 3,
		},
		{
			name:        "retryable error never raises retries",
			err:         errors.NewQueryExecutionFailedError("search", plainErr("deadlock")),
			jobRetries:  2,
			wantRetries: 1,
		},
		{
			name:        "retryable error without retries left is thrown",
			err:         errors.NewSearchQueryFailedError("kb", plainErr("503")),
			jobRetries:  0,
			wantRetries: -1,
			wantCode:    string(errors.ErrCodeSearchQueryFailed),
		},
		{
			name:        "duplicate incident is thrown",
			err:         errors.NewDuplicateIncidentError("INC1"),
			jobRetries:  3,
			wantRetries: -1,
			wantCode:    string(errors.ErrCodeDuplicateIncident),
		},
		{
			name:        "foreign error is thrown as internal",
			err:         plainErr("nil map"),
			jobRetries:  3,
			wantRetries: -1,
			wantCode:    string(errors.ErrCodeInternal),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := camundatest.NewJobClient()
			job := camundatest.NewJob(11, "create-incident", tt.jobRetries, nil)

			FailJob(context.Background(), client, job, tt.err, logger.NewTestLogger(t))

			assert.Empty(t, client.Completed())
			if tt.wantRetries < 0 {
				assert.Empty(t, client.Failed())
				thrown := client.Thrown()
				require.Len(t, thrown, 1)
				assert.Equal(t, int64(11), thrown[0].JobKey)
				assert.Equal(t, tt.wantCode, thrown[0].ErrorCode)
				vars := camundatest.Variables(thrown[0].Variables)
				assert.Equal(t, tt.wantCode, vars["errorCode"])
				assert.Equal(t, errors.GetErrorCategory(errors.ErrorCode(tt.wantCode)), vars["category"])
				return
			}
			assert.Empty(t, client.Thrown())
			failed := client.Failed()
			require.Len(t, failed, 1)
			assert.Equal(t, tt.wantRetries, failed[0].Retries)
			assert.NotEmpty(t, failed[0].ErrorMessage)
			assert.Equal(t, true, camundatest.Variables(failed[0].Variables)["retryable"])
		})
	}
}

func TestFailJob_RetriesTransientSendFailure(t *testing.T) {
	useFastJobRetry(t)
	client := camundatest.NewJobClient()
	client.FailSends(status.Error(codes.Unavailable, "gateway restarting"))

	FailJob(context.Background(), client, camundatest.NewJob(12, "create-incident", 3, nil),
		errors.NewDuplicateIncidentError("INC2"), logger.NewTestLogger(t))

	assert.Equal(t, 2, client.Attempts())
	require.Len(t, client.Thrown(), 1)
}

func TestFailJob_StopsRetryingWhenCancelled(t *testing.T) {
	saved := JobCommandRetry
	JobCommandRetry = RetryConfig{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second}
	t.Cleanup(func() { JobCommandRetry = saved })

	client := camundatest.NewJobClient()
	client.FailSends(status.Error(codes.Unavailable, "down"), status.Error(codes.Unavailable, "down"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	FailJob(ctx, client, camundatest.NewJob(13, "email-send", 3, nil),
		errors.NewNotificationSendFailedError("email", plainErr("smtp 421")), logger.NewTestLogger(t))

	assert.Equal(t, 1, client.Attempts())
	assert.Empty(t, client.Failed())
}

type plainErr string

func (e plainErr) Error() string { return string(e) }
