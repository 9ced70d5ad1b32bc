package searchknowledgebase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"incident-assistant/internal/common/camunda/camundatest"
	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, text string, limit int) ([]store.KnowledgeArticle, error) {
	args := m.Called(ctx, text, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.KnowledgeArticle), args.Error(1)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "helpdesk-process",
		ElementId:          "Activity_SearchKnowledgeBase",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func newTestHandler(t *testing.T, searcher store.KnowledgeSearcher) *Handler {
	h, err := NewHandler(HandlerOptions{
		Searcher: searcher,
		Logger:   logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr string
	}{
		{
			name: "defaults",
			opts: HandlerOptions{Searcher: &MockSearcher{}},
		},
		{
			name:    "missing searcher",
			opts:    HandlerOptions{},
			wantErr: "knowledge searcher is required",
		},
		{
			name: "invalid custom config",
			opts: HandlerOptions{
				Searcher:     &MockSearcher{},
				CustomConfig: &Config{Enabled: true, MaxJobsActive: 0, Timeout: time.Second},
			},
			wantErr: "max_jobs_active",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = logger.NewNoOpLogger()
			h, err := NewHandler(tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, TaskType, h.GetTaskType())
			assert.True(t, h.IsEnabled())
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appCfg := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: false, MaxJobsActive: 12, Timeout: 1500},
	}}

	cfg := createConfigFromAppConfig(appCfg, nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 12, cfg.MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
}

func TestHandler_Execute(t *testing.T) {
	searcher := &MockSearcher{}
	articles := []store.KnowledgeArticle{
		{Number: "KB0001", ShortDescription: "How to reset your VPN password", Category: store.StringPtr("Network")},
	}
	searcher.On("Search", mock.Anything, "vpn password", 5).Return(articles, nil)

	h := newTestHandler(t, searcher)
	out, err := h.Execute(context.Background(), &Input{ShortDescriptionContains: "vpn password", Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, articles, out.Result)
	searcher.AssertExpectations(t)
}

func TestHandler_ExecuteDefaultsLimit(t *testing.T) {
	searcher := &MockSearcher{}
	searcher.On("Search", mock.Anything, "", store.DefaultLimit).Return(nil, nil)

	h := newTestHandler(t, searcher)
	out, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.NotNil(t, out.Result)
	assert.Empty(t, out.Result)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":[]}`, string(raw))
}

func TestHandler_ExecutePropagatesStoreError(t *testing.T) {
	searcher := &MockSearcher{}
	searcher.On("Search", mock.Anything, "printer", 3).
		Return(nil, errors.NewQueryTimeoutError("search_knowledge_base"))

	h := newTestHandler(t, searcher)
	_, err := h.Execute(context.Background(), &Input{ShortDescriptionContains: "printer", Limit: 3})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeQueryTimeout))
}

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, &MockSearcher{})

	tests := []struct {
		name      string
		variables map[string]interface{}
		want      *Input
		wantErr   bool
	}{
		{
			name:      "full input with unrelated process variables",
			variables: map[string]interface{}{"short_description_contains": "email sync", "limit": 5, "user_query": "x"},
			want:      &Input{ShortDescriptionContains: "email sync", Limit: 5},
		},
		{
			name:      "empty",
			variables: map[string]interface{}{},
			want:      &Input{},
		},
		{
			name:      "null query",
			variables: map[string]interface{}{"short_description_contains": nil},
			want:      &Input{},
		},
		{
			name:      "negative limit",
			variables: map[string]interface{}{"limit": -1},
			wantErr:   true,
		},
		{
			name:      "wrong type",
			variables: map[string]interface{}{"limit": "five"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(createMockJob(1, tt.variables))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, input)
		})
	}
}

func TestHandler_Handle(t *testing.T) {
	articles := []store.KnowledgeArticle{
		{Number: "KB0001", ShortDescription: "How to reset your VPN password"},
	}

	tests := []struct {
		name         string
		vars         map[string]interface{}
		found        []store.KnowledgeArticle
		searchErr    error
		wantComplete bool
		wantRetries  int32
		wantThrown   errors.ErrorCode
	}{
		{
			name:         "found",
			vars:         map[string]interface{}{"short_description_contains": "vpn", "limit": 2},
			found:        articles,
			wantComplete: true,
		},
		{
			name:        "query timeout is retried",
			vars:        map[string]interface{}{"short_description_contains": "vpn", "limit": 2},
			searchErr:   errors.NewQueryTimeoutError(TaskType),
			wantRetries: 2,
		},
		{
			name:       "negative limit",
			vars:       map[string]interface{}{"limit": -1},
			wantThrown: errors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &MockSearcher{}
			searcher.On("Search", mock.Anything, "vpn", 2).Return(tt.found, tt.searchErr)
			h := newTestHandler(t, searcher)
			client := camundatest.NewJobClient()

			h.Handle(client, createMockJob(31, tt.vars))

			switch {
			case tt.wantComplete:
				completed := client.Completed()
				require.Len(t, completed, 1)
				assert.Equal(t, int64(31), completed[0].JobKey)
				rows, ok := camundatest.Variables(completed[0].Variables)["result"].([]interface{})
				require.True(t, ok)
				require.Len(t, rows, 1)
				assert.Equal(t, "KB0001", rows[0].(map[string]interface{})["number"])
			case tt.wantThrown != "":
				thrown := client.Thrown()
				require.Len(t, thrown, 1)
				assert.Equal(t, string(tt.wantThrown), thrown[0].ErrorCode)
				searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
			default:
				failed := client.Failed()
				require.Len(t, failed, 1)
				assert.Equal(t, tt.wantRetries, failed[0].Retries)
				assert.Empty(t, client.Completed())
			}
		})
	}
}
