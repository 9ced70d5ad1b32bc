package createincident

import (
	"context"
	"encoding/json"
	"fmt"
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

type MockIncidentStore struct {
	mock.Mock
}

func (m *MockIncidentStore) Search(ctx context.Context, text string, limit int) ([]store.Incident, error) {
	args := m.Called(ctx, text, limit)
	return args.Get(0).([]store.Incident), args.Error(1)
}

func (m *MockIncidentStore) Create(ctx context.Context, in store.NewIncident) error {
	return m.Called(ctx, in).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEvent(ctx context.Context, eventType, subject string, payload interface{}) (string, error) {
	args := m.Called(ctx, eventType, subject, payload)
	return args.String(0), args.Error(1)
}

func createMockJob(variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                7,
		Type:               TaskType,
		ProcessInstanceKey: 70,
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func validInput() *Input {
	return &Input{
		Number:           "INC20251017101500",
		Opened:           "2025-10-17T10:15:00.123456",
		ShortDescription: "Laptop will not boot",
		Description:      "Black screen after the BIOS logo",
	}
}

func publishingConfig() *Config {
	cfg := DefaultConfig()
	cfg.PublishEvents = true
	return cfg
}

func TestParseOpened(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2025-10-17T10:15:00Z", want: time.Date(2025, 10, 17, 10, 15, 0, 0, time.UTC)},
		{in: "2025-10-17T10:15:00+02:00", want: time.Date(2025, 10, 17, 8, 15, 0, 0, time.UTC)},
		{in: "2025-10-17T10:15:00.5", want: time.Date(2025, 10, 17, 10, 15, 0, 500000000, time.Local)},
		{in: "2025-10-17 10:15:00", want: time.Date(2025, 10, 17, 10, 15, 0, 0, time.Local)},
		{in: "2025-10-17", want: time.Date(2025, 10, 17, 0, 0, 0, 0, time.Local)},
		{in: "yesterday", wantErr: true},
		{in: "17/10/2025", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOpened(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	incStore := &MockIncidentStore{}
	incStore.On("Create", mock.Anything, mock.MatchedBy(func(in store.NewIncident) bool {
		return in.Number == "INC20251017101500" &&
			in.State == store.StateNew &&
			in.AssignedTo == nil &&
			in.Opened.Nanosecond() == 123456000
	})).Return(nil)

	h, err := NewHandler(HandlerOptions{Incidents: incStore, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)

	input := validInput()
	blank := ""
	input.AssignedTo = &blank

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, &Output{Status: "success", Number: "INC20251017101500"}, out)
	incStore.AssertExpectations(t)
}

func TestHandler_ExecuteDuplicate(t *testing.T) {
	incStore := &MockIncidentStore{}
	incStore.On("Create", mock.Anything, mock.Anything).
		Return(errors.NewDuplicateIncidentError("INC20251017101500"))
	publisher := &MockPublisher{}

	h, err := NewHandler(HandlerOptions{
		Incidents:    incStore,
		Publisher:    publisher,
		CustomConfig: publishingConfig(),
		Logger:       logger.NewNoOpLogger(),
	})
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), validInput())
	require.Error(t, err)
	assert.True(t, store.IsDuplicateIncident(err))
	publisher.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_ExecuteBadOpened(t *testing.T) {
	incStore := &MockIncidentStore{}
	h, err := NewHandler(HandlerOptions{Incidents: incStore, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)

	input := validInput()
	input.Opened = "not a date"
	_, err = h.Execute(context.Background(), input)

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	incStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandler_ExecutePublishesEvent(t *testing.T) {
	incStore := &MockIncidentStore{}
	incStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	publisher := &MockPublisher{}
	publisher.On("PublishEvent", mock.Anything, EventIncidentCreated, "New Incident INC20251017101500",
		mock.MatchedBy(func(ev CreatedEvent) bool {
			return ev.Number == "INC20251017101500" && ev.State == store.StateOnHold && *ev.AssignedTo == "alice"
		})).Return("msg-1", nil)

	h, err := NewHandler(HandlerOptions{
		Incidents:    incStore,
		Publisher:    publisher,
		CustomConfig: publishingConfig(),
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)

	input := validInput()
	input.State = store.StateOnHold
	input.AssignedTo = store.StringPtr("alice")

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "success", out.Status)
	publisher.AssertExpectations(t)
}

func TestHandler_PublishFailureIsNotFatal(t *testing.T) {
	incStore := &MockIncidentStore{}
	incStore.On("Create", mock.Anything, mock.Anything).Return(nil)

	publisher := &MockPublisher{}
	publisher.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", fmt.Errorf("sns: throttled"))

	h, err := NewHandler(HandlerOptions{
		Incidents:    incStore,
		Publisher:    publisher,
		CustomConfig: publishingConfig(),
		Logger:       logger.NewNoOpLogger(),
	})
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "INC20251017101500", out.Number)
	publisher.AssertExpectations(t)
}

func TestHandler_ParseInput(t *testing.T) {
	h, err := NewHandler(HandlerOptions{Incidents: &MockIncidentStore{}, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
	}{
		{
			name: "valid with null assignee",
			variables: map[string]interface{}{
				"number": "INC1", "opened": "2025-10-17T10:15:00", "short_description": "VPN",
				"description": "drops every hour", "state": "New", "assigned_to": nil,
			},
		},
		{
			name: "missing description",
			variables: map[string]interface{}{
				"number": "INC1", "opened": "2025-10-17T10:15:00", "short_description": "VPN",
			},
			wantErr: true,
		},
		{
			name: "unknown state",
			variables: map[string]interface{}{
				"number": "INC1", "opened": "2025-10-17T10:15:00", "short_description": "VPN",
				"description": "x", "state": "Resolved",
			},
			wantErr: true,
		},
		{
			name: "number too long",
			variables: map[string]interface{}{
				"number": "INC000000000000000000000000000000000", "opened": "2025-10-17", "short_description": "VPN",
				"description": "x",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.parseInput(createMockJob(tt.variables))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCreateConfigFromAppConfig_SNS(t *testing.T) {
	appCfg := &config.Config{}
	appCfg.Notifications.SNS.Enabled = true

	cfg := createConfigFromAppConfig(appCfg, nil)
	assert.True(t, cfg.PublishEvents)
	assert.True(t, cfg.Enabled)
}

func TestHandler_Handle(t *testing.T) {
	validVars := map[string]interface{}{
		"number":            "INC20251017101500",
		"opened":            "2025-10-17T10:15:00",
		"short_description": "Laptop will not boot",
		"description":       "Black screen after the BIOS logo",
	}

	tests := []struct {
		name         string
		vars         map[string]interface{}
		createErr    error
		wantComplete bool
		wantRetries  int32
		wantThrown   errors.ErrorCode
	}{
		{name: "created", vars: validVars, wantComplete: true},
		{
			name:       "duplicate number",
			vars:       validVars,
			createErr:  errors.NewDuplicateIncidentError("INC20251017101500"),
			wantThrown: errors.ErrCodeDuplicateIncident,
		},
		{
			name:        "insert failure is retried",
			vars:        validVars,
			createErr:   errors.NewDatabaseInsertFailedError(fmt.Errorf("connection reset")),
			wantRetries: 3,
		},
		{
			name:       "missing description",
			vars:       map[string]interface{}{"number": "INC1", "opened": "2025-10-17", "short_description": "x"},
			wantThrown: errors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			incStore := &MockIncidentStore{}
			incStore.On("Create", mock.Anything, mock.Anything).Return(tt.createErr)
			h, err := NewHandler(HandlerOptions{Incidents: incStore, Logger: logger.NewTestLogger(t)})
			require.NoError(t, err)
			client := camundatest.NewJobClient()

			h.Handle(client, createMockJob(tt.vars))

			switch {
			case tt.wantComplete:
				completed := client.Completed()
				require.Len(t, completed, 1)
				assert.Equal(t, int64(7), completed[0].JobKey)
				assert.Equal(t, map[string]interface{}{"status": "success", "number": "INC20251017101500"},
					camundatest.Variables(completed[0].Variables))
				assert.Empty(t, client.Failed())
				assert.Empty(t, client.Thrown())
			case tt.wantThrown != "":
				thrown := client.Thrown()
				require.Len(t, thrown, 1)
				assert.Equal(t, string(tt.wantThrown), thrown[0].ErrorCode)
				assert.Empty(t, client.Completed())
			default:
				failed := client.Failed()
				require.Len(t, failed, 1)
				assert.Equal(t, tt.wantRetries, failed[0].Retries)
				assert.Empty(t, client.Completed())
			}
			if tt.wantThrown == errors.ErrCodeValidationFailed {
				incStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}
