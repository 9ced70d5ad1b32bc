package emailsend

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"incident-assistant/internal/common/aws"
	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSESClient struct {
	mock.Mock
}

func (m *MockSESClient) SendEmail(ctx context.Context, msg aws.Email) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func newMockHandler(t *testing.T) (*Handler, *bytes.Buffer) {
	var console bytes.Buffer
	h, err := NewHandler(HandlerOptions{
		Logger:  logger.NewTestLogger(t),
		Console: &console,
	})
	require.NoError(t, err)
	return h, &console
}

func TestHandler_MockProvider(t *testing.T) {
	h, console := newMockHandler(t)
	assert.Equal(t, config.EmailProviderMock, h.Provider())

	out, err := h.Execute(context.Background(), &Input{
		To:      []string{"support@example.com"},
		Subject: "New Incident INC20251017101500",
		Body:    "Issue reported: VPN\n\nDrops every hour",
	})
	require.NoError(t, err)

	assert.Equal(t, "ok", out.Status)
	assert.True(t, strings.HasPrefix(out.MessageID, "MOCK-"))
	assert.Len(t, out.MessageID, len("MOCK-")+36)
	assert.Equal(t, MockNote, out.Note)
	assert.Equal(t, []string{"support@example.com"}, out.Sent.To)
	assert.Equal(t, []string{}, out.Sent.Cc)
	assert.Equal(t, []string{}, out.Sent.Bcc)

	printed := console.String()
	assert.Contains(t, printed, "Mock Email Sent")
	assert.Contains(t, printed, "New Incident INC20251017101500")
	assert.Contains(t, printed, out.MessageID)
}

func TestHandler_RejectsBadAddresses(t *testing.T) {
	h, console := newMockHandler(t)

	tests := []struct {
		name  string
		input *Input
		field string
	}{
		{"no recipients", &Input{Subject: "s", Body: "b"}, "to"},
		{"bad to", &Input{To: []string{"not-an-email"}, Subject: "s", Body: "b"}, "to"},
		{"bad cc", &Input{To: []string{"a@example.com"}, Cc: []string{"nope"}, Subject: "s", Body: "b"}, "cc"},
		{"bad bcc", &Input{To: []string{"a@example.com"}, Bcc: []string{"x@y"}, Subject: "s", Body: "b"}, "bcc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
	assert.Empty(t, console.String())
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]interface{}
		want    *Input
		wantErr bool
	}{
		{
			name: "minimal",
			vars: map[string]interface{}{"to": []interface{}{"a@example.com"}, "subject": "s", "body": "b"},
			want: &Input{To: []string{"a@example.com"}, Subject: "s", Body: "b"},
		},
		{
			name: "null cc",
			vars: map[string]interface{}{"to": []interface{}{"a@example.com"}, "subject": "s", "body": "b", "cc": nil},
			want: &Input{To: []string{"a@example.com"}, Subject: "s", Body: "b"},
		},
		{
			name:    "empty to",
			vars:    map[string]interface{}{"to": []interface{}{}, "subject": "s", "body": "b"},
			wantErr: true,
		},
		{
			name:    "to as string",
			vars:    map[string]interface{}{"to": "a@example.com", "subject": "s", "body": "b"},
			wantErr: true,
		},
		{
			name:    "missing body",
			vars:    map[string]interface{}{"to": []interface{}{"a@example.com"}, "subject": "s"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInput(tt.vars)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSESSender(t *testing.T) {
	client := &MockSESClient{}
	client.On("SendEmail", mock.Anything, aws.Email{
		From:    "helpdesk@example.com",
		To:      []string{"support@example.com"},
		Cc:      []string{},
		Bcc:     []string{"audit@example.com"},
		Subject: "New Incident INC1",
		Body:    "body",
	}).Return("ses-0001", nil)

	cfg := DefaultConfig()
	cfg.Provider = config.EmailProviderSES
	cfg.AWSRegion = "eu-west-1"

	h, err := NewHandler(HandlerOptions{
		CustomConfig: cfg,
		Sender:       &SESSender{client: client},
		Logger:       logger.NewNoOpLogger(),
	})
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), &Input{
		To:      []string{"support@example.com"},
		Bcc:     []string{"audit@example.com"},
		Subject: "New Incident INC1",
		Body:    "body",
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-0001", out.MessageID)
	assert.Empty(t, out.Note)
	client.AssertExpectations(t)
}

func TestSESSender_FailureIsNotificationError(t *testing.T) {
	client := &MockSESClient{}
	client.On("SendEmail", mock.Anything, mock.Anything).Return("", fmt.Errorf("MessageRejected"))

	cfg := DefaultConfig()
	cfg.Provider = config.EmailProviderSES
	cfg.AWSRegion = "eu-west-1"

	h, err := NewHandler(HandlerOptions{CustomConfig: cfg, Sender: &SESSender{client: client}, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), &Input{To: []string{"a@example.com"}, Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotificationSendFailed))
}

func TestSMTPSender_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := DefaultConfig()
	cfg.Provider = config.EmailProviderSMTP
	cfg.SMTPHost = "127.0.0.1"
	cfg.SMTPPort = port
	cfg.UseTLS = false

	h, err := NewHandler(HandlerOptions{CustomConfig: cfg, Logger: logger.NewNoOpLogger()})
	require.NoError(t, err)
	assert.Equal(t, config.EmailProviderSMTP, h.Provider())

	_, err = h.Execute(context.Background(), &Input{To: []string{"a@example.com"}, Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotificationSendFailed))
}

func TestBuildEmailMessage(t *testing.T) {
	msg := &Message{
		From:    "helpdesk@example.com",
		To:      []string{"a@example.com", "b@example.com"},
		Cc:      []string{"c@example.com"},
		Bcc:     []string{"hidden@example.com"},
		Subject: "New Incident INC1",
		Body:    "Issue reported: printer",
	}
	raw := buildEmailMessage(msg, "<1.a@smtp.example.com>", time.Date(2025, 10, 17, 10, 0, 0, 0, time.UTC))

	assert.Contains(t, raw, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, raw, "Cc: c@example.com\r\n")
	assert.Contains(t, raw, "Message-ID: <1.a@smtp.example.com>\r\n")
	assert.NotContains(t, raw, "hidden@example.com")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nIssue reported: printer"))
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com", "hidden@example.com"}, msg.Recipients())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"mock default", func(*Config) {}, ""},
		{"smtp without host", func(c *Config) { c.Provider = config.EmailProviderSMTP }, "smtp_host"},
		{"ses without region", func(c *Config) { c.Provider = config.EmailProviderSES }, "aws_region"},
		{"unknown provider", func(c *Config) { c.Provider = "pigeon" }, "unknown email provider"},
		{"bad from", func(c *Config) { c.DefaultFrom = "helpdesk" }, "default_from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appCfg := &config.Config{}
	appCfg.Notifications.Email.Provider = config.EmailProviderSMTP
	appCfg.Notifications.Email.FromEmail = "it@example.com"
	appCfg.Notifications.SMTP.Host = "smtp.example.com"
	appCfg.Notifications.SMTP.Port = 2525

	cfg := createConfigFromAppConfig(appCfg, nil)
	assert.Equal(t, config.EmailProviderSMTP, cfg.Provider)
	assert.Equal(t, "it@example.com", cfg.DefaultFrom)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.NoError(t, cfg.Validate())
}
