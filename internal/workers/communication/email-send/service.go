package emailsend

import (
	"context"

	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/logger"
)

const StatusOK = "ok"

type Service struct {
	config *Config
	sender Sender
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		sender: deps.Sender,
		logger: deps.Logger,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	s.logger.Info("Executing email send", map[string]interface{}{
		"to":       input.To,
		"subject":  input.Subject,
		"provider": s.sender.Provider(),
	})

	if err := validateEmailAddresses(input); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	msg := &Message{
		From:    input.From,
		To:      input.To,
		Cc:      nonNil(input.Cc),
		Bcc:     nonNil(input.Bcc),
		Subject: input.Subject,
		Body:    input.Body,
	}
	if msg.From == "" {
		msg.From = s.config.DefaultFrom
	}

	messageID, err := s.sender.Send(ctx, msg)
	if err != nil {
		s.logger.Error("Email delivery failed", map[string]interface{}{
			"to":       input.To,
			"provider": s.sender.Provider(),
			"error":    err.Error(),
		})
		return nil, errors.NewNotificationSendFailedError("email", err)
	}

	s.logger.Info("Email sent successfully", map[string]interface{}{
		"to":        input.To,
		"messageId": messageID,
		"provider":  s.sender.Provider(),
	})

	out := &Output{
		Status:    StatusOK,
		MessageID: messageID,
		Sent: Sent{
			To:      msg.To,
			Cc:      msg.Cc,
			Bcc:     msg.Bcc,
			Subject: msg.Subject,
			Body:    msg.Body,
		},
	}
	if s.sender.Provider() == config.EmailProviderMock {
		out.Note = MockNote
	}
	return out, nil
}

// Provider names the configured delivery backend.
func (s *Service) Provider() string {
	return s.sender.Provider()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
