package createincident

import (
	"context"
	"time"

	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/store"
)

type Input struct {
	Number           string  `json:"number"`
	Opened           string  `json:"opened"`
	ShortDescription string  `json:"short_description"`
	Description      string  `json:"description"`
	State            string  `json:"state,omitempty"`
	AssignedTo       *string `json:"assigned_to,omitempty"`
}

type Output struct {
	Status string `json:"status"`
	Number string `json:"number"`
}

// CreatedEvent is the payload published after a successful insert.
type CreatedEvent struct {
	Number           string    `json:"number"`
	Opened           time.Time `json:"opened"`
	ShortDescription string    `json:"short_description"`
	State            string    `json:"state"`
	AssignedTo       *string   `json:"assigned_to,omitempty"`
}

// EventPublisher is satisfied by aws.SNSClient.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType, subject string, payload interface{}) (string, error)
}

type ServiceDependencies struct {
	Incidents store.IncidentStore
	Publisher EventPublisher
	Logger    logger.Logger
}
