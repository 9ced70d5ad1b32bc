package createincident

import (
	"context"

	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/store"
)

const StatusSuccess = "success"

type Service struct {
	config    *Config
	incidents store.IncidentStore
	publisher EventPublisher
	logger    logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		incidents: deps.Incidents,
		publisher: deps.Publisher,
		logger:    deps.Logger,
	}
}

// Execute inserts the incident and, when enabled, announces it on SNS.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	opened, err := ParseOpened(input.Opened)
	if err != nil {
		return nil, err
	}

	state := input.State
	if state == "" {
		state = store.StateNew
	}

	var assignedTo *string
	if input.AssignedTo != nil {
		assignedTo = store.StringPtr(*input.AssignedTo)
	}

	incident := store.NewIncident{
		Number:           input.Number,
		Opened:           opened,
		ShortDescription: input.ShortDescription,
		Description:      input.Description,
		State:            state,
		AssignedTo:       assignedTo,
	}
	if err := s.incidents.Create(ctx, incident); err != nil {
		s.logger.Error("Failed to create incident", map[string]interface{}{
			"number": input.Number,
			"error":  err.Error(),
		})
		return nil, err
	}

	s.logger.Info("Incident created", map[string]interface{}{
		"number": incident.Number,
		"state":  incident.State,
	})

	s.publishCreated(ctx, incident)

	return &Output{Status: StatusSuccess, Number: incident.Number}, nil
}

// publishCreated never fails the call; the incident row is already committed.
func (s *Service) publishCreated(ctx context.Context, in store.NewIncident) {
	if s.publisher == nil || !s.config.PublishEvents {
		return
	}

	messageID, err := s.publisher.PublishEvent(ctx, EventIncidentCreated, "New Incident "+in.Number, CreatedEvent{
		Number:           in.Number,
		Opened:           in.Opened,
		ShortDescription: in.ShortDescription,
		State:            in.State,
		AssignedTo:       in.AssignedTo,
	})
	if err != nil {
		s.logger.Warn("Failed to publish incident event", map[string]interface{}{
			"number": in.Number,
			"error":  err.Error(),
		})
		return
	}

	s.logger.Debug("Incident event published", map[string]interface{}{
		"number":    in.Number,
		"messageId": messageID,
	})
}
