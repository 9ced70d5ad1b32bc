package searchincidents

import (
	"context"

	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/store"
)

type Service struct {
	config    *Config
	incidents store.IncidentStore
	logger    logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		incidents: deps.Incidents,
		logger:    deps.Logger,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	limit := store.ClampLimit(input.Limit)

	incidents, err := s.incidents.Search(ctx, input.ShortDescriptionContains, limit)
	if err != nil {
		s.logger.Error("Incident search failed", map[string]interface{}{
			"query": input.ShortDescriptionContains,
			"error": err.Error(),
		})
		return nil, err
	}
	if incidents == nil {
		incidents = []store.Incident{}
	}

	s.logger.Debug("Incident search completed", map[string]interface{}{
		"query":   input.ShortDescriptionContains,
		"limit":   limit,
		"matches": len(incidents),
	})
	return &Output{Result: incidents}, nil
}
