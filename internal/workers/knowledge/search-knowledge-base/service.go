package searchknowledgebase

import (
	"context"

	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/store"
)

type Service struct {
	config   *Config
	searcher store.KnowledgeSearcher
	logger   logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:   config,
		searcher: deps.Searcher,
		logger:   deps.Logger,
	}
}

// Execute returns the knowledge articles whose short description contains any
// keyword of the input, newest first.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	limit := store.ClampLimit(input.Limit)

	articles, err := s.searcher.Search(ctx, input.ShortDescriptionContains, limit)
	if err != nil {
		s.logger.Error("Knowledge base search failed", map[string]interface{}{
			"query": input.ShortDescriptionContains,
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Debug("Knowledge base search completed", map[string]interface{}{
		"query":   input.ShortDescriptionContains,
		"limit":   limit,
		"matches": len(articles),
	})

	if articles == nil {
		articles = []store.KnowledgeArticle{}
	}
	return &Output{Result: articles}, nil
}
