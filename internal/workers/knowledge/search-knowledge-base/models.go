package searchknowledgebase

import (
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/store"
)

type Input struct {
	ShortDescriptionContains string `json:"short_description_contains,omitempty"`
	Limit                    int    `json:"limit,omitempty"`
}

type Output struct {
	Result []store.KnowledgeArticle `json:"result"`
}

type ServiceDependencies struct {
	Searcher store.KnowledgeSearcher
	Logger   logger.Logger
}
