package searchincidents

import (
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/store"
)

type Input struct {
	ShortDescriptionContains string `json:"short_description_contains,omitempty"`
	Limit                    int    `json:"limit,omitempty"`
}

type Output struct {
	Result []store.Incident `json:"result"`
}

type ServiceDependencies struct {
	Incidents store.IncidentStore
	Logger    logger.Logger
}
