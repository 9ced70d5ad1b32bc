package store

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/logger"
)

// Store bundles the knowledge and incident backends used by the tools.
type Store struct {
	Knowledge KnowledgeSearcher
	Incidents IncidentStore
}

// Backends are the optional clients a Store can be layered on. DB is required.
type Backends struct {
	DB            *sqlx.DB
	Redis         *redis.Client
	Elasticsearch *elasticsearch.Client
}

// New builds the repositories for cfg: SQL (or Elasticsearch for knowledge
// articles), wrapped in the Redis cache when a client is given.
func New(cfg config.DatabaseConfig, b Backends, log logger.Logger) *Store {
	timeout := config.GetDuration(cfg.QueryTimeout)

	var knowledge KnowledgeSearcher = NewKnowledgeRepository(b.DB, cfg.Tables.KnowledgeBase, timeout)
	if b.Elasticsearch != nil {
		knowledge = NewESKnowledgeSearcher(b.Elasticsearch, cfg.Elasticsearch.KnowledgeIndex)
	}
	var incidents IncidentStore = NewIncidentRepository(b.DB, cfg.Tables.Incidents, timeout)

	if b.Redis != nil {
		cache := NewCache(b.Redis, config.GetDuration(cfg.Redis.CacheTTL), log)
		knowledge = NewCachedKnowledge(knowledge, cache)
		incidents = NewCachedIncidents(incidents, cache)
	}

	return &Store{Knowledge: knowledge, Incidents: incidents}
}
