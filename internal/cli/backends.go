package cli

import (
	"context"
	"fmt"
	"os"

	"incident-assistant/internal/common/aws"
	"incident-assistant/internal/common/config"
	"incident-assistant/internal/common/database"
	"incident-assistant/internal/common/logger"
	mcpserver "incident-assistant/internal/mcp"
	"incident-assistant/internal/store"
	emailsend "incident-assistant/internal/workers/communication/email-send"
	createincident "incident-assistant/internal/workers/incident/create-incident"
	searchincidents "incident-assistant/internal/workers/incident/search-incidents"
	searchknowledgebase "incident-assistant/internal/workers/knowledge/search-knowledge-base"
)

// backends holds the open connections behind a Store.
type backends struct {
	sql   *database.SQLClient
	redis *database.RedisClient
	store *store.Store
}

// openBackends connects to the SQL database and, when enabled, to Redis and
// Elasticsearch. The optional backends are skipped with a warning when they
// cannot be reached.
func openBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*backends, error) {
	if err := config.ValidateForStore(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	sqlClient, err := database.NewSQL(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := sqlClient.Ping(ctx); err != nil {
		_ = sqlClient.Close()
		return nil, fmt.Errorf("connect to %s: %w", cfg.Database.Driver, err)
	}
	log.Info("Database connected", map[string]interface{}{"driver": cfg.Database.Driver})

	b := &backends{sql: sqlClient}
	deps := store.Backends{DB: sqlClient.GetDB()}

	if cfg.Database.Redis.Enabled {
		rc, err := database.ConnectRedis(ctx, cfg.Database.Redis)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, searches are not cached", map[string]interface{}{
				"address": cfg.Database.Redis.Address,
			})
		} else {
			b.redis = rc
			deps.Redis = rc.GetClient()
		}
	}

	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = es.Ping(ctx)
		}
		if err != nil {
			log.WithError(err).Warn("Elasticsearch unavailable, knowledge search uses SQL", nil)
		} else {
			deps.Elasticsearch = es.Client
		}
	}

	b.store = store.New(cfg.Database, deps, log)
	return b, nil
}

func (b *backends) ready(ctx context.Context) error {
	return b.sql.Ping(ctx)
}

func (b *backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	_ = b.sql.Close()
}

// newTools builds the tool handlers the MCP server exposes.
func newTools(ctx context.Context, cfg *config.Config, st *store.Store, log logger.Logger) (mcpserver.Tools, error) {
	var tools mcpserver.Tools

	kb, err := searchknowledgebase.NewHandler(searchknowledgebase.HandlerOptions{
		AppConfig: cfg,
		Searcher:  st.Knowledge,
		Logger:    log,
	})
	if err != nil {
		return tools, err
	}

	inc, err := searchincidents.NewHandler(searchincidents.HandlerOptions{
		AppConfig: cfg,
		Incidents: st.Incidents,
		Logger:    log,
	})
	if err != nil {
		return tools, err
	}

	createOpts := createincident.HandlerOptions{
		AppConfig: cfg,
		Incidents: st.Incidents,
		Logger:    log,
	}
	if sns := cfg.Notifications.SNS; sns.Enabled {
		publisher, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region, sns.TopicARN)
		if err != nil {
			return tools, err
		}
		createOpts.Publisher = publisher
	}
	create, err := createincident.NewHandler(createOpts)
	if err != nil {
		return tools, err
	}

	mockEmail, err := emailsend.NewHandler(emailsend.HandlerOptions{
		AppConfig: cfg,
		Logger:    log,
		Sender:    emailsend.NewMockSender(os.Stderr),
	})
	if err != nil {
		return tools, err
	}

	tools = mcpserver.Tools{
		Knowledge: kb,
		Incidents: inc,
		Create:    create,
		MockEmail: mockEmail,
	}
	if cfg.Notifications.Email.Provider != config.EmailProviderMock {
		email, err := emailsend.NewHandler(emailsend.HandlerOptions{
			AppConfig: cfg,
			Logger:    log,
		})
		if err != nil {
			return tools, err
		}
		tools.Email = email
		tools.EmailProvider = email.Provider()
	}
	return tools, nil
}
