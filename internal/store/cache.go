package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/common/metrics"
)

const (
	kindKnowledge = "knowledge"
	kindIncidents = "incidents"
)

// Cache is a Redis read-through cache for search results. Every Redis
// failure is logged and bypassed.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log logger.Logger
}

func NewCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, log: log}
}

func generationKey(kind string) string {
	return "helpdesk:" + kind + ":gen"
}

// searchKey is helpdesk:<kind>:v<gen>:<limit>:<sorted keywords>.
func searchKey(kind string, gen int64, limit int, text string) string {
	kws := ExtractKeywords(text)
	sort.Strings(kws)
	return fmt.Sprintf("helpdesk:%s:v%d:%d:%s", kind, gen, ClampLimit(limit), strings.Join(kws, ","))
}

func (c *Cache) generation(ctx context.Context, kind string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(kind)).Int64()
	if stderrors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Invalidate bumps the generation so older keys are never read again.
func (c *Cache) Invalidate(ctx context.Context, kind string) {
	if err := c.rdb.Incr(ctx, generationKey(kind)).Err(); err != nil {
		c.log.Warn("cache invalidate failed", map[string]interface{}{"kind": kind, "error": err.Error()})
	}
}

func cachedSearch[T any](ctx context.Context, c *Cache, kind, text string, limit int, fetch func() ([]T, error)) ([]T, error) {
	gen, err := c.generation(ctx, kind)
	if err != nil {
		c.bypass(kind, "generation lookup", err)
		return fetch()
	}
	key := searchKey(kind, gen, limit, text)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []T
		jsonErr := json.Unmarshal(raw, &out)
		if jsonErr == nil {
			metrics.StoreCacheRequests.WithLabelValues(kind, "hit").Inc()
			return out, nil
		}
		c.bypass(kind, "decode", jsonErr)
	case stderrors.Is(err, redis.Nil):
		metrics.StoreCacheRequests.WithLabelValues(kind, "miss").Inc()
	default:
		c.bypass(kind, "get", err)
	}

	out, err := fetch()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(out)
	if err == nil {
		err = c.rdb.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		c.bypass(kind, "set", err)
	}
	return out, nil
}

func (c *Cache) bypass(kind, op string, err error) {
	metrics.StoreCacheRequests.WithLabelValues(kind, "error").Inc()
	c.log.Warn("cache bypassed", map[string]interface{}{"kind": kind, "op": op, "error": err.Error()})
}

// CachedKnowledge decorates a KnowledgeSearcher with the cache.
type CachedKnowledge struct {
	next  KnowledgeSearcher
	cache *Cache
}

func NewCachedKnowledge(next KnowledgeSearcher, cache *Cache) *CachedKnowledge {
	return &CachedKnowledge{next: next, cache: cache}
}

func (k *CachedKnowledge) Search(ctx context.Context, text string, limit int) ([]KnowledgeArticle, error) {
	return cachedSearch(ctx, k.cache, kindKnowledge, text, limit, func() ([]KnowledgeArticle, error) {
		return k.next.Search(ctx, text, limit)
	})
}

// CachedIncidents decorates an IncidentStore; Create invalidates searches.
type CachedIncidents struct {
	next  IncidentStore
	cache *Cache
}

func NewCachedIncidents(next IncidentStore, cache *Cache) *CachedIncidents {
	return &CachedIncidents{next: next, cache: cache}
}

func (i *CachedIncidents) Search(ctx context.Context, text string, limit int) ([]Incident, error) {
	return cachedSearch(ctx, i.cache, kindIncidents, text, limit, func() ([]Incident, error) {
		return i.next.Search(ctx, text, limit)
	})
}

func (i *CachedIncidents) Create(ctx context.Context, in NewIncident) error {
	if err := i.next.Create(ctx, in); err != nil {
		return err
	}
	i.cache.Invalidate(ctx, kindIncidents)
	return nil
}
