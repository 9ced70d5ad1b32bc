package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"incident-assistant/internal/common/errors"
)

// ESKnowledgeSearcher runs knowledge searches against an Elasticsearch index
// whose documents use the knowledge base column names.
type ESKnowledgeSearcher struct {
	client *elasticsearch.Client
	index  string
}

func NewESKnowledgeSearcher(client *elasticsearch.Client, index string) *ESKnowledgeSearcher {
	return &ESKnowledgeSearcher{client: client, index: index}
}

func esQuery(text string, limit int) map[string]interface{} {
	kws := ExtractKeywords(text)
	q := map[string]interface{}{"size": ClampLimit(limit)}
	if len(kws) == 0 {
		q["query"] = map[string]interface{}{"match_all": map[string]interface{}{}}
		q["sort"] = []interface{}{map[string]interface{}{"updated": map[string]string{"order": "desc"}}}
		return q
	}
	q["query"] = map[string]interface{}{
		"multi_match": map[string]interface{}{
			"query":    strings.Join(kws, " "),
			"fields":   []string{"short_description"},
			"operator": "or",
		},
	}
	return q
}

func (s *ESKnowledgeSearcher) Search(ctx context.Context, text string, limit int) ([]KnowledgeArticle, error) {
	body, err := json.Marshal(esQuery(text, limit))
	if err != nil {
		return nil, errors.NewSearchQueryFailedError("knowledge_base", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError("knowledge_base", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError("knowledge_base", fmt.Errorf("status %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source KnowledgeArticle `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError("knowledge_base", fmt.Errorf("decode: %w", err))
	}

	articles := make([]KnowledgeArticle, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		articles = append(articles, h.Source)
	}
	return articles, nil
}
