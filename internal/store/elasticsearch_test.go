package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incident-assistant/internal/common/errors"
)

func newESServer(t *testing.T, status int, body string, inspect func(map[string]interface{})) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			var q map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&q)
			inspect(q)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestESKnowledgeSearcher_Search(t *testing.T) {
	body := `{"hits":{"hits":[{"_source":{"number":"KB0002","short_description":"Outlook password loop","category":"Email"}}]}}`
	var seen map[string]interface{}
	client := newESServer(t, http.StatusOK, body, func(q map[string]interface{}) { seen = q })

	got, err := NewESKnowledgeSearcher(client, "knowledge_base").Search(context.Background(), "my Outlook password", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "KB0002", got[0].Number)
	assert.Equal(t, "Email", Deref(got[0].Category))

	assert.EqualValues(t, 5, seen["size"])
	mm := seen["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "outlook password", mm["query"])
}

func TestESKnowledgeSearcher_NoKeywordsSortsByUpdated(t *testing.T) {
	q := esQuery("how to", 0)
	assert.Equal(t, DefaultLimit, q["size"])
	assert.Contains(t, q["query"], "match_all")
	assert.NotNil(t, q["sort"])
}

func TestESKnowledgeSearcher_ErrorStatus(t *testing.T) {
	client := newESServer(t, http.StatusNotFound, `{"error":"index_not_found_exception"}`, nil)

	_, err := NewESKnowledgeSearcher(client, "missing").Search(context.Background(), "vpn", 5)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchQueryFailed))
}
