package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"time"

	"github.com/jmoiron/sqlx"

	"incident-assistant/internal/common/errors"
)

const knowledgeColumns = "number, version, short_description, author, category, workflow, updated"

// KnowledgeSearcher finds knowledge articles by free text.
type KnowledgeSearcher interface {
	Search(ctx context.Context, text string, limit int) ([]KnowledgeArticle, error)
}

// KnowledgeRepository searches the knowledge base table with keyword LIKE
// matching, newest first.
type KnowledgeRepository struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
}

func NewKnowledgeRepository(db *sqlx.DB, table string, timeout time.Duration) *KnowledgeRepository {
	return &KnowledgeRepository{db: db, table: table, timeout: timeout}
}

func (r *KnowledgeRepository) Search(ctx context.Context, text string, limit int) ([]KnowledgeArticle, error) {
	query, args := buildSearchQuery(knowledgeColumns, r.table, "updated", text, limit)

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	articles := []KnowledgeArticle{}
	if err := r.db.SelectContext(ctx, &articles, r.db.Rebind(query), args...); err != nil {
		return nil, queryError("search_knowledge_base", err)
	}
	return articles, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func queryError(queryType string, err error) error {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewQueryTimeoutError(queryType)
	case stderrors.Is(err, driver.ErrBadConn), stderrors.Is(err, sql.ErrConnDone):
		return errors.NewDatabaseConnectionFailedError(err)
	}
	return errors.NewQueryExecutionFailedError(queryType, err)
}
