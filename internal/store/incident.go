package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"incident-assistant/internal/common/database"
	"incident-assistant/internal/common/errors"
)

const incidentColumns = "number, opened, short_description, description, resolution_code, resolution_notes, state, assigned_to"

// IncidentStore searches and creates incidents.
type IncidentStore interface {
	Search(ctx context.Context, text string, limit int) ([]Incident, error)
	Create(ctx context.Context, in NewIncident) error
}

type IncidentRepository struct {
	db      *sqlx.DB
	table   string
	timeout time.Duration
}

func NewIncidentRepository(db *sqlx.DB, table string, timeout time.Duration) *IncidentRepository {
	return &IncidentRepository{db: db, table: table, timeout: timeout}
}

func (r *IncidentRepository) Search(ctx context.Context, text string, limit int) ([]Incident, error) {
	query, args := buildSearchQuery(incidentColumns, r.table, "opened", text, limit)

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	incidents := []Incident{}
	if err := r.db.SelectContext(ctx, &incidents, r.db.Rebind(query), args...); err != nil {
		return nil, queryError("search_incidents", err)
	}
	return incidents, nil
}

// Create inserts in. A number that already exists yields a
// DUPLICATE_INCIDENT error.
func (r *IncidentRepository) Create(ctx context.Context, in NewIncident) error {
	query := "INSERT INTO " + r.table +
		" (number, opened, short_description, description, state, assigned_to) VALUES (?, ?, ?, ?, ?, ?)"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		in.Number, in.Opened, in.ShortDescription, in.Description, in.State, in.AssignedTo)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return errors.NewDuplicateIncidentError(in.Number)
		}
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// IsDuplicateIncident reports whether err came from inserting an existing number.
func IsDuplicateIncident(err error) bool {
	return errors.HasCode(err, errors.ErrCodeDuplicateIncident)
}
