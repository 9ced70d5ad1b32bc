package store

import "time"

// Incident states.
const (
	StateNew        = "New"
	StateInProgress = "In Progress"
	StateOnHold     = "On Hold"
	StateClosed     = "Closed"
)

// IncidentStates lists the allowed incident states in display order.
var IncidentStates = []string{StateNew, StateInProgress, StateOnHold, StateClosed}

// KnowledgeArticle is a row of the knowledge base table.
type KnowledgeArticle struct {
	Number           string     `db:"number" json:"number"`
	Version          *string    `db:"version" json:"version,omitempty"`
	ShortDescription string     `db:"short_description" json:"short_description"`
	Author           *string    `db:"author" json:"author,omitempty"`
	Category         *string    `db:"category" json:"category,omitempty"`
	Workflow         *string    `db:"workflow" json:"workflow,omitempty"`
	Updated          *time.Time `db:"updated" json:"updated,omitempty"`
}

// Incident is a row of the incidents table.
type Incident struct {
	Number           string     `db:"number" json:"number"`
	Opened           *time.Time `db:"opened" json:"opened,omitempty"`
	ShortDescription string     `db:"short_description" json:"short_description"`
	Description      *string    `db:"description" json:"description,omitempty"`
	ResolutionCode   *string    `db:"resolution_code" json:"resolution_code,omitempty"`
	ResolutionNotes  *string    `db:"resolution_notes" json:"resolution_notes,omitempty"`
	State            string     `db:"state" json:"state"`
	AssignedTo       *string    `db:"assigned_to" json:"assigned_to,omitempty"`
}

// NewIncident is the insert payload for IncidentRepository.Create.
type NewIncident struct {
	Number           string    `db:"number"`
	Opened           time.Time `db:"opened"`
	ShortDescription string    `db:"short_description"`
	Description      string    `db:"description"`
	State            string    `db:"state"`
	AssignedTo       *string   `db:"assigned_to"`
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
