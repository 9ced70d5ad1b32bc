package agent

import "incident-assistant/internal/store"

// Answers to the yes/no prompts.
const (
	Yes = "yes"
	No  = "no"
)

// State is carried through one run of the graph.
type State struct {
	UserQuery          string
	KBResults          []store.KnowledgeArticle
	IncidentResults    []store.Incident
	UserFeedback       string
	UserCreateIncident string
	IncidentNumber     string
	FinalResponse      string
}

// Resolved reports whether the user confirmed the suggestion worked.
func (s *State) Resolved() bool {
	return s.UserFeedback == Yes
}

// Escalated reports whether an incident was opened.
func (s *State) Escalated() bool {
	return s.IncidentNumber != ""
}
