// Package agent runs the helpdesk conversation: search, suggest, confirm and
// escalate to an incident when the suggestion did not help.
package agent

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"incident-assistant/internal/common/errors"
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/common/metrics"
	mcpserver "incident-assistant/internal/mcp"
	"incident-assistant/internal/store"
	"incident-assistant/internal/ui"
	emailsend "incident-assistant/internal/workers/communication/email-send"
	createincident "incident-assistant/internal/workers/incident/create-incident"
	searchincidents "incident-assistant/internal/workers/incident/search-incidents"
	searchknowledgebase "incident-assistant/internal/workers/knowledge/search-knowledge-base"
)

// Node names.
const (
	NodeResolver     = "resolver"
	NodeConfirmation = "confirmation"
	NodeEscalation   = "escalation"
)

const (
	DefaultSupportAddress = "support@example.com"
	DefaultSearchLimit    = 5

	// DegradedSuggestion replaces the suggestion when the LLM call fails.
	DegradedSuggestion = "The AI assistant is unavailable right now. " +
		"Review the knowledge base articles and incidents above, or create an incident."

	incidentNumberLayout = "20060102150405"
	openedLayout         = "2006-01-02T15:04:05.000000"
)

// Outcomes recorded in metrics.AgentRuns.
const (
	OutcomeResolved   = "resolved"
	OutcomeEscalated  = "escalated"
	OutcomeUnresolved = "unresolved"
	OutcomeFailed     = "failed"
	OutcomeAborted    = "aborted"
)

// Summarizer turns search results into a suggested fix.
type Summarizer interface {
	Summarize(ctx context.Context, query string, kb []store.KnowledgeArticle, incidents []store.Incident) (string, error)
}

// Prompter asks the user for input.
type Prompter interface {
	Ask(ctx context.Context, title, defaultValue string) (string, error)
	Choose(ctx context.Context, title string, choices []string, defaultValue string) (string, error)
}

// Renderer shows progress and results. ui.Console implements it.
type Renderer interface {
	Banner()
	Status(msg string)
	Running()
	Progress(msg string)
	Warn(msg string)
	Error(msg string)
	KnowledgeResults(articles []store.KnowledgeArticle)
	IncidentResults(incidents []store.Incident)
	Suggestion(text string)
	Notice(msg string)
	Success(msg string)
	FinalResponse(text string)
	Goodbye()
}

type Options struct {
	Tools      ToolCaller
	Summarizer Summarizer
	Prompter   Prompter
	Renderer   Renderer
	Logger     logger.Logger

	SupportAddress string
	// NotifyTool is the tool that emails support about a new incident.
	// Defaults to email_send_mock.
	NotifyTool  string
	SearchLimit int
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type Agent struct {
	tools          ToolCaller
	llm            Summarizer
	prompt         Prompter
	ui             Renderer
	logger         logger.Logger
	supportAddress string
	notifyTool     string
	searchLimit    int
	now            func() time.Time
	graph          *Graph
}

func New(opts Options) (*Agent, error) {
	if opts.Tools == nil {
		return nil, stderrors.New("agent: tool caller is required")
	}
	if opts.Prompter == nil {
		return nil, stderrors.New("agent: prompter is required")
	}
	if opts.Renderer == nil {
		return nil, stderrors.New("agent: renderer is required")
	}

	a := &Agent{
		tools:          opts.Tools,
		llm:            opts.Summarizer,
		prompt:         opts.Prompter,
		ui:             opts.Renderer,
		logger:         opts.Logger,
		supportAddress: opts.SupportAddress,
		notifyTool:     opts.NotifyTool,
		searchLimit:    opts.SearchLimit,
		now:            opts.Clock,
	}
	if a.logger == nil {
		a.logger = logger.NewNoOpLogger()
	}
	if a.supportAddress == "" {
		a.supportAddress = DefaultSupportAddress
	}
	if a.notifyTool == "" {
		a.notifyTool = mcpserver.ToolEmailSendMock
	}
	if a.searchLimit <= 0 {
		a.searchLimit = DefaultSearchLimit
	}
	if a.now == nil {
		a.now = time.Now
	}

	a.graph = NewGraph().
		AddNode(NodeResolver, a.resolve).
		AddNode(NodeConfirmation, a.confirm).
		AddNode(NodeEscalation, a.escalate).
		SetEntry(NodeResolver).
		AddEdge(NodeResolver, NodeConfirmation).
		AddEdge(NodeConfirmation, NodeEscalation).
		AddEdge(NodeEscalation, End)
	if err := a.graph.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Run executes one pass of the graph for query.
func (a *Agent) Run(ctx context.Context, query string) (*State, error) {
	st := &State{UserQuery: query}
	err := a.graph.Run(ctx, st)
	metrics.AgentRuns.WithLabelValues(outcome(st, err)).Inc()
	return st, err
}

func outcome(st *State, err error) string {
	switch {
	case isQuit(err):
		return OutcomeAborted
	case err != nil:
		return OutcomeFailed
	case st.Escalated():
		return OutcomeEscalated
	case st.Resolved():
		return OutcomeResolved
	default:
		return OutcomeUnresolved
	}
}

// Chat reads issues until the user types exit or quit, or aborts a prompt.
func (a *Agent) Chat(ctx context.Context) error {
	a.ui.Banner()
	for {
		query, err := a.prompt.Ask(ctx, "Describe your IT issue", "")
		if err != nil {
			if isQuit(err) {
				a.ui.Goodbye()
				return nil
			}
			return err
		}

		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		if q := strings.ToLower(query); q == "exit" || q == "quit" {
			a.ui.Goodbye()
			return nil
		}

		a.ui.Running()
		st, err := a.Run(ctx, query)
		if err != nil {
			if isQuit(err) {
				a.ui.Goodbye()
				return nil
			}
			a.logger.WithError(err).Error("Agent run failed", map[string]interface{}{"query": query})
			a.ui.Error(fmt.Sprintf("Something went wrong: %v", err))
			continue
		}
		a.ui.FinalResponse(st.FinalResponse)
	}
}

func isQuit(err error) bool {
	return stderrors.Is(err, ui.ErrAborted) ||
		stderrors.Is(err, io.EOF) ||
		stderrors.Is(err, context.Canceled)
}

// resolve searches both sources concurrently and asks the LLM for a fix.
// Search and LLM failures degrade instead of ending the run.
func (a *Agent) resolve(ctx context.Context, st *State) error {
	a.ui.Status("Searching knowledge base and incidents...")

	args := map[string]any{
		"short_description_contains": st.UserQuery,
		"limit":                      a.searchLimit,
	}

	var (
		kb            *searchknowledgebase.Output
		inc           *searchincidents.Output
		kbErr, incErr error
	)
	// Errors stay in kbErr and incErr so one failed search never cancels
	// the other.
	var g errgroup.Group
	g.Go(func() error {
		kb, kbErr = callTool[searchknowledgebase.Output](ctx, a.tools, mcpserver.ToolSearchKnowledgeBase, args)
		return nil
	})
	g.Go(func() error {
		inc, incErr = callTool[searchincidents.Output](ctx, a.tools, mcpserver.ToolSearchIncidents, args)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	if kbErr != nil {
		a.degraded("Knowledge base search failed", kbErr)
	} else {
		st.KBResults = kb.Result
	}
	if incErr != nil {
		a.degraded("Incident search failed", incErr)
	} else {
		st.IncidentResults = inc.Result
	}

	a.ui.KnowledgeResults(st.KBResults)
	a.ui.IncidentResults(st.IncidentResults)

	suggestion := a.suggest(ctx, st)
	a.ui.Suggestion(suggestion)
	st.FinalResponse = suggestion
	return nil
}

func (a *Agent) suggest(ctx context.Context, st *State) string {
	if a.llm == nil {
		return DegradedSuggestion
	}
	text, err := a.llm.Summarize(ctx, st.UserQuery, st.KBResults, st.IncidentResults)
	if err != nil {
		a.degraded("Could not generate a suggestion", err)
		return DegradedSuggestion
	}
	return strings.TrimSpace(text)
}

func (a *Agent) degraded(msg string, err error) {
	std := errors.Normalize(err)
	a.logger.WithError(err).Warn(msg, map[string]interface{}{
		"errorCode": string(std.Code),
	})
	a.ui.Warn(fmt.Sprintf("%s: %s", msg, std.Details))
}

func (a *Agent) confirm(ctx context.Context, st *State) error {
	feedback, err := a.prompt.Choose(ctx, "Did this solution resolve your issue?", []string{Yes, No}, No)
	if err != nil {
		return err
	}
	st.UserFeedback = feedback

	if feedback != No {
		st.UserCreateIncident = No
		return nil
	}

	create, err := a.prompt.Choose(ctx, "Would you like to create an incident?", []string{Yes, No}, Yes)
	if err != nil {
		return err
	}
	st.UserCreateIncident = create
	return nil
}

func (a *Agent) escalate(ctx context.Context, st *State) error {
	switch {
	case st.UserFeedback == No && st.UserCreateIncident == Yes:
		return a.openIncident(ctx, st)
	case st.UserFeedback == No:
		st.FinalResponse = "No incident created. Issue remains unresolved."
	default:
		st.FinalResponse = "Glad it helped! No escalation needed."
	}
	return nil
}

func (a *Agent) openIncident(ctx context.Context, st *State) error {
	a.ui.Notice("Please provide incident details below")

	short, err := a.askRequired(ctx, "Short description of the issue")
	if err != nil {
		return err
	}
	description, err := a.askRequired(ctx, "Detailed description of what happened")
	if err != nil {
		return err
	}
	assignee, err := a.prompt.Ask(ctx, "Assign to (optional)", "")
	if err != nil {
		return err
	}

	now := a.now()
	number := "INC" + now.Format(incidentNumberLayout)

	var assignedTo any
	if v := strings.TrimSpace(assignee); v != "" {
		assignedTo = v
	}

	a.ui.Progress("Creating your incident... please wait...")

	created, err := callTool[createincident.Output](ctx, a.tools, mcpserver.ToolCreateIncident, map[string]any{
		"number":            number,
		"opened":            now.Format(openedLayout),
		"short_description": short,
		"description":       description,
		"state":             store.StateNew,
		"assigned_to":       assignedTo,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.WithError(err).Error("Incident creation failed", map[string]interface{}{"number": number})
		a.ui.Error(fmt.Sprintf("Failed to create incident %s: %s", number, errors.Normalize(err).Details))
		st.FinalResponse = fmt.Sprintf("Incident %s could not be created. Issue remains unresolved.", number)
		return nil
	}
	if created.Number != "" {
		number = created.Number
	}
	st.IncidentNumber = number

	_, err = callTool[emailsend.Output](ctx, a.tools, a.notifyTool, map[string]any{
		"to":      []string{a.supportAddress},
		"subject": "New Incident " + number,
		"body":    fmt.Sprintf("Issue reported: %s\n\n%s", short, description),
	})
	if err != nil {
		a.degraded("Support notification failed", err)
		a.ui.Success(fmt.Sprintf("Incident %s created successfully.", number))
	} else {
		a.ui.Success(fmt.Sprintf("Incident %s created successfully and notification sent to support.", number))
	}

	st.FinalResponse = fmt.Sprintf("Incident %s created.", number)
	return nil
}

// askRequired repeats the question until the answer is not blank.
func (a *Agent) askRequired(ctx context.Context, title string) (string, error) {
	for {
		answer, err := a.prompt.Ask(ctx, title, "")
		if err != nil {
			return "", err
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			return answer, nil
		}
		a.ui.Warn("A value is required.")
	}
}
