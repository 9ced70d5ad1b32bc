package llmsynthesis

import (
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/store"
)

type Input struct {
	UserQuery       string                   `json:"user_query"`
	KBResults       []store.KnowledgeArticle `json:"kb_results"`
	IncidentResults []store.Incident         `json:"incident_results"`
}

type Output struct {
	Suggestion string `json:"suggestion"`
}

type ServiceDependencies struct {
	Logger logger.Logger
}

// generateContent request and response, trimmed to the fields we use.
type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}
