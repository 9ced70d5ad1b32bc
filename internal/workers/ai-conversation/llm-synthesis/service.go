package llmsynthesis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"incident-assistant/internal/common/errors"
	commonhttp "incident-assistant/internal/common/http"
	"incident-assistant/internal/common/logger"
	"incident-assistant/internal/store"
)

type Service struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		// deadlines come from the request context
		client: commonhttp.NewClient(0),
		logger: deps.Logger,
	}
}

func (s *Service) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(s.config.BaseURL, "/"), s.config.Model)
}

// Summarize implements the agent's summarizer on top of Execute.
func (s *Service) Summarize(ctx context.Context, query string, kb []store.KnowledgeArticle, incidents []store.Incident) (string, error) {
	out, err := s.Execute(ctx, &Input{UserQuery: query, KBResults: kb, IncidentResults: incidents})
	if err != nil {
		return "", err
	}
	return out.Suggestion, nil
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.UserQuery) == "" {
		return nil, errors.NewValidationError("user_query is required")
	}
	if s.config.APIKey == "" {
		return nil, errors.NewLLMSynthesisFailedError(stderrors.New("llm api key is not configured"))
	}

	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	req := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: BuildPrompt(input)}}}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     s.config.Temperature,
			MaxOutputTokens: s.config.MaxTokens,
		},
	}

	resp, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.text())
	if text == "" {
		reason := ""
		if resp.PromptFeedback != nil {
			reason = resp.PromptFeedback.BlockReason
		}
		s.logger.Warn("LLM returned no text, using fallback", map[string]interface{}{
			"model":       s.config.Model,
			"blockReason": reason,
		})
		text = FallbackSuggestion
	}

	s.logger.Info("LLM synthesis completed", map[string]interface{}{
		"model":     s.config.Model,
		"kbCount":   len(input.KBResults),
		"incCount":  len(input.IncidentResults),
		"respChars": len(text),
	})

	return &Output{Suggestion: text}, nil
}

// generate posts req, retrying transport errors, 429 and 5xx with
// exponential backoff. Other statuses fail immediately.
func (s *Service) generate(ctx context.Context, req geminiRequest) (*geminiResponse, error) {
	headers := map[string]string{"x-goog-api-key": s.config.APIKey}
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, errors.NewLLMTimeoutError(time.Since(start))
			}
		}

		resp, err := s.client.PostJSON(ctx, s.endpoint(), headers, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.NewLLMTimeoutError(time.Since(start))
			}
			lastErr = err
			continue
		}

		out, retry, err := decodeResponse(resp)
		if err == nil {
			return out, nil
		}
		if !retry {
			return nil, errors.NewLLMSynthesisFailedError(err)
		}
		lastErr = err

		s.logger.Warn("LLM request failed, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		})
	}

	if ctx.Err() != nil {
		return nil, errors.NewLLMTimeoutError(time.Since(start))
	}
	return nil, errors.NewLLMSynthesisFailedError(fmt.Errorf("after %d attempts: %w", s.config.MaxRetries+1, lastErr))
}

func decodeResponse(resp *http.Response) (*geminiResponse, bool, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, err
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decode error: %w", err)
	}
	return &out, false, nil
}

func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
