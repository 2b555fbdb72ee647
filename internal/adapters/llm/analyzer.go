// Package llm implements the analysis capability against any
// OpenAI-compatible chat completions endpoint. The analyzer is
// optional: with no API key configured every agent falls back to its
// heuristic path and marks the result degraded.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sitescope/sitescope/internal/core"
	"github.com/sitescope/sitescope/internal/logging"
)

// Config describes the endpoint and model to use.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Analyzer implements core.Analyzer over HTTP.
type Analyzer struct {
	cfg    Config
	client *http.Client
	retry  RetryPolicy
	log    *logging.Logger
}

// New creates an analyzer. A zero API key or base URL yields a
// non-available analyzer rather than an error.
func New(cfg Config, log *logging.Logger) *Analyzer {
	if log == nil {
		log = logging.NewNop()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Analyzer{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		retry:  DefaultRetryPolicy(),
		log:    log,
	}
}

// WithRetryPolicy replaces the backoff tuning for transient failures.
func (a *Analyzer) WithRetryPolicy(p RetryPolicy) *Analyzer {
	a.retry = p
	return a
}

// Available reports whether the capability is configured.
func (a *Analyzer) Available() bool {
	return a.cfg.APIKey != "" && a.cfg.BaseURL != "" && a.cfg.Model != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// analysisPayload is the JSON shape the system prompt asks the model for.
type analysisPayload struct {
	Findings string `json:"findings"`
	Items    []struct {
		Name           string `json:"name"`
		MaxPoints      int    `json:"max_points"`
		ActualPoints   int    `json:"actual_points"`
		Note           string `json:"note"`
		Recommendation string `json:"recommendation"`
	} `json:"items"`
	Recommendations []struct {
		Issue  string `json:"issue"`
		Action string `json:"action"`
		Impact string `json:"impact"`
		Effort string `json:"effort"`
	} `json:"recommendations"`
}

// Analyze sends the request to the chat completions endpoint and
// decodes the structured result from the reply.
func (a *Analyzer) Analyze(ctx context.Context, req core.AnalysisRequest) (*core.AnalysisResult, error) {
	if !a.Available() {
		return nil, core.ErrAgentExecution("analyzer", "analysis capability is not configured")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.cfg.MaxTokens
	}
	body, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	var content string
	err = a.retry.Execute(ctx, func(ctx context.Context) error {
		var attemptErr error
		content, attemptErr = a.complete(ctx, body)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}

	return parseContent(content)
}

// complete performs one chat completions request and returns the reply
// content. Rate limits, upstream 5xx replies, and transport errors are
// marked transient for the retry policy.
func (a *Analyzer) complete(ctx context.Context, body []byte) (string, error) {
	endpoint := strings.TrimSuffix(a.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", markTransient(fmt.Errorf("calling analysis endpoint: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("reading analysis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("analysis endpoint returned %d: %s", resp.StatusCode, truncate(string(raw), 300))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", markTransient(statusErr)
		}
		return "", statusErr
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if chat.Error != nil {
		return "", fmt.Errorf("analysis endpoint error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("analysis endpoint returned no choices")
	}
	return chat.Choices[0].Message.Content, nil
}

// parseContent decodes the model's reply. Models often wrap JSON in
// code fences; plain prose degrades to a findings-only result.
func parseContent(content string) (*core.AnalysisResult, error) {
	jsonText := stripFences(content)

	var payload analysisPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return &core.AnalysisResult{Findings: strings.TrimSpace(content)}, nil
	}

	res := &core.AnalysisResult{Findings: strings.TrimSpace(payload.Findings)}
	for _, it := range payload.Items {
		res.Items = append(res.Items, core.ScoreItem{
			Name:           it.Name,
			MaxPoints:      it.MaxPoints,
			ActualPoints:   it.ActualPoints,
			Note:           it.Note,
			Recommendation: it.Recommendation,
		})
	}
	for _, r := range payload.Recommendations {
		res.Recommendations = append(res.Recommendations, core.Recommendation{
			Issue:  r.Issue,
			Action: r.Action,
			Impact: parseImpact(r.Impact),
			Effort: parseEffort(r.Effort),
		})
	}
	return res, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	if i := strings.Index(s, "{"); i > 0 {
		s = s[i:]
	}
	return strings.TrimSpace(s)
}

func parseImpact(s string) core.Impact {
	switch strings.ToLower(s) {
	case "high":
		return core.ImpactHigh
	case "low":
		return core.ImpactLow
	default:
		return core.ImpactMedium
	}
}

func parseEffort(s string) core.Effort {
	switch strings.ToLower(s) {
	case "high":
		return core.EffortHigh
	case "low":
		return core.EffortLow
	default:
		return core.EffortMedium
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
