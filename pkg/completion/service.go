package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/handybob/callops/pkg/logger"
	"go.uber.org/zap"
)

// Service is the black-box text-completion capability the AskBob
// dispatcher consumes. Implementations make exactly one attempt per
// call; retrying is the caller's decision.
type Service interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds completion service configuration
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPService talks to an OpenAI-compatible chat completions endpoint
// and requests strict JSON output.
type HTTPService struct {
	config Config
	client *http.Client
}

// NewHTTPService creates a completion client. A zero timeout defaults to
// 45 seconds.
func NewHTTPService(config Config) *HTTPService {
	if config.Timeout == 0 {
		config.Timeout = 45 * time.Second
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com"
	}
	return &HTTPService{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt and returns the raw model output. One
// attempt only: timeouts and upstream failures are returned as-is so the
// dispatcher can classify them.
func (s *HTTPService) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature:    0.2,
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var upstream map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&upstream)
		logger.Base().Warn("completion upstream error",
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", time.Since(start)))
		return "", fmt.Errorf("completion service returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	logger.Base().Debug("completion ok",
		zap.Duration("latency", time.Since(start)),
		zap.Int("output_len", len(parsed.Choices[0].Message.Content)))
	return parsed.Choices[0].Message.Content, nil
}
