// Package services provides external service integrations and technical concerns like tokens and delivery channels
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mercat-labs/loyalty-platform/config"
)

// LLMService generates text through a hosted language model. Callers must
// treat it as best-effort and provide deterministic fallbacks.
type LLMService interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateJSON(ctx context.Context, prompt string) (map[string]any, error)
}

// LLMServiceImpl implements LLMService against an Ollama-compatible endpoint
type LLMServiceImpl struct {
	config *config.LLMConfig
	client *http.Client
}

// NewLLMService creates a new LLM service instance
func NewLLMService(cfg *config.LLMConfig) LLMService {
	return &LLMServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Options generateOptions `json:"options"`
	Stream  bool            `json:"stream"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate returns the raw model completion for a prompt
func (s *LLMServiceImpl) Generate(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Model:  s.config.Model,
		Prompt: prompt,
		Options: generateOptions{
			Temperature: s.config.Temperature,
			NumPredict:  s.config.MaxTokens,
		},
		Stream: false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode LLM request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", s.config.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build LLM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("LLM unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read LLM response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM returned status %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("malformed LLM response: %w", err)
	}

	return strings.TrimSpace(parsed.Response), nil
}

// GenerateJSON runs a prompt expected to produce a JSON object and parses it
// after stripping code fences
func (s *LLMServiceImpl) GenerateJSON(ctx context.Context, prompt string) (map[string]any, error) {
	text, err := s.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	object := StripCodeFences(text)
	var fields map[string]any
	if err := json.Unmarshal([]byte(object), &fields); err != nil {
		return nil, fmt.Errorf("malformed JSON from LLM: %w", err)
	}

	return fields, nil
}

// StripCodeFences removes a surrounding triple-backtick block, with or
// without a language tag, from model output
func StripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		firstLine := strings.TrimSpace(trimmed[:newline])
		// Drop a language tag like "json" on the opening fence
		if firstLine != "" && !strings.ContainsAny(firstLine, "{}[]") {
			trimmed = trimmed[newline+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	return strings.TrimSpace(trimmed)
}
