package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medilink/platform/internal/shared/config"
	"github.com/medilink/platform/internal/shared/errors"
	"github.com/medilink/platform/internal/shared/logging"
)

// OllamaClient talks to a local Ollama completion endpoint. Every
// caller treats it as best-effort: failures degrade to keyword or
// regex fallbacks, never to request errors.
type OllamaClient struct {
	baseURL       string
	model         string
	jargonModel   string
	systemMessage string
	temperature   float64
	enabled       bool
	http          *http.Client
	log           zerolog.Logger
}

// NewOllamaClient creates a client from configuration
func NewOllamaClient(cfg config.OllamaConfig) *OllamaClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		model:         cfg.Model,
		jargonModel:   cfg.JargonModel,
		systemMessage: cfg.SystemMessage,
		temperature:   cfg.Temperature,
		enabled:       cfg.Enabled,
		http:          &http.Client{Timeout: timeout},
		log:           logging.Component("ollama"),
	}
}

// Enabled reports whether completion calls should be attempted at all.
func (c *OllamaClient) Enabled() bool { return c.enabled }

// Model returns the chat-understanding model name.
func (c *OllamaClient) Model() string { return c.model }

// JargonModel returns the jargon-translation model name.
func (c *OllamaClient) JargonModel() string { return c.jargonModel }

// Prompt wraps a user query with the configured system message. With
// no system message the query passes through untouched.
func (c *OllamaClient) Prompt(query string) string {
	if c.systemMessage == "" {
		return query
	}
	return c.systemMessage + "\n\nUser query: " + query + "\n\nResponse (JSON only):"
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs a single non-streamed completion and returns the raw
// response text. An empty completion is an error so callers fall back.
func (c *OllamaClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: c.temperature},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to encode completion request")
	}

	url := c.baseURL + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to build completion request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("url", url).Msg("completion endpoint unreachable")
		return "", errors.Wrap(err, "completion endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("completion endpoint returned error status")
		return "", errors.Internal(fmt.Errorf("completion endpoint returned status %d", resp.StatusCode))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "failed to decode completion response")
	}
	if out.Response == "" {
		return "", errors.Internal(fmt.Errorf("empty completion response"))
	}
	return out.Response, nil
}
