package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/quorumhub/quorum-gateway/internal/config"
)

const anthropicDefaultEndpoint = "https://api.anthropic.com"

// AnthropicClient talks to the Anthropic messages API
type AnthropicClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewAnthropicClient creates a new Anthropic adapter
func NewAnthropicClient(cfg config.ProviderConfig, timeout time.Duration) *AnthropicClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = anthropicDefaultEndpoint
	}
	return &AnthropicClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *AnthropicClient) Name() string  { return c.cfg.Name }
func (c *AnthropicClient) Model() string { return c.cfg.Model }
func (c *AnthropicClient) Ready() bool   { return c.cfg.APIKey != "" }

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends a messages request
func (c *AnthropicClient) Complete(ctx context.Context, req *Request) (string, error) {
	if !c.Ready() {
		return "", &CallError{Provider: c.cfg.Name, Kind: FailureNoCredential}
	}

	body := anthropicRequest{
		Model:       pickModel(req.Model, c.cfg.Model),
		MaxTokens:   pickTokens(req.MaxTokens, c.cfg.MaxTokens),
		Temperature: pickTemp(req.Temperature, c.cfg.Temperature),
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: req.Prompt}},
	}

	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": "2023-06-01",
	}

	var resp anthropicResponse
	if err := postJSON(ctx, c.httpClient, c.cfg.Name, c.cfg.Endpoint+"/v1/messages", headers, body, &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, part := range resp.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &CallError{Provider: c.cfg.Name, Kind: FailureMalformed, Err: errNoContent}
	}
	return sb.String(), nil
}
