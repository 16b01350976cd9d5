package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/quorumhub/quorum-gateway/internal/config"
)

const openaiDefaultEndpoint = "https://api.openai.com/v1"

// OpenAIClient talks to the OpenAI chat completions API
type OpenAIClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewOpenAIClient creates a new OpenAI adapter
func NewOpenAIClient(cfg config.ProviderConfig, timeout time.Duration) *OpenAIClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = openaiDefaultEndpoint
	}
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *OpenAIClient) Name() string  { return c.cfg.Name }
func (c *OpenAIClient) Model() string { return c.cfg.Model }
func (c *OpenAIClient) Ready() bool   { return c.cfg.APIKey != "" }

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat completion request
func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (string, error) {
	if !c.Ready() {
		return "", &CallError{Provider: c.cfg.Name, Kind: FailureNoCredential}
	}

	body := openaiRequest{
		Model:       pickModel(req.Model, c.cfg.Model),
		Temperature: pickTemp(req.Temperature, c.cfg.Temperature),
		MaxTokens:   pickTokens(req.MaxTokens, c.cfg.MaxTokens),
		Messages: []openaiMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
	}

	var resp openaiResponse
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	if err := postJSON(ctx, c.httpClient, c.cfg.Name, c.cfg.Endpoint+"/chat/completions", headers, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", &CallError{Provider: c.cfg.Name, Kind: FailureMalformed, Err: errNoContent}
	}
	return resp.Choices[0].Message.Content, nil
}
