package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/quorumhub/quorum-gateway/internal/config"
)

const mistralDefaultEndpoint = "https://api.mistral.ai/v1"

// MistralClient talks to the Mistral chat completions API, which follows
// the OpenAI wire shape.
type MistralClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewMistralClient creates a new Mistral adapter
func NewMistralClient(cfg config.ProviderConfig, timeout time.Duration) *MistralClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = mistralDefaultEndpoint
	}
	return &MistralClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *MistralClient) Name() string  { return c.cfg.Name }
func (c *MistralClient) Model() string { return c.cfg.Model }
func (c *MistralClient) Ready() bool   { return c.cfg.APIKey != "" }

// Complete sends a chat completion request
func (c *MistralClient) Complete(ctx context.Context, req *Request) (string, error) {
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
