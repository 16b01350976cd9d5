package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/quorumhub/quorum-gateway/internal/config"
)

const cohereDefaultEndpoint = "https://api.cohere.com"

// CohereClient talks to the Cohere chat API
type CohereClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewCohereClient creates a new Cohere adapter
func NewCohereClient(cfg config.ProviderConfig, timeout time.Duration) *CohereClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = cohereDefaultEndpoint
	}
	return &CohereClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *CohereClient) Name() string  { return c.cfg.Name }
func (c *CohereClient) Model() string { return c.cfg.Model }
func (c *CohereClient) Ready() bool   { return c.cfg.APIKey != "" }

type cohereRequest struct {
	Model       string  `json:"model"`
	Message     string  `json:"message"`
	Preamble    string  `json:"preamble,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Cohere answers either with a top-level "text" or a message with typed
// content parts, depending on API generation.
type cohereResponse struct {
	Text    string `json:"text"`
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

// Complete sends a chat request
func (c *CohereClient) Complete(ctx context.Context, req *Request) (string, error) {
	if !c.Ready() {
		return "", &CallError{Provider: c.cfg.Name, Kind: FailureNoCredential}
	}

	body := cohereRequest{
		Model:       pickModel(req.Model, c.cfg.Model),
		Message:     req.Prompt,
		Preamble:    req.System,
		Temperature: pickTemp(req.Temperature, c.cfg.Temperature),
		MaxTokens:   pickTokens(req.MaxTokens, c.cfg.MaxTokens),
	}

	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	var resp cohereResponse
	if err := postJSON(ctx, c.httpClient, c.cfg.Name, c.cfg.Endpoint+"/v1/chat", headers, body, &resp); err != nil {
		return "", err
	}

	if resp.Text != "" {
		return resp.Text, nil
	}
	var sb strings.Builder
	for _, part := range resp.Message.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &CallError{Provider: c.cfg.Name, Kind: FailureMalformed, Err: errNoContent}
	}
	return sb.String(), nil
}
