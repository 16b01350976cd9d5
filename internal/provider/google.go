package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/quorumhub/quorum-gateway/internal/config"
)

const googleDefaultEndpoint = "https://generativelanguage.googleapis.com"

// GoogleClient talks to the Gemini generateContent REST API
type GoogleClient struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
}

// NewGoogleClient creates a new Gemini adapter
func NewGoogleClient(cfg config.ProviderConfig, timeout time.Duration) *GoogleClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = googleDefaultEndpoint
	}
	return &GoogleClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *GoogleClient) Name() string  { return c.cfg.Name }
func (c *GoogleClient) Model() string { return c.cfg.Model }
func (c *GoogleClient) Ready() bool   { return c.cfg.APIKey != "" }

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role"`
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	Contents         []googleContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
}

// Complete sends a generateContent request. Gemini has no separate system
// slot on this endpoint; the system instruction is folded into the prompt.
func (c *GoogleClient) Complete(ctx context.Context, req *Request) (string, error) {
	if !c.Ready() {
		return "", &CallError{Provider: c.cfg.Name, Kind: FailureNoCredential}
	}

	text := req.Prompt
	if req.System != "" {
		text = req.System + "\n\n" + req.Prompt
	}

	var body googleRequest
	body.Contents = []googleContent{{Role: "user", Parts: []googlePart{{Text: text}}}}
	body.GenerationConfig.Temperature = pickTemp(req.Temperature, c.cfg.Temperature)
	body.GenerationConfig.MaxOutputTokens = pickTokens(req.MaxTokens, c.cfg.MaxTokens)

	url := fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s",
		c.cfg.Endpoint, pickModel(req.Model, c.cfg.Model), c.cfg.APIKey)

	var resp googleResponse
	if err := postJSON(ctx, c.httpClient, c.cfg.Name, url, nil, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &CallError{Provider: c.cfg.Name, Kind: FailureMalformed, Err: errNoContent}
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
