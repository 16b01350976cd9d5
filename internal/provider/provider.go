package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// FailureKind classifies why a completion call produced no text. Callers
// upstream decide whether a given kind matters; adapters only report it.
type FailureKind string

const (
	FailureNoCredential FailureKind = "no_credential"
	FailureTimeout      FailureKind = "timeout"
	FailureTransport    FailureKind = "transport"
	FailureBadStatus    FailureKind = "bad_status"
	FailureMalformed    FailureKind = "malformed"
)

// CallError is the only error type adapters return
type CallError struct {
	Provider string
	Kind     FailureKind
	Err      error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *CallError) Unwrap() error { return e.Err }

// Kind extracts the failure kind from an adapter error, FailureTransport
// when the error is of another shape.
func Kind(err error) FailureKind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return FailureTransport
}

// Request is the uniform completion request every adapter accepts.
// Model, Temperature and MaxTokens override the configured defaults when set.
type Request struct {
	Prompt      string
	System      string
	Model       string
	Temperature *float64
	MaxTokens   int
}

// Client is the capability set the rest of the system is polymorphic over
type Client interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req *Request) (string, error)
	Ready() bool
}

var errNoContent = errors.New("no content in response")

func pickModel(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

func pickTemp(override *float64, fallback float64) float64 {
	if override != nil {
		return *override
	}
	return fallback
}

func pickTokens(override, fallback int) int {
	if override > 0 {
		return override
	}
	return fallback
}

// postJSON issues a JSON POST and decodes the JSON response, translating
// every failure mode into a *CallError for the given provider.
func postJSON(ctx context.Context, client *http.Client, name, url string, headers map[string]string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return &CallError{Provider: name, Kind: FailureMalformed, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return &CallError{Provider: name, Kind: FailureTransport, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		kind := FailureTransport
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			kind = FailureTimeout
		}
		return &CallError{Provider: name, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &CallError{Provider: name, Kind: FailureBadStatus, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &CallError{Provider: name, Kind: FailureMalformed, Err: err}
	}
	return nil
}
