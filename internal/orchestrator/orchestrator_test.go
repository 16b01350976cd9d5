package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quorumhub/quorum-gateway/internal/config"
	"github.com/quorumhub/quorum-gateway/internal/fastpath"
	"github.com/quorumhub/quorum-gateway/internal/provider"
	"github.com/quorumhub/quorum-gateway/internal/vote"
)

// chatReply serves an OpenAI-shaped chat completion with fixed content
func chatReply(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}
}

func failReply() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}
}

// newTestOrchestrator wires openai and mistral adapters to the given
// handlers. A nil handler leaves that provider without a credential.
func newTestOrchestrator(t *testing.T, openaiHandler, mistralHandler http.HandlerFunc) *Orchestrator {
	t.Helper()

	cfg := config.Default()
	cfg.Orchestrator.DeliberateMS = 0
	cfg.Orchestrator.Timeout = "2s"
	cfg.Providers = nil

	for _, p := range []struct {
		name    string
		handler http.HandlerFunc
	}{{"openai", openaiHandler}, {"mistral", mistralHandler}} {
		pc := config.ProviderConfig{Name: p.name, Model: "test-model", Temperature: 0.2, MaxTokens: 100}
		if p.handler != nil {
			srv := httptest.NewServer(p.handler)
			t.Cleanup(srv.Close)
			pc.Endpoint = srv.URL
			pc.APIKey = "test-key"
		}
		cfg.Providers = append(cfg.Providers, pc)
	}

	return New(Deps{
		Registry: provider.NewRegistry(cfg, slog.Default()),
		Resolver: fastpath.NewResolver(fastpath.NewMemory(0)),
		Config:   cfg,
		Logger:   slog.Default(),
	})
}

func TestAnswerEmptyQuestion(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)
	if _, err := o.Answer(context.Background(), "   ", "", ""); err != ErrEmptyQuestion {
		t.Errorf("Expected ErrEmptyQuestion, got %v", err)
	}
}

func TestAnswerFastPathSkipsProviders(t *testing.T) {
	called := false
	o := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, nil)

	res, err := o.Answer(context.Background(), "2+2", "", "")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if res.Answer != "4" || res.Provider != fastpath.StageMath {
		t.Errorf("Expected local math answer, got %+v", res)
	}
	if len(res.ProvidersUsed) != 0 {
		t.Errorf("Fast path must not report providers, got %v", res.ProvidersUsed)
	}
	if called {
		t.Error("Fast path hit must not reach any provider")
	}
}

func TestAnswerNoActiveProviders(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)

	res, err := o.Answer(context.Background(), "explain gravity", "", "")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if res.Answer != NoAnswerText {
		t.Errorf("Expected sentinel, got %q", res.Answer)
	}
	if res.Provider != LabelNone {
		t.Errorf("Expected provider %q, got %q", LabelNone, res.Provider)
	}
	if len(res.ProvidersUsed) != 0 {
		t.Errorf("Expected empty providers_used, got %v", res.ProvidersUsed)
	}
}

func TestAnswerSingleResponderKeepsLabel(t *testing.T) {
	o := newTestOrchestrator(t, failReply(), chatReply("42"))

	res, err := o.Answer(context.Background(), "meaning of life?", "", "")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if res.Answer != "42" {
		t.Errorf("Expected 42, got %q", res.Answer)
	}
	if res.Provider != "mistral" {
		t.Errorf("Expected single responder label, got %q", res.Provider)
	}
	if len(res.ProvidersUsed) != 1 || res.ProvidersUsed[0] != "mistral" {
		t.Errorf("Unexpected providers_used: %v", res.ProvidersUsed)
	}
}

func TestAnswerEnsembleVote(t *testing.T) {
	o := newTestOrchestrator(t, chatReply("Paris"), chatReply("paris."))

	res, err := o.Answer(context.Background(), "capital of france?", "", "")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if res.Provider != LabelEnsemble {
		t.Errorf("Expected ensemble label, got %q", res.Provider)
	}
	if vote.Normalize(res.Answer) != "paris" {
		t.Errorf("Expected a paris-group answer, got %q", res.Answer)
	}
	if len(res.ProvidersUsed) != 2 {
		t.Errorf("Expected both providers used, got %v", res.ProvidersUsed)
	}
}

func TestAnswerStripsAnswerPrefix(t *testing.T) {
	o := newTestOrchestrator(t, nil, chatReply("Answer: blue"))

	res, err := o.Answer(context.Background(), "color of the sky?", "", "")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if res.Answer != "blue" {
		t.Errorf("Expected prefix stripped, got %q", res.Answer)
	}
}

func TestAnswerForcedProvider(t *testing.T) {
	o := newTestOrchestrator(t, chatReply("from openai"), chatReply("from mistral"))

	res, err := o.Answer(context.Background(), "pick one", "openai", "")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if res.Provider != "openai" || res.Answer != "from openai" {
		t.Errorf("Expected forced provider result, got %+v", res)
	}
}

func TestAnswerForcedProviderFallsBack(t *testing.T) {
	o := newTestOrchestrator(t, failReply(), chatReply("backup"))

	res, err := o.Answer(context.Background(), "pick one", "openai", "")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if res.Answer != "backup" {
		t.Errorf("Expected fallback answer, got %q", res.Answer)
	}
	if res.Provider != "mistral" {
		t.Errorf("Expected fallback label, got %q", res.Provider)
	}
}

func TestAnswerRecordsMemory(t *testing.T) {
	o := newTestOrchestrator(t, nil, chatReply("stored answer"))

	if _, err := o.Answer(context.Background(), "remember me?", "", ""); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	res, err := o.Answer(context.Background(), "remember me?", "", "")
	if err != nil {
		t.Fatalf("Second answer failed: %v", err)
	}
	if !res.FromMemory || res.Provider != fastpath.StageMemory {
		t.Errorf("Expected memory recall on repeat, got %+v", res)
	}
	if res.Answer != "stored answer" {
		t.Errorf("Expected stored answer back, got %q", res.Answer)
	}
}

func TestAskValidatesQuestion(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)
	if _, err := o.Ask(context.Background(), AskRequest{Question: ""}); err != ErrEmptyQuestion {
		t.Errorf("Expected ErrEmptyQuestion, got %v", err)
	}
}

func TestFirstPrefersOrder(t *testing.T) {
	o := newTestOrchestrator(t, chatReply("first"), chatReply("second"))

	text, name, err := o.First(context.Background(), "hello", "", nil)
	if err != nil {
		t.Fatalf("First failed: %v", err)
	}
	if name != "openai" || text != "first" {
		t.Errorf("Expected openai to answer first, got %q from %q", text, name)
	}
}

func TestFirstSkipsFailures(t *testing.T) {
	o := newTestOrchestrator(t, failReply(), chatReply("second"))

	text, name, err := o.First(context.Background(), "hello", "", nil)
	if err != nil {
		t.Fatalf("First failed: %v", err)
	}
	if name != "mistral" || text != "second" {
		t.Errorf("Expected mistral after openai failure, got %q from %q", text, name)
	}
}

func TestFirstNoProviders(t *testing.T) {
	o := newTestOrchestrator(t, nil, nil)
	if _, _, err := o.First(context.Background(), "hello", "", nil); err != ErrNoProviders {
		t.Errorf("Expected ErrNoProviders, got %v", err)
	}
}
