package config

import (
	"os"
	"testing"
	"time"
)

func TestDefaultProviders(t *testing.T) {
	cfg := Default()
	if len(cfg.Providers) != 5 {
		t.Fatalf("Expected 5 default providers, got %d", len(cfg.Providers))
	}
	want := map[string]string{
		"openai":    "gpt-4o",
		"anthropic": "claude-3-5-sonnet-latest",
		"google":    "gemini-1.5-flash",
		"mistral":   "mistral-large-latest",
		"cohere":    "command-r-plus",
	}
	for _, p := range cfg.Providers {
		if want[p.Name] != p.Model {
			t.Errorf("Provider %s: expected model %s, got %s", p.Name, want[p.Name], p.Model)
		}
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	yaml := []byte(`
server:
  port: 18800
orchestrator:
  deliberate_ms: 500
  timeout: 10s
scheduler:
  enabled: true
  summary_spec: "@every 5m"
`)
	f, _ := os.CreateTemp("", "config-*.yaml")
	f.Write(yaml)
	f.Close()
	defer os.Remove(f.Name())

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 18800 {
		t.Errorf("Expected port 18800, got %d", cfg.Server.Port)
	}
	if cfg.Orchestrator.GetTimeout() != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %v", cfg.Orchestrator.GetTimeout())
	}
	if cfg.Scheduler.Spec() != "@every 5m" {
		t.Errorf("Expected custom spec, got %s", cfg.Scheduler.Spec())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load of missing file should not fail: %v", err)
	}
	if cfg.Server.Port != 18700 {
		t.Errorf("Expected default port, got %d", cfg.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GATEWAY_PORT", "19000")
	t.Setenv("PROVIDER_ORDER", "cohere, openai")
	t.Setenv("PROVIDER_TIMEOUT", "7.5")
	t.Setenv("DELIBERATE_MS", "300")
	t.Setenv("OPENAI_CHAT_MODEL", "gpt-4o-mini")
	t.Setenv("COHERE_MAX_TOKENS", "512")

	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 19000 {
		t.Errorf("Expected port 19000, got %d", cfg.Server.Port)
	}
	if len(cfg.Orchestrator.Order) != 2 || cfg.Orchestrator.Order[0] != "cohere" {
		t.Errorf("Unexpected order: %v", cfg.Orchestrator.Order)
	}
	if cfg.Orchestrator.GetTimeout() != 7500*time.Millisecond {
		t.Errorf("Expected 7.5s timeout, got %v", cfg.Orchestrator.GetTimeout())
	}
	for _, p := range cfg.Providers {
		if p.Name == "openai" && p.Model != "gpt-4o-mini" {
			t.Errorf("Expected model override, got %s", p.Model)
		}
		if p.Name == "cohere" && p.MaxTokens != 512 {
			t.Errorf("Expected max tokens override, got %d", p.MaxTokens)
		}
	}
}

func TestDeliberationCap(t *testing.T) {
	o := OrchestratorConfig{DeliberateMS: 4000}
	if o.Deliberation() != 1500*time.Millisecond {
		t.Errorf("Expected 1500ms cap, got %v", o.Deliberation())
	}
	o.DeliberateMS = 0
	if o.Deliberation() != 0 {
		t.Errorf("Expected no pause, got %v", o.Deliberation())
	}
}

func TestKeyResolution(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "mk")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gk")

	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, p := range cfg.Providers {
		switch p.Name {
		case "mistral":
			if p.APIKey != "mk" {
				t.Errorf("Expected mistral key resolved, got %q", p.APIKey)
			}
		case "google":
			// falls back to GEMINI_API_KEY when GOOGLE_API_KEY is absent
			if p.APIKey != "gk" {
				t.Errorf("Expected gemini fallback key, got %q", p.APIKey)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}

	cfg := Default()
	cfg.Server.Port = -1
	if cfg.Validate() == nil {
		t.Error("Expected error for invalid port")
	}

	cfg = Default()
	cfg.Providers = append(cfg.Providers, cfg.Providers[0])
	if cfg.Validate() == nil {
		t.Error("Expected error for duplicate provider")
	}

	cfg = Default()
	cfg.Orchestrator.Order = []string{"unknown"}
	if cfg.Validate() == nil {
		t.Error("Expected error for unknown provider in order")
	}
}
