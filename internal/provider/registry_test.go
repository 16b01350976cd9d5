package provider

import (
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/quorumhub/quorum-gateway/internal/config"
	"github.com/quorumhub/quorum-gateway/internal/metrics"
)

func registryConfig(keys map[string]string) *config.Config {
	cfg := config.Default()
	for i := range cfg.Providers {
		cfg.Providers[i].APIKey = keys[cfg.Providers[i].Name]
	}
	return cfg
}

func TestRegistryDefaultOrder(t *testing.T) {
	r := NewRegistry(registryConfig(nil), slog.Default())
	order := r.Order("")
	want := []string{"openai", "anthropic", "google", "mistral", "cohere"}
	if len(order) != len(want) {
		t.Fatalf("Expected %d providers, got %d", len(want), len(order))
	}
	for i, name := range want {
		if order[i] != name {
			t.Errorf("Order[%d] = %s, want %s", i, order[i], name)
		}
	}
}

func TestRegistryForcedOrder(t *testing.T) {
	r := NewRegistry(registryConfig(nil), slog.Default())

	order := r.Order("mistral")
	if len(order) != 1 || order[0] != "mistral" {
		t.Errorf("Expected forced order [mistral], got %v", order)
	}

	// unknown forced name falls back to the configured order
	order = r.Order("nonexistent")
	if len(order) != 5 {
		t.Errorf("Expected full order for unknown force, got %v", order)
	}
}

func TestRegistryActiveFiltersByCredential(t *testing.T) {
	r := NewRegistry(registryConfig(map[string]string{
		"anthropic": "key-a",
		"cohere":    "key-c",
	}), slog.Default())

	active := r.Active(r.Order(""))
	if len(active) != 2 {
		t.Fatalf("Expected 2 active providers, got %v", active)
	}
	if active[0] != "anthropic" || active[1] != "cohere" {
		t.Errorf("Expected preference order preserved, got %v", active)
	}
}

func TestRegistryNoCredentials(t *testing.T) {
	r := NewRegistry(registryConfig(nil), slog.Default())
	if active := r.Active(r.Order("")); len(active) != 0 {
		t.Errorf("Expected no active providers, got %v", active)
	}
}

func TestRegistrySetsActiveProvidersGauge(t *testing.T) {
	NewRegistry(registryConfig(map[string]string{
		"openai": "key-o",
		"google": "key-g",
	}), slog.Default())
	if got := testutil.ToFloat64(metrics.ActiveProviders); got != 2 {
		t.Errorf("ActiveProviders gauge = %v, want 2", got)
	}
}

func TestRegistrySkipsUnknownProvider(t *testing.T) {
	cfg := registryConfig(nil)
	cfg.Providers = append(cfg.Providers, config.ProviderConfig{Name: "fancy-new-llm", Model: "x"})
	r := NewRegistry(cfg, slog.Default())
	if _, ok := r.Get("fancy-new-llm"); ok {
		t.Error("Unknown provider should not be registered")
	}
}
