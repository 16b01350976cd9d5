package provider

import (
	"log/slog"

	"github.com/quorumhub/quorum-gateway/internal/config"
	"github.com/quorumhub/quorum-gateway/internal/metrics"
)

// Registry is the closed set of provider adapters, built once at startup.
// Selection at request time only ever references this static mapping.
type Registry struct {
	clients map[string]Client
	order   []string
	logger  *slog.Logger
}

// NewRegistry builds adapters for every configured provider. Unknown
// provider names are logged and skipped rather than failing startup.
func NewRegistry(cfg *config.Config, logger *slog.Logger) *Registry {
	r := &Registry{
		clients: make(map[string]Client),
		order:   cfg.Orchestrator.Order,
		logger:  logger,
	}
	timeout := cfg.Orchestrator.GetTimeout()

	for _, pc := range cfg.Providers {
		var client Client
		switch pc.Name {
		case "openai":
			client = NewOpenAIClient(pc, timeout)
		case "anthropic":
			client = NewAnthropicClient(pc, timeout)
		case "google":
			client = NewGoogleClient(pc, timeout)
		case "mistral":
			client = NewMistralClient(pc, timeout)
		case "cohere":
			client = NewCohereClient(pc, timeout)
		default:
			logger.Warn("Unsupported provider, skipping", "provider", pc.Name)
			continue
		}
		r.clients[pc.Name] = client
	}

	if len(r.order) == 0 {
		r.order = config.DefaultOrder
	}
	metrics.ActiveProviders.Set(float64(len(r.Active(r.Order("")))))
	return r
}

// Get returns the adapter for a provider name
func (r *Registry) Get(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Order returns the provider preference order: a known forced provider
// alone, otherwise the configured order filtered to known providers.
func (r *Registry) Order(force string) []string {
	if force != "" {
		if _, ok := r.clients[force]; ok {
			return []string{force}
		}
	}
	order := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if _, ok := r.clients[name]; ok {
			order = append(order, name)
		}
	}
	return order
}

// Active filters an order to providers whose credential is present
func (r *Registry) Active(order []string) []string {
	active := make([]string, 0, len(order))
	for _, name := range order {
		if c, ok := r.clients[name]; ok && c.Ready() {
			active = append(active, name)
		}
	}
	return active
}

// Names returns all registered provider names in preference order
func (r *Registry) Names() []string {
	return r.Order("")
}
