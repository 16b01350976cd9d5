package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for Quorum-Gateway
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Providers    []ProviderConfig   `yaml:"providers"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Creative     CreativeConfig     `yaml:"creative"`
	Storage      StorageConfig      `yaml:"storage"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Redis        RedisConfig        `yaml:"redis,omitempty"`
	Channels     ChannelsConfig     `yaml:"channels,omitempty"`
	Scheduler    SchedulerConfig    `yaml:"scheduler,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// ProviderConfig defines one LLM backend. The API key is never read from
// YAML; it comes from the environment variable named in key_env.
type ProviderConfig struct {
	Name        string  `yaml:"name"`
	Endpoint    string  `yaml:"endpoint,omitempty"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	KeyEnv      string  `yaml:"key_env,omitempty"`

	APIKey string `yaml:"-"`
}

// OrchestratorConfig defines fan-out behavior
type OrchestratorConfig struct {
	Order        []string `yaml:"order,omitempty"`
	Timeout      string   `yaml:"timeout,omitempty"`
	DeliberateMS int      `yaml:"deliberate_ms"`
}

// GetTimeout returns the per-call network timeout as a time.Duration
func (o *OrchestratorConfig) GetTimeout() time.Duration {
	if o.Timeout == "" {
		return 22 * time.Second
	}
	d, err := time.ParseDuration(o.Timeout)
	if err != nil {
		return 22 * time.Second
	}
	return d
}

// Deliberation returns the bounded pre-answer delay, capped at 1.5s
func (o *OrchestratorConfig) Deliberation() time.Duration {
	ms := o.DeliberateMS
	if ms <= 0 {
		return 0
	}
	if ms > 1500 {
		ms = 1500
	}
	return time.Duration(ms) * time.Millisecond
}

// CreativeConfig defines the imagine pipeline budget
type CreativeConfig struct {
	Budget string `yaml:"budget,omitempty"`
}

// GetBudget returns the wall-clock budget for one imagine request
func (c *CreativeConfig) GetBudget() time.Duration {
	if c.Budget == "" {
		return 18 * time.Second
	}
	d, err := time.ParseDuration(c.Budget)
	if err != nil {
		return 18 * time.Second
	}
	return d
}

// StorageConfig defines the conversation store location
type StorageConfig struct {
	Path string `yaml:"path"`
}

// RetrievalConfig defines the document corpus for prompt enrichment
type RetrievalConfig struct {
	DataDir string `yaml:"data_dir,omitempty"`
	TopK    int    `yaml:"top_k,omitempty"`
}

// RedisConfig defines the optional exchange event stream
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Stream   string `yaml:"stream,omitempty"`
}

// ChannelsConfig defines chat channel adapters
type ChannelsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
	WebChat  WebChatConfig  `yaml:"webchat"`
}

// TelegramConfig defines Telegram channel settings
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// DiscordConfig defines Discord channel settings
type DiscordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// WebChatConfig defines WebChat channel settings
type WebChatConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// SchedulerConfig defines the summary checkpoint job
type SchedulerConfig struct {
	Enabled     bool   `yaml:"enabled"`
	SummarySpec string `yaml:"summary_spec,omitempty"`
}

// Spec returns the cron spec for summary checkpoints
func (s *SchedulerConfig) Spec() string {
	if s.SummarySpec == "" {
		return "@every 15m"
	}
	return s.SummarySpec
}

// DefaultOrder is the hardcoded provider preference used when neither a
// forced provider nor a configured order applies.
var DefaultOrder = []string{"openai", "anthropic", "google", "mistral", "cohere"}

// Default returns a configuration with the built-in provider set. It is the
// starting point for Load and is usable on its own when no YAML file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 18700, Host: "0.0.0.0"},
		Providers: []ProviderConfig{
			{Name: "openai", Model: "gpt-4o", Temperature: 0.2, MaxTokens: 700, KeyEnv: "OPENAI_API_KEY"},
			{Name: "anthropic", Model: "claude-3-5-sonnet-latest", Temperature: 0.2, MaxTokens: 900, KeyEnv: "ANTHROPIC_API_KEY"},
			{Name: "google", Model: "gemini-1.5-flash", Temperature: 0.2, MaxTokens: 900, KeyEnv: "GOOGLE_API_KEY"},
			{Name: "mistral", Model: "mistral-large-latest", Temperature: 0.2, MaxTokens: 700, KeyEnv: "MISTRAL_API_KEY"},
			{Name: "cohere", Model: "command-r-plus", Temperature: 0.2, MaxTokens: 800, KeyEnv: "COHERE_API_KEY"},
		},
		Orchestrator: OrchestratorConfig{DeliberateMS: 250},
		Storage:      StorageConfig{Path: "storage/quorum.sqlite"},
		Retrieval:    RetrievalConfig{TopK: 4},
	}
}

// Load loads configuration from a YAML file with environment variable
// overrides layered on top. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.resolveKeys()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("GATEWAY_PORT"); port != "" {
		fmt.Sscanf(port, "%d", &c.Server.Port)
	}
	if order := os.Getenv("PROVIDER_ORDER"); order != "" {
		var parsed []string
		for _, p := range strings.Split(order, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parsed = append(parsed, p)
			}
		}
		if len(parsed) > 0 {
			c.Orchestrator.Order = parsed
		}
	}
	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			c.Orchestrator.Timeout = time.Duration(secs * float64(time.Second)).String()
		}
	}
	if v := os.Getenv("DELIBERATE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Orchestrator.DeliberateMS = ms
		}
	}
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		c.Channels.Telegram.Token = token
	}
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		c.Channels.Discord.Token = token
	}

	for i := range c.Providers {
		p := &c.Providers[i]
		prefix := strings.ToUpper(p.Name)
		modelEnv := prefix + "_MODEL"
		if p.Name == "openai" {
			modelEnv = "OPENAI_CHAT_MODEL"
		}
		if v := os.Getenv(modelEnv); v != "" {
			p.Model = v
		}
		if v := os.Getenv(prefix + "_TEMP"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				p.Temperature = f
			}
		}
		if v := os.Getenv(prefix + "_MAX_TOKENS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				p.MaxTokens = n
			}
		}
	}
}

// resolveKeys reads provider credentials from the environment. Google
// accepts GEMINI_API_KEY as a fallback, matching common deployments.
func (c *Config) resolveKeys() {
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.KeyEnv != "" {
			p.APIKey = os.Getenv(p.KeyEnv)
		}
		if p.Name == "google" && p.APIKey == "" {
			p.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider is required")
	}
	seen := make(map[string]bool)
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider: %s", p.Name)
		}
		seen[p.Name] = true
	}
	for _, name := range c.Orchestrator.Order {
		if !seen[name] {
			return fmt.Errorf("unknown provider in order: %s", name)
		}
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}
	return nil
}
