package ai

import (
	"time"

	"github.com/pkg/errors"

	"github.com/afterlinkhq/afterlink/internal/profile"
)

// LLMConfig represents generation capability configuration.
type LLMConfig struct {
	Provider          string // openai, deepseek, custom
	Model             string
	APIKey            string
	BaseURL           string
	MaxTokens         int     // default: 2048
	Temperature       float32 // default: 0.7
	MaxRetries        int     // default: 3
	Timeout           time.Duration
	RequestsPerMinute int // default: 30
}

// DefaultLLMConfig returns the default configuration.
func DefaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		Provider:          "openai",
		Model:             "gpt-4o-mini",
		BaseURL:           "https://api.openai.com/v1",
		MaxTokens:         2048,
		Temperature:       0.7,
		MaxRetries:        3,
		Timeout:           30 * time.Second,
		RequestsPerMinute: 30,
	}
}

func (c *LLMConfig) applyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 2048
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 30
	}
}

// NewLLMConfigFromProfile creates LLM config from profile.
func NewLLMConfigFromProfile(p *profile.Profile) *LLMConfig {
	cfg := DefaultLLMConfig()
	cfg.Provider = p.AIProvider
	cfg.APIKey = p.AIAPIKey
	cfg.BaseURL = p.AIBaseURL
	cfg.Model = p.AIModel
	cfg.RequestsPerMinute = p.AIRequestsPerMinute
	return cfg
}

// Validate validates the configuration.
func (c *LLMConfig) Validate() error {
	if c.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if c.Provider != "custom" && c.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	return nil
}
