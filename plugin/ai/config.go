package ai

import (
	"github.com/pkg/errors"

	"github.com/usetownhall/townhall/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM LLMConfig
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string  // openai, deepseek, ollama (any OpenAI-compatible endpoint)
	Model       string  // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.7
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.AIEnabled,
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.LLM = LLMConfig{
		Provider:    p.AIProvider,
		Model:       p.AIModel,
		APIKey:      p.AIAPIKey,
		BaseURL:     p.AIBaseURL,
		MaxTokens:   p.AIMaxTokens,
		Temperature: 0.7,
	}

	return cfg
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.LLM.Model == "" {
		return errors.New("llm model is required when AI is enabled")
	}
	if c.LLM.APIKey == "" && c.LLM.BaseURL == "" {
		return errors.New("llm api key or base url is required when AI is enabled")
	}
	return nil
}
