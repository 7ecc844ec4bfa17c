package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Provider names accepted in the configuration.
const (
	ProviderCloud = "cloud"
	ProviderLocal = "local"
)

// Config holds the configuration for the inference backends
type Config struct {
	Provider     string `toml:"provider" mapstructure:"provider"`             // "cloud" or "local"
	Model        string `toml:"model" mapstructure:"model"`                   // Cloud model identifier
	APIKey       string `toml:"api_key" mapstructure:"api_key"`               // Cloud bearer credential
	CloudBaseURL string `toml:"cloud_base_url" mapstructure:"cloud_base_url"` // Cloud aggregator base URL
	LocalModel   string `toml:"local_model" mapstructure:"local_model"`       // Local daemon model identifier
	LocalBaseURL string `toml:"local_base_url" mapstructure:"local_base_url"` // Local daemon base URL
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Provider:     ProviderCloud,
		Model:        "openai/gpt-4o-mini",
		APIKey:       "$OPENROUTER_API_KEY", // Default to env var
		CloudBaseURL: "https://openrouter.ai/api/v1",
		LocalModel:   "llama3.2",
		LocalBaseURL: "http://localhost:11434",
	}
}

// Validate checks the provider selection
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderCloud, ProviderLocal:
		return nil
	default:
		return fmt.Errorf("unsupported provider: %q (expected %q or %q)", c.Provider, ProviderCloud, ProviderLocal)
	}
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	// Expand environment variable references in credential and URL values
	config.APIKey = expandEnvVar(config.APIKey)
	config.CloudBaseURL = expandEnvVar(config.CloudBaseURL)
	config.LocalBaseURL = expandEnvVar(config.LocalBaseURL)

	return config, nil
}
