// Package chatctx provides the core abstractions for the chatctx CLI.
// This package defines the Provider interface that all inference backend
// implementations (cloud, local) must implement, and the conversation
// manager that orchestrates a single exchange.
package chatctx

import (
	"fmt"
	"regexp"
)

// Provider defines the interface for inference backends.
// All backend implementations (cloud, local) must implement this interface.
//
// Example usage:
//
//	provider := cloud.NewProvider(baseURL, apiKey)
//	response, err := provider.Chat(messages, "openai/gpt-4o-mini")
type Provider interface {
	// Probe checks that the backend is reachable before any chat request
	// is issued. Backends without a liveness endpoint return nil.
	Probe() error

	// Chat sends the conversation and returns the complete response text.
	Chat(messages []Message, model string) (string, error)

	// ChatStream sends the conversation and streams the response.
	// onFragment is called once per text fragment as it arrives.
	// The full accumulated text is returned; on a stream error the text
	// received so far is returned together with the error.
	ChatStream(messages []Message, model string, onFragment func(string)) (string, error)
}

var contextNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateContextName checks that a context name is safe to use as a
// filename. Names must start with an alphanumeric character and may
// contain letters, digits, dots, underscores, and hyphens.
func ValidateContextName(name string) error {
	if name == "" {
		return fmt.Errorf("context name cannot be empty")
	}
	if !contextNamePattern.MatchString(name) {
		return fmt.Errorf("invalid context name: %q (allowed: letters, digits, '.', '_', '-')", name)
	}
	return nil
}
