// Package local implements the chatctx.Provider interface for a local
// inference daemon exposing an Ollama-compatible API.
package local

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ktsuji/chatctx/internal/chatctx"
	"github.com/ktsuji/chatctx/internal/stream"
)

const (
	ProviderName   = "local"
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
)

// ChatRequest represents the request body for the daemon's chat endpoint
type ChatRequest struct {
	Model    string            `json:"model"`
	Messages []chatctx.Message `json:"messages"`
	Stream   bool              `json:"stream"`
}

// ChatResponse represents a non-streaming chat response from the daemon
type ChatResponse struct {
	Message chatctx.Message `json:"message"`
}

// Provider implements the chatctx.Provider interface for the local daemon
type Provider struct {
	baseURL string
	client  *http.Client
}

// NewProvider creates a new local daemon provider instance
func NewProvider(baseURL string) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// Probe checks that the daemon is reachable via its model listing endpoint
func (p *Provider) Probe() error {
	resp, err := p.client.Get(p.baseURL + "/api/tags")
	if err != nil {
		return fmt.Errorf("cannot reach local daemon at %s: %v", p.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("local daemon at %s returned HTTP %d", p.baseURL, resp.StatusCode)
	}
	return nil
}

func (p *Provider) send(messages []chatctx.Message, model string, streaming bool) (*http.Response, error) {
	reqBody := ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   streaming,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %v", err)
	}

	req, err := http.NewRequest("POST", p.baseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, string(body))
	}

	return resp, nil
}

// Chat sends the conversation and returns the complete response text
func (p *Provider) Chat(messages []chatctx.Message, model string) (string, error) {
	resp, err := p.send(messages, model, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %v", err)
	}

	var result ChatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %v\nRaw response: %s", err, string(body))
	}

	if result.Message.Content == "" {
		return "", fmt.Errorf("no content in response\nRaw response: %s", string(body))
	}

	return result.Message.Content, nil
}

// ChatStream sends the conversation and streams the response through the
// newline-delimited JSON decoder
func (p *Provider) ChatStream(messages []chatctx.Message, model string, onFragment func(string)) (string, error) {
	resp, err := p.send(messages, model, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return stream.DecodeNDJSON(resp.Body, onFragment)
}
