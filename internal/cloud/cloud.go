// Package cloud implements the chatctx.Provider interface for a cloud
// aggregator exposing an OpenAI-compatible chat completions API.
package cloud

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
	ProviderName   = "cloud"
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openai/gpt-4o-mini"
)

// ChatRequest represents the request body for the chat completions endpoint
type ChatRequest struct {
	Model    string            `json:"model"`
	Messages []chatctx.Message `json:"messages"`
	Stream   bool              `json:"stream"`
}

// ChatResponse represents a non-streaming chat completions response
type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
}

// ChatChoice represents a single completion choice
type ChatChoice struct {
	Message chatctx.Message `json:"message"`
}

// Provider implements the chatctx.Provider interface for the cloud aggregator
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewProvider creates a new cloud provider instance
func NewProvider(baseURL, apiKey string) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// Probe is a no-op for the cloud provider. Reachability is only known at
// request time; the credential check is the caller's precondition.
func (p *Provider) Probe() error {
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

	req, err := http.NewRequest("POST", p.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

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

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no content in response\nRaw response: %s", string(body))
	}

	return result.Choices[0].Message.Content, nil
}

// ChatStream sends the conversation and streams the response through the
// server-sent-events decoder
func (p *Provider) ChatStream(messages []chatctx.Message, model string, onFragment func(string)) (string, error) {
	resp, err := p.send(messages, model, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return stream.DecodeSSE(resp.Body, onFragment)
}
