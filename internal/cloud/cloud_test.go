package cloud

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ktsuji/chatctx/internal/chatctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "openai/gpt-4o-mini", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "Hello", req.Messages[0].Content)

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Hi there"}}]}`)
	}))
	defer server.Close()

	provider := NewProvider(server.URL, "test-key")
	response, err := provider.Chat([]chatctx.Message{{Role: chatctx.RoleUser, Content: "Hello"}}, "openai/gpt-4o-mini")

	require.NoError(t, err)
	assert.Equal(t, "Hi there", response)
}

func TestChatNonSuccessStatusCapturesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid api key"}`)
	}))
	defer server.Close()

	provider := NewProvider(server.URL, "bad-key")
	_, err := provider.Chat([]chatctx.Message{{Role: chatctx.RoleUser, Content: "Hello"}}, "m")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestChatMissingContentSurfacesRawPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"unexpected":"shape"}`)
	}))
	defer server.Close()

	provider := NewProvider(server.URL, "k")
	_, err := provider.Chat([]chatctx.Message{{Role: chatctx.RoleUser, Content: "Hello"}}, "m")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `{"unexpected":"shape"}`)
}

func TestChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" there\"}}]}\n")
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer server.Close()

	provider := NewProvider(server.URL, "k")

	var fragments []string
	response, err := provider.ChatStream([]chatctx.Message{{Role: chatctx.RoleUser, Content: "Hello"}}, "m", func(f string) {
		fragments = append(fragments, f)
	})

	require.NoError(t, err)
	assert.Equal(t, "Hi there", response)
	assert.Equal(t, []string{"Hi", " there"}, fragments)
}

func TestProbeIsNoOp(t *testing.T) {
	provider := NewProvider("http://127.0.0.1:1", "k")
	assert.NoError(t, provider.Probe())
}

func TestNewProviderDefaultBaseURL(t *testing.T) {
	provider := NewProvider("", "k")
	assert.Equal(t, DefaultBaseURL, provider.baseURL)
}
