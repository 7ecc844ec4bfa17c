package chatctx_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ktsuji/chatctx/internal/chatctx"
	"github.com/ktsuji/chatctx/internal/chatctx/config"
	contextpkg "github.com/ktsuji/chatctx/internal/chatctx/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider records what it was asked and plays back a canned response.
type stubProvider struct {
	response  string
	fragments []string
	err       error
	probeErr  error

	calls        int
	gotModel     string
	gotMessages  []chatctx.Message
	gotStreaming bool
}

func (s *stubProvider) Probe() error { return s.probeErr }

func (s *stubProvider) Chat(messages []chatctx.Message, model string) (string, error) {
	s.calls++
	s.gotModel = model
	s.gotMessages = messages
	s.gotStreaming = false
	return s.response, s.err
}

func (s *stubProvider) ChatStream(messages []chatctx.Message, model string, onFragment func(string)) (string, error) {
	s.calls++
	s.gotModel = model
	s.gotMessages = messages
	s.gotStreaming = true
	var full string
	for _, f := range s.fragments {
		onFragment(f)
		full += f
	}
	return full, s.err
}

func newManager(t *testing.T, cfg *config.Config, cloud, local *stubProvider) (*chatctx.Manager, *contextpkg.Store) {
	t.Helper()
	store := contextpkg.NewStore(t.TempDir())
	return &chatctx.Manager{
		Config: cfg,
		Cloud:  cloud,
		Local:  local,
		Store:  store,
		Out:    &bytes.Buffer{},
	}, store
}

func cloudConfig() *config.Config {
	return &config.Config{
		Provider: config.ProviderCloud,
		Model:    "openai/gpt-4o-mini",
		APIKey:   "test-key",
	}
}

func userTurn(content string) []chatctx.Message {
	return []chatctx.Message{{Role: chatctx.RoleUser, Content: content}}
}

func TestSendPersistsCompletedExchange(t *testing.T) {
	cloud := &stubProvider{response: "Hi there"}
	manager, store := newManager(t, cloudConfig(), cloud, &stubProvider{})

	response, err := manager.Send("demo", userTurn("Hello"), chatctx.SendOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Hi there", response)

	record, ok := store.Load("demo")
	require.True(t, ok)
	assert.Equal(t, []chatctx.Message{
		{Role: chatctx.RoleUser, Content: "Hello"},
		{Role: chatctx.RoleAssistant, Content: "Hi there"},
	}, record.Messages)
}

func TestSendLeavesStoreUntouchedOnProviderError(t *testing.T) {
	dir := t.TempDir()
	store := contextpkg.NewStore(dir)
	require.NoError(t, store.Save("demo", userTurn("earlier")))

	before, err := os.ReadFile(filepath.Join(dir, "demo.json"))
	require.NoError(t, err)

	cloud := &stubProvider{err: errors.New("API error (HTTP 429): rate limited")}
	manager := &chatctx.Manager{
		Config: cloudConfig(),
		Cloud:  cloud,
		Local:  &stubProvider{},
		Store:  store,
		Out:    &bytes.Buffer{},
	}

	transcript := []chatctx.Message{
		{Role: chatctx.RoleUser, Content: "earlier"},
		{Role: chatctx.RoleAssistant, Content: "x"},
		{Role: chatctx.RoleUser, Content: "again"},
	}
	_, err = manager.Send("demo", transcript, chatctx.SendOptions{})
	require.Error(t, err)

	after, err := os.ReadFile(filepath.Join(dir, "demo.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed call must not mutate the stored transcript")
}

func TestSendStreamingWritesFragmentsAsTheyArrive(t *testing.T) {
	cloud := &stubProvider{fragments: []string{"Hi", " there"}}
	out := &bytes.Buffer{}
	store := contextpkg.NewStore(t.TempDir())
	manager := &chatctx.Manager{
		Config: cloudConfig(),
		Cloud:  cloud,
		Local:  &stubProvider{},
		Store:  store,
		Out:    out,
	}

	response, err := manager.Send("demo", userTurn("Hello"), chatctx.SendOptions{Stream: true})

	require.NoError(t, err)
	assert.Equal(t, "Hi there", response)
	assert.Equal(t, "Hi there", out.String())
	assert.True(t, cloud.gotStreaming)

	// The streaming flag changes delivery, never persistence
	record, ok := store.Load("demo")
	require.True(t, ok)
	assert.Equal(t, "Hi there", record.Messages[1].Content)
}

func TestSendWithoutContextSkipsPersistence(t *testing.T) {
	cloud := &stubProvider{response: "answer"}
	manager, store := newManager(t, cloudConfig(), cloud, &stubProvider{})

	response, err := manager.Send("", userTurn("one-shot"), chatctx.SendOptions{})

	require.NoError(t, err)
	assert.Equal(t, "answer", response)

	contexts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, contexts)
}

func TestSendRejectsInvalidTranscripts(t *testing.T) {
	tests := []struct {
		name     string
		messages []chatctx.Message
	}{
		{
			name:     "empty",
			messages: nil,
		},
		{
			name: "assistant first",
			messages: []chatctx.Message{
				{Role: chatctx.RoleAssistant, Content: "hello"},
				{Role: chatctx.RoleUser, Content: "hi"},
			},
		},
		{
			name: "assistant last",
			messages: []chatctx.Message{
				{Role: chatctx.RoleUser, Content: "hi"},
				{Role: chatctx.RoleAssistant, Content: "hello"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cloud := &stubProvider{response: "unused"}
			manager, _ := newManager(t, cloudConfig(), cloud, &stubProvider{})

			_, err := manager.Send("demo", tt.messages, chatctx.SendOptions{})

			require.Error(t, err)
			assert.Zero(t, cloud.calls, "no request may be issued for a rejected transcript")
		})
	}
}

func TestSendModelOverrideForcesCloud(t *testing.T) {
	cfg := cloudConfig()
	cfg.Provider = config.ProviderLocal
	cloud := &stubProvider{response: "via cloud"}
	local := &stubProvider{probeErr: errors.New("daemon down")}
	manager, _ := newManager(t, cfg, cloud, local)

	response, err := manager.Send("", userTurn("hi"), chatctx.SendOptions{ModelOverride: "anthropic/claude-sonnet"})

	require.NoError(t, err)
	assert.Equal(t, "via cloud", response)
	assert.Equal(t, "anthropic/claude-sonnet", cloud.gotModel)
	assert.Zero(t, local.calls)
}

func TestSendModelFallbacks(t *testing.T) {
	t.Run("cloud", func(t *testing.T) {
		cfg := &config.Config{Provider: config.ProviderCloud, APIKey: "k"}
		cloud := &stubProvider{response: "ok"}
		manager, _ := newManager(t, cfg, cloud, &stubProvider{})

		_, err := manager.Send("", userTurn("hi"), chatctx.SendOptions{})
		require.NoError(t, err)
		assert.Equal(t, "openai/gpt-4o-mini", cloud.gotModel)
	})

	t.Run("local", func(t *testing.T) {
		cfg := &config.Config{Provider: config.ProviderLocal}
		local := &stubProvider{response: "ok"}
		manager, _ := newManager(t, cfg, &stubProvider{}, local)

		_, err := manager.Send("", userTurn("hi"), chatctx.SendOptions{})
		require.NoError(t, err)
		assert.Equal(t, "llama3.2", local.gotModel)
	})
}

func TestSendMissingAPIKeyIsPrecondition(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderCloud}
	cloud := &stubProvider{response: "unused"}
	manager, _ := newManager(t, cfg, cloud, &stubProvider{})

	_, err := manager.Send("", userTurn("hi"), chatctx.SendOptions{})

	assert.ErrorIs(t, err, chatctx.ErrMissingAPIKey)
	assert.Zero(t, cloud.calls)
}

func TestSendUnreachableDaemonIsPrecondition(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderLocal}
	local := &stubProvider{probeErr: errors.New("connection refused")}
	manager, store := newManager(t, cfg, &stubProvider{}, local)

	_, err := manager.Send("demo", userTurn("hi"), chatctx.SendOptions{})

	assert.ErrorIs(t, err, chatctx.ErrDaemonUnreachable)
	assert.Zero(t, local.calls)

	_, ok := store.Load("demo")
	assert.False(t, ok, "no context may be created for a failed call")
}
