package chatctx

import (
	"errors"
	"fmt"
	"io"

	"github.com/ktsuji/chatctx/internal/chatctx/config"
)

// Fallback models used when neither an override nor a configured value is set.
const (
	fallbackCloudModel = "openai/gpt-4o-mini"
	fallbackLocalModel = "llama3.2"
)

// Precondition failures. These represent unusable configuration rather than
// per-call faults; the command layer converts them into a fatal exit.
var (
	ErrMissingAPIKey     = errors.New("api key is not configured")
	ErrDaemonUnreachable = errors.New("local daemon is unreachable")
)

// Saver persists a context transcript under a name.
type Saver interface {
	Save(name string, messages []Message) error
}

// SendOptions controls a single Send call.
type SendOptions struct {
	// Stream selects incremental terminal delivery. It affects only how
	// output reaches the terminal, never what gets persisted.
	Stream bool

	// ModelOverride forces the cloud provider with the given model.
	ModelOverride string
}

// Manager turns a user's new message plus a context name into a completed,
// persisted exchange. Providers and the store are injected so the
// orchestration can be tested without network or filesystem.
type Manager struct {
	Config *config.Config
	Cloud  Provider
	Local  Provider
	Store  Saver
	Out    io.Writer // streamed fragments are written here as they arrive
}

// Send issues exactly one request for the given transcript, which must end
// in the new user turn. On success the assistant's response is appended and
// the full transcript is saved under contextName (an empty name skips
// persistence). On any failure the stored transcript is left untouched.
func (m *Manager) Send(contextName string, messages []Message, opts SendOptions) (string, error) {
	if contextName != "" {
		if err := ValidateContextName(contextName); err != nil {
			return "", err
		}
	}
	if err := validateTranscript(messages); err != nil {
		return "", err
	}

	provider, model, err := m.resolve(opts.ModelOverride)
	if err != nil {
		return "", err
	}

	var response string
	if opts.Stream {
		response, err = provider.ChatStream(messages, model, func(fragment string) {
			fmt.Fprint(m.Out, fragment)
		})
	} else {
		response, err = provider.Chat(messages, model)
	}
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}

	messages = append(messages, Message{Role: RoleAssistant, Content: response})

	if contextName != "" {
		if err := m.Store.Save(contextName, messages); err != nil {
			return response, fmt.Errorf("saving context: %w", err)
		}
	}

	return response, nil
}

// resolve determines the active provider and effective model. A model
// override forces the cloud path; otherwise the configured provider wins.
func (m *Manager) resolve(override string) (Provider, string, error) {
	useCloud := override != "" || m.Config.Provider != config.ProviderLocal

	if useCloud {
		if m.Config.APIKey == "" {
			return nil, "", ErrMissingAPIKey
		}
		model := override
		if model == "" {
			model = m.Config.Model
		}
		if model == "" {
			model = fallbackCloudModel
		}
		return m.Cloud, model, nil
	}

	// Local daemon absence is an unrecoverable environment precondition,
	// not a transient fault.
	if err := m.Local.Probe(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDaemonUnreachable, err)
	}
	model := m.Config.LocalModel
	if model == "" {
		model = fallbackLocalModel
	}
	return m.Local, model, nil
}

// validateTranscript rejects transcripts the provider contracts would not
// accept: the sequence must be non-empty, begin with a user message, and
// end with the new user turn.
func validateTranscript(messages []Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("transcript is empty: nothing to send")
	}
	if messages[0].Role != RoleUser {
		return fmt.Errorf("transcript must begin with a user message, got %q", messages[0].Role)
	}
	if messages[len(messages)-1].Role != RoleUser {
		return fmt.Errorf("transcript must end with the new user message, got %q", messages[len(messages)-1].Role)
	}
	return nil
}
