/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/ktsuji/chatctx/internal/chatctx"
	"github.com/ktsuji/chatctx/internal/chatctx/config"
	contextpkg "github.com/ktsuji/chatctx/internal/chatctx/context"
	"github.com/ktsuji/chatctx/internal/cloud"
	"github.com/ktsuji/chatctx/internal/local"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	contextName string
	newContext  bool
	model       string
	streaming   bool
	useEditor   bool
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message to the LLM",
	Long: `Send a message to the LLM and print the response.

If no message is provided as an argument, it reads from stdin.
If --editor flag is set, it opens the default editor (from EDITOR environment variable) to compose the message.

With --context, the conversation history stored under that name is sent
along with the new message, and the exchange is persisted back to it. The
context is created on first use. With --new-context, a fresh context with a
generated name is created. Without either flag the message is sent one-shot
and nothing is persisted.

Specifying --model forces the cloud provider regardless of configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration from file
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		// Validate context flags
		if contextName != "" && newContext {
			return fmt.Errorf("cannot specify both --context and --new-context")
		}

		// Get message from arguments, editor, or stdin
		var message string
		if useEditor {
			message, err = getMessageFromEditor()
			if err != nil {
				return fmt.Errorf("getting message from editor: %w", err)
			}
		} else if len(args) > 0 {
			message = strings.Join(args, " ")
		} else {
			// Read from stdin
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			message = strings.TrimSpace(string(input))
		}
		if message == "" {
			return fmt.Errorf("message is empty")
		}

		contextDir, err := contextpkg.DefaultDir()
		if err != nil {
			return fmt.Errorf("resolving context directory: %w", err)
		}
		store := contextpkg.NewStore(contextDir)

		// Determine context and compose the transcript to send
		name := contextName
		isNewContext := false
		var messages []chatctx.Message

		if newContext {
			name = uuid.New().String()[:8]
			isNewContext = true
		} else if name != "" {
			if err := chatctx.ValidateContextName(name); err != nil {
				return err
			}
			if record, ok := store.Load(name); ok {
				messages = record.Messages
			} else {
				isNewContext = true
			}
		}
		messages = append(messages, chatctx.Message{Role: chatctx.RoleUser, Content: message})

		// The cloud path requires a credential; obtain and persist it once
		// if missing. An unobtainable credential is fatal.
		usesCloud := model != "" || cfg.Provider == config.ProviderCloud
		if usesCloud && cfg.APIKey == "" {
			key, err := promptAPIKey()
			if err != nil {
				return fmt.Errorf("%w: %v", chatctx.ErrMissingAPIKey, err)
			}
			if err := persistAPIKey(key); err != nil {
				return fmt.Errorf("saving api key: %w", err)
			}
			cfg.APIKey = key
		}

		manager := &chatctx.Manager{
			Config: cfg,
			Cloud:  cloud.NewProvider(cfg.CloudBaseURL, cfg.APIKey),
			Local:  local.NewProvider(cfg.LocalBaseURL),
			Store:  store,
			Out:    os.Stdout,
		}

		response, err := manager.Send(name, messages, chatctx.SendOptions{
			Stream:        streaming,
			ModelOverride: model,
		})
		if err != nil {
			// Unusable configuration terminates with a non-zero exit;
			// everything else is reported and the user can rerun.
			if errors.Is(err, chatctx.ErrMissingAPIKey) || errors.Is(err, chatctx.ErrDaemonUnreachable) {
				return err
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil
		}

		if streaming {
			fmt.Println()
		} else {
			fmt.Println(response)
		}

		// If new context, print context info
		if isNewContext && name != "" {
			fmt.Fprintf(os.Stderr, "\nContext created: %s\n", name)
			fmt.Fprintf(os.Stderr, "Next time, use:\n  chatctx chat -c %s \"your message\"\n", name)
		}

		return nil
	},
}

// getMessageFromEditor opens the default editor and returns the edited message
func getMessageFromEditor() (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return "", fmt.Errorf("EDITOR environment variable is not set")
	}

	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "chatctx-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	// Open the editor
	cmd := exec.Command(editor, tmpFile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to open editor: %v", err)
	}

	// Read the edited content
	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited content: %v", err)
	}

	return strings.TrimSpace(string(content)), nil
}

// promptAPIKey asks for the cloud credential on the terminal
func promptAPIKey() (string, error) {
	fmt.Fprint(os.Stderr, "Enter API key: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading api key: %v", err)
	}

	key := strings.TrimSpace(line)
	if key == "" {
		return "", fmt.Errorf("no api key entered")
	}
	return key, nil
}

// persistAPIKey writes the captured key back into the config file so the
// prompt only ever happens once.
func persistAPIKey(key string) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %v", err)
		}
		configFile = filepath.Join(home, ".config", "chatctx", "config.toml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	// Re-read the raw (unexpanded) values so $VAR references other than
	// the key survive the rewrite.
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %v", err)
	}
	cfg.APIKey = key

	f, err := os.Create(configFile)
	if err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %v", err)
	}

	viper.Set("api_key", key)
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)

	// Add command options
	chatCmd.Flags().StringVarP(&contextName, "context", "c", "", "Context name to continue (created on first use)")
	chatCmd.Flags().BoolVarP(&newContext, "new-context", "n", false, "Create a new context with a generated name")
	chatCmd.Flags().StringVarP(&model, "model", "m", "", "Model override (forces the cloud provider)")
	chatCmd.Flags().BoolVar(&streaming, "stream", true, "Stream the response to the terminal as it arrives")
	chatCmd.Flags().BoolVarP(&useEditor, "editor", "e", false, "Use default editor (from EDITOR environment variable) to compose message")
}
