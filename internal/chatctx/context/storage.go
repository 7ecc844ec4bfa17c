// Package context persists conversation transcripts as one JSON file per
// context name. Two processes writing the same name concurrently race on
// last-write-wins; the tool is single-user and single-process by design,
// so the store takes no locks.
package context

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ktsuji/chatctx/internal/chatctx"
	"github.com/spf13/viper"
)

// Store is a name-keyed transcript store backed by a directory of JSON files.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// DefaultDir returns the directory where contexts are stored
// If a config file is used, contexts are stored in the same directory as the config file.
// Otherwise, defaults to $HOME/.config/chatctx/contexts
func DefaultDir() (string, error) {
	configFile := viper.ConfigFileUsed()

	if configFile != "" {
		// Use the same directory as the config file
		configDir := filepath.Dir(configFile)

		// Make the path absolute if it's relative
		if !filepath.IsAbs(configDir) {
			cwd, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("failed to get current working directory: %w", err)
			}
			configDir = filepath.Join(cwd, configDir)
		}

		return filepath.Join(configDir, "contexts"), nil
	}

	// Fallback to default location
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "chatctx", "contexts"), nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes the full transcript for name, replacing any prior content.
// The creation timestamp of an existing record is preserved; the update
// timestamp is always refreshed.
func (s *Store) Save(name string, messages []chatctx.Message) error {
	if err := chatctx.ValidateContextName(name); err != nil {
		return err
	}

	// Create context directory if it doesn't exist
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}

	now := time.Now()
	record := Context{
		Name:      name,
		Messages:  messages,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if messages == nil {
		record.Messages = []chatctx.Message{}
	}

	// Keep the original creation timestamp when the record already exists
	if existing, ok := s.Load(name); ok {
		record.CreatedAt = existing.CreatedAt
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize context: %w", err)
	}

	if err := os.WriteFile(s.path(name), data, 0644); err != nil {
		return fmt.Errorf("failed to write context file: %w", err)
	}

	return nil
}

// Load returns the record for name, or false if it does not exist or
// fails to parse. Parse failures are logged, not propagated.
func (s *Store) Load(name string) (*Context, bool) {
	if err := chatctx.ValidateContextName(name); err != nil {
		return nil, false
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to read context %q: %v\n", name, err)
		}
		return nil, false
	}

	var record Context
	if err := json.Unmarshal(data, &record); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to parse context %q: %v\n", name, err)
		return nil, false
	}

	return &record, true
}

// List returns all contexts sorted by UpdatedAt (newest first)
func (s *Store) List() ([]Context, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read context directory: %w", err)
	}

	var contexts []Context
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		// Extract name from filename (remove .json extension)
		name := strings.TrimSuffix(entry.Name(), ".json")
		record, ok := s.Load(name)
		if !ok {
			// Skip corrupted context files
			continue
		}
		contexts = append(contexts, *record)
	}

	// Sort by UpdatedAt (newest first)
	sort.Slice(contexts, func(i, j int) bool {
		return contexts[i].UpdatedAt.After(contexts[j].UpdatedAt)
	})

	return contexts, nil
}

// Delete removes the record for name if present. It reports whether a
// deletion actually occurred; a missing record is not an error.
func (s *Store) Delete(name string) bool {
	if err := chatctx.ValidateContextName(name); err != nil {
		return false
	}

	if err := os.Remove(s.path(name)); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to delete context %q: %v\n", name, err)
		}
		return false
	}
	return true
}

// Clear resets the transcript for name to an empty sequence. The record's
// creation timestamp is preserved because the record still exists when the
// save runs.
func (s *Store) Clear(name string) error {
	return s.Save(name, nil)
}
