package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ktsuji/chatctx/internal/chatctx"
	contextpkg "github.com/ktsuji/chatctx/internal/chatctx/context"
	"github.com/spf13/cobra"
)

// contextsCmd represents the contexts command
var contextsCmd = &cobra.Command{
	Use:   "contexts",
	Short: "Manage conversation contexts",
	Long: `Manage conversation contexts including listing, viewing, clearing, and deleting them.

Contexts allow you to maintain conversation history across multiple interactions.`,
}

// contextsListCmd represents the contexts list command
var contextsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all contexts",
	Long:  `List all conversation contexts sorted by most recently updated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		contexts, err := store.List()
		if err != nil {
			return fmt.Errorf("listing contexts: %w", err)
		}

		if len(contexts) == 0 {
			fmt.Println("No contexts found.")
			fmt.Println("\nStart a conversation with:")
			fmt.Println("  chatctx chat -c <name> \"your message\"")
			return nil
		}

		// Print table header
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMESSAGES\tCREATED\tUPDATED")
		fmt.Fprintln(w, "----\t--------\t-------\t-------")

		// Print each context
		for _, c := range contexts {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
				c.Name,
				c.MessageCount(),
				c.CreatedAt.Format("2006-01-02 15:04"),
				c.UpdatedAt.Format("2006-01-02 15:04"),
			)
		}
		w.Flush()

		fmt.Println("\nUse 'chatctx contexts show <name>' to view context details.")
		return nil
	},
}

// contextsShowCmd represents the contexts show command
var contextsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show context details and history",
	Long:  `Show detailed information about a context including all messages.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		record, ok := store.Load(args[0])
		if !ok {
			fmt.Fprintf(os.Stderr, "Context not found: %s\n", args[0])
			return nil
		}

		// Print context info
		fmt.Printf("Context: %s\n", record.Name)
		fmt.Printf("Created: %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated: %s\n", record.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Messages: %d\n", record.MessageCount())
		fmt.Println()

		// Print message history
		if len(record.Messages) == 0 {
			fmt.Println("No messages in this context.")
			return nil
		}

		fmt.Println("Message History:")
		fmt.Println("----------------")
		for i, msg := range record.Messages {
			roleLabel := "You"
			if msg.Role == chatctx.RoleAssistant {
				roleLabel = "Assistant"
			}

			fmt.Printf("\n[%d] %s:\n%s\n", i+1, roleLabel, msg.Content)
		}

		fmt.Printf("\nContinue this context with:\n  chatctx chat -c %s \"your message\"\n", record.Name)
		return nil
	},
}

// contextsClearCmd represents the contexts clear command
var contextsClearCmd = &cobra.Command{
	Use:   "clear <name>",
	Short: "Clear a context's history",
	Long: `Clear all messages from a context while keeping the context itself.

The context's creation timestamp is preserved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		name := args[0]
		if _, ok := store.Load(name); !ok {
			fmt.Fprintf(os.Stderr, "Context not found: %s\n", name)
			return nil
		}

		if err := store.Clear(name); err != nil {
			return fmt.Errorf("clearing context: %w", err)
		}

		fmt.Printf("Context %s cleared.\n", name)
		return nil
	},
}

// contextsDeleteCmd represents the contexts delete command
var contextsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a context",
	Long: `Delete a conversation context permanently.

Warning: This action cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		name := args[0]
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			// Confirm deletion
			fmt.Printf("Are you sure you want to delete context %s? [y/N]: ", name)
			var response string
			fmt.Scanln(&response)

			if response != "y" && response != "Y" {
				fmt.Println("Deletion cancelled.")
				return nil
			}
		}

		if !store.Delete(name) {
			fmt.Fprintf(os.Stderr, "Context not found: %s\n", name)
			return nil
		}

		fmt.Printf("Context %s deleted successfully.\n", name)
		return nil
	},
}

func openStore() (*contextpkg.Store, error) {
	dir, err := contextpkg.DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("resolving context directory: %w", err)
	}
	return contextpkg.NewStore(dir), nil
}

func init() {
	rootCmd.AddCommand(contextsCmd)
	contextsCmd.AddCommand(contextsListCmd)
	contextsCmd.AddCommand(contextsShowCmd)
	contextsCmd.AddCommand(contextsClearCmd)
	contextsCmd.AddCommand(contextsDeleteCmd)

	contextsDeleteCmd.Flags().BoolP("force", "f", false, "Delete without confirmation")
}
