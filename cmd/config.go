package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/ktsuji/chatctx/internal/chatctx/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.

If a field name is specified, only that field's value is displayed.
Available fields: configfile, provider, model, api_key, cloud_base_url, local_model, local_base_url

Examples:
  chatctx config                 # Show all configuration
  chatctx config provider        # Show only the active provider
  chatctx config model           # Show only the cloud model
  chatctx config api_key         # Show only the API key (masked)
  chatctx config local_base_url  # Show only the local daemon URL`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Load configuration from file
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		// If a field is specified, show only that field
		if len(args) > 0 {
			field := strings.ToLower(args[0])
			switch field {
			case "configfile":
				fmt.Println(viper.ConfigFileUsed())
			case "provider":
				fmt.Println(cfg.Provider)
			case "model":
				fmt.Println(cfg.Model)
			case "api_key", "apikey":
				fmt.Println(maskToken(cfg.APIKey))
			case "cloud_base_url", "cloudbaseurl":
				fmt.Println(cfg.CloudBaseURL)
			case "local_model", "localmodel":
				fmt.Println(cfg.LocalModel)
			case "local_base_url", "localbaseurl":
				fmt.Println(cfg.LocalBaseURL)
			default:
				fmt.Fprintf(os.Stderr, "Unknown field: %s\n", args[0])
				fmt.Fprintf(os.Stderr, "Available fields: configfile, provider, model, api_key, cloud_base_url, local_model, local_base_url\n")
				os.Exit(1)
			}
			return
		}

		// Display all configuration values
		fmt.Printf("ConfigFile: %s\n", viper.ConfigFileUsed())
		fmt.Printf("Provider: %s\n", cfg.Provider)
		fmt.Printf("Model: %s\n", cfg.Model)
		fmt.Printf("APIKey: %s\n", maskToken(cfg.APIKey))
		fmt.Printf("CloudBaseURL: %s\n", cfg.CloudBaseURL)
		fmt.Printf("LocalModel: %s\n", cfg.LocalModel)
		fmt.Printf("LocalBaseURL: %s\n", cfg.LocalBaseURL)
	},
}

// maskToken returns a masked version of the token for security
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
