/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ktsuji/chatctx/internal/chatctx/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chatctx",
	Short: "A CLI for chatting with LLMs under named contexts",
	Long: `chatctx sends prompts to a cloud aggregator or a local inference daemon,
streams the answer to the terminal, and keeps conversation history under
named contexts so follow-up questions carry prior turns.

Configuration lives in a TOML file (default: $HOME/.config/chatctx/config.toml).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/chatctx/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set environment variable prefix and automatic env
	viper.SetEnvPrefix("CHATCTX")
	viper.AutomaticEnv()

	// Determine config directory for user config
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	userConfigDir := filepath.Join(home, ".config", "chatctx")

	// Set default values from the config package
	defaultConfig := config.NewDefaultConfig()
	viper.SetDefault("provider", defaultConfig.Provider)
	viper.SetDefault("model", defaultConfig.Model)
	viper.SetDefault("api_key", defaultConfig.APIKey)
	viper.SetDefault("cloud_base_url", defaultConfig.CloudBaseURL)
	viper.SetDefault("local_model", defaultConfig.LocalModel)
	viper.SetDefault("local_base_url", defaultConfig.LocalBaseURL)

	// Bind environment variables
	viper.BindEnv("provider", "CHATCTX_PROVIDER")
	viper.BindEnv("model", "CHATCTX_MODEL")
	viper.BindEnv("api_key", "CHATCTX_API_KEY")
	viper.BindEnv("cloud_base_url", "CHATCTX_CLOUD_BASE_URL")
	viper.BindEnv("local_model", "CHATCTX_LOCAL_MODEL")
	viper.BindEnv("local_base_url", "CHATCTX_LOCAL_BASE_URL")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Load system-wide config first (lower priority)
		systemConfigPaths := []string{
			"/etc/chatctx",
			"/usr/local/etc/chatctx",
		}

		systemConfigLoaded := false
		for _, path := range systemConfigPaths {
			viper.AddConfigPath(path)
		}
		viper.SetConfigType("toml")
		viper.SetConfigName("config")

		// Try to read system-wide config
		if err := viper.ReadInConfig(); err == nil {
			systemConfigLoaded = true
			if verbose {
				fmt.Fprintln(os.Stderr, "Loaded system-wide config:", viper.ConfigFileUsed())
			}
		}

		// Load user config (higher priority) - merge with system config
		viper.AddConfigPath(userConfigDir)
		if systemConfigLoaded {
			// Merge user config on top of system config
			if err := viper.MergeInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error merging user config file: %v\n", err)
				}
			} else if verbose {
				fmt.Fprintln(os.Stderr, "Merged user config:", viper.ConfigFileUsed())
			}
		} else {
			// No system config, just read user config
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
				}
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
