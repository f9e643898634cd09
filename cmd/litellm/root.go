package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "litellm",
		Short: "LiteLLM: a unified gateway for LLM providers",
		Long: `LiteLLM is an OpenAI-compatible gateway that routes requests to
OpenAI, Azure, Anthropic, Google, Bedrock, Cohere, OpenRouter and any
OpenAI-compatible endpoint behind a single API surface.

Models are addressed as "provider/model" (for example "anthropic/claude-sonnet-4-20250514");
credentials come from the environment or from the config file's model_list.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}
)

// Execute runs the root command and all registered subcommands.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to the proxy config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func setupLogging() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", logLevel)
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
