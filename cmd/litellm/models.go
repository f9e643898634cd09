package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BerriAI/litellm-go"
	"github.com/BerriAI/litellm-go/config"

	_ "github.com/BerriAI/litellm-go/providers/anthropic"
	_ "github.com/BerriAI/litellm-go/providers/azure"
	_ "github.com/BerriAI/litellm-go/providers/bedrock"
	_ "github.com/BerriAI/litellm-go/providers/cohere"
	_ "github.com/BerriAI/litellm-go/providers/google"
	_ "github.com/BerriAI/litellm-go/providers/openai"
	_ "github.com/BerriAI/litellm-go/providers/openrouter"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List configured model groups and available providers",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Providers:")
	for _, name := range litellm.DefaultRegistry.Providers() {
		fmt.Fprintf(out, "  %s\n", name)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		// The provider list is still useful without a config file.
		fmt.Fprintf(out, "\nNo model_list loaded (%v)\n", err)
		return nil
	}

	fmt.Fprintln(out, "\nModel groups:")
	for _, entry := range cfg.ModelList {
		fmt.Fprintf(out, "  %s -> %s\n", entry.ModelName, entry.LiteLLMParams.Model)
	}
	return nil
}
