package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"civicrisk/internal/history"
	"civicrisk/internal/risk"
	"civicrisk/internal/services/llm"
)

func newLLMCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llm",
		Short: "Inspect the configured language model",
	}
	cmd.AddCommand(newLLMHealthCommand(ctx))
	cmd.AddCommand(newLLMTestCommand(ctx))
	return cmd
}

func newLLMHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Verify the API key and model respond",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}
			settings := cfg.GetLLM()
			client := llm.NewClient(llm.Config{
				APIKey:         settings.APIKey,
				BaseURL:        settings.BaseURL,
				Model:          settings.Model,
				Temperature:    settings.Temperature,
				TimeoutSeconds: settings.TimeoutSeconds,
			})
			start := time.Now()
			if err := client.HealthCheck(cmd.Context()); err != nil {
				return fmt.Errorf("llm health check failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model %s is reachable (%s)\n", client.Model(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func newLLMTestCommand(ctx *commandContext) *cobra.Command {
	var file string
	var showPrompt bool

	cmd := &cobra.Command{
		Use:   "test [text...]",
		Short: "Classify text without recording it and print the raw result",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readComplaint(cmd, args, file)
			if err != nil {
				return err
			}
			analyzer, err := ctx.analyzer()
			if err != nil {
				return err
			}
			if showPrompt {
				fmt.Fprintln(cmd.ErrOrStderr(), risk.RenderPrompt(text))
			}
			result := analyzer.Classify(commandRequestContext(cmd, history.SourceCLI), text)
			return writeJSON(cmd, result)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the text from a file (- for stdin)")
	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "Print the rendered prompt to stderr")
	return cmd
}
