// Package main provides the kilocode CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Kilo-Org/kilocode-legacy/cli"
)

var (
	// Global flags
	provider string
	model    string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "kilocode",
		Short: "Streaming LLM client with one normalized event vocabulary",
		Long: `A CLI for streaming completions from OpenAI, Anthropic, and Gemini.

Every provider's wire protocol is translated into one normalized event
stream (text, reasoning, tool calls, usage), so downstream consumers
never see provider-specific chunk shapes.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openai, anthropic, gemini)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model id (defaults to the provider's flagship)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show reasoning, tool frames, and token usage")

	// Add commands
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(completeCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var systemPrompt string

	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Send a prompt and stream the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider: provider,
				Model:    model,
				Verbose:  verbose,
			}
			return cli.RunPrompt(context.Background(), args[0], systemPrompt, opts)
		},
	}

	cmd.Flags().StringVarP(&systemPrompt, "system", "s", "", "System prompt")

	return cmd
}

func completeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete [prompt]",
		Short: "Send a prompt and print the whole completion at once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider: provider,
				Model:    model,
				Verbose:  verbose,
			}
			return cli.Complete(context.Background(), args[0], opts)
		},
	}

	return cmd
}

func chatCmd() *cobra.Command {
	var systemPrompt string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider: provider,
				Model:    model,
				Verbose:  verbose,
			}
			return cli.Chat(context.Background(), systemPrompt, opts)
		},
	}

	cmd.Flags().StringVarP(&systemPrompt, "system", "s", "", "System prompt")

	return cmd
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List known models and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListModels(provider)
		},
	}

	return cmd
}
