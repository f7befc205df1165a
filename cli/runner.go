// Command execution for CLI commands.
//
// Information Hiding:
// - Provider setup hidden
// - Stream rendering and output formatting hidden
// - Chat history management hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/Kilo-Org/kilocode-legacy/config"
	"github.com/Kilo-Org/kilocode-legacy/llm"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Model    string
	Verbose  bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		Verbose: false,
	}
}

// RunPrompt sends a single prompt and renders the streamed response.
func RunPrompt(ctx context.Context, prompt, systemPrompt string, opts Options) error {
	provider, err := createProvider(opts)
	if err != nil {
		return err
	}

	stream, err := provider.CreateMessage(ctx, systemPrompt, []llm.Message{llm.UserText(prompt)}, nil)
	if err != nil {
		return err
	}
	defer stream.Close()

	_, err = renderStream(stream, provider.GetModel(), opts.Verbose)
	return err
}

// Complete sends a prompt and prints the buffered completion text.
// Unlike RunPrompt, nothing is shown until the response is whole.
func Complete(ctx context.Context, prompt string, opts Options) error {
	provider, err := createProvider(opts)
	if err != nil {
		return err
	}

	text, err := provider.CompletePrompt(ctx, prompt)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// Chat starts an interactive chat session.
func Chat(ctx context.Context, systemPrompt string, opts Options) error {
	provider, err := createProvider(opts)
	if err != nil {
		return err
	}

	session := uuid.NewString()
	model := provider.GetModel()
	fmt.Printf("Chat with %s (%s). Session %s. Type 'exit' to quit.\n\n", model.ID, provider.Name(), session)

	var history []llm.Message
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		history = append(history, llm.UserText(input))

		stream, err := provider.CreateMessage(ctx, systemPrompt, history, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			history = history[:len(history)-1]
			continue
		}

		fmt.Println()
		reply, err := renderStream(stream, model, opts.Verbose)
		stream.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			history = history[:len(history)-1]
			continue
		}
		fmt.Println()

		history = append(history, llm.AssistantText(reply))
	}

	return scanner.Err()
}

// ListModels prints the known models for a provider, or all providers
// when none is given.
func ListModels(providerName string) error {
	names := []string{providerName}
	if providerName == "" {
		names = config.SupportedProviders()
	}

	for _, name := range names {
		providerType, err := llm.ParseProviderType(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s (default: %s)\n", providerType, providerType.DefaultModel())
		for _, m := range llm.KnownModels(providerType) {
			fmt.Printf("  %-28s context %7d, max output %6d\n", m.ID, m.Info.ContextWindow, m.Info.MaxTokens)
		}
		fmt.Println()
	}
	return nil
}

// renderStream consumes a normalized event stream, printing text as it
// arrives. Returns the accumulated assistant text.
func renderStream(stream *llm.Stream, model llm.Model, verbose bool) (string, error) {
	var text strings.Builder
	inReasoning := false

	for stream.Next() {
		event := stream.Current()
		switch event.Kind {
		case llm.EventText:
			if inReasoning {
				fmt.Println()
				inReasoning = false
			}
			fmt.Print(event.Text)
			text.WriteString(event.Text)
		case llm.EventReasoning:
			if verbose {
				if !inReasoning {
					fmt.Print("[thinking] ")
					inReasoning = true
				}
				fmt.Print(event.Text)
			}
		case llm.EventToolCallDelta:
			if verbose {
				fmt.Printf("\n[tool %s/%s] %s", event.ToolCall.Name, event.ToolCall.ID, event.ToolCall.Arguments)
			}
		case llm.EventToolCallReady:
			if verbose {
				fmt.Printf("\n[tool %s/%s ready] %s", event.ToolCall.Name, event.ToolCall.ID, event.ToolCall.Arguments)
			}
		case llm.EventToolCallEnd:
			if verbose {
				fmt.Printf("\n[tool %s done]\n", event.ToolCall.ID)
			}
		case llm.EventUsage:
			if verbose {
				printUsage(*event.Usage, model.Info)
			}
		}
	}
	fmt.Println()

	if err := stream.Err(); err != nil {
		return text.String(), err
	}
	return text.String(), nil
}

// printUsage prints token counts and, when the model has pricing, an
// estimated cost.
func printUsage(usage llm.TokenUsage, info llm.ModelInfo) {
	fmt.Printf("\n[usage] input %d, output %d", usage.InputTokens, usage.OutputTokens)
	if info.InputPrice > 0 || info.OutputPrice > 0 {
		cost := float64(usage.InputTokens)/1_000_000*info.InputPrice +
			float64(usage.OutputTokens)/1_000_000*info.OutputPrice
		fmt.Printf(" (~$%.4f)", cost)
	}
	fmt.Println()
}

func createProvider(opts Options) (llm.Provider, error) {
	if opts.Provider == "" {
		return nil, fmt.Errorf("--provider is required for this command")
	}

	providerType, err := llm.ParseProviderType(opts.Provider)
	if err != nil {
		return nil, err
	}

	settings, err := config.New(opts.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(opts.Provider)
	if err != nil {
		return nil, err
	}

	model := settings.LLM.Model
	if opts.Model != "" {
		model = opts.Model
	}

	builder := providerType.
		Model(model).
		Temperature(float32(settings.LLM.Temperature))
	if settings.LLM.BaseURL != "" {
		builder = builder.BaseURL(settings.LLM.BaseURL)
	}
	return builder.APIKey(apiKey)
}
