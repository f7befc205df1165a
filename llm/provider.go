// LLM Provider interface - the abstract interface for LLM providers.
//
// Each provider implementation hides:
// - API client initialization and authentication
// - Request payload construction per wire protocol
// - Translation of its streaming protocol into normalized events
// - Provider-specific error handling

package llm

import (
	"context"
	"strings"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide wire-protocol details while exposing one
// normalized event stream.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// GetModel returns the model id and its capability record. Pure
	// lookup, no side effects.
	GetModel() Model

	// CreateMessage opens a completion request and returns a pull-driven
	// stream of normalized events. opts may be nil for plain text
	// requests. The caller owns the stream and must drain or Close it.
	CreateMessage(ctx context.Context, systemPrompt string, messages []Message, opts *CallOptions) (*Stream, error)

	// CompletePrompt is the non-streaming convenience: it runs the same
	// protocol selection, collects all text content, and returns it
	// concatenated. Tool calls are not supported on this path.
	CompletePrompt(ctx context.Context, prompt string) (string, error)
}

// completeViaStream implements CompletePrompt on top of CreateMessage so
// both entry points share one protocol path.
func completeViaStream(ctx context.Context, p Provider, prompt string) (string, error) {
	stream, err := p.CreateMessage(ctx, "", []Message{UserText(prompt)}, nil)
	if err != nil {
		return "", err
	}
	return collectText(stream)
}

// collectText drains a stream and concatenates its text events.
func collectText(stream *Stream) (string, error) {
	defer stream.Close()

	var b strings.Builder
	for stream.Next() {
		if ev := stream.Current(); ev.Kind == EventText {
			b.WriteString(ev.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}
