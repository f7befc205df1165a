// Chat-completions protocol: request construction and the interpreter
// that normalizes its delta chunks.
//
// Information Hiding:
// - Streaming via go-openai library
// - Tool-call fragment accumulation keyed by delta index
// - finish_reason and usage-chunk handling

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	openai "github.com/sashabaranov/go-openai"
)

// buildChatRequest constructs the chat-protocol payload. Tools and a
// resolved tool_choice are attached only when native tool use is
// eligible for this model and call.
func buildChatRequest(model Model, systemPrompt string, messages []Message, opts *CallOptions, temperature float32) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    model.ID,
		Messages: toChatMessages(systemPrompt, messages),
		Stream:   true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}
	if model.Info.SupportsTemperature {
		req.Temperature = temperature
	}
	if opts.nativeToolsEligible(model.Info) {
		req.Tools = toChatTools(opts.Tools)
		req.ToolChoice = resolveChatToolChoice(opts.ToolChoice)
		if opts.ParallelToolCalls {
			req.ParallelToolCalls = true
		}
	}
	return req
}

func toChatTools(defs []ToolDefinition) []openai.Tool {
	tools := make([]openai.Tool, len(defs))
	for i, t := range defs {
		tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return tools
}

// resolveChatToolChoice maps the caller's policy to the wire value. An
// unset or auto policy resolves to "required" while native tools are
// active: left on auto, this provider tends to answer in prose instead
// of calling the tool. Explicit choices pass through unchanged.
func resolveChatToolChoice(tc ToolChoice) any {
	switch tc.Mode {
	case ToolChoiceUnset, ToolChoiceAuto:
		return string(ToolChoiceRequired)
	case ToolChoiceFunction:
		return openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: tc.Name},
		}
	default:
		return string(tc.Mode)
	}
}

// chatInterpreter normalizes one chat-protocol stream. The protocol has
// no per-call terminal event, so pending calls are closed when a finish
// reason arrives, before usage, or at stream end - whichever comes first.
type chatInterpreter struct {
	pending   *pendingToolCalls
	usageSeen bool
}

func newChatInterpreter() *chatInterpreter {
	return &chatInterpreter{pending: newPendingToolCalls()}
}

func (in *chatInterpreter) interpret(resp openai.ChatCompletionStreamResponse) []StreamEvent {
	var out []StreamEvent

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]

		if choice.Delta.ReasoningContent != "" {
			out = append(out, reasoningEvent(choice.Delta.ReasoningContent))
		}
		if choice.Delta.Content != "" {
			out = append(out, textEvent(choice.Delta.Content))
		}

		for _, tc := range choice.Delta.ToolCalls {
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			key := strconv.Itoa(index)
			if tc.ID != "" || tc.Function.Name != "" {
				in.pending.record(key, tc.ID, tc.Function.Name)
			}
			if tc.Function.Arguments == "" {
				continue
			}
			identity, ok := in.pending.resolve(key)
			if !ok {
				// Unattributable fragment: dropping it is safer than
				// corrupting an unrelated call.
				continue
			}
			out = append(out, StreamEvent{
				Kind: EventToolCallDelta,
				ToolCall: ToolCallChunk{
					Index:     index,
					ID:        identity.ID,
					Name:      identity.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}

		if choice.FinishReason != "" {
			out = append(out, in.closePending()...)
		}
	}

	if resp.Usage != nil && !in.usageSeen {
		in.usageSeen = true
		// Usage is terminal: anything still open closes first.
		out = append(out, in.closePending()...)
		out = append(out, usageEvent(resp.Usage.PromptTokens, resp.Usage.CompletionTokens))
	}

	return out
}

// finalize closes calls the provider never terminated, so short-cut
// streams still leave every id cleanly ended.
func (in *chatInterpreter) finalize() []StreamEvent {
	return in.closePending()
}

func (in *chatInterpreter) closePending() []StreamEvent {
	var out []StreamEvent
	for _, identity := range in.pending.drain() {
		out = append(out, toolCallEndEvent(identity.ID))
	}
	return out
}

// streamChat opens a chat-protocol stream and wires the interpreter into
// a pull-driven Stream.
func (p *OpenAINativeProvider) streamChat(ctx context.Context, token string, model Model, systemPrompt string, messages []Message, opts *CallOptions) (*Stream, error) {
	cfg := openai.DefaultConfig(token)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		cfg.HTTPClient = p.httpClient
	}
	client := openai.NewClientWithConfig(cfg)

	stream, err := client.CreateChatCompletionStream(ctx, buildChatRequest(model, systemPrompt, messages, opts, p.temperature))
	if err != nil {
		return nil, fmt.Errorf("open chat stream: %w", err)
	}

	in := newChatInterpreter()
	finished := false
	pull := func() ([]StreamEvent, error) {
		if finished {
			return nil, io.EOF
		}
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			finished = true
			return in.finalize(), nil
		}
		if err != nil {
			finished = true
			return nil, decorateRequestID(fmt.Errorf("chat stream: %w", err), stream.Header())
		}
		return in.interpret(resp), nil
	}
	release := func() error {
		stream.Close()
		return nil
	}
	return newStream(pull, release), nil
}
