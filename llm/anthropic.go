// Anthropic Provider implementation using official anthropic-sdk-go.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for Anthropic Messages API
// - Translation of Messages streaming events into normalized events

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements the Provider interface for Anthropic Claude.
type AnthropicProvider struct {
	client      anthropic.Client
	apiKey      string
	modelID     string
	temperature float64
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey, model string, temperature float32) *AnthropicProvider {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicProvider{
		client:      client,
		apiKey:      apiKey,
		modelID:     model,
		temperature: float64(temperature),
	}
}

// Name returns the provider name.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// GetModel returns the model id and capability record.
func (p *AnthropicProvider) GetModel() Model {
	return Model{ID: p.modelID, Info: anthropicModelInfo(p.modelID)}
}

// CreateMessage opens a Messages streaming request.
func (p *AnthropicProvider) CreateMessage(ctx context.Context, systemPrompt string, messages []Message, opts *CallOptions) (*Stream, error) {
	if p.apiKey == "" {
		return nil, ErrNotSignedIn
	}

	model := p.GetModel()
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model.ID),
		MaxTokens: int64(model.Info.MaxTokens),
		Messages:  toAnthropicMessages(messages),
	}
	if model.Info.SupportsTemperature {
		params.Temperature = anthropic.Float(p.temperature)
	}
	if systemPrompt != "" {
		sys := anthropic.TextBlockParam{Text: systemPrompt}
		if model.Info.SupportsPromptCache {
			sys.CacheControl = anthropic.NewCacheControlEphemeralParam()
		}
		params.System = []anthropic.TextBlockParam{sys}
	}
	if opts.nativeToolsEligible(model.Info) {
		params.Tools = toAnthropicTools(opts.Tools)
		if choice, ok := resolveAnthropicToolChoice(opts.ToolChoice); ok {
			params.ToolChoice = choice
		}
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	in := newAnthropicInterpreter()
	finished := false
	pull := func() ([]StreamEvent, error) {
		if finished {
			return nil, io.EOF
		}
		if !stream.Next() {
			finished = true
			if err := stream.Err(); err != nil {
				return nil, fmt.Errorf("anthropic stream: %w", err)
			}
			return in.finalize(), nil
		}
		return in.interpret(stream.Current()), nil
	}
	return newStream(pull, stream.Close), nil
}

// CompletePrompt collects a single completion as plain text.
func (p *AnthropicProvider) CompletePrompt(ctx context.Context, prompt string) (string, error) {
	return completeViaStream(ctx, p, prompt)
}

// anthropicInterpreter normalizes one Messages stream. Tool-use blocks
// are tracked by content block index; usage arrives split across the
// message_start and message_delta events and is emitted once, last.
type anthropicInterpreter struct {
	pending   *pendingToolCalls
	usage     TokenUsage
	usageSeen bool
}

func newAnthropicInterpreter() *anthropicInterpreter {
	return &anthropicInterpreter{pending: newPendingToolCalls()}
}

func (in *anthropicInterpreter) interpret(event anthropic.MessageStreamEventUnion) []StreamEvent {
	switch ev := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		in.usage.InputTokens = int(ev.Message.Usage.InputTokens)

	case anthropic.ContentBlockStartEvent:
		if block, ok := ev.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
			in.pending.record(blockKey(ev.Index), block.ID, block.Name)
		}

	case anthropic.ContentBlockDeltaEvent:
		switch delta := ev.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			if delta.Text != "" {
				return []StreamEvent{textEvent(delta.Text)}
			}
		case anthropic.ThinkingDelta:
			if delta.Thinking != "" {
				return []StreamEvent{reasoningEvent(delta.Thinking)}
			}
		case anthropic.InputJSONDelta:
			identity, ok := in.pending.resolve(blockKey(ev.Index))
			if !ok || delta.PartialJSON == "" {
				return nil
			}
			return []StreamEvent{{
				Kind: EventToolCallDelta,
				ToolCall: ToolCallChunk{
					Index:     int(ev.Index),
					ID:        identity.ID,
					Name:      identity.Name,
					Arguments: delta.PartialJSON,
				},
			}}
		}

	case anthropic.ContentBlockStopEvent:
		if identity, ok := in.pending.remove(blockKey(ev.Index)); ok && identity.ID != "" {
			return []StreamEvent{toolCallEndEvent(identity.ID)}
		}

	case anthropic.MessageDeltaEvent:
		if ev.Usage.OutputTokens > 0 {
			in.usage.OutputTokens = int(ev.Usage.OutputTokens)
		}

	case anthropic.MessageStopEvent:
		return in.finalize()
	}
	return nil
}

func (in *anthropicInterpreter) finalize() []StreamEvent {
	var out []StreamEvent
	for _, identity := range in.pending.drain() {
		out = append(out, toolCallEndEvent(identity.ID))
	}
	if !in.usageSeen {
		in.usageSeen = true
		out = append(out, usageEvent(in.usage.InputTokens, in.usage.OutputTokens))
	}
	return out
}

func blockKey(index int64) string {
	return strconv.FormatInt(index, 10)
}

// toAnthropicMessages converts block-structured messages to Anthropic
// format. Tool results ride in user messages; tool uses ride in
// assistant messages, per the Messages API shape.
func toAnthropicMessages(messages []Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, m := range messages {
		var blocks []anthropic.ContentBlockParamUnion
		for _, b := range m.Blocks {
			switch b.Type {
			case BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case BlockImage:
				if b.Data != "" {
					blocks = append(blocks, anthropic.NewImageBlockBase64(b.MediaType, b.Data))
				}
			case BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolID, flattenResult(b.Result), false))
			case BlockToolUse:
				var input map[string]any
				_ = json.Unmarshal(b.Input, &input)
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    b.ToolID,
						Name:  b.ToolName,
						Input: input,
					},
				})
			}
		}
		if len(blocks) == 0 {
			continue
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out
}

// toAnthropicTools converts tool definitions to Anthropic format.
func toAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		properties, _ := t.Parameters["properties"].(map[string]any)
		var required []string
		switch req := t.Parameters["required"].(type) {
		case []string:
			required = req
		case []any:
			for _, r := range req {
				if s, ok := r.(string); ok {
					required = append(required, s)
				}
			}
		}

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties,
				Required:   required,
			},
		}
		result[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return result
}

func resolveAnthropicToolChoice(tc ToolChoice) (anthropic.ToolChoiceUnionParam, bool) {
	switch tc.Mode {
	case ToolChoiceUnset, ToolChoiceAuto:
		return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}, true
	case ToolChoiceRequired:
		return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}, true
	case ToolChoiceFunction:
		return anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: tc.Name}}, true
	default:
		return anthropic.ToolChoiceUnionParam{}, false
	}
}

// Verify AnthropicProvider implements Provider
var _ Provider = (*AnthropicProvider)(nil)
