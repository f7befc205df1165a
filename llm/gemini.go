// Gemini Provider implementation using official Google Gen AI SDK.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for the Gemini API
// - Translation of GenerateContentStream chunks into normalized events

package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini.
type GeminiProvider struct {
	client      *genai.Client
	initErr     error
	apiKey      string
	modelID     string
	temperature float32
}

// NewGeminiProvider creates a new Gemini provider. Client construction
// can fail; the error is surfaced on first use rather than here so the
// constructor stays infallible like the other providers.
func NewGeminiProvider(apiKey, model string, temperature float32) *GeminiProvider {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	return &GeminiProvider{
		client:      client,
		initErr:     err,
		apiKey:      apiKey,
		modelID:     model,
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// GetModel returns the model id and capability record.
func (p *GeminiProvider) GetModel() Model {
	return Model{ID: p.modelID, Info: geminiModelInfo(p.modelID)}
}

// CreateMessage opens a streaming generate-content request.
func (p *GeminiProvider) CreateMessage(ctx context.Context, systemPrompt string, messages []Message, opts *CallOptions) (*Stream, error) {
	if p.apiKey == "" {
		return nil, ErrNotSignedIn
	}
	if p.initErr != nil {
		return nil, fmt.Errorf("gemini client: %w", p.initErr)
	}

	model := p.GetModel()
	config := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}
	if model.Info.SupportsTemperature {
		config.Temperature = genai.Ptr(p.temperature)
	}
	if opts.nativeToolsEligible(model.Info) {
		config.Tools = toGeminiTools(opts.Tools)
		config.ToolConfig = resolveGeminiToolConfig(opts.ToolChoice)
	}

	contents := toGeminiContents(messages)
	next, stop := iter.Pull2(p.client.Models.GenerateContentStream(ctx, model.ID, contents, config))

	in := &geminiInterpreter{}
	finished := false
	pull := func() ([]StreamEvent, error) {
		if finished {
			return nil, io.EOF
		}
		resp, err, ok := next()
		if !ok {
			finished = true
			return in.finalize(), nil
		}
		if err != nil {
			finished = true
			return nil, fmt.Errorf("gemini stream: %w", err)
		}
		return in.interpret(resp), nil
	}
	release := func() error {
		stop()
		return nil
	}
	return newStream(pull, release), nil
}

// CompletePrompt collects a single completion as plain text.
func (p *GeminiProvider) CompletePrompt(ctx context.Context, prompt string) (string, error) {
	return completeViaStream(ctx, p, prompt)
}

// geminiInterpreter normalizes a generate-content stream. Gemini
// delivers each function call whole in a single part, so tool calls
// skip the delta phase and go straight to ready-plus-end.
type geminiInterpreter struct {
	usage     TokenUsage
	usageSeen bool
}

func (in *geminiInterpreter) interpret(resp *genai.GenerateContentResponse) []StreamEvent {
	if resp == nil {
		return nil
	}
	if resp.UsageMetadata != nil {
		in.usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		in.usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}

	var out []StreamEvent
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		switch {
		case part.FunctionCall != nil:
			fc := part.FunctionCall
			id := fc.ID
			if id == "" {
				id = fc.Name
			}
			args, err := json.Marshal(fc.Args)
			if err != nil {
				args = []byte("{}")
			}
			out = append(out,
				StreamEvent{
					Kind: EventToolCallReady,
					ToolCall: ToolCallChunk{
						ID:        id,
						Name:      fc.Name,
						Arguments: string(args),
					},
				},
				toolCallEndEvent(id),
			)
		case part.Thought && part.Text != "":
			out = append(out, reasoningEvent(part.Text))
		case part.Text != "":
			out = append(out, textEvent(part.Text))
		}
	}
	return out
}

func (in *geminiInterpreter) finalize() []StreamEvent {
	if in.usageSeen {
		return nil
	}
	in.usageSeen = true
	return []StreamEvent{usageEvent(in.usage.InputTokens, in.usage.OutputTokens)}
}

// toGeminiContents converts block-structured messages to Gemini format.
func toGeminiContents(messages []Message) []*genai.Content {
	var out []*genai.Content
	for _, m := range messages {
		var parts []*genai.Part
		for _, b := range m.Blocks {
			switch b.Type {
			case BlockText:
				if b.Text != "" {
					parts = append(parts, &genai.Part{Text: b.Text})
				}
			case BlockImage:
				if b.Data != "" {
					raw, err := base64.StdEncoding.DecodeString(b.Data)
					if err != nil {
						continue
					}
					parts = append(parts, &genai.Part{
						InlineData: &genai.Blob{MIMEType: b.MediaType, Data: raw},
					})
				}
			case BlockToolUse:
				var args map[string]any
				_ = json.Unmarshal(b.Input, &args)
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: b.ToolID, Name: b.ToolName, Args: args},
				})
			case BlockToolResult:
				parts = append(parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						ID:       b.ToolID,
						Name:     b.ToolName,
						Response: map[string]any{"output": flattenResult(b.Result)},
					},
				})
			}
		}
		if len(parts) == 0 {
			continue
		}
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out
}

// toGeminiTools converts tool definitions to Gemini format.
func toGeminiTools(tools []ToolDefinition) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		declarations[i] = &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: t.Parameters,
		}
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func resolveGeminiToolConfig(tc ToolChoice) *genai.ToolConfig {
	cfg := &genai.FunctionCallingConfig{}
	switch tc.Mode {
	case ToolChoiceUnset, ToolChoiceAuto, ToolChoiceRequired:
		cfg.Mode = genai.FunctionCallingConfigModeAny
	case ToolChoiceNone:
		cfg.Mode = genai.FunctionCallingConfigModeNone
	case ToolChoiceFunction:
		cfg.Mode = genai.FunctionCallingConfigModeAny
		cfg.AllowedFunctionNames = []string{tc.Name}
	}
	return &genai.ToolConfig{FunctionCallingConfig: cfg}
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
