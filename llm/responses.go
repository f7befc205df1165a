// Responses protocol: wire types, request construction, and the
// interpreter that normalizes its typed event stream.
//
// Information Hiding:
// - Wire shapes for /responses requests and response.* events
// - SSE transport and decode-at-boundary into a closed event union
// - Tool-call identity threading across item-scoped events

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Kilo-Org/kilocode-legacy/internal/schema"
)

// --- Request wire types ---

type responsesRequest struct {
	Model             string               `json:"model"`
	Input             []responsesInputItem `json:"input"`
	Instructions      string               `json:"instructions,omitempty"`
	Stream            bool                 `json:"stream"`
	Store             bool                 `json:"store"`
	Reasoning         *responsesReasoning  `json:"reasoning,omitempty"`
	MaxOutputTokens   int                  `json:"max_output_tokens,omitempty"`
	Temperature       *float64             `json:"temperature,omitempty"`
	Tools             []responsesTool      `json:"tools,omitempty"`
	ToolChoice        any                  `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool                `json:"parallel_tool_calls,omitempty"`
}

type responsesReasoning struct {
	Effort  string `json:"effort"`
	Summary string `json:"summary,omitempty"`
}

type responsesTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
	Strict      bool           `json:"strict"`
}

type responsesInputItem struct {
	Type    string                 `json:"type"`
	Role    string                 `json:"role,omitempty"`
	Content []responsesContentPart `json:"content,omitempty"`

	// function_call / function_call_output
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
}

type responsesContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// --- Stream event wire types ---

// responsesEvent is the decoded form of one server-sent unit. Only the
// fields a known discriminator uses are read; nothing is assumed about
// unlisted event types.
type responsesEvent struct {
	Type        string               `json:"type"`
	Delta       string               `json:"delta,omitempty"`
	ItemID      string               `json:"item_id,omitempty"`
	CallID      string               `json:"call_id,omitempty"`
	OutputIndex int                  `json:"output_index,omitempty"`
	Item        *responsesOutputItem `json:"item,omitempty"`
	Response    *responsesResponse   `json:"response,omitempty"`
}

type responsesOutputItem struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type responsesResponse struct {
	Usage *responsesUsage `json:"usage,omitempty"`
}

type responsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// buildResponsesRequest constructs the responses-protocol payload.
// Responses are never persisted server-side (store:false); reasoning is
// attached only when the model supports effort control; internal tools
// run in strict mode while externally sourced schemas are normalized and
// left non-strict, since strict mode demands exact schema compliance
// external tools cannot guarantee.
func buildResponsesRequest(model Model, systemPrompt string, messages []Message, opts *CallOptions, temperature float64) responsesRequest {
	req := responsesRequest{
		Model:        model.ID,
		Input:        toResponsesInput(messages),
		Instructions: systemPrompt,
		Stream:       true,
		Store:        false,
	}

	if model.Info.SupportsTemperature {
		req.Temperature = &temperature
	}

	if model.Info.SupportsReasoningEffort {
		effort := model.Info.DefaultReasoningEffort
		if opts != nil && opts.ReasoningEffort != "" {
			effort = opts.ReasoningEffort
		}
		if effort != "" {
			req.Reasoning = &responsesReasoning{Effort: string(effort), Summary: "auto"}
		}
	}

	if opts != nil && opts.SendMaxTokens {
		req.MaxOutputTokens = model.Info.MaxTokens
	}

	if opts.nativeToolsEligible(model.Info) {
		req.Tools = toResponsesTools(opts.Tools)
		req.ToolChoice = resolveResponsesToolChoice(opts.ToolChoice)
		if opts.ParallelToolCalls {
			parallel := true
			req.ParallelToolCalls = &parallel
		}
	}

	return req
}

func toResponsesTools(defs []ToolDefinition) []responsesTool {
	tools := make([]responsesTool, len(defs))
	for i, t := range defs {
		params := t.Parameters
		strict := true
		if t.External {
			params = schema.Normalize(params)
			strict = false
		}
		tools[i] = responsesTool{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
			Strict:      strict,
		}
	}
	return tools
}

func resolveResponsesToolChoice(tc ToolChoice) any {
	switch tc.Mode {
	case ToolChoiceUnset, ToolChoiceAuto:
		return string(ToolChoiceRequired)
	case ToolChoiceFunction:
		return map[string]string{"type": "function", "name": tc.Name}
	default:
		return string(tc.Mode)
	}
}

// responsesInterpreter normalizes one responses-protocol stream.
type responsesInterpreter struct {
	pending   *pendingToolCalls
	closed    map[string]bool // call ids already ended
	usageSeen bool
}

func newResponsesInterpreter() *responsesInterpreter {
	return &responsesInterpreter{
		pending: newPendingToolCalls(),
		closed:  make(map[string]bool),
	}
}

func (in *responsesInterpreter) interpret(ev responsesEvent) []StreamEvent {
	switch ev.Type {
	case "response.output_text.delta":
		return []StreamEvent{textEvent(ev.Delta)}

	case "response.reasoning_summary_text.delta", "response.reasoning_text.delta":
		return []StreamEvent{reasoningEvent(ev.Delta)}

	case "response.refusal.delta":
		return []StreamEvent{textEvent("[Refusal] " + ev.Delta)}

	case "response.function_call_arguments.delta":
		identity, ok := in.pending.resolve(in.slotKey(ev))
		if !ok {
			// No resolvable identity: the fragment cannot be attributed
			// and must not corrupt another in-flight call.
			return nil
		}
		return []StreamEvent{{
			Kind: EventToolCallDelta,
			ToolCall: ToolCallChunk{
				Index:     ev.OutputIndex,
				ID:        identity.ID,
				Name:      identity.Name,
				Arguments: ev.Delta,
			},
		}}

	case "response.function_call_arguments.done":
		key := in.slotKey(ev)
		identity, ok := in.pending.resolve(key)
		if !ok || in.closed[identity.ID] {
			return nil
		}
		in.closed[identity.ID] = true
		in.pending.remove(key)
		return []StreamEvent{toolCallEndEvent(identity.ID)}

	case "response.output_item.added":
		if ev.Item != nil && ev.Item.Type == "function_call" {
			in.pending.record(itemKey(ev.Item), ev.Item.CallID, ev.Item.Name)
		}
		return nil

	case "response.output_item.done":
		if ev.Item == nil || ev.Item.Type != "function_call" {
			return nil
		}
		// Arguments are guaranteed complete on the done variant: this is
		// the protocol's atomic form.
		out := []StreamEvent{{
			Kind: EventToolCallReady,
			ToolCall: ToolCallChunk{
				Index:     ev.OutputIndex,
				ID:        ev.Item.CallID,
				Name:      ev.Item.Name,
				Arguments: ev.Item.Arguments,
			},
		}}
		in.pending.remove(itemKey(ev.Item))
		if ev.Item.CallID != "" && !in.closed[ev.Item.CallID] {
			in.closed[ev.Item.CallID] = true
			out = append(out, toolCallEndEvent(ev.Item.CallID))
		}
		return out

	case "response.completed", "response.done":
		out := in.closePending()
		if ev.Response != nil && ev.Response.Usage != nil && !in.usageSeen {
			in.usageSeen = true
			out = append(out, usageEvent(ev.Response.Usage.InputTokens, ev.Response.Usage.OutputTokens))
		}
		return out

	default:
		// Unknown discriminators must never fail the call.
		return nil
	}
}

// finalize closes any call the provider cut short, so downstream parsers
// are not left waiting for an end that never comes.
func (in *responsesInterpreter) finalize() []StreamEvent {
	return in.closePending()
}

func (in *responsesInterpreter) closePending() []StreamEvent {
	var out []StreamEvent
	for _, identity := range in.pending.drain() {
		if in.closed[identity.ID] {
			continue
		}
		in.closed[identity.ID] = true
		out = append(out, toolCallEndEvent(identity.ID))
	}
	return out
}

// slotKey picks the identity slot for an argument event: the item id
// when present, otherwise the call id some providers put on deltas. An
// empty key falls through to the aggregator's most-recent fallback.
func (in *responsesInterpreter) slotKey(ev responsesEvent) string {
	if ev.ItemID != "" {
		return ev.ItemID
	}
	return ev.CallID
}

func itemKey(item *responsesOutputItem) string {
	if item.ID != "" {
		return item.ID
	}
	return item.CallID
}

// streamResponses opens a responses-protocol stream over SSE and wires
// the interpreter into a pull-driven Stream.
func (p *OpenAINativeProvider) streamResponses(ctx context.Context, token string, model Model, systemPrompt string, messages []Message, opts *CallOptions) (*Stream, error) {
	payload, err := json.Marshal(buildResponsesRequest(model, systemPrompt, messages, opts, float64(p.temperature)))
	if err != nil {
		return nil, fmt.Errorf("marshal responses request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint()+"/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	client := p.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("open responses stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, decorateRequestID(statusError(resp.StatusCode, body), resp.Header)
	}

	reader := newSSEReader(resp.Body)
	in := newResponsesInterpreter()
	finished := false
	pull := func() ([]StreamEvent, error) {
		if finished {
			return nil, io.EOF
		}
		data, err := reader.next()
		if errors.Is(err, io.EOF) {
			finished = true
			return in.finalize(), nil
		}
		if err != nil {
			finished = true
			return nil, decorateRequestID(fmt.Errorf("responses stream: %w", err), resp.Header)
		}
		var ev responsesEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			// Malformed unit: skip it rather than abort the stream.
			return nil, nil
		}
		return in.interpret(ev), nil
	}
	return newStream(pull, resp.Body.Close), nil
}
