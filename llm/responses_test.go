// Tests for responses-protocol normalization: typed response.* events
// in, one event vocabulary out.
package llm

import (
	"encoding/json"
	"testing"
)

func parseEvent(t *testing.T, raw string) responsesEvent {
	t.Helper()
	var ev responsesEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("bad test event %q: %v", raw, err)
	}
	return ev
}

// TestResponsesInterpreterFragmentedCall covers the canonical
// responses-protocol tool-call stream: the item announcement carries
// identity, argument deltas reference the item id, and the done variant
// ends the call exactly once.
func TestResponsesInterpreterFragmentedCall(t *testing.T) {
	in := newResponsesInterpreter()

	raws := []string{
		`{"type":"response.output_item.added","item":{"type":"function_call","id":"item_1","call_id":"t1","name":"search"}}`,
		`{"type":"response.function_call_arguments.delta","item_id":"item_1","delta":"{\"q\":"}`,
		`{"type":"response.function_call_arguments.delta","item_id":"item_1","delta":"\"go\"}"}`,
		`{"type":"response.function_call_arguments.done","item_id":"item_1"}`,
		`{"type":"response.completed","response":{"usage":{"input_tokens":20,"output_tokens":8}}}`,
	}
	var events []StreamEvent
	for _, raw := range raws {
		events = append(events, in.interpret(parseEvent(t, raw))...)
	}
	events = append(events, in.finalize()...)

	want := []StreamEvent{
		{Kind: EventToolCallDelta, ToolCall: ToolCallChunk{ID: "t1", Name: "search", Arguments: `{"q":`}},
		{Kind: EventToolCallDelta, ToolCall: ToolCallChunk{ID: "t1", Name: "search", Arguments: `"go"}`}},
		toolCallEndEvent("t1"),
		usageEvent(20, 8),
	}
	assertEvents(t, events, want)
}

// TestResponsesInterpreterAtomicCall verifies the output_item.done form
// emits one ready event with full arguments plus exactly one end, even
// when arguments.done also fires for the same call.
func TestResponsesInterpreterAtomicCall(t *testing.T) {
	in := newResponsesInterpreter()

	in.interpret(parseEvent(t, `{"type":"response.output_item.added","item":{"type":"function_call","id":"item_9","call_id":"z9","name":"fetch"}}`))
	events := in.interpret(parseEvent(t, `{"type":"response.output_item.done","output_index":2,"item":{"type":"function_call","id":"item_9","call_id":"z9","name":"fetch","arguments":"{\"url\":\"a\"}"}}`))

	want := []StreamEvent{
		{Kind: EventToolCallReady, ToolCall: ToolCallChunk{Index: 2, ID: "z9", Name: "fetch", Arguments: `{"url":"a"}`}},
		toolCallEndEvent("z9"),
	}
	assertEvents(t, events, want)

	// A late arguments.done for the same call must not double-end it.
	if extra := in.interpret(parseEvent(t, `{"type":"response.function_call_arguments.done","item_id":"item_9"}`)); len(extra) != 0 {
		t.Errorf("call ended twice: %v", extra)
	}
	if extra := in.finalize(); len(extra) != 0 {
		t.Errorf("finalize re-ended a closed call: %v", extra)
	}
}

// TestResponsesInterpreterTextAndReasoning verifies the three textual
// delta forms and the refusal prefix.
func TestResponsesInterpreterTextAndReasoning(t *testing.T) {
	in := newResponsesInterpreter()

	cases := []struct {
		raw  string
		want StreamEvent
	}{
		{`{"type":"response.output_text.delta","delta":"Hello"}`, textEvent("Hello")},
		{`{"type":"response.reasoning_summary_text.delta","delta":"hmm"}`, reasoningEvent("hmm")},
		{`{"type":"response.reasoning_text.delta","delta":"more"}`, reasoningEvent("more")},
		{`{"type":"response.refusal.delta","delta":"cannot help"}`, textEvent("[Refusal] cannot help")},
	}
	for _, tc := range cases {
		events := in.interpret(parseEvent(t, tc.raw))
		assertEvents(t, events, []StreamEvent{tc.want})
	}
}

// TestResponsesInterpreterIgnoresUnknownTypes verifies unknown event
// discriminators produce nothing and fail nothing.
func TestResponsesInterpreterIgnoresUnknownTypes(t *testing.T) {
	in := newResponsesInterpreter()

	raws := []string{
		`{"type":"response.created"}`,
		`{"type":"response.in_progress"}`,
		`{"type":"response.output_text.done","text":"Hello"}`,
		`{"type":"response.some_future_event","delta":"x"}`,
	}
	for _, raw := range raws {
		if events := in.interpret(parseEvent(t, raw)); len(events) != 0 {
			t.Errorf("event %s produced %v", raw, events)
		}
	}
}

// TestResponsesInterpreterOrphanDelta verifies argument deltas with no
// recorded identity are dropped.
func TestResponsesInterpreterOrphanDelta(t *testing.T) {
	in := newResponsesInterpreter()

	events := in.interpret(parseEvent(t, `{"type":"response.function_call_arguments.delta","item_id":"ghost","delta":"{}"}`))
	if len(events) != 0 {
		t.Fatalf("orphan delta produced %v", events)
	}
}

// TestResponsesInterpreterAbruptEnd verifies a started call is ended at
// stream exhaustion when the provider never closed it.
func TestResponsesInterpreterAbruptEnd(t *testing.T) {
	in := newResponsesInterpreter()
	in.interpret(parseEvent(t, `{"type":"response.output_item.added","item":{"type":"function_call","id":"item_3","call_id":"q3","name":"grep"}}`))

	events := in.finalize()
	assertEvents(t, events, []StreamEvent{toolCallEndEvent("q3")})
}

// TestResponsesInterpreterUsageOnce verifies usage comes out exactly
// once across completed and done variants.
func TestResponsesInterpreterUsageOnce(t *testing.T) {
	in := newResponsesInterpreter()

	first := in.interpret(parseEvent(t, `{"type":"response.completed","response":{"usage":{"input_tokens":5,"output_tokens":2}}}`))
	assertEvents(t, first, []StreamEvent{usageEvent(5, 2)})

	second := in.interpret(parseEvent(t, `{"type":"response.done","response":{"usage":{"input_tokens":5,"output_tokens":2}}}`))
	if len(second) != 0 {
		t.Errorf("usage emitted twice: %v", second)
	}
}

// TestBuildResponsesRequestNeverStores verifies responses are never
// persisted server-side regardless of options.
func TestBuildResponsesRequestNeverStores(t *testing.T) {
	model := Model{ID: ModelOpenAIGPT52, Info: openAINativeModelInfo(ModelOpenAIGPT52)}
	req := buildResponsesRequest(model, "sys", []Message{UserText("hi")}, nil, 0.7)

	if req.Store {
		t.Error("store must be false")
	}
	if !req.Stream {
		t.Error("request not marked streaming")
	}
	if req.Instructions != "sys" {
		t.Errorf("instructions = %q", req.Instructions)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["store"] != false {
		t.Errorf("serialized store = %v", decoded["store"])
	}
}

// TestBuildResponsesRequestReasoning verifies effort defaults from the
// capability record and is overridable per call, and is omitted for
// models without effort control.
func TestBuildResponsesRequestReasoning(t *testing.T) {
	model := Model{ID: ModelOpenAIGPT52, Info: openAINativeModelInfo(ModelOpenAIGPT52)}

	req := buildResponsesRequest(model, "", []Message{UserText("hi")}, nil, 0)
	if req.Reasoning == nil || req.Reasoning.Effort != string(ReasoningMedium) {
		t.Errorf("reasoning = %+v, want default medium", req.Reasoning)
	}

	req = buildResponsesRequest(model, "", []Message{UserText("hi")}, &CallOptions{ReasoningEffort: ReasoningHigh}, 0)
	if req.Reasoning == nil || req.Reasoning.Effort != "high" {
		t.Errorf("reasoning = %+v, want high", req.Reasoning)
	}

	plain := model
	plain.Info.SupportsReasoningEffort = false
	req = buildResponsesRequest(plain, "", []Message{UserText("hi")}, &CallOptions{ReasoningEffort: ReasoningHigh}, 0)
	if req.Reasoning != nil {
		t.Errorf("reasoning attached for non-reasoning model: %+v", req.Reasoning)
	}
}

// TestToResponsesToolsStrictness verifies internal tools run strict and
// external tools are normalized and non-strict.
func TestToResponsesToolsStrictness(t *testing.T) {
	defs := []ToolDefinition{
		{
			Name: "internal",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"a": map[string]any{"type": "string"}},
			},
		},
		{
			Name:     "external",
			External: true,
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"b": map[string]any{"type": "string"}},
			},
		},
	}

	tools := toResponsesTools(defs)
	if !tools[0].Strict {
		t.Error("internal tool must be strict")
	}
	if tools[1].Strict {
		t.Error("external tool must not be strict")
	}
	if tools[1].Parameters["additionalProperties"] != false {
		t.Error("external tool schema not normalized")
	}
	if _, normalizedOriginal := defs[1].Parameters["additionalProperties"]; normalizedOriginal {
		t.Error("normalization mutated the caller's schema")
	}
}

// TestBuildResponsesRequestMaxTokens verifies max_output_tokens rides
// only when the caller opts in.
func TestBuildResponsesRequestMaxTokens(t *testing.T) {
	model := Model{ID: ModelOpenAIGPT52, Info: openAINativeModelInfo(ModelOpenAIGPT52)}

	req := buildResponsesRequest(model, "", []Message{UserText("hi")}, nil, 0)
	if req.MaxOutputTokens != 0 {
		t.Errorf("max_output_tokens = %d without opt-in", req.MaxOutputTokens)
	}

	req = buildResponsesRequest(model, "", []Message{UserText("hi")}, &CallOptions{SendMaxTokens: true}, 0)
	if req.MaxOutputTokens != model.Info.MaxTokens {
		t.Errorf("max_output_tokens = %d, want %d", req.MaxOutputTokens, model.Info.MaxTokens)
	}
}
