// Tests for chat-protocol normalization: delta chunks in, one event
// vocabulary out.
package llm

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func intPtr(i int) *int { return &i }

func textChunk(content string) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{
			{Delta: openai.ChatCompletionStreamChoiceDelta{Content: content}},
		},
	}
}

func toolChunk(index int, id, name, args string) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{
			{Delta: openai.ChatCompletionStreamChoiceDelta{
				ToolCalls: []openai.ToolCall{{
					Index:    intPtr(index),
					ID:       id,
					Function: openai.FunctionCall{Name: name, Arguments: args},
				}},
			}},
		},
	}
}

func finishChunk(reason openai.FinishReason) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{{FinishReason: reason}},
	}
}

func usageChunk(prompt, completion int) openai.ChatCompletionStreamResponse {
	return openai.ChatCompletionStreamResponse{
		Usage: &openai.Usage{PromptTokens: prompt, CompletionTokens: completion},
	}
}

// TestChatInterpreterToolCallSequence covers the canonical chat-protocol
// tool-call stream: greeting text, a call split across two fragments
// where only the first carries identity, a finish reason, and a trailing
// usage chunk.
func TestChatInterpreterToolCallSequence(t *testing.T) {
	in := newChatInterpreter()

	var events []StreamEvent
	chunks := []openai.ChatCompletionStreamResponse{
		textChunk("Hi"),
		toolChunk(0, "c1", "lookup", `{"q":`),
		toolChunk(0, "", "", `"x"}`),
		finishChunk(openai.FinishReasonToolCalls),
		usageChunk(10, 5),
	}
	for _, chunk := range chunks {
		events = append(events, in.interpret(chunk)...)
	}
	events = append(events, in.finalize()...)

	want := []StreamEvent{
		textEvent("Hi"),
		{Kind: EventToolCallDelta, ToolCall: ToolCallChunk{Index: 0, ID: "c1", Name: "lookup", Arguments: `{"q":`}},
		{Kind: EventToolCallDelta, ToolCall: ToolCallChunk{Index: 0, ID: "c1", Name: "lookup", Arguments: `"x"}`}},
		toolCallEndEvent("c1"),
		usageEvent(10, 5),
	}
	assertEvents(t, events, want)
}

// TestChatInterpreterReasoningBeforeText verifies reasoning and content
// in one delta come out in reasoning-first order.
func TestChatInterpreterReasoningBeforeText(t *testing.T) {
	in := newChatInterpreter()

	events := in.interpret(openai.ChatCompletionStreamResponse{
		Choices: []openai.ChatCompletionStreamChoice{
			{Delta: openai.ChatCompletionStreamChoiceDelta{
				ReasoningContent: "thinking...",
				Content:          "answer",
			}},
		},
	})

	assertEvents(t, events, []StreamEvent{
		reasoningEvent("thinking..."),
		textEvent("answer"),
	})
}

// TestChatInterpreterDropsUnattributableFragments verifies that argument
// fragments arriving before any identity are dropped, not misattributed.
func TestChatInterpreterDropsUnattributableFragments(t *testing.T) {
	in := newChatInterpreter()

	events := in.interpret(toolChunk(3, "", "", `{"oops":true}`))
	if len(events) != 0 {
		t.Fatalf("expected orphan fragment to be dropped, got %v", events)
	}

	// Once identity lands on that slot, fragments flow again.
	in.interpret(toolChunk(3, "c9", "search", ""))
	events = in.interpret(toolChunk(3, "", "", `{"q":"go"}`))
	assertEvents(t, events, []StreamEvent{
		{Kind: EventToolCallDelta, ToolCall: ToolCallChunk{Index: 3, ID: "c9", Name: "search", Arguments: `{"q":"go"}`}},
	})
}

// TestChatInterpreterInterleavedCalls verifies two calls on distinct
// indexes keep their own identities.
func TestChatInterpreterInterleavedCalls(t *testing.T) {
	in := newChatInterpreter()

	in.interpret(toolChunk(0, "a1", "alpha", ""))
	in.interpret(toolChunk(1, "b2", "beta", ""))

	evA := in.interpret(toolChunk(0, "", "", `{"x":1}`))
	evB := in.interpret(toolChunk(1, "", "", `{"y":2}`))

	if evA[0].ToolCall.ID != "a1" || evA[0].ToolCall.Name != "alpha" {
		t.Errorf("index 0 fragment got wrong identity: %+v", evA[0].ToolCall)
	}
	if evB[0].ToolCall.ID != "b2" || evB[0].ToolCall.Name != "beta" {
		t.Errorf("index 1 fragment got wrong identity: %+v", evB[0].ToolCall)
	}

	ends := in.finalize()
	assertEvents(t, ends, []StreamEvent{toolCallEndEvent("a1"), toolCallEndEvent("b2")})
}

// TestChatInterpreterAbruptEnd verifies a stream that dies without a
// finish reason still ends every started call.
func TestChatInterpreterAbruptEnd(t *testing.T) {
	in := newChatInterpreter()
	in.interpret(toolChunk(0, "c7", "fetch", `{"url"`))

	events := in.finalize()
	assertEvents(t, events, []StreamEvent{toolCallEndEvent("c7")})

	// finalize is idempotent; a second call closes nothing.
	if extra := in.finalize(); len(extra) != 0 {
		t.Errorf("second finalize emitted %v", extra)
	}
}

// TestChatInterpreterUsageClosesPending verifies the usage chunk is
// terminal: open calls close before usage, and usage is emitted once.
func TestChatInterpreterUsageClosesPending(t *testing.T) {
	in := newChatInterpreter()
	in.interpret(toolChunk(0, "c1", "lookup", `{}`))

	events := in.interpret(usageChunk(100, 50))
	assertEvents(t, events, []StreamEvent{
		toolCallEndEvent("c1"),
		usageEvent(100, 50),
	})

	if extra := in.interpret(usageChunk(1, 1)); len(extra) != 0 {
		t.Errorf("second usage chunk emitted %v", extra)
	}
}

// TestBuildChatRequestStreamingFlags verifies every chat request asks
// for streaming with usage included.
func TestBuildChatRequestStreamingFlags(t *testing.T) {
	model := Model{ID: ModelOpenAIGPT4o, Info: openAINativeModelInfo(ModelOpenAIGPT4o)}
	req := buildChatRequest(model, "be brief", []Message{UserText("hi")}, nil, 0.5)

	if !req.Stream {
		t.Error("request not marked streaming")
	}
	if req.StreamOptions == nil || !req.StreamOptions.IncludeUsage {
		t.Error("stream options missing IncludeUsage")
	}
	if req.Temperature != 0.5 {
		t.Errorf("temperature = %v, want 0.5", req.Temperature)
	}
	if len(req.Tools) != 0 {
		t.Errorf("no tools requested but got %d", len(req.Tools))
	}
}

func TestBuildChatRequestToolChoiceTieBreak(t *testing.T) {
	model := Model{ID: ModelOpenAIGPT4o, Info: openAINativeModelInfo(ModelOpenAIGPT4o)}
	tools := []ToolDefinition{{Name: "lookup", Parameters: map[string]any{"type": "object"}}}

	cases := []struct {
		name string
		opts *CallOptions
		want any
	}{
		{"unset resolves to required", &CallOptions{Tools: tools}, "required"},
		{"auto resolves to required", &CallOptions{Tools: tools, ToolChoice: ToolChoice{Mode: ToolChoiceAuto}}, "required"},
		{"required passes through", &CallOptions{Tools: tools, ToolChoice: ToolChoice{Mode: ToolChoiceRequired}}, "required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := buildChatRequest(model, "", []Message{UserText("hi")}, tc.opts, 0)
			if req.ToolChoice != tc.want {
				t.Errorf("tool_choice = %v, want %v", req.ToolChoice, tc.want)
			}
		})
	}

	// A specific function pins the choice to that function.
	req := buildChatRequest(model, "", []Message{UserText("hi")}, &CallOptions{
		Tools:      tools,
		ToolChoice: ToolChoice{Mode: ToolChoiceFunction, Name: "lookup"},
	}, 0)
	choice, ok := req.ToolChoice.(openai.ToolChoice)
	if !ok || choice.Function.Name != "lookup" {
		t.Errorf("tool_choice = %v, want function lookup", req.ToolChoice)
	}
}

// TestBuildChatRequestToolsGatedByPolicy verifies tools are omitted when
// the call opts out of native tool use.
func TestBuildChatRequestToolsGatedByPolicy(t *testing.T) {
	model := Model{ID: ModelOpenAIGPT4o, Info: openAINativeModelInfo(ModelOpenAIGPT4o)}
	tools := []ToolDefinition{{Name: "lookup", Parameters: map[string]any{"type": "object"}}}

	cases := []struct {
		name string
		opts *CallOptions
	}{
		{"choice none", &CallOptions{Tools: tools, ToolChoice: ToolChoice{Mode: ToolChoiceNone}}},
		{"xml protocol", &CallOptions{Tools: tools, ToolProtocol: ToolProtocolXML}},
		{"no tools", &CallOptions{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := buildChatRequest(model, "", []Message{UserText("hi")}, tc.opts, 0)
			if len(req.Tools) != 0 || req.ToolChoice != nil {
				t.Errorf("tools attached: tools=%d choice=%v", len(req.Tools), req.ToolChoice)
			}
		})
	}
}

// assertEvents compares normalized event sequences field by field.
func assertEvents(t *testing.T, got, want []StreamEvent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d\ngot:  %+v\nwant: %+v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i].Kind != want[i].Kind {
			t.Errorf("event %d: kind = %q, want %q", i, got[i].Kind, want[i].Kind)
			continue
		}
		if got[i].Text != want[i].Text {
			t.Errorf("event %d: text = %q, want %q", i, got[i].Text, want[i].Text)
		}
		if got[i].ToolCall != want[i].ToolCall {
			t.Errorf("event %d: tool call = %+v, want %+v", i, got[i].ToolCall, want[i].ToolCall)
		}
		switch {
		case (got[i].Usage == nil) != (want[i].Usage == nil):
			t.Errorf("event %d: usage = %+v, want %+v", i, got[i].Usage, want[i].Usage)
		case got[i].Usage != nil && *got[i].Usage != *want[i].Usage:
			t.Errorf("event %d: usage = %+v, want %+v", i, *got[i].Usage, *want[i].Usage)
		}
	}
}
