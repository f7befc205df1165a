// Tests for Gemini chunk normalization and request conversion.
package llm

import (
	"encoding/json"
	"testing"

	"google.golang.org/genai"
)

func geminiChunk(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: parts}},
		},
	}
}

func TestGeminiInterpreterTextAndThought(t *testing.T) {
	in := &geminiInterpreter{}

	events := in.interpret(geminiChunk(
		&genai.Part{Text: "pondering", Thought: true},
		&genai.Part{Text: "answer"},
	))

	assertEvents(t, events, []StreamEvent{
		reasoningEvent("pondering"),
		textEvent("answer"),
	})
}

// TestGeminiInterpreterFunctionCall verifies a whole-call part becomes a
// ready event immediately followed by its end, with the name serving as
// id when the provider assigns none.
func TestGeminiInterpreterFunctionCall(t *testing.T) {
	in := &geminiInterpreter{}

	events := in.interpret(geminiChunk(
		&genai.Part{FunctionCall: &genai.FunctionCall{Name: "lookup", Args: map[string]any{"q": "go"}}},
	))

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	ready := events[0]
	if ready.Kind != EventToolCallReady || ready.ToolCall.ID != "lookup" || ready.ToolCall.Name != "lookup" {
		t.Errorf("ready event = %+v", ready)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(ready.ToolCall.Arguments), &args); err != nil || args["q"] != "go" {
		t.Errorf("arguments = %q, err = %v", ready.ToolCall.Arguments, err)
	}
	if events[1].Kind != EventToolCallEnd || events[1].ToolCall.ID != "lookup" {
		t.Errorf("end event = %+v", events[1])
	}
}

func TestGeminiInterpreterUsageAtFinalize(t *testing.T) {
	in := &geminiInterpreter{}

	chunk := geminiChunk(&genai.Part{Text: "hi"})
	chunk.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     12,
		CandidatesTokenCount: 4,
	}
	in.interpret(chunk)

	events := in.finalize()
	assertEvents(t, events, []StreamEvent{usageEvent(12, 4)})

	if extra := in.finalize(); len(extra) != 0 {
		t.Errorf("second finalize emitted %v", extra)
	}
}

func TestGeminiInterpreterEmptyChunk(t *testing.T) {
	in := &geminiInterpreter{}
	if events := in.interpret(&genai.GenerateContentResponse{}); len(events) != 0 {
		t.Errorf("empty chunk produced %v", events)
	}
	if events := in.interpret(nil); len(events) != 0 {
		t.Errorf("nil chunk produced %v", events)
	}
}

func TestToGeminiContentsRoles(t *testing.T) {
	contents := toGeminiContents([]Message{
		UserText("hi"),
		AssistantText("hello"),
	})
	if len(contents) != 2 {
		t.Fatalf("got %d contents", len(contents))
	}
	if contents[0].Role != genai.RoleUser || contents[1].Role != genai.RoleModel {
		t.Errorf("roles = %s, %s", contents[0].Role, contents[1].Role)
	}
}

func TestResolveGeminiToolConfig(t *testing.T) {
	cfg := resolveGeminiToolConfig(ToolChoice{})
	if cfg.FunctionCallingConfig.Mode != genai.FunctionCallingConfigModeAny {
		t.Errorf("unset mode = %v, want ANY", cfg.FunctionCallingConfig.Mode)
	}

	cfg = resolveGeminiToolConfig(ToolChoice{Mode: ToolChoiceFunction, Name: "lookup"})
	if len(cfg.FunctionCallingConfig.AllowedFunctionNames) != 1 || cfg.FunctionCallingConfig.AllowedFunctionNames[0] != "lookup" {
		t.Errorf("allowed names = %v", cfg.FunctionCallingConfig.AllowedFunctionNames)
	}

	cfg = resolveGeminiToolConfig(ToolChoice{Mode: ToolChoiceNone})
	if cfg.FunctionCallingConfig.Mode != genai.FunctionCallingConfigModeNone {
		t.Errorf("none mode = %v", cfg.FunctionCallingConfig.Mode)
	}
}
