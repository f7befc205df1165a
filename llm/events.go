// Normalized streaming events - the protocol-agnostic output vocabulary.
//
// Every provider implementation translates its wire protocol into this
// closed set of event kinds, so consumers of a Stream never see
// provider-specific shapes.

package llm

// EventKind identifies the kind of a normalized stream event.
type EventKind string

const (
	// EventText is a fragment of final answer text.
	EventText EventKind = "text"
	// EventReasoning is a fragment of provider-emitted thinking text,
	// distinct from answer text.
	EventReasoning EventKind = "reasoning"
	// EventToolCallDelta is an incremental fragment of one tool call's
	// JSON arguments. Concatenating the Arguments of all deltas sharing
	// an ID reconstructs the provider's argument string byte for byte.
	EventToolCallDelta EventKind = "tool_call_delta"
	// EventToolCallReady is a complete tool call, emitted only by
	// protocols that deliver whole calls atomically.
	EventToolCallReady EventKind = "tool_call_ready"
	// EventToolCallEnd signals that no further fragments follow for the
	// call ID. Every ID that produced at least one delta gets exactly one.
	EventToolCallEnd EventKind = "tool_call_end"
	// EventUsage carries token counters. When present it is the last
	// event of a stream.
	EventUsage EventKind = "usage"
)

// ToolCallChunk carries tool-call identity plus either an arguments
// fragment (EventToolCallDelta) or the full argument string
// (EventToolCallReady).
type ToolCallChunk struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// TokenUsage contains token counters reported by the provider.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// StreamEvent is the sole output type of a provider stream.
// Kind selects which of the remaining fields is meaningful.
type StreamEvent struct {
	Kind     EventKind
	Text     string // EventText, EventReasoning
	ToolCall ToolCallChunk
	Usage    *TokenUsage
}

func textEvent(text string) StreamEvent {
	return StreamEvent{Kind: EventText, Text: text}
}

func reasoningEvent(text string) StreamEvent {
	return StreamEvent{Kind: EventReasoning, Text: text}
}

func toolCallEndEvent(id string) StreamEvent {
	return StreamEvent{Kind: EventToolCallEnd, ToolCall: ToolCallChunk{ID: id}}
}

func usageEvent(input, output int) StreamEvent {
	return StreamEvent{Kind: EventUsage, Usage: &TokenUsage{InputTokens: input, OutputTokens: output}}
}
