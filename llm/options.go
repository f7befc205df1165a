// Per-call metadata supplied by the caller alongside the conversation.

package llm

// ToolChoiceMode is the caller's tool-choice policy.
type ToolChoiceMode string

const (
	// ToolChoiceUnset lets the provider-specific default apply.
	ToolChoiceUnset ToolChoiceMode = ""
	// ToolChoiceAuto lets the model decide whether to call a tool.
	ToolChoiceAuto ToolChoiceMode = "auto"
	// ToolChoiceRequired forces the model to call some tool.
	ToolChoiceRequired ToolChoiceMode = "required"
	// ToolChoiceNone disables tool calls for the request.
	ToolChoiceNone ToolChoiceMode = "none"
	// ToolChoiceFunction forces a call to the named tool.
	ToolChoiceFunction ToolChoiceMode = "function"
)

// ToolChoice selects which tool, if any, the model must call.
// Name is meaningful only when Mode is ToolChoiceFunction.
type ToolChoice struct {
	Mode ToolChoiceMode
	Name string
}

// ToolProtocol selects how tool definitions reach the model.
type ToolProtocol string

const (
	// ToolProtocolNative uses the provider's function-calling API.
	ToolProtocolNative ToolProtocol = "native"
	// ToolProtocolXML keeps tools out of the request payload; the caller
	// embeds tool instructions in the prompt instead.
	ToolProtocolXML ToolProtocol = "xml"
)

// ToolDefinition describes one callable tool. Parameters is a JSON
// schema. External marks tools sourced outside the application (MCP
// servers and the like) whose schemas cannot be guaranteed to satisfy
// strict mode.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	External    bool           `json:"external,omitempty"`
}

// ReasoningEffort controls how much reasoning a model spends per request.
type ReasoningEffort string

const (
	ReasoningMinimal ReasoningEffort = "minimal"
	ReasoningLow     ReasoningEffort = "low"
	ReasoningMedium  ReasoningEffort = "medium"
	ReasoningHigh    ReasoningEffort = "high"
)

// CallOptions is the optional per-request metadata for CreateMessage.
// A nil *CallOptions is a plain text request with no tools.
type CallOptions struct {
	Tools             []ToolDefinition
	ToolChoice        ToolChoice
	ToolProtocol      ToolProtocol
	ParallelToolCalls bool

	// ReasoningEffort overrides the model's default effort when the
	// model supports it. Empty means use the default.
	ReasoningEffort ReasoningEffort

	// SendMaxTokens opts into sending the model's max output tokens in
	// the request; most callers leave the server default in place.
	SendMaxTokens bool
}

// nativeToolsEligible reports whether the request should carry a native
// tools array: the model must support native calls, the caller must not
// have opted out (none policy or the XML protocol), and there must be at
// least one tool to send.
func (o *CallOptions) nativeToolsEligible(info ModelInfo) bool {
	if o == nil || len(o.Tools) == 0 {
		return false
	}
	if !info.SupportsNativeTools {
		return false
	}
	if o.ToolProtocol == ToolProtocolXML {
		return false
	}
	return o.ToolChoice.Mode != ToolChoiceNone
}
