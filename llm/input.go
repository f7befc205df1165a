// Conversation formatters - internal messages to protocol input shapes.
//
// Both formatters are pure functions of the message list. A single
// source message may expand into several wire items; their relative
// order always matches source order, since neither protocol has a
// secondary ordering signal.

package llm

import (
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// toChatMessages flattens the conversation into the chat protocol's flat
// message list, with the system prompt prepended. Tool results become
// separate role:tool entries and assistant tool uses become tool_calls
// on the assistant message.
func toChatMessages(systemPrompt string, messages []Message) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	if systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}

	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant}
			for _, b := range m.Blocks {
				switch b.Type {
				case BlockText:
					msg.Content += b.Text
				case BlockToolUse:
					msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
						ID:   b.ToolID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      b.ToolName,
							Arguments: argumentsOrEmpty(b),
						},
					})
				}
			}
			out = append(out, msg)
		default:
			var text string
			flush := func() {
				if text != "" {
					out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})
					text = ""
				}
			}
			for _, b := range m.Blocks {
				switch b.Type {
				case BlockText:
					text += b.Text
				case BlockToolResult:
					flush()
					out = append(out, openai.ChatCompletionMessage{
						Role:       openai.ChatMessageRoleTool,
						ToolCallID: b.ToolID,
						Content:    flattenResult(b.Result),
					})
				}
			}
			flush()
		}
	}
	return out
}

// toResponsesInput maps the conversation into the responses protocol's
// positional input items. Role-bearing content and tool call/result
// items are emitted as separate top-level entries.
func toResponsesInput(messages []Message) []responsesInputItem {
	var items []responsesInputItem
	for _, m := range messages {
		var parts []responsesContentPart
		flush := func() {
			if len(parts) > 0 {
				items = append(items, responsesInputItem{Type: "message", Role: m.Role, Content: parts})
				parts = nil
			}
		}

		for _, b := range m.Blocks {
			switch b.Type {
			case BlockText:
				partType := "input_text"
				if m.Role == RoleAssistant {
					partType = "output_text"
				}
				parts = append(parts, responsesContentPart{Type: partType, Text: b.Text})
			case BlockImage:
				url := b.URL
				if b.Data != "" {
					url = "data:" + b.MediaType + ";base64," + b.Data
				}
				parts = append(parts, responsesContentPart{Type: "input_image", ImageURL: url})
			case BlockToolUse:
				flush()
				items = append(items, responsesInputItem{
					Type:      "function_call",
					CallID:    sanitizeCallID(b.ToolID),
					Name:      b.ToolName,
					Arguments: argumentsOrEmpty(b),
				})
			case BlockToolResult:
				flush()
				items = append(items, responsesInputItem{
					Type:   "function_call_output",
					CallID: sanitizeCallID(b.ToolID),
					Output: flattenResult(b.Result),
				})
			}
		}
		flush()
	}
	return items
}

// flattenResult concatenates the text blocks of a tool result; non-text
// blocks carry no representation on these protocols and are dropped.
func flattenResult(blocks []ContentBlock) string {
	var b strings.Builder
	for _, blk := range blocks {
		if blk.Type == BlockText {
			b.WriteString(blk.Text)
		}
	}
	return b.String()
}

// sanitizeCallID strips whitespace from a call id. Histories replayed
// from other protocols occasionally carry ids the responses endpoint
// rejects.
func sanitizeCallID(id string) string {
	return strings.Join(strings.Fields(id), "_")
}

func argumentsOrEmpty(b ContentBlock) string {
	if len(b.Input) == 0 {
		return "{}"
	}
	return string(b.Input)
}
