// Conversation representation shared by all providers.
//
// A message is an ordered list of typed content blocks rather than a bare
// string: a single source message can carry answer text, images, tool
// invocations and tool results, and each provider formatter expands it
// into however many wire items its protocol needs.

package llm

import "encoding/json"

// Role constants for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// BlockType identifies the kind of a content block.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one typed unit of message content.
type ContentBlock struct {
	Type BlockType `json:"type"`

	// BlockText
	Text string `json:"text,omitempty"`

	// BlockImage: either a base64 payload with its media type, or a
	// remote URL. Data wins when both are set.
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`

	// BlockToolUse
	ToolID   string          `json:"tool_id,omitempty"`
	ToolName string          `json:"tool_name,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`

	// BlockToolResult: ToolID names the call being answered; Result
	// holds the result content (text blocks are kept, the rest is
	// dropped when a protocol needs flat text).
	Result []ContentBlock `json:"result,omitempty"`
}

// Message is a single conversation turn.
type Message struct {
	Role   string         `json:"role"`
	Blocks []ContentBlock `json:"blocks"`
}

// UserText builds a user message with a single text block.
func UserText(text string) Message {
	return Message{Role: RoleUser, Blocks: []ContentBlock{{Type: BlockText, Text: text}}}
}

// AssistantText builds an assistant message with a single text block.
func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Blocks: []ContentBlock{{Type: BlockText, Text: text}}}
}

// Text concatenates the message's text blocks.
func (m Message) Text() string {
	var out string
	for _, b := range m.Blocks {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}
