package chat

import "strings"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType identifies the kind of a content block. Only text blocks are
// rendered; tool blocks are recognized so they can be filtered out.
type BlockType string

const (
	BlockText        BlockType = "text"
	BlockToolUse     BlockType = "tool_use"
	BlockToolResults BlockType = "tool_results"
)

// ContentBlock is one typed unit of message content.
type ContentBlock struct {
	Type BlockType `json:"type"`
	Text string    `json:"text,omitempty"`
}

// Message is a single conversational turn. Content is ordered; in practice
// every message this system produces carries exactly one text block, but
// multi-block messages are accepted.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// NewUserMessage wraps text as a user message with a single text block.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{{Type: BlockText, Text: text}}}
}

// NewAssistantMessage wraps text as an assistant message with a single text block.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{{Type: BlockText, Text: text}}}
}

// Text concatenates the message's text blocks, skipping tool blocks.
func (m Message) Text() string {
	var b strings.Builder
	for _, c := range m.Content {
		if c.Type == BlockText {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}
