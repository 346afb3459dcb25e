package types

import (
	"time"
)

// Role represents the message role
type Role string

const (
	// RoleUser represents a user message
	RoleUser Role = "user"

	// RoleAssistant represents an assistant message
	RoleAssistant Role = "assistant"

	// RoleToolResult represents the result of a single tool invocation
	RoleToolResult Role = "toolResult"

	// RoleSystem represents a system message
	RoleSystem Role = "system"
)

// Message represents a conversation message.
//
// Tool results are carried as their own messages (Role == RoleToolResult)
// that answer the tool call identified by ToolCallID.
type Message struct {
	ID      string         `json:"id,omitempty"`
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`

	// Tool result fields, set only when Role == RoleToolResult
	ToolCallID string `json:"toolCallId,omitempty"`
	ToolName   string `json:"toolName,omitempty"`
	IsError    bool   `json:"isError,omitempty"`

	Usage      *Usage         `json:"usage,omitempty"`
	StopReason string         `json:"stopReason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"timestamp"`
}

// HasToolCalls reports whether the message is an assistant turn carrying at
// least one tool-call block. A nil message never has tool calls.
func (m *Message) HasToolCalls() bool {
	if m == nil || m.Role != RoleAssistant {
		return false
	}
	for _, block := range m.Content {
		if block.Type == ContentTypeToolCall {
			return true
		}
	}
	return false
}

// ToolCalls returns the tool-call blocks of the message in order.
func (m *Message) ToolCalls() []ContentBlock {
	if m == nil {
		return nil
	}
	var calls []ContentBlock
	for _, block := range m.Content {
		if block.Type == ContentTypeToolCall {
			calls = append(calls, block)
		}
	}
	return calls
}

// ContentType represents the type of content block
type ContentType string

const (
	// ContentTypeText represents text content
	ContentTypeText ContentType = "text"

	// ContentTypeToolCall represents a tool invocation issued by the assistant
	ContentTypeToolCall ContentType = "toolCall"

	// ContentTypeImage represents an image block
	ContentTypeImage ContentType = "image"
)

// ContentBlock represents a piece of content in a message
type ContentBlock struct {
	Type ContentType `json:"type"`

	// Text content
	Text string `json:"text,omitempty"`

	// Tool call content
	ToolCallID string         `json:"id,omitempty"`
	ToolName   string         `json:"name,omitempty"`
	Arguments  map[string]any `json:"arguments,omitempty"`

	// Image content
	ImageSource *ImageSource `json:"source,omitempty"`
}

// ImageSource represents an image source
type ImageSource struct {
	Type      string `json:"type"`       // "base64" or "url"
	MediaType string `json:"media_type"` // "image/jpeg", "image/png", etc.
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Usage represents token usage information
type Usage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// NewUserText creates a user message with a single text block.
func NewUserText(text string) *Message {
	return &Message{
		Role:      RoleUser,
		Content:   []ContentBlock{{Type: ContentTypeText, Text: text}},
		CreatedAt: time.Now(),
	}
}

// NewToolResult creates a toolResult message answering the given tool call.
func NewToolResult(toolCallID, toolName, text string, isError bool) *Message {
	return &Message{
		Role:       RoleToolResult,
		Content:    []ContentBlock{{Type: ContentTypeText, Text: text}},
		ToolCallID: toolCallID,
		ToolName:   toolName,
		IsError:    isError,
		CreatedAt:  time.Now(),
	}
}
