// Package streaming turns Anthropic server-sent events into a types.Message.
package streaming

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/youssefsiam38/agentctx/types"
)

// Accumulator accumulates streaming events into a complete message
type Accumulator struct {
	messageID  string
	model      string
	stopReason string
	usage      types.Usage

	// Internal state for building content blocks, keyed by stream index
	blocks map[int]*contentBlock
}

// contentBlock is a content block being accumulated
type contentBlock struct {
	typ     types.ContentType
	index   int
	stopped bool

	// Text content
	text strings.Builder

	// Tool call content
	toolID    string
	toolName  string
	toolInput strings.Builder
}

// NewAccumulator creates a new stream accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		blocks: make(map[int]*contentBlock),
	}
}

// ProcessAnthropicEvent processes an event from the Anthropic streaming API
func (a *Accumulator) ProcessAnthropicEvent(event anthropic.MessageStreamEventUnion) {
	switch e := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		a.messageID = e.Message.ID
		a.model = string(e.Message.Model)
		a.usage.InputTokens = int(e.Message.Usage.InputTokens)
		a.usage.CacheCreationTokens = int(e.Message.Usage.CacheCreationInputTokens)
		a.usage.CacheReadTokens = int(e.Message.Usage.CacheReadInputTokens)

	case anthropic.ContentBlockStartEvent:
		block := &contentBlock{index: int(e.Index)}

		switch content := e.ContentBlock.AsAny().(type) {
		case anthropic.TextBlock:
			block.typ = types.ContentTypeText
			block.text.WriteString(content.Text)

		case anthropic.ToolUseBlock:
			block.typ = types.ContentTypeToolCall
			block.toolID = content.ID
			block.toolName = content.Name

		default:
			// Thinking and server tool blocks carry nothing the history needs
			return
		}

		a.blocks[block.index] = block

	case anthropic.ContentBlockDeltaEvent:
		block, exists := a.blocks[int(e.Index)]
		if !exists {
			return
		}

		switch delta := e.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			block.text.WriteString(delta.Text)

		case anthropic.InputJSONDelta:
			block.toolInput.WriteString(delta.PartialJSON)
		}

	case anthropic.ContentBlockStopEvent:
		if block, exists := a.blocks[int(e.Index)]; exists {
			block.stopped = true
		}

	case anthropic.MessageDeltaEvent:
		a.stopReason = string(e.Delta.StopReason)
		a.usage.OutputTokens = int(e.Usage.OutputTokens)

	default:
		// Ignore unknown events
	}
}

// Message returns the accumulated assistant message.
// This can be called at any time to get the current state; blocks that
// have not stopped yet are left out.
func (a *Accumulator) Message() *types.Message {
	usage := a.usage
	return &types.Message{
		ID:         a.messageID,
		Role:       types.RoleAssistant,
		Content:    a.buildContentBlocks(),
		Usage:      &usage,
		StopReason: a.stopReason,
		Metadata:   map[string]any{"model": a.model},
		CreatedAt:  time.Now(),
	}
}

// buildContentBlocks converts finished blocks to the final format in stream order
func (a *Accumulator) buildContentBlocks() []types.ContentBlock {
	indexes := make([]int, 0, len(a.blocks))
	for idx, block := range a.blocks {
		if block.stopped {
			indexes = append(indexes, idx)
		}
	}
	sort.Ints(indexes)

	blocks := make([]types.ContentBlock, 0, len(indexes))
	for _, idx := range indexes {
		block := a.blocks[idx]
		switch block.typ {
		case types.ContentTypeText:
			blocks = append(blocks, types.ContentBlock{
				Type: types.ContentTypeText,
				Text: block.text.String(),
			})

		case types.ContentTypeToolCall:
			blocks = append(blocks, types.ContentBlock{
				Type:       types.ContentTypeToolCall,
				ToolCallID: block.toolID,
				ToolName:   block.toolName,
				Arguments:  parseToolInput(block.toolInput.String()),
			})
		}
	}

	return blocks
}

// parseToolInput decodes streamed tool input. Empty or invalid input yields
// an empty argument map.
func parseToolInput(raw string) map[string]any {
	input := map[string]any{}
	if raw == "" {
		return input
	}
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return map[string]any{}
	}
	return input
}
