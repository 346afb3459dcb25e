package testutil

import (
	"fmt"

	"github.com/youssefsiam38/agentctx/types"
)

// AssistantToolCall builds an assistant message with optional text and one
// toolCall block per call ID.
func AssistantToolCall(text string, callIDs ...string) *types.Message {
	msg := &types.Message{Role: types.RoleAssistant}
	if text != "" {
		msg.Content = append(msg.Content, types.ContentBlock{Type: types.ContentTypeText, Text: text})
	}
	for _, id := range callIDs {
		msg.Content = append(msg.Content, types.ContentBlock{
			Type:       types.ContentTypeToolCall,
			ToolCallID: id,
			ToolName:   "exec",
			Arguments:  map[string]any{"cmd": "run " + id},
		})
	}
	return msg
}

// AssistantText builds a text-only assistant message.
func AssistantText(text string) *types.Message {
	return &types.Message{
		Role:    types.RoleAssistant,
		Content: []types.ContentBlock{{Type: types.ContentTypeText, Text: text}},
	}
}

// ToolRounds builds a conversation of a user prompt followed by n rounds,
// each an assistant tool call plus one toolResult.
func ToolRounds(n int) []*types.Message {
	msgs := []*types.Message{types.NewUserText("start")}
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("call-%d", i)
		msgs = append(msgs,
			AssistantToolCall(fmt.Sprintf("step %d", i), id),
			types.NewToolResult(id, "exec", fmt.Sprintf("output %d", i), false),
		)
	}
	return msgs
}
