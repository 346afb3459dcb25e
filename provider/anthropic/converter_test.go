package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/youssefsiam38/agentctx/internal/testutil"
	"github.com/youssefsiam38/agentctx/llm"
	"github.com/youssefsiam38/agentctx/types"
)

func TestConvertContentBlock_ToolCallEmptyArguments(t *testing.T) {
	tests := []struct {
		name  string
		block types.ContentBlock
	}{
		{
			name: "nil arguments defaults to empty object",
			block: types.ContentBlock{
				Type:       types.ContentTypeToolCall,
				ToolCallID: "test-id",
				ToolName:   "test_tool",
			},
		},
		{
			name: "arguments preserved",
			block: types.ContentBlock{
				Type:       types.ContentTypeToolCall,
				ToolCallID: "test-id",
				ToolName:   "test_tool",
				Arguments:  map[string]any{"foo": "bar"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := convertContentBlock(tt.block)
			if !ok {
				t.Fatal("expected block to convert")
			}
			if got.OfToolUse == nil {
				t.Fatalf("expected tool use block, got %+v", got)
			}
			if got.OfToolUse.Input == nil {
				t.Error("tool input must never be nil")
			}
		})
	}
}

func TestConvertContentBlock_SkipsEmpty(t *testing.T) {
	if _, ok := convertContentBlock(types.ContentBlock{Type: types.ContentTypeText}); ok {
		t.Error("empty text block should be skipped")
	}
	if _, ok := convertContentBlock(types.ContentBlock{Type: types.ContentTypeImage}); ok {
		t.Error("image without source should be skipped")
	}
}

func TestConvertMessages_ToolResultsMergeIntoUserTurn(t *testing.T) {
	messages := []*types.Message{
		types.NewUserText("start"),
		testutil.AssistantToolCall("two calls", "call-a", "call-b"),
		types.NewToolResult("call-a", "exec", "first", false),
		types.NewToolResult("call-b", "exec", "second", true),
		testutil.AssistantText("done"),
		{Role: types.RoleSystem, Content: []types.ContentBlock{{Type: types.ContentTypeText, Text: "ignored"}}},
		nil,
	}

	params := ConvertMessages(messages)
	if len(params) != 4 {
		t.Fatalf("expected 4 params, got %d", len(params))
	}

	wantRoles := []anthropic.MessageParamRole{
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
		anthropic.MessageParamRoleUser,
		anthropic.MessageParamRoleAssistant,
	}
	for i, want := range wantRoles {
		if params[i].Role != want {
			t.Errorf("params[%d].Role = %s, want %s", i, params[i].Role, want)
		}
	}

	results := params[2].Content
	if len(results) != 2 {
		t.Fatalf("expected 2 tool results in one user turn, got %d", len(results))
	}
	first, second := results[0].OfToolResult, results[1].OfToolResult
	if first == nil || second == nil {
		t.Fatal("expected tool_result blocks")
	}
	if first.ToolUseID != "call-a" || second.ToolUseID != "call-b" {
		t.Errorf("unexpected tool use IDs: %s, %s", first.ToolUseID, second.ToolUseID)
	}
	if !second.IsError.Value {
		t.Error("second result should be marked as error")
	}
	if len(first.Content) != 1 || first.Content[0].OfText == nil || first.Content[0].OfText.Text != "first" {
		t.Errorf("unexpected first result content: %+v", first.Content)
	}
}

func TestConvertMessages_UserTextAfterResultsMerges(t *testing.T) {
	messages := []*types.Message{
		testutil.AssistantToolCall("", "call-a"),
		types.NewToolResult("call-a", "exec", "out", false),
		types.NewUserText("continue"),
	}

	params := ConvertMessages(messages)
	if len(params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(params))
	}
	if len(params[1].Content) != 2 {
		t.Errorf("expected result and text merged, got %d blocks", len(params[1].Content))
	}
}

func TestBuildParams(t *testing.T) {
	tools := []llm.Tool{{
		Name:        "exec",
		Description: "run a command",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"cmd": map[string]any{"type": "string"}},
			"required":   []any{"cmd"},
		},
	}}
	c := llm.Context{
		SystemPrompt: "be brief",
		Messages:     []*types.Message{types.NewUserText("hi")},
		Tools:        tools,
	}

	t.Run("defaults", func(t *testing.T) {
		params := BuildParams(Model("claude-test"), c, llm.Options{})
		if params.MaxTokens != DefaultMaxTokens {
			t.Errorf("MaxTokens = %d, want %d", params.MaxTokens, DefaultMaxTokens)
		}
		if string(params.Model) != "claude-test" {
			t.Errorf("Model = %s", params.Model)
		}
		if len(params.System) != 1 || params.System[0].Text != "be brief" {
			t.Errorf("unexpected system: %+v", params.System)
		}
		if len(params.Tools) != 1 || params.Tools[0].OfTool == nil {
			t.Fatalf("unexpected tools: %+v", params.Tools)
		}
		if got := params.Tools[0].OfTool.InputSchema.Required; len(got) != 1 || got[0] != "cmd" {
			t.Errorf("unexpected required fields: %v", got)
		}
		if params.ToolChoice.OfNone != nil || params.ToolChoice.OfAny != nil {
			t.Error("auto tool choice should leave ToolChoice unset")
		}
	})

	t.Run("options", func(t *testing.T) {
		model := llm.Model{Provider: ProviderName, ID: "claude-test", MaxTokens: 2048}
		params := BuildParams(model, c, llm.Options{
			Temperature: llm.Float(0),
			ToolChoice:  llm.ToolChoiceNone,
		})
		if params.MaxTokens != 2048 {
			t.Errorf("MaxTokens = %d, want model default 2048", params.MaxTokens)
		}
		if !params.Temperature.Valid() || params.Temperature.Value != 0 {
			t.Errorf("expected explicit zero temperature, got %+v", params.Temperature)
		}
		if params.ToolChoice.OfNone == nil {
			t.Error("expected tool choice none")
		}

		params = BuildParams(model, c, llm.Options{MaxTokens: 100})
		if params.MaxTokens != 100 {
			t.Errorf("MaxTokens = %d, want 100", params.MaxTokens)
		}
	})

	t.Run("no tools ignores tool choice", func(t *testing.T) {
		params := BuildParams(Model("claude-test"), llm.Context{Messages: c.Messages}, llm.Options{ToolChoice: llm.ToolChoiceNone})
		if len(params.Tools) != 0 || params.ToolChoice.OfNone != nil {
			t.Error("tool choice must not be sent without tools")
		}
	})
}
