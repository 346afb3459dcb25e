// Package anthropic adapts the Anthropic Messages API to llm.Streamer.
package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/youssefsiam38/agentctx/llm"
	"github.com/youssefsiam38/agentctx/types"
)

// DefaultMaxTokens is used when neither the call options nor the model name a
// response ceiling.
const DefaultMaxTokens = 4096

// BuildParams converts a model, context and options into a Messages API request.
func BuildParams(model llm.Model, c llm.Context, opts llm.Options) anthropic.MessageNewParams {
	maxTokens := int64(DefaultMaxTokens)
	if opts.MaxTokens > 0 {
		maxTokens = int64(opts.MaxTokens)
	} else if model.MaxTokens > 0 {
		maxTokens = int64(model.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model.ID),
		MaxTokens: maxTokens,
		Messages:  ConvertMessages(c.Messages),
	}

	if c.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: c.SystemPrompt},
		}
	}

	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}

	// Tool choice is only meaningful when tools are on offer
	if len(c.Tools) > 0 {
		params.Tools = ConvertTools(c.Tools)
		switch opts.ToolChoice {
		case llm.ToolChoiceNone:
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		case llm.ToolChoiceAny:
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
		}
	}

	return params
}

// ConvertTools converts tool descriptors to Anthropic tool parameters
func ConvertTools(tools []llm.Tool) []anthropic.ToolUnionParam {
	unions := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Properties: map[string]any{},
		}
		if props, ok := t.InputSchema["properties"].(map[string]any); ok {
			inputSchema.Properties = props
		}
		if required := requiredFields(t.InputSchema["required"]); len(required) > 0 {
			inputSchema.Required = required
		}

		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			InputSchema: inputSchema,
		}
		if t.Description != "" {
			toolParam.Description = anthropic.String(t.Description)
		}
		unions = append(unions, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return unions
}

func requiredFields(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ConvertMessages converts messages to Anthropic message parameters.
//
// The Messages API has no tool result role: each toolResult message becomes a
// tool_result block on a user turn, and consecutive user turns are merged so
// the results of one round travel together.
func ConvertMessages(messages []*types.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		if msg == nil {
			continue
		}

		var (
			role    anthropic.MessageParamRole
			content []anthropic.ContentBlockParamUnion
		)

		switch msg.Role {
		case types.RoleSystem:
			// System prompt travels separately
			continue

		case types.RoleToolResult:
			role = anthropic.MessageParamRoleUser
			content = []anthropic.ContentBlockParamUnion{convertToolResult(msg)}

		case types.RoleAssistant:
			role = anthropic.MessageParamRoleAssistant
			content = convertContentBlocks(msg.Content)

		default:
			role = anthropic.MessageParamRoleUser
			content = convertContentBlocks(msg.Content)
		}

		if len(content) == 0 {
			continue
		}

		if n := len(params); n > 0 && params[n-1].Role == role && role == anthropic.MessageParamRoleUser {
			params[n-1].Content = append(params[n-1].Content, content...)
			continue
		}

		params = append(params, anthropic.MessageParam{
			Role:    role,
			Content: content,
		})
	}

	return params
}

func convertContentBlocks(blocks []types.ContentBlock) []anthropic.ContentBlockParamUnion {
	out := make([]anthropic.ContentBlockParamUnion, 0, len(blocks))
	for _, block := range blocks {
		if converted, ok := convertContentBlock(block); ok {
			out = append(out, converted)
		}
	}
	return out
}

// convertContentBlock converts a single content block
func convertContentBlock(block types.ContentBlock) (anthropic.ContentBlockParamUnion, bool) {
	switch block.Type {
	case types.ContentTypeText:
		if block.Text == "" {
			// The API rejects empty text blocks
			return anthropic.ContentBlockParamUnion{}, false
		}
		return anthropic.NewTextBlock(block.Text), true

	case types.ContentTypeToolCall:
		// Ensure input is a valid object (API requires a dictionary, not null)
		var input any = block.Arguments
		if block.Arguments == nil {
			input = map[string]any{}
		}
		return anthropic.NewToolUseBlock(block.ToolCallID, input, block.ToolName), true

	case types.ContentTypeImage:
		if block.ImageSource == nil {
			return anthropic.ContentBlockParamUnion{}, false
		}
		switch block.ImageSource.Type {
		case "base64":
			return anthropic.NewImageBlockBase64(block.ImageSource.MediaType, block.ImageSource.Data), true
		case "url":
			return anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: block.ImageSource.URL}), true
		}
	}

	return anthropic.ContentBlockParamUnion{}, false
}

// convertToolResult converts a toolResult message to a tool_result block
func convertToolResult(msg *types.Message) anthropic.ContentBlockParamUnion {
	result := anthropic.NewToolResultBlock(msg.ToolCallID, "", msg.IsError)

	content := make([]anthropic.ToolResultBlockParamContentUnion, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case types.ContentTypeText:
			if block.Text == "" {
				continue
			}
			content = append(content, anthropic.ToolResultBlockParamContentUnion{
				OfText: &anthropic.TextBlockParam{Text: block.Text},
			})

		case types.ContentTypeImage:
			if block.ImageSource == nil || block.ImageSource.Type != "base64" {
				continue
			}
			content = append(content, anthropic.ToolResultBlockParamContentUnion{
				OfImage: &anthropic.ImageBlockParam{
					Source: anthropic.ImageBlockParamSourceUnion{
						OfBase64: &anthropic.Base64ImageSourceParam{
							Data:      block.ImageSource.Data,
							MediaType: anthropic.Base64ImageSourceMediaType(block.ImageSource.MediaType),
						},
					},
				},
			})
		}
	}

	result.OfToolResult.Content = content
	return result
}
