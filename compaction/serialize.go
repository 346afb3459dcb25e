package compaction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/youssefsiam38/agentctx/types"
)

const (
	assistantTextMaxChars = 360
	toolArgsMaxChars      = 260
	toolResultMaxChars    = 420

	truncationMarker = "...[truncated]"
)

// truncateText limits value to maxChars runes. A cut value ends with
// "...[truncated]" and the result, marker included, is never longer than
// maxChars.
func truncateText(value string, maxChars int) string {
	runes := []rune(value)
	if len(runes) <= maxChars {
		return value
	}
	if maxChars <= len(truncationMarker) {
		return string(runes[:max(0, maxChars)])
	}
	return string(runes[:maxChars-len(truncationMarker)]) + truncationMarker
}

// SerializeToolRounds renders rounds as plain text for the summarizer. Rounds
// are numbered from 1 in the order given and the result is limited to
// maxChars runes.
func SerializeToolRounds(rounds []ToolRound, maxChars int) string {
	var lines []string
	for idx, round := range rounds {
		lines = append(lines, fmt.Sprintf("Round %d:", idx+1))

		var assistant *types.Message
		if len(round.Messages) > 0 {
			assistant = round.Messages[0]
		}
		if text := assistantRoundText(assistant); text != "" {
			lines = append(lines, "assistant: "+truncateText(text, assistantTextMaxChars))
		}
		if assistant != nil {
			for _, call := range assistant.ToolCalls() {
				args := truncateText(marshalArguments(call.Arguments), toolArgsMaxChars)
				lines = append(lines, fmt.Sprintf("toolCall %s(%s) id=%s", call.ToolName, args, call.ToolCallID))
			}
		}
		for _, msg := range round.Messages[min(1, len(round.Messages)):] {
			if line := serializeToolResult(msg); line != "" {
				lines = append(lines, line)
			}
		}
		lines = append(lines, "")
	}
	return truncateText(strings.TrimSpace(strings.Join(lines, "\n")), maxChars)
}

func assistantRoundText(msg *types.Message) string {
	if msg == nil {
		return ""
	}
	var parts []string
	for _, block := range msg.Content {
		if block.Type == types.ContentTypeText && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func serializeToolResult(msg *types.Message) string {
	if msg == nil || msg.Role != types.RoleToolResult {
		return ""
	}
	var parts []string
	for _, block := range msg.Content {
		switch block.Type {
		case types.ContentTypeText:
			if block.Text != "" {
				parts = append(parts, block.Text)
			}
		case types.ContentTypeImage:
			parts = append(parts, "[image]")
		}
	}
	text := strings.Join(parts, "\n")
	if text == "" {
		text = "(no text)"
	}
	status := "ok"
	if msg.IsError {
		status = "error"
	}
	return fmt.Sprintf("toolResult %s (%s): %s", msg.ToolName, status, truncateText(text, toolResultMaxChars))
}

// marshalArguments renders tool arguments as compact JSON without HTML
// escaping. Nil or unencodable arguments render as "{}". Keys come out
// sorted; a map does not keep the order the model sent them in.
func marshalArguments(args map[string]any) string {
	if args == nil {
		return "{}"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(args); err != nil {
		return "{}"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
