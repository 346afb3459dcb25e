package llm

import (
	"strings"

	"github.com/youssefsiam38/agentctx/types"
)

// AssistantText joins the text blocks of msg with newlines and trims the
// result. It returns "" for a nil message or one without text.
func AssistantText(msg *types.Message) string {
	if msg == nil {
		return ""
	}
	var parts []string
	for _, block := range msg.Content {
		if block.Type == types.ContentTypeText {
			parts = append(parts, block.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
