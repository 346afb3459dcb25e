package compaction

import "github.com/youssefsiam38/agentctx/types"

// ToolRound is the half-open range [Start, End) of one assistant message with
// tool calls and the toolResult messages directly after it.
type ToolRound struct {
	Start int
	End   int

	// Messages is messages[Start:End] of the scanned slice.
	Messages []*types.Message
}

// Len returns the number of messages in the round.
func (r ToolRound) Len() int {
	return r.End - r.Start
}

// CollectToolRounds scans messages left to right and returns every tool
// round in order. Nil messages and messages of unknown shape never start or
// extend a round.
func CollectToolRounds(messages []*types.Message) []ToolRound {
	var rounds []ToolRound
	for i := 0; i < len(messages); i++ {
		if !messages[i].HasToolCalls() {
			continue
		}
		end := i + 1
		for end < len(messages) && messages[end] != nil && messages[end].Role == types.RoleToolResult {
			end++
		}
		rounds = append(rounds, ToolRound{
			Start:    i,
			End:      end,
			Messages: messages[i:end:end],
		})
		i = end - 1
	}
	return rounds
}
