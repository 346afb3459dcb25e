package compaction

import "github.com/youssefsiam38/agentctx/types"

// PruneRounds returns messages without the first count rounds. Order is kept
// and no message outside those rounds is dropped. The input is not modified.
func PruneRounds(messages []*types.Message, rounds []ToolRound, count int) []*types.Message {
	count = min(count, len(rounds))
	if count <= 0 {
		return messages
	}

	drop := make(map[int]struct{})
	for _, round := range rounds[:count] {
		for idx := round.Start; idx < round.End; idx++ {
			drop[idx] = struct{}{}
		}
	}

	kept := make([]*types.Message, 0, len(messages)-len(drop))
	for idx, msg := range messages {
		if _, ok := drop[idx]; !ok {
			kept = append(kept, msg)
		}
	}
	return kept
}
