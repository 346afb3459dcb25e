package compaction

import (
	"testing"

	"github.com/youssefsiam38/agentctx/internal/testutil"
	"github.com/youssefsiam38/agentctx/types"
)

func TestPruneRounds(t *testing.T) {
	messages := testutil.ToolRounds(4)
	messages = append(messages, testutil.AssistantText("done"))
	rounds := CollectToolRounds(messages)

	tests := []struct {
		name  string
		count int
		want  []*types.Message
	}{
		{"zero", 0, messages},
		{"negative", -1, messages},
		{"two", 2, append([]*types.Message{messages[0]}, messages[5:]...)},
		{"more than available", 10, []*types.Message{messages[0], messages[9]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PruneRounds(messages, rounds, tt.count)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d messages, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("message %d differs", i)
				}
			}
		})
	}
}

func TestPruneRounds_DoesNotModifyInput(t *testing.T) {
	messages := testutil.ToolRounds(3)
	original := append([]*types.Message(nil), messages...)

	PruneRounds(messages, CollectToolRounds(messages), 2)

	for i := range messages {
		if messages[i] != original[i] {
			t.Fatalf("input slice modified at %d", i)
		}
	}
}

func TestPruneRounds_KeepsInterleavedMessages(t *testing.T) {
	user := types.NewUserText("between")
	messages := []*types.Message{
		testutil.AssistantToolCall("", "a"),
		types.NewToolResult("a", "exec", "ok", false),
		user,
		testutil.AssistantToolCall("", "b"),
		types.NewToolResult("b", "exec", "ok", false),
	}

	got := PruneRounds(messages, CollectToolRounds(messages), 2)
	if len(got) != 1 || got[0] != user {
		t.Errorf("expected only the user message to remain, got %d messages", len(got))
	}
}
