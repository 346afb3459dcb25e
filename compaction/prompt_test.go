package compaction

import (
	"strings"
	"testing"
)

func TestBuildSummaryPrompt(t *testing.T) {
	t.Run("first summary", func(t *testing.T) {
		got := BuildSummaryPrompt("Round 1:\nx", "")
		if !strings.HasPrefix(got, "Summarize these tool execution rounds") {
			t.Errorf("unexpected prompt start: %q", got)
		}
		if !strings.HasSuffix(got, "<tool-rounds>\nRound 1:\nx\n</tool-rounds>") {
			t.Errorf("rounds not wrapped: %q", got)
		}
		if strings.Contains(got, "previous-summary") {
			t.Error("first summary prompt must not reference a previous summary")
		}
	})

	t.Run("merge into previous", func(t *testing.T) {
		got := BuildSummaryPrompt("Round 1:\ny", "  - old fact\n")
		if !strings.HasPrefix(got, "Update the existing tool-history summary with these NEW rounds.") {
			t.Errorf("unexpected prompt start: %q", got)
		}
		if !strings.Contains(got, "<previous-summary>\n- old fact\n</previous-summary>") {
			t.Errorf("previous summary not trimmed and wrapped: %q", got)
		}
		if !strings.HasSuffix(got, "<new-tool-rounds>\nRound 1:\ny\n</new-tool-rounds>") {
			t.Errorf("new rounds not wrapped: %q", got)
		}
	})

	t.Run("blank previous counts as none", func(t *testing.T) {
		got := BuildSummaryPrompt("r", " \n ")
		if !strings.HasPrefix(got, "Summarize these") {
			t.Errorf("blank previous summary should use the first-summary prompt: %q", got)
		}
	})
}

func TestApplySummaryToSystemPrompt(t *testing.T) {
	tests := []struct {
		name   string
		system string
		want   string
	}{
		{
			name:   "no system prompt",
			system: "",
			want:   SummaryHeader + "\n- a",
		},
		{
			name:   "keeps existing prompt above",
			system: "You are helpful.",
			want:   "You are helpful.\n\n" + SummaryHeader + "\n- a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplySummaryToSystemPrompt(tt.system, "- a"); got != tt.want {
				t.Errorf("ApplySummaryToSystemPrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}
