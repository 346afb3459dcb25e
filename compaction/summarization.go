package compaction

import (
	"context"
	"fmt"
	"time"

	"github.com/youssefsiam38/agentctx/llm"
	"github.com/youssefsiam38/agentctx/types"
)

// Summarizer folds tool rounds into a running summary through the same
// completion interface the agent uses.
type Summarizer struct {
	streamer      llm.Streamer
	inputMaxChars int
	maxTokens     int
	now           func() time.Time
}

// NewSummarizer creates a new Summarizer with the given streamer and limits.
func NewSummarizer(streamer llm.Streamer, inputMaxChars, maxTokens int) *Summarizer {
	return &Summarizer{
		streamer:      streamer,
		inputMaxChars: inputMaxChars,
		maxTokens:     maxTokens,
		now:           time.Now,
	}
}

// Summarize returns previousSummary updated with rounds. It fails if the
// response has no text, so an empty summary never replaces context.
func (s *Summarizer) Summarize(
	ctx context.Context,
	model llm.Model,
	opts llm.Options,
	rounds []ToolRound,
	previousSummary string,
) (string, error) {
	if len(rounds) == 0 {
		return "", ErrNoRounds
	}

	serialized := SerializeToolRounds(rounds, s.inputMaxChars)

	req := llm.Context{
		SystemPrompt: SummarySystemPrompt,
		Messages: []*types.Message{
			{
				Role:      types.RoleUser,
				Content:   []types.ContentBlock{{Type: types.ContentTypeText, Text: BuildSummaryPrompt(serialized, previousSummary)}},
				CreatedAt: s.now(),
			},
		},
		Tools: []llm.Tool{},
	}

	stream, err := s.streamer.Stream(ctx, model, req, s.summaryOptions(opts))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}
	response, err := stream.Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}

	summary := llm.AssistantText(response)
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

// summaryOptions derives deterministic, tool-free options from the caller's.
func (s *Summarizer) summaryOptions(opts llm.Options) llm.Options {
	out := opts
	out.Temperature = llm.Float(0)
	out.MaxTokens = s.maxTokens
	if opts.MaxTokens > 0 {
		out.MaxTokens = min(opts.MaxTokens, s.maxTokens)
	}
	out.OnPayload = nil
	out.ToolChoice = llm.ToolChoiceNone
	return out
}
