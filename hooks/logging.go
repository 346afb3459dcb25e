package hooks

import (
	"context"
	"log"

	"github.com/youssefsiam38/agentctx/audit"
	"github.com/youssefsiam38/agentctx/types"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// Register attaches every logging hook to r
func (h *LoggingHooks) Register(r *Registry) {
	r.OnBeforeRequest(h.BeforeRequest)
	r.OnSummaryUpdated(h.SummaryUpdated)
	r.OnSummaryFailed(h.SummaryFailed)
}

// BeforeRequest logs the size of the forwarded request
func (h *LoggingHooks) BeforeRequest(ctx context.Context, req Request) error {
	h.logger.Printf("[agentctx] LLM req messages=%d toolResults=%d model=%s",
		len(req.Context.Messages), countToolResults(req.Context.Messages), req.Model.ID)
	return nil
}

// SummaryUpdated logs a summary update
func (h *LoggingHooks) SummaryUpdated(ctx context.Context, event audit.Event) error {
	h.logger.Printf("[agentctx] SUMMARY_OK compressedRounds=%d remainingMessages=%d totalRounds=%d session=%s",
		event.CompressedRounds, event.RemainingMessages, event.TotalRounds, orDash(event.Tags.SessionID))
	return nil
}

// SummaryFailed logs a failed summarization
func (h *LoggingHooks) SummaryFailed(ctx context.Context, event audit.Event) error {
	h.logger.Printf("[agentctx] SUMMARY_FAIL pendingRounds=%d totalRounds=%d session=%s error=%s",
		event.PendingRounds, event.TotalRounds, orDash(event.Tags.SessionID), event.Error)
	return nil
}

func countToolResults(messages []*types.Message) int {
	n := 0
	for _, msg := range messages {
		if msg != nil && msg.Role == types.RoleToolResult {
			n++
		}
	}
	return n
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
