package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/youssefsiam38/agentctx/types"
)

// TraceSnapshot is the last request seen by a TraceWriter. It is written as
// indented JSON so a developer can inspect exactly what was forwarded.
type TraceSnapshot struct {
	Stage        string           `json:"stage"`
	Timestamp    time.Time        `json:"ts"`
	Provider     string           `json:"provider"`
	ModelID      string           `json:"modelId"`
	SessionKey   string           `json:"sessionKey"`
	SystemPrompt string           `json:"system,omitempty"`
	MessageCount int              `json:"messageCount"`
	MessageRoles []types.Role     `json:"messageRoles"`
	Messages     []*types.Message `json:"messages"`
}

// TraceStats are the running per-request and cumulative counters.
type TraceStats struct {
	Requests         int
	Messages         int
	ToolResults      int
	TotalMessages    int
	TotalToolResults int
}

// RequestToolResultPct is the share of toolResult messages in the last request.
func (s TraceStats) RequestToolResultPct() float64 {
	return pct(s.ToolResults, s.Messages)
}

// TotalToolResultPct is the share of toolResult messages across all requests.
func (s TraceStats) TotalToolResultPct() float64 {
	return pct(s.TotalToolResults, s.TotalMessages)
}

func pct(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

// Logger is the logging interface used by TraceWriter.
type Logger interface {
	Warn(msg string, args ...any)
}

// TraceWriter tracks how much of each forwarded request is tool output. It
// prints one CACHE_TRACE line per request and, when SnapshotPath is set,
// atomically replaces a JSON snapshot of the latest request.
type TraceWriter struct {
	mu           sync.Mutex
	out          io.Writer
	snapshotPath string
	logger       Logger
	now          func() time.Time

	stats        TraceStats
	lastWriteErr string
}

// NewTraceWriter creates a TraceWriter printing to out. An empty snapshotPath
// disables the snapshot file.
func NewTraceWriter(out io.Writer, snapshotPath string, logger Logger) *TraceWriter {
	if out == nil {
		out = io.Discard
	}
	return &TraceWriter{
		out:          out,
		snapshotPath: snapshotPath,
		logger:       logger,
		now:          time.Now,
	}
}

// Register attaches the trace hook to r
func (w *TraceWriter) Register(r *Registry) {
	r.OnBeforeRequest(w.BeforeRequest)
}

// Stats returns the current counters
func (w *TraceWriter) Stats() TraceStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// BeforeRequest records one forwarded request
func (w *TraceWriter) BeforeRequest(ctx context.Context, req Request) error {
	messages := req.Context.Messages
	roles := make([]types.Role, 0, len(messages))
	for _, msg := range messages {
		if msg != nil {
			roles = append(roles, msg.Role)
		}
	}
	toolResults := countToolResults(messages)

	w.mu.Lock()
	defer w.mu.Unlock()

	snap := TraceSnapshot{
		Stage:        "stream:context",
		Timestamp:    w.now().UTC(),
		Provider:     req.Model.Provider,
		ModelID:      req.Model.ID,
		SessionKey:   req.Tags.SessionID,
		SystemPrompt: req.Context.SystemPrompt,
		MessageCount: len(messages),
		MessageRoles: roles,
		Messages:     messages,
	}
	w.writeSnapshot(snap)

	w.stats.Requests++
	w.stats.Messages = len(messages)
	w.stats.ToolResults = toolResults
	w.stats.TotalMessages += len(messages)
	w.stats.TotalToolResults += toolResults

	fmt.Fprintf(w.out,
		"INFO CACHE_TRACE req=%d messages=%d toolResult=%d reqToolResultPct=%.1f%% "+
			"totalMessages=%d totalToolResult=%d totalToolResultPct=%.1f%% "+
			"provider=%s model=%s session=%s ts=%s\n",
		w.stats.Requests, w.stats.Messages, w.stats.ToolResults, w.stats.RequestToolResultPct(),
		w.stats.TotalMessages, w.stats.TotalToolResults, w.stats.TotalToolResultPct(),
		orDash(snap.Provider), orDash(snap.ModelID), orDash(snap.SessionKey),
		snap.Timestamp.Format(time.RFC3339Nano),
	)
	return nil
}

// writeSnapshot must be called with mu held. A failure is logged once per
// distinct error message.
func (w *TraceWriter) writeSnapshot(snap TraceSnapshot) {
	if w.snapshotPath == "" {
		return
	}
	if err := writeFileAtomic(w.snapshotPath, snap); err != nil {
		msg := err.Error()
		if msg != w.lastWriteErr {
			if w.logger != nil {
				w.logger.Warn("failed to write trace snapshot", "path", w.snapshotPath, "error", msg)
			}
			w.lastWriteErr = msg
		}
		return
	}
	w.lastWriteErr = ""
}

// writeFileAtomic writes v as indented JSON to a temp file next to path and
// renames it into place, so readers never see a partial snapshot.
func writeFileAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
