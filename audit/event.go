// Package audit records compaction outcomes.
//
// Every summarization attempt made by the compaction engine produces at most
// one Event: summary_updated when a new summary backed a prune, summary_failed
// when the summarization call errored or came back empty. Events are
// immutable and append-only; recorders are best-effort and never report
// failures back to the request path.
package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType discriminates the two record shapes.
type EventType string

const (
	// TypeSummaryUpdated records a successful summary update.
	TypeSummaryUpdated EventType = "summary_updated"

	// TypeSummaryFailed records a failed summarization attempt.
	TypeSummaryFailed EventType = "summary_failed"
)

// Tags identify the run an event belongs to. They are used for diagnostics only.
type Tags struct {
	RunID     string `json:"runId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Provider  string `json:"provider,omitempty"`
	ModelID   string `json:"modelId,omitempty"`
}

// LogArgs returns the tags as slog-style key/value pairs, with "unknown" for
// unset values.
func (t Tags) LogArgs() []any {
	return []any{
		"run_id", orUnknown(t.RunID),
		"session_id", orUnknown(t.SessionID),
		"provider", orUnknown(t.Provider),
		"model", orUnknown(t.ModelID),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Event is a single audit record.
type Event struct {
	// ID is assigned by durable stores; it is not part of the file format.
	ID string

	Type      EventType
	Timestamp time.Time

	// summary_updated fields
	CompressedRounds  int
	RemainingMessages int

	// summary_failed fields
	PendingRounds int
	Error         string

	TotalRounds int

	Tags Tags
}

// NewSummaryUpdated creates a summary_updated event.
func NewSummaryUpdated(at time.Time, compressedRounds, remainingMessages, totalRounds int, tags Tags) Event {
	return Event{
		Type:              TypeSummaryUpdated,
		Timestamp:         at.UTC(),
		CompressedRounds:  compressedRounds,
		RemainingMessages: remainingMessages,
		TotalRounds:       totalRounds,
		Tags:              tags,
	}
}

// NewSummaryFailed creates a summary_failed event.
func NewSummaryFailed(at time.Time, pendingRounds, totalRounds int, err error, tags Tags) Event {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Event{
		Type:          TypeSummaryFailed,
		Timestamp:     at.UTC(),
		PendingRounds: pendingRounds,
		TotalRounds:   totalRounds,
		Error:         msg,
		Tags:          tags,
	}
}

type summaryUpdatedRecord struct {
	Type              EventType `json:"type"`
	Timestamp         time.Time `json:"timestamp"`
	CompressedRounds  int       `json:"compressedRounds"`
	RemainingMessages int       `json:"remainingMessages"`
	TotalRounds       int       `json:"totalRounds"`
	Tags
}

type summaryFailedRecord struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	PendingRounds int       `json:"pendingRounds"`
	TotalRounds   int       `json:"totalRounds"`
	Error         string    `json:"error"`
	Tags
}

// anyRecord is the union of both shapes, used for decoding.
type anyRecord struct {
	Type              EventType `json:"type"`
	Timestamp         time.Time `json:"timestamp"`
	CompressedRounds  int       `json:"compressedRounds"`
	RemainingMessages int       `json:"remainingMessages"`
	PendingRounds     int       `json:"pendingRounds"`
	TotalRounds       int       `json:"totalRounds"`
	Error             string    `json:"error"`
	Tags
}

// MarshalJSON encodes the event in the shape matching its type.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case TypeSummaryUpdated:
		return json.Marshal(summaryUpdatedRecord{
			Type:              e.Type,
			Timestamp:         e.Timestamp,
			CompressedRounds:  e.CompressedRounds,
			RemainingMessages: e.RemainingMessages,
			TotalRounds:       e.TotalRounds,
			Tags:              e.Tags,
		})
	case TypeSummaryFailed:
		return json.Marshal(summaryFailedRecord{
			Type:          e.Type,
			Timestamp:     e.Timestamp,
			PendingRounds: e.PendingRounds,
			TotalRounds:   e.TotalRounds,
			Error:         e.Error,
			Tags:          e.Tags,
		})
	default:
		return nil, fmt.Errorf("unknown audit event type %q", e.Type)
	}
}

// UnmarshalJSON decodes either record shape.
func (e *Event) UnmarshalJSON(data []byte) error {
	var rec anyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.Type != TypeSummaryUpdated && rec.Type != TypeSummaryFailed {
		return fmt.Errorf("unknown audit event type %q", rec.Type)
	}
	*e = Event{
		ID:                e.ID,
		Type:              rec.Type,
		Timestamp:         rec.Timestamp,
		CompressedRounds:  rec.CompressedRounds,
		RemainingMessages: rec.RemainingMessages,
		PendingRounds:     rec.PendingRounds,
		TotalRounds:       rec.TotalRounds,
		Error:             rec.Error,
		Tags:              rec.Tags,
	}
	return nil
}
