// Package storage persists compaction audit events in PostgreSQL.
//
// Two implementations share one schema: PostgresStore on a pgx pool and
// SQLStore on database/sql with lib/pq. Events are append-only; no store
// method updates or deletes a row.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/youssefsiam38/agentctx/audit"
)

// ErrEventNotFound indicates no audit event has the requested ID.
var ErrEventNotFound = errors.New("audit event not found")

// Store defines the storage interface for audit events
type Store interface {
	// Migrate creates the audit table and indexes if they do not exist.
	Migrate(ctx context.Context) error

	SaveAuditEvent(ctx context.Context, event *audit.Event) error
	SaveAuditEvents(ctx context.Context, events []*audit.Event) error
	GetAuditEvent(ctx context.Context, id string) (*audit.Event, error)
	ListAuditEvents(ctx context.Context, filter AuditFilter) ([]*audit.Event, error)
}

// DefaultListLimit caps ListAuditEvents when the filter sets no limit.
const DefaultListLimit = 100

// AuditFilter narrows ListAuditEvents. Zero fields do not filter.
type AuditFilter struct {
	Types     []audit.EventType
	RunID     string
	SessionID string
	Since     time.Time
	Until     time.Time

	// Limit caps the number of events; zero means DefaultListLimit.
	Limit int

	// Offset skips the newest Offset matches.
	Offset int
}

// Schema creates the audit event table.
const Schema = `
CREATE TABLE IF NOT EXISTS agentctx_audit_events (
	id                 UUID PRIMARY KEY,
	type               TEXT NOT NULL,
	timestamp          TIMESTAMPTZ NOT NULL,
	compressed_rounds  INTEGER NOT NULL DEFAULT 0,
	remaining_messages INTEGER NOT NULL DEFAULT 0,
	pending_rounds     INTEGER NOT NULL DEFAULT 0,
	total_rounds       INTEGER NOT NULL DEFAULT 0,
	error              TEXT NOT NULL DEFAULT '',
	run_id             TEXT NOT NULL DEFAULT '',
	session_id         TEXT NOT NULL DEFAULT '',
	provider           TEXT NOT NULL DEFAULT '',
	model_id           TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS agentctx_audit_events_session_idx
	ON agentctx_audit_events (session_id, timestamp DESC);

CREATE INDEX IF NOT EXISTS agentctx_audit_events_run_idx
	ON agentctx_audit_events (run_id, timestamp DESC);
`

// TableName is the audit event table.
const TableName = "agentctx_audit_events"

const insertEventQuery = `
	INSERT INTO agentctx_audit_events (id, type, timestamp, compressed_rounds, remaining_messages,
	                                   pending_rounds, total_rounds, error, run_id, session_id,
	                                   provider, model_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
`

const selectEventColumns = `
	SELECT id, type, timestamp, compressed_rounds, remaining_messages, pending_rounds,
	       total_rounds, error, run_id, session_id, provider, model_id
	FROM agentctx_audit_events
`

// insertArgs returns the positional arguments of insertEventQuery.
func insertArgs(event *audit.Event) []any {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return []any{
		event.ID,
		string(event.Type),
		ts,
		event.CompressedRounds,
		event.RemainingMessages,
		event.PendingRounds,
		event.TotalRounds,
		event.Error,
		event.Tags.RunID,
		event.Tags.SessionID,
		event.Tags.Provider,
		event.Tags.ModelID,
	}
}

func validateEvent(event *audit.Event) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	if event.ID == "" {
		return fmt.Errorf("event id is required")
	}
	switch event.Type {
	case audit.TypeSummaryUpdated, audit.TypeSummaryFailed:
		return nil
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}

// scanner is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*audit.Event, error) {
	var event audit.Event
	var eventType string
	err := row.Scan(
		&event.ID,
		&eventType,
		&event.Timestamp,
		&event.CompressedRounds,
		&event.RemainingMessages,
		&event.PendingRounds,
		&event.TotalRounds,
		&event.Error,
		&event.Tags.RunID,
		&event.Tags.SessionID,
		&event.Tags.Provider,
		&event.Tags.ModelID,
	)
	if err != nil {
		return nil, err
	}
	event.Type = audit.EventType(eventType)
	event.Timestamp = event.Timestamp.UTC()
	return &event, nil
}

// buildListQuery renders the filtered select. arrayArg converts the type
// filter into a driver-specific array parameter.
func buildListQuery(filter AuditFilter, arrayArg func([]string) any) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		add("type = ANY($%d)", arrayArg(types))
	}
	if filter.RunID != "" {
		add("run_id = $%d", filter.RunID)
	}
	if filter.SessionID != "" {
		add("session_id = $%d", filter.SessionID)
	}
	if !filter.Since.IsZero() {
		add("timestamp >= $%d", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("timestamp < $%d", filter.Until)
	}

	var b strings.Builder
	b.WriteString(selectEventColumns)
	if len(conds) > 0 {
		b.WriteString("\tWHERE ")
		b.WriteString(strings.Join(conds, " AND "))
		b.WriteString("\n")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit)
	fmt.Fprintf(&b, "\tORDER BY timestamp DESC, created_at DESC\n\tLIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}
