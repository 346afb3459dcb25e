package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/youssefsiam38/agentctx/audit"
	"github.com/youssefsiam38/agentctx/internal/testutil"
)

func newEvents(sessionID string, at time.Time) []*audit.Event {
	tags := audit.Tags{RunID: "run-1", SessionID: sessionID, Provider: "anthropic", ModelID: "claude"}
	updated := audit.NewSummaryUpdated(at, 4, 5, 6, tags)
	updated.ID = uuid.New().String()
	failed := audit.NewSummaryFailed(at.Add(time.Minute), 4, 10, errors.New("rate limited"), tags)
	failed.ID = uuid.New().String()
	return []*audit.Event{&updated, &failed}
}

func exerciseStore(t *testing.T, ctx context.Context, store Store, sessionID string) {
	t.Helper()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	// Migrate is idempotent
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Millisecond)
	events := newEvents(sessionID, at)

	if err := store.SaveAuditEvents(ctx, events); err != nil {
		t.Fatalf("SaveAuditEvents failed: %v", err)
	}

	got, err := store.GetAuditEvent(ctx, events[0].ID)
	if err != nil {
		t.Fatalf("GetAuditEvent failed: %v", err)
	}
	if got.Type != audit.TypeSummaryUpdated || got.CompressedRounds != 4 || got.RemainingMessages != 5 {
		t.Errorf("unexpected event: %+v", got)
	}
	if !got.Timestamp.Equal(at) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, at)
	}

	if _, err := store.GetAuditEvent(ctx, uuid.New().String()); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}

	list, err := store.ListAuditEvents(ctx, AuditFilter{SessionID: sessionID})
	if err != nil {
		t.Fatalf("ListAuditEvents failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 events, got %d", len(list))
	}
	if list[0].Type != audit.TypeSummaryFailed {
		t.Errorf("expected newest first, got %s", list[0].Type)
	}

	failedOnly, err := store.ListAuditEvents(ctx, AuditFilter{
		SessionID: sessionID,
		Types:     []audit.EventType{audit.TypeSummaryFailed},
	})
	if err != nil {
		t.Fatalf("ListAuditEvents failed: %v", err)
	}
	if len(failedOnly) != 1 || failedOnly[0].Error != "rate limited" || failedOnly[0].PendingRounds != 4 {
		t.Errorf("unexpected filtered events: %+v", failedOnly)
	}

	limited, err := store.ListAuditEvents(ctx, AuditFilter{SessionID: sessionID, Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListAuditEvents failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != events[0].ID {
		t.Errorf("unexpected page: %+v", limited)
	}
}

func TestIntegration_PostgresStore_AuditEvents(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	ctx := context.Background()

	store := NewPostgresStore(db.Pool)
	exerciseStore(t, ctx, store, db.SessionID)
}

func TestIntegration_PostgresStore_Transaction(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	ctx := context.Background()

	store := NewPostgresStore(db.Pool)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	sessionID := db.SessionID
	events := newEvents(sessionID, time.Now())
	if err := store.SaveAuditEvent(WithTx(ctx, tx), events[0]); err != nil {
		t.Fatalf("SaveAuditEvent failed: %v", err)
	}

	inTx, _ := store.ListAuditEvents(WithTx(ctx, tx), AuditFilter{SessionID: sessionID})
	if len(inTx) != 1 {
		t.Errorf("expected event visible inside the transaction, got %d", len(inTx))
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	after, _ := store.ListAuditEvents(ctx, AuditFilter{SessionID: sessionID})
	if len(after) != 0 {
		t.Errorf("expected no events after rollback, got %d", len(after))
	}
}

func TestIntegration_SQLStore_AuditEvents(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	ctx := context.Background()

	store, err := OpenSQLStore(db.URL)
	if err != nil {
		t.Fatalf("OpenSQLStore failed: %v", err)
	}
	defer store.DB().Close()

	exerciseStore(t, ctx, store, db.SessionID)
}

func TestIntegration_Recorder(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	ctx := context.Background()

	store := NewPostgresStore(db.Pool)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	sessionID := db.SessionID
	r := NewRecorder(store, nil)
	r.Record(ctx, audit.NewSummaryUpdated(time.Now(), 2, 3, 4, audit.Tags{SessionID: sessionID}))
	if err := r.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events, err := store.ListAuditEvents(ctx, AuditFilter{SessionID: sessionID})
	if err != nil {
		t.Fatalf("ListAuditEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].CompressedRounds != 2 {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestTableNameMatchesTestFixture(t *testing.T) {
	if TableName != testutil.AuditTable {
		t.Errorf("TableName = %q, testutil.AuditTable = %q", TableName, testutil.AuditTable)
	}
}
