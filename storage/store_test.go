package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/youssefsiam38/agentctx/audit"
)

func TestBuildListQuery(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	array := func(v []string) any { return v }

	tests := []struct {
		name      string
		filter    AuditFilter
		wantParts []string
		wantArgs  int
	}{
		{
			name:      "no filter",
			filter:    AuditFilter{},
			wantParts: []string{"ORDER BY timestamp DESC", "LIMIT $1"},
			wantArgs:  1,
		},
		{
			name: "all filters",
			filter: AuditFilter{
				Types:     []audit.EventType{audit.TypeSummaryFailed},
				RunID:     "run",
				SessionID: "sess",
				Since:     since,
				Until:     since.Add(time.Hour),
				Limit:     10,
				Offset:    20,
			},
			wantParts: []string{
				"WHERE type = ANY($1) AND run_id = $2 AND session_id = $3 AND timestamp >= $4 AND timestamp < $5",
				"LIMIT $6 OFFSET $7",
			},
			wantArgs: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildListQuery(tt.filter, array)
			for _, part := range tt.wantParts {
				if !strings.Contains(query, part) {
					t.Errorf("expected %q in query:\n%s", part, query)
				}
			}
			if len(args) != tt.wantArgs {
				t.Errorf("expected %d args, got %d", tt.wantArgs, len(args))
			}
		})
	}
}

func TestBuildListQuery_DefaultLimit(t *testing.T) {
	_, args := buildListQuery(AuditFilter{}, func(v []string) any { return v })
	if args[0] != DefaultListLimit {
		t.Errorf("limit = %v, want %d", args[0], DefaultListLimit)
	}
}

func TestValidateEvent(t *testing.T) {
	ok := audit.NewSummaryUpdated(time.Now(), 1, 1, 1, audit.Tags{})
	ok.ID = "id"

	if err := validateEvent(&ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := validateEvent(nil); err == nil {
		t.Error("expected error for nil event")
	}
	noID := ok
	noID.ID = ""
	if err := validateEvent(&noID); err == nil {
		t.Error("expected error for missing id")
	}
	badType := ok
	badType.Type = "other"
	if err := validateEvent(&badType); err == nil {
		t.Error("expected error for unknown type")
	}
}

type fakeStore struct {
	mu     sync.Mutex
	events []*audit.Event
	err    error
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }

func (f *fakeStore) SaveAuditEvent(ctx context.Context, event *audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) SaveAuditEvents(ctx context.Context, events []*audit.Event) error {
	for _, e := range events {
		if err := f.SaveAuditEvent(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) GetAuditEvent(ctx context.Context, id string) (*audit.Event, error) {
	return nil, ErrEventNotFound
}

func (f *fakeStore) ListAuditEvents(ctx context.Context, filter AuditFilter) ([]*audit.Event, error) {
	return f.events, nil
}

type countingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *countingLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == "error" {
			msg, _ = args[i+1].(string)
		}
	}
	l.warnings = append(l.warnings, msg)
}

func (l *countingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warnings)
}

// blockingStore blocks every save until release is closed or the insert
// times out.
type blockingStore struct {
	fakeStore
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingStore() *blockingStore {
	return &blockingStore{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingStore) SaveAuditEvent(ctx context.Context, event *audit.Event) error {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return b.fakeStore.SaveAuditEvent(ctx, event)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func flushRecorder(t *testing.T, r *Recorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
}

func TestRecorder_AssignsIDs(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, nil)
	defer r.Close(context.Background())

	r.Record(context.Background(), audit.NewSummaryUpdated(time.Now(), 4, 3, 6, audit.Tags{}))
	flushRecorder(t, r)

	if len(store.events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(store.events))
	}
	if store.events[0].ID == "" {
		t.Error("expected an assigned event ID")
	}
}

func TestRecorder_IgnoresCanceledContext(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, nil)
	defer r.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Record(ctx, audit.NewSummaryUpdated(time.Now(), 1, 1, 1, audit.Tags{}))
	flushRecorder(t, r)

	if len(store.events) != 1 {
		t.Errorf("expected the event to be stored, got %d", len(store.events))
	}
}

func TestRecorder_DoesNotBlockOnSlowStore(t *testing.T) {
	store := newBlockingStore()
	r := NewRecorder(store, nil, WithRecordTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	r.Record(ctx, audit.NewSummaryUpdated(time.Now(), 1, 1, 1, audit.Tags{}))
	r.Record(context.Background(), audit.NewSummaryUpdated(time.Now(), 2, 1, 2, audit.Tags{}))
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Record blocked the caller for %v", elapsed)
	}

	<-store.started
	close(store.release)
	if err := r.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(store.events) != 2 {
		t.Errorf("expected both events stored after Close, got %d", len(store.events))
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	store := newBlockingStore()
	logger := &countingLogger{}
	r := NewRecorder(store, logger, WithRecordBuffer(1))
	event := audit.NewSummaryUpdated(time.Now(), 1, 1, 1, audit.Tags{})

	r.Record(context.Background(), event)
	<-store.started // writer holds the first event

	r.Record(context.Background(), event) // queued
	r.Record(context.Background(), event) // dropped
	r.Record(context.Background(), event) // dropped, same message

	if got := logger.count(); got != 1 {
		t.Errorf("expected 1 warning for dropped events, got %d", got)
	}
	if logger.warnings[0] != ErrRecorderFull.Error() {
		t.Errorf("unexpected warning %q", logger.warnings[0])
	}

	close(store.release)
	if err := r.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(store.events) != 2 {
		t.Errorf("expected 2 stored events, got %d", len(store.events))
	}
}

func TestRecorder_RecordAfterClose(t *testing.T) {
	store := &fakeStore{}
	logger := &countingLogger{}
	r := NewRecorder(store, logger)

	if err := r.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(context.Background()); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	r.Record(context.Background(), audit.NewSummaryUpdated(time.Now(), 1, 1, 1, audit.Tags{}))

	if len(store.events) != 0 {
		t.Errorf("expected no stored events, got %d", len(store.events))
	}
	if logger.count() != 1 || logger.warnings[0] != ErrRecorderClosed.Error() {
		t.Errorf("unexpected warnings: %v", logger.warnings)
	}
	if err := r.Flush(context.Background()); err != nil {
		t.Errorf("Flush after Close failed: %v", err)
	}
}

func TestRecorder_LogsDistinctErrorsOnce(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	logger := &countingLogger{}
	r := NewRecorder(store, logger)
	defer r.Close(context.Background())
	event := audit.NewSummaryFailed(time.Now(), 1, 1, errors.New("x"), audit.Tags{})

	record := func() {
		r.Record(context.Background(), event)
		flushRecorder(t, r)
	}

	record()
	record()
	if logger.count() != 1 {
		t.Errorf("expected 1 warning for a repeated error, got %d", logger.count())
	}

	store.err = errors.New("disk full")
	record()
	if logger.count() != 2 {
		t.Errorf("expected a warning for a new error, got %d", logger.count())
	}

	store.err = nil
	record()
	store.err = errors.New("disk full")
	record()
	if logger.count() != 3 {
		t.Errorf("expected a warning after recovery, got %d", logger.count())
	}
}
