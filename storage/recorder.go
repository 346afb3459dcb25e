package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/youssefsiam38/agentctx/audit"
)

// Logger is the logging interface used by Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

const (
	// DefaultRecordTimeout bounds a single audit insert.
	DefaultRecordTimeout = 5 * time.Second

	// DefaultRecordBuffer is the number of events queued before Record
	// starts dropping them.
	DefaultRecordBuffer = 256
)

var (
	// ErrRecorderFull is reported when an event is dropped because the
	// queue is full.
	ErrRecorderFull = errors.New("audit recorder queue is full")

	// ErrRecorderClosed is reported when Record is called after Close.
	ErrRecorderClosed = errors.New("audit recorder is closed")
)

// Recorder adapts a Store to audit.Recorder. Record only enqueues; a
// background goroutine writes events in order. Failures, including dropped
// events, are logged once per distinct error message and never returned.
type Recorder struct {
	store   Store
	logger  Logger
	timeout time.Duration

	queue chan recordItem
	done  chan struct{}

	// sendMu guards closed and sends on queue; mu guards lastErr. The
	// writer goroutine only takes mu, so a blocking send never holds it up.
	sendMu sync.RWMutex
	closed bool

	mu      sync.Mutex
	lastErr string
}

// recordItem is either an event or, when flushed is set, a flush marker.
type recordItem struct {
	event   audit.Event
	flushed chan struct{}
}

var _ audit.Recorder = (*Recorder)(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecordTimeout bounds each insert. Non-positive values are ignored.
func WithRecordTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRecordBuffer sets the queue length. Values below 1 are ignored.
func WithRecordBuffer(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.queue = make(chan recordItem, n)
		}
	}
}

// NewRecorder creates a Recorder writing to store and starts its writer
// goroutine. logger may be nil. Call Close to drain the queue.
func NewRecorder(store Store, logger Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		logger:  logger,
		timeout: DefaultRecordTimeout,
		queue:   make(chan recordItem, DefaultRecordBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	go r.run()
	return r
}

// Record queues event, assigning an ID if it has none. It never blocks; the
// event is dropped when the queue is full or the recorder is closed.
func (r *Recorder) Record(_ context.Context, event audit.Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	r.sendMu.RLock()
	err := ErrRecorderClosed
	if !r.closed {
		select {
		case r.queue <- recordItem{event: event}:
			err = nil
		default:
			err = ErrRecorderFull
		}
	}
	r.sendMu.RUnlock()

	if err != nil {
		r.mu.Lock()
		r.reportLocked(err, event)
		r.mu.Unlock()
	}
}

// Flush waits until every event queued before the call has been written,
// or until ctx is done.
func (r *Recorder) Flush(ctx context.Context) error {
	flushed := make(chan struct{})

	r.sendMu.RLock()
	if r.closed {
		r.sendMu.RUnlock()
		return r.wait(ctx, r.done)
	}
	select {
	case r.queue <- recordItem{flushed: flushed}:
		r.sendMu.RUnlock()
	case <-ctx.Done():
		r.sendMu.RUnlock()
		return ctx.Err()
	}
	return r.wait(ctx, flushed)
}

// Close stops accepting events and waits for the queue to drain, or until
// ctx is done. It is safe to call more than once.
func (r *Recorder) Close(ctx context.Context) error {
	r.sendMu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.sendMu.Unlock()
	return r.wait(ctx, r.done)
}

func (r *Recorder) wait(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for item := range r.queue {
		if item.flushed != nil {
			close(item.flushed)
			continue
		}
		r.save(item.event)
	}
}

func (r *Recorder) save(event audit.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := r.store.SaveAuditEvent(ctx, &event)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.lastErr = ""
		return
	}
	r.reportLocked(err, event)
}

func (r *Recorder) reportLocked(err error, event audit.Event) {
	msg := err.Error()
	if msg == r.lastErr {
		return
	}
	r.lastErr = msg
	if r.logger != nil {
		r.logger.Warn("failed to store audit event", "type", string(event.Type), "error", msg)
	}
}
