package agentctx

import (
	"context"
	"time"

	"github.com/youssefsiam38/agentctx/audit"
	"github.com/youssefsiam38/agentctx/compaction"
	"github.com/youssefsiam38/agentctx/hooks"
	"github.com/youssefsiam38/agentctx/llm"
	"github.com/youssefsiam38/agentctx/storage"
)

// Logger is the structured logging interface. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Engine is a compacting llm.Streamer with its audit and trace sinks wired in.
type Engine struct {
	*compaction.Compactor

	trace *hooks.TraceWriter
	file  *audit.FileRecorder
	store *storage.Recorder
}

var _ llm.Streamer = (*Engine)(nil)

// New wraps next with tool history compaction.
//
// By default audit events go to daily files under audit.DefaultDir(). Use
// options to add a database store, a request trace or Prometheus metrics.
func New(next llm.Streamer, cfg Config, opts ...Option) (*Engine, error) {
	if next == nil {
		return nil, NewEngineError("New", ErrNilStreamer)
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewEngineError("New", err)
	}

	ic := newInternalConfig(cfg)
	for _, opt := range opts {
		if err := opt(ic); err != nil {
			return nil, err
		}
	}

	e := &Engine{}

	var recorders audit.MultiRecorder
	if ic.fileAudit {
		var fileOpts []audit.FileOption
		if ic.auditPrefix != "" {
			fileOpts = append(fileOpts, audit.WithFilePrefix(ic.auditPrefix))
		}
		e.file = audit.NewFileRecorder(ic.auditDir, fileOpts...)
		recorders = append(recorders, e.file)
	}

	if ic.traceFile != "" {
		e.trace = hooks.NewTraceWriter(ic.traceOut, ic.traceFile, ic.logger)
		e.trace.Register(ic.hooks)
	}
	if ic.promRegisterer != nil {
		prom, err := hooks.NewPrometheusHooks(ic.promRegisterer)
		if err != nil {
			return nil, NewEngineError("New", err).WithContext("option", "WithPrometheus")
		}
		prom.Register(ic.hooks)
	}

	// Started after the fallible setup above; Close stops it on failure.
	if ic.auditStore != nil {
		e.store = storage.NewRecorder(ic.auditStore, ic.logger)
		recorders = append(recorders, e.store)
	}

	compactor, err := compaction.New(next, &ic.compaction, ic.logger,
		compaction.WithRecorder(recorders),
		compaction.WithHooks(ic.hooks),
	)
	if err != nil {
		_ = e.Close(context.Background())
		return nil, NewEngineError("New", ErrInvalidConfig).WithContext("cause", err.Error())
	}
	e.Compactor = compactor

	return e, nil
}

// TraceStats returns the request trace counters. ok is false when the trace
// is disabled.
func (e *Engine) TraceStats() (stats hooks.TraceStats, ok bool) {
	if e.trace == nil {
		return hooks.TraceStats{}, false
	}
	return e.trace.Stats(), true
}

// AuditFile returns the audit file events are currently written to, or ""
// when file audit is disabled.
func (e *Engine) AuditFile() string {
	if e.file == nil {
		return ""
	}
	return e.file.Path(time.Now())
}

// Close waits for queued store audit events to be written, or until ctx is
// done. The engine keeps serving requests after Close, but store audit
// events are dropped.
func (e *Engine) Close(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	return e.store.Close(ctx)
}
