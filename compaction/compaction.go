package compaction

import (
	"context"
	"sync"
	"time"

	"github.com/youssefsiam38/agentctx/audit"
	"github.com/youssefsiam38/agentctx/hooks"
	"github.com/youssefsiam38/agentctx/llm"
)

// Logger interface for compaction logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a no-op implementation of Logger.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// Compactor wraps an llm.Streamer and compacts tool history before each
// call. It implements llm.Streamer itself.
type Compactor struct {
	next       llm.Streamer
	config     *Config
	logger     Logger
	recorder   audit.Recorder
	hooks      *hooks.Registry
	now        func() time.Time
	summarizer *Summarizer

	mu    sync.Mutex
	state State
}

var _ llm.Streamer = (*Compactor)(nil)

// Option configures a Compactor.
type Option func(*Compactor)

// WithRecorder sets where audit events go. The default discards them.
func WithRecorder(r audit.Recorder) Option {
	return func(c *Compactor) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithHooks sets the hook registry fired around compaction.
func WithHooks(r *hooks.Registry) Option {
	return func(c *Compactor) {
		c.hooks = r
	}
}

// WithClock overrides the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Compactor) {
		if now != nil {
			c.now = now
			c.summarizer.now = now
		}
	}
}

// New creates a new Compactor around next.
// If config is nil, default configuration is used.
func New(next llm.Streamer, config *Config, logger Logger, opts ...Option) (*Compactor, error) {
	if config == nil {
		config = DefaultConfig()
	} else {
		cfg := *config
		config = &cfg
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	if logger == nil {
		logger = noopLogger{}
	}

	c := &Compactor{
		next:       next,
		config:     config,
		logger:     logger,
		recorder:   audit.Nop(),
		now:        time.Now,
		summarizer: NewSummarizer(next, config.SummaryInputMaxChars, config.SummaryMaxTokens),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns a copy of the effective configuration.
func (c *Compactor) Config() Config {
	return *c.config
}

// State returns a snapshot of the compaction progress.
func (c *Compactor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stream compacts the tool history in in and forwards it to the wrapped
// streamer exactly once. Errors from the wrapped call are returned as is;
// summarization errors never are.
func (c *Compactor) Stream(ctx context.Context, model llm.Model, in llm.Context, opts llm.Options) (llm.Stream, error) {
	rounds := CollectToolRounds(in.Messages)

	state := c.State()
	decision := Decide(c.config, len(rounds), state)
	if !decision.Eligible {
		return c.forward(ctx, model, in, opts)
	}

	tags := c.tags(model)
	updatedRounds := 0
	if decision.Summarize {
		newRounds := rounds[state.SummarizedRounds:decision.CompressibleRounds]
		summary, err := c.summarizer.Summarize(ctx, model, opts, newRounds, state.Summary)

		c.mu.Lock()
		if err != nil {
			c.state = c.state.withFailure()
		} else {
			c.state = c.state.withSuccess(summary, decision.CompressibleRounds)
		}
		state = c.state
		c.mu.Unlock()

		if err != nil {
			c.summaryFailed(ctx, len(newRounds), decision.TotalRounds, err, tags)
		} else {
			updatedRounds = len(newRounds)
		}
	}

	pruneCount := state.PruneCount(decision.CompressibleRounds)
	if pruneCount <= 0 {
		return c.forward(ctx, model, in, opts)
	}

	pruned := PruneRounds(in.Messages, rounds, pruneCount)
	if updatedRounds > 0 {
		c.summaryUpdated(ctx, updatedRounds, len(pruned), decision.TotalRounds, tags)
	}

	out := llm.Context{
		SystemPrompt: ApplySummaryToSystemPrompt(in.SystemPrompt, state.Summary),
		Messages:     pruned,
		Tools:        in.Tools,
	}
	return c.forward(ctx, model, out, opts)
}

func (c *Compactor) forward(ctx context.Context, model llm.Model, in llm.Context, opts llm.Options) (llm.Stream, error) {
	req := hooks.Request{Model: model, Context: in, Tags: c.tags(model)}
	if err := c.hooks.TriggerBeforeRequest(ctx, req); err != nil {
		c.logger.Debug("before-request hook failed", "error", err)
	}
	return c.next.Stream(ctx, model, in, opts)
}

func (c *Compactor) summaryUpdated(ctx context.Context, compressed, remaining, total int, tags audit.Tags) {
	event := audit.NewSummaryUpdated(c.now(), compressed, remaining, total, tags)
	c.recorder.Record(ctx, event)

	args := append([]any{"compressed_rounds", compressed, "remaining_messages", remaining}, tags.LogArgs()...)
	c.logger.Info("tool history summary updated", args...)

	if err := c.hooks.TriggerSummaryUpdated(ctx, event); err != nil {
		c.logger.Debug("summary-updated hook failed", "error", err)
	}
}

func (c *Compactor) summaryFailed(ctx context.Context, pending, total int, err error, tags audit.Tags) {
	event := audit.NewSummaryFailed(c.now(), pending, total, err, tags)
	c.recorder.Record(ctx, event)

	cerr := NewCompactionError("Summarize", err).
		WithContext("pending_rounds", pending).
		WithContext("total_rounds", total)
	args := append([]any{"pending_rounds", pending}, tags.LogArgs()...)
	args = append(args, "error", cerr)
	c.logger.Warn("tool history summary failed; keeping unsummarized rounds in context", args...)

	if err := c.hooks.TriggerSummaryFailed(ctx, event); err != nil {
		c.logger.Debug("summary-failed hook failed", "error", err)
	}
}

// tags returns the configured tags with provider and model filled in from
// model when unset.
func (c *Compactor) tags(model llm.Model) audit.Tags {
	tags := c.config.Tags
	if tags.Provider == "" {
		tags.Provider = model.Provider
	}
	if tags.ModelID == "" {
		tags.ModelID = model.ID
	}
	return tags
}
