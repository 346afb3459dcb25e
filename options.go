package agentctx

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/youssefsiam38/agentctx/audit"
	"github.com/youssefsiam38/agentctx/hooks"
	"github.com/youssefsiam38/agentctx/storage"
)

// Option is a functional option for configuring an Engine
type Option func(*internalConfig) error

func nonNegative(op string, n int) error {
	if n < 0 {
		return NewEngineError(op, ErrInvalidConfig).WithContext("value", n)
	}
	return nil
}

// WithTriggerRounds sets how many tool rounds a history needs before
// compaction is considered
func WithTriggerRounds(n int) Option {
	return func(c *internalConfig) error {
		c.compaction.TriggerRounds = n
		return nonNegative("WithTriggerRounds", n)
	}
}

// WithKeepRecentRounds sets how many of the newest rounds are always sent verbatim
func WithKeepRecentRounds(n int) Option {
	return func(c *internalConfig) error {
		c.compaction.KeepRecentRounds = n
		return nonNegative("WithKeepRecentRounds", n)
	}
}

// WithSummaryBatchRounds sets how many new compressible rounds accumulate
// before the summary is refreshed
func WithSummaryBatchRounds(n int) Option {
	return func(c *internalConfig) error {
		c.compaction.SummaryBatchRounds = n
		return nonNegative("WithSummaryBatchRounds", n)
	}
}

// WithSummaryMaxCalls caps summarization attempts over the engine's lifetime
func WithSummaryMaxCalls(n int) Option {
	return func(c *internalConfig) error {
		c.compaction.SummaryMaxCalls = n
		return nonNegative("WithSummaryMaxCalls", n)
	}
}

// WithSummaryInputMaxChars caps the serialized rounds sent to the summarizer
func WithSummaryInputMaxChars(n int) Option {
	return func(c *internalConfig) error {
		c.compaction.SummaryInputMaxChars = n
		return nonNegative("WithSummaryInputMaxChars", n)
	}
}

// WithSummaryMaxTokens caps the summarizer's response
func WithSummaryMaxTokens(n int) Option {
	return func(c *internalConfig) error {
		c.compaction.SummaryMaxTokens = n
		return nonNegative("WithSummaryMaxTokens", n)
	}
}

// WithTags sets the diagnostic tags, replacing those from Config
func WithTags(tags audit.Tags) Option {
	return func(c *internalConfig) error {
		c.compaction.Tags = tags
		return nil
	}
}

// WithLogger sets the structured logger. *slog.Logger satisfies Logger.
func WithLogger(logger Logger) Option {
	return func(c *internalConfig) error {
		c.logger = logger
		return nil
	}
}

// WithHooks uses r for request and summary hooks. Hooks added by other
// options are registered on r.
func WithHooks(r *hooks.Registry) Option {
	return func(c *internalConfig) error {
		if r != nil {
			c.hooks = r
		}
		return nil
	}
}

// WithFileAudit enables or disables the daily JSON-lines audit files.
// Enabled by default.
func WithFileAudit(enabled bool) Option {
	return func(c *internalConfig) error {
		c.fileAudit = enabled
		return nil
	}
}

// WithAuditDir sets the directory of the audit files and the file name prefix.
// An empty prefix keeps audit.DefaultFilePrefix.
func WithAuditDir(dir, prefix string) Option {
	return func(c *internalConfig) error {
		c.auditDir = dir
		c.auditPrefix = prefix
		return nil
	}
}

// WithAuditStore also records audit events in store
func WithAuditStore(store storage.Store) Option {
	return func(c *internalConfig) error {
		c.auditStore = store
		return nil
	}
}

// WithTraceFile enables the per-request trace: a CACHE_TRACE line on out
// (stderr when nil) and a JSON snapshot of the last request at path.
func WithTraceFile(path string, out io.Writer) Option {
	return func(c *internalConfig) error {
		c.traceFile = path
		if out != nil {
			c.traceOut = out
		}
		return nil
	}
}

// WithPrometheus registers compaction metrics with reg
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(c *internalConfig) error {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		c.promRegisterer = reg
		return nil
	}
}
