package compaction

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for compaction operations.
var (
	// ErrInvalidConfig indicates invalid compaction configuration.
	ErrInvalidConfig = errors.New("invalid compaction configuration")

	// ErrNoRounds indicates there are no rounds to summarize.
	ErrNoRounds = errors.New("no tool rounds to summarize")

	// ErrEmptySummary indicates the summarizer returned no usable text.
	ErrEmptySummary = errors.New("tool history summary response was empty")

	// ErrSummarizationFailed indicates the summarization call failed.
	ErrSummarizationFailed = errors.New("summarization failed")
)

// CompactionError reports a failed step of a compaction pass, with the round
// counts it was working on. Summarization failures are logged as a
// CompactionError and never returned from Stream.
type CompactionError struct {
	// Op is the step that failed (e.g., "Summarize")
	Op string

	// Err is the underlying error
	Err error

	// Context holds round counts and other key-value pairs, rendered in key
	// order by Error
	Context map[string]any
}

// Error returns "compaction <op> failed (k=v ...): <err>".
func (e *CompactionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "compaction %s failed", e.Op)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteByte(')')
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CompactionError) Unwrap() error {
	return e.Err
}

// NewCompactionError creates a CompactionError for op.
func NewCompactionError(op string, err error) *CompactionError {
	return &CompactionError{Op: op, Err: err}
}

// WithContext records a key-value pair and returns e for chaining.
func (e *CompactionError) WithContext(key string, value any) *CompactionError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
