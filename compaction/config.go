package compaction

import (
	"fmt"

	"github.com/youssefsiam38/agentctx/audit"
)

// Default configuration values.
const (
	DefaultTriggerRounds        = 4
	DefaultKeepRecentRounds     = 2
	DefaultSummaryBatchRounds   = 4
	DefaultSummaryMaxCalls      = 6
	DefaultSummaryInputMaxChars = 18000
	DefaultSummaryMaxTokens     = 1000
)

// Lower bounds applied by ApplyDefaults. Values below these are raised.
const (
	MinTriggerRounds        = 2
	MinKeepRecentRounds     = 1
	MinSummaryBatchRounds   = 1
	MinSummaryMaxCalls      = 1
	MinSummaryInputMaxChars = 1000
	MinSummaryMaxTokens     = 256
)

// Config holds compaction configuration.
type Config struct {
	// TriggerRounds is the minimum number of tool rounds before compaction
	// is considered at all.
	// Default: 4
	TriggerRounds int

	// KeepRecentRounds is the number of newest rounds that are never
	// summarized or pruned.
	// Default: 2
	KeepRecentRounds int

	// SummaryBatchRounds is the minimum number of newly eligible rounds
	// needed to re-run summarization once a summary exists.
	// Default: 4
	SummaryBatchRounds int

	// SummaryMaxCalls caps summarization attempts, successful or not, over
	// the lifetime of a Compactor.
	// Default: 6
	SummaryMaxCalls int

	// SummaryInputMaxChars bounds the serialized round text sent to the
	// summarizer.
	// Default: 18000
	SummaryInputMaxChars int

	// SummaryMaxTokens is the response ceiling requested from the
	// summarizer. A smaller caller MaxTokens wins.
	// Default: 1000
	SummaryMaxTokens int

	// Tags identify the run in logs and audit events.
	Tags audit.Tags
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		TriggerRounds:        DefaultTriggerRounds,
		KeepRecentRounds:     DefaultKeepRecentRounds,
		SummaryBatchRounds:   DefaultSummaryBatchRounds,
		SummaryMaxCalls:      DefaultSummaryMaxCalls,
		SummaryInputMaxChars: DefaultSummaryInputMaxChars,
		SummaryMaxTokens:     DefaultSummaryMaxTokens,
	}
}

// Validate validates the configuration and returns an error if invalid.
// Zero values are valid and mean "use the default".
func (c *Config) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"trigger_rounds", c.TriggerRounds},
		{"keep_recent_rounds", c.KeepRecentRounds},
		{"summary_batch_rounds", c.SummaryBatchRounds},
		{"summary_max_calls", c.SummaryMaxCalls},
		{"summary_input_max_chars", c.SummaryInputMaxChars},
		{"summary_max_tokens", c.SummaryMaxTokens},
	}
	for _, check := range checks {
		if check.value < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %d", ErrInvalidConfig, check.name, check.value)
		}
	}
	return nil
}

// ApplyDefaults fills in zero values with defaults and raises values below
// their minimum.
func (c *Config) ApplyDefaults() {
	c.TriggerRounds = withFloor(c.TriggerRounds, DefaultTriggerRounds, MinTriggerRounds)
	c.KeepRecentRounds = withFloor(c.KeepRecentRounds, DefaultKeepRecentRounds, MinKeepRecentRounds)
	c.SummaryBatchRounds = withFloor(c.SummaryBatchRounds, DefaultSummaryBatchRounds, MinSummaryBatchRounds)
	c.SummaryMaxCalls = withFloor(c.SummaryMaxCalls, DefaultSummaryMaxCalls, MinSummaryMaxCalls)
	c.SummaryInputMaxChars = withFloor(c.SummaryInputMaxChars, DefaultSummaryInputMaxChars, MinSummaryInputMaxChars)
	c.SummaryMaxTokens = withFloor(c.SummaryMaxTokens, DefaultSummaryMaxTokens, MinSummaryMaxTokens)
}

func withFloor(value, def, floor int) int {
	if value == 0 {
		value = def
	}
	return max(value, floor)
}
