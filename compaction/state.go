package compaction

// State is the per-Compactor compaction progress. It only grows: rounds are
// never un-summarized and attempts are never refunded.
type State struct {
	// SummarizedRounds is how many of the oldest rounds the summary covers.
	SummarizedRounds int `json:"summarizedRounds"`

	// Summary is the running compressed history. Empty until the first
	// successful summarization.
	Summary string `json:"summary,omitempty"`

	// SummaryCalls counts summarization attempts, failed ones included.
	SummaryCalls int `json:"summaryCalls"`
}

// HasSummary reports whether a summary can back a prune.
func (s State) HasSummary() bool {
	return s.Summary != ""
}

// Decision is the outcome of evaluating one call's round count.
type Decision struct {
	TotalRounds        int
	CompressibleRounds int
	PendingRounds      int

	// Eligible is false for short histories; such calls pass through
	// untouched.
	Eligible bool

	// Summarize is true when a summarization attempt should run.
	Summarize bool
}

// Decide applies the trigger, protection, batching and budget rules to
// totalRounds given the current state. cfg must have defaults applied.
func Decide(cfg *Config, totalRounds int, state State) Decision {
	d := Decision{TotalRounds: totalRounds}
	if totalRounds < cfg.TriggerRounds {
		return d
	}

	d.CompressibleRounds = max(0, totalRounds-cfg.KeepRecentRounds)
	if d.CompressibleRounds <= 0 {
		return d
	}
	d.Eligible = true

	d.PendingRounds = max(0, d.CompressibleRounds-state.SummarizedRounds)
	d.Summarize = d.PendingRounds > 0 &&
		state.SummaryCalls < cfg.SummaryMaxCalls &&
		(!state.HasSummary() || d.PendingRounds >= cfg.SummaryBatchRounds)
	return d
}

// PruneCount returns how many of the oldest rounds can be pruned. It is zero
// without a summary.
func (s State) PruneCount(compressibleRounds int) int {
	if !s.HasSummary() {
		return 0
	}
	return max(0, min(s.SummarizedRounds, compressibleRounds))
}

func (s State) withSuccess(summary string, compressibleRounds int) State {
	s.Summary = summary
	s.SummarizedRounds = max(s.SummarizedRounds, compressibleRounds)
	s.SummaryCalls++
	return s
}

func (s State) withFailure() State {
	s.SummaryCalls++
	return s
}
