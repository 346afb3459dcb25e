// Package compaction keeps an agent's tool history bounded by folding old
// tool execution rounds into a running summary.
//
// A tool execution round is an assistant message carrying one or more tool
// calls plus the toolResult messages that immediately follow it. Once enough
// rounds have accumulated, the oldest ones are serialized, summarized by the
// same completion interface the agent uses, pruned out of the message list,
// and the summary is appended to the system prompt.
//
// # Usage
//
// Wrap any llm.Streamer with a Compactor:
//
//	compactor, err := compaction.New(streamer, &compaction.Config{
//	    TriggerRounds:      4, // Consider compaction from 4 rounds on
//	    KeepRecentRounds:   2, // Never touch the 2 newest rounds
//	    SummaryBatchRounds: 4, // Re-summarize once 4 new rounds are eligible
//	    SummaryMaxCalls:    6, // Summarization budget per compactor
//	}, logger)
//	if err != nil {
//	    return err
//	}
//
//	stream, err := compactor.Stream(ctx, model, llmCtx, opts)
//
// The Compactor is itself an llm.Streamer. Every call to Stream forwards to
// the wrapped streamer exactly once; summarization is best-effort and a
// failed attempt only costs one unit of the SummaryMaxCalls budget.
//
// # Decision sequence
//
// For each call:
//
//   - Fewer than TriggerRounds rounds: pass through unchanged.
//   - compressible = rounds - KeepRecentRounds; pending = compressible - summarized.
//   - Summarize pending rounds when pending > 0, the call budget is not spent,
//     and either no summary exists yet or pending >= SummaryBatchRounds.
//   - Prune min(summarized, compressible) oldest rounds and inject the summary,
//     but only when a summary exists.
//
// # Concurrency
//
// State lives in memory for the lifetime of the Compactor. Callers must
// serialize calls that share a Compactor; State may be read from any
// goroutine.
package compaction
