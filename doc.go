// Package agentctx keeps long tool-using agent conversations inside the
// model's context window.
//
// An agent that calls tools accumulates rounds: an assistant turn issuing
// tool calls followed by the tool results. agentctx wraps the completion
// interface the agent already uses and, before each request, folds the
// oldest rounds into a running summary produced by the same model. The
// summary travels in the system prompt; the folded rounds are dropped from
// the message list. The newest rounds are always sent verbatim.
//
// # Quick Start
//
//	client := anthropic.NewClient(option.WithAPIKey(apiKey))
//	provider := anthropicprovider.NewStreamer(&client)
//
//	engine, err := agentctx.New(provider, agentctx.Config{
//	    Tags: audit.Tags{SessionID: sessionID},
//	})
//
//	// Use engine wherever provider was used
//	msg, err := llm.Complete(ctx, engine, agentctx.AnthropicModel("claude-sonnet-4-5-20250929"), llm.Context{
//	    SystemPrompt: "You are a coding agent",
//	    Messages:     history,
//	    Tools:        tools,
//	}, llm.Options{})
//
// # Tuning
//
// Compaction starts once a history has four rounds, keeps the two newest
// verbatim and refreshes the summary every four new rounds, at most six
// times per engine:
//
//	engine, _ := agentctx.New(provider, agentctx.Config{},
//	    agentctx.WithTriggerRounds(8),
//	    agentctx.WithKeepRecentRounds(3),
//	    agentctx.WithSummaryMaxCalls(10),
//	)
//
// Summarization failures never fail a request: the engine logs a warning,
// records a summary_failed audit event and sends the history unsummarized.
//
// # Diagnostics
//
// Every summarization attempt is audited. By default events are appended
// to $TMPDIR/agentctx/tool-summary-YYYY-MM-DD.log; WithAuditStore adds a
// PostgreSQL store and the ui package serves both. WithTraceFile prints a
// CACHE_TRACE line per request and keeps a JSON snapshot of the last one.
//
// # Concurrency
//
// An Engine keeps per-conversation state. Use one Engine per session and do
// not issue overlapping requests on it.
package agentctx
