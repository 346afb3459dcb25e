// Package llm defines the completion contract that agentctx wraps.
//
// A Streamer takes a model descriptor, a conversation context (system prompt,
// ordered messages and the tools on offer) and per-call options, and returns a
// Stream handle whose Result yields the assistant's response message.
// Providers implement Streamer; the compaction engine both consumes and
// implements it, so a compacting streamer can be dropped in wherever a plain
// provider was used.
package llm

import (
	"context"

	"github.com/youssefsiam38/agentctx/types"
)

// Model describes the model a request is addressed to.
type Model struct {
	// Provider is the provider identifier (e.g. "anthropic").
	Provider string `json:"provider"`

	// ID is the provider-specific model ID.
	ID string `json:"id"`

	// ContextWindow is the model's context window in tokens, if known.
	ContextWindow int `json:"contextWindow,omitempty"`

	// MaxTokens is the model's default response ceiling, if known.
	MaxTokens int `json:"maxTokens,omitempty"`
}

// Tool describes a tool offered to the model.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// Context is the conversation state sent with a request.
type Context struct {
	SystemPrompt string           `json:"systemPrompt,omitempty"`
	Messages     []*types.Message `json:"messages"`
	Tools        []Tool           `json:"tools,omitempty"`
}

// ToolChoice controls whether and how the model may call tools.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide (provider default).
	ToolChoiceAuto ToolChoice = ""

	// ToolChoiceNone forbids tool calls.
	ToolChoiceNone ToolChoice = "none"

	// ToolChoiceAny forces at least one tool call.
	ToolChoiceAny ToolChoice = "any"
)

// Options are per-call knobs forwarded to the provider.
type Options struct {
	// Temperature is the sampling temperature; nil keeps the provider default.
	Temperature *float64

	// MaxTokens is the response ceiling; zero keeps the model default.
	MaxTokens int

	// ToolChoice restricts tool use.
	ToolChoice ToolChoice

	// OnPayload, if set, receives the provider request payload before it is sent.
	OnPayload func(payload any)

	// Metadata is free-form request metadata.
	Metadata map[string]string
}

// Float returns a pointer to f, for Options.Temperature.
func Float(f float64) *float64 {
	return &f
}

// Stream is the handle returned by a Streamer.
type Stream interface {
	// Result blocks until the response is complete and returns it.
	Result() (*types.Message, error)
}

// Streamer is the completion interface.
type Streamer interface {
	Stream(ctx context.Context, model Model, c Context, opts Options) (Stream, error)
}

// StreamerFunc adapts a function to the Streamer interface.
type StreamerFunc func(ctx context.Context, model Model, c Context, opts Options) (Stream, error)

// Stream calls f(ctx, model, c, opts).
func (f StreamerFunc) Stream(ctx context.Context, model Model, c Context, opts Options) (Stream, error) {
	return f(ctx, model, c, opts)
}

// resultStream is a Stream whose result is already known.
type resultStream struct {
	msg *types.Message
	err error
}

func (s *resultStream) Result() (*types.Message, error) {
	return s.msg, s.err
}

// NewResultStream returns a Stream that yields msg and err immediately.
func NewResultStream(msg *types.Message, err error) Stream {
	return &resultStream{msg: msg, err: err}
}

// Complete calls s and waits for the result.
func Complete(ctx context.Context, s Streamer, model Model, c Context, opts Options) (*types.Message, error) {
	stream, err := s.Stream(ctx, model, c, opts)
	if err != nil {
		return nil, err
	}
	return stream.Result()
}
