package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/youssefsiam38/agentctx/llm"
	"github.com/youssefsiam38/agentctx/types"
)

// ErrScriptExhausted is returned when a ScriptedStreamer runs out of replies.
var ErrScriptExhausted = errors.New("scripted streamer: no reply left")

// Call is one recorded invocation of a ScriptedStreamer.
type Call struct {
	Model   llm.Model
	Context llm.Context
	Options llm.Options
}

// Reply is one scripted outcome.
type Reply struct {
	// Message is returned by Stream.Result.
	Message *types.Message

	// StreamErr is returned by Stream itself.
	StreamErr error

	// ResultErr is returned by Stream.Result.
	ResultErr error
}

// TextReply is a Reply with a single assistant text block.
func TextReply(text string) Reply {
	return Reply{Message: &types.Message{
		Role:    types.RoleAssistant,
		Content: []types.ContentBlock{{Type: types.ContentTypeText, Text: text}},
	}}
}

// ErrorReply is a Reply whose Result fails with err.
func ErrorReply(err error) Reply {
	return Reply{ResultErr: err}
}

// ScriptedStreamer is an llm.Streamer that records every call and replays
// scripted replies in order. Summary requests are told apart from primary
// ones by the caller through Calls.
type ScriptedStreamer struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call

	// Fallback is used once the script is exhausted. Nil means fail with
	// ErrScriptExhausted.
	Fallback func(call Call) Reply
}

// NewScriptedStreamer creates a streamer that replays replies in order.
func NewScriptedStreamer(replies ...Reply) *ScriptedStreamer {
	return &ScriptedStreamer{replies: replies}
}

// Push appends replies to the script.
func (s *ScriptedStreamer) Push(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// Stream records the call and returns the next reply.
func (s *ScriptedStreamer) Stream(ctx context.Context, model llm.Model, c llm.Context, opts llm.Options) (llm.Stream, error) {
	call := Call{Model: model, Context: c, Options: opts}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	var reply Reply
	switch {
	case len(s.replies) > 0:
		reply = s.replies[0]
		s.replies = s.replies[1:]
	case s.Fallback != nil:
		reply = s.Fallback(call)
	default:
		reply = Reply{StreamErr: fmt.Errorf("%w (call %d)", ErrScriptExhausted, len(s.calls))}
	}
	s.mu.Unlock()

	if reply.StreamErr != nil {
		return nil, reply.StreamErr
	}
	return llm.NewResultStream(reply.Message, reply.ResultErr), nil
}

// Calls returns a copy of every recorded call.
func (s *ScriptedStreamer) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Last returns the most recent call. It panics if there was none.
func (s *ScriptedStreamer) Last() Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}
