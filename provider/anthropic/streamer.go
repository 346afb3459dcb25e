package anthropic

import (
	"context"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/youssefsiam38/agentctx/llm"
	"github.com/youssefsiam38/agentctx/streaming"
	"github.com/youssefsiam38/agentctx/types"
)

// ProviderName is the llm.Model provider identifier for this package.
const ProviderName = "anthropic"

// Streamer implements llm.Streamer on the Anthropic Messages streaming API.
type Streamer struct {
	client *anthropic.Client
}

var _ llm.Streamer = (*Streamer)(nil)

// NewStreamer creates a Streamer using client. A nil client is replaced by
// anthropic.NewClient(), which reads ANTHROPIC_API_KEY from the environment.
func NewStreamer(client *anthropic.Client) *Streamer {
	if client == nil {
		c := anthropic.NewClient()
		client = &c
	}
	return &Streamer{client: client}
}

// Model returns a model descriptor for id on this provider.
func Model(id string) llm.Model {
	return llm.Model{Provider: ProviderName, ID: id}
}

// Stream starts a streaming request. Events are consumed when Result is called.
func (s *Streamer) Stream(ctx context.Context, model llm.Model, c llm.Context, opts llm.Options) (llm.Stream, error) {
	params := BuildParams(model, c, opts)
	if opts.OnPayload != nil {
		opts.OnPayload(params)
	}

	return &messageStream{
		stream: s.client.Messages.NewStreaming(ctx, params),
	}, nil
}

// messageStream drains an SSE stream into a types.Message
type messageStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]

	once sync.Once
	msg  *types.Message
	err  error
}

func (m *messageStream) Result() (*types.Message, error) {
	m.once.Do(func() {
		defer m.stream.Close()

		acc := streaming.NewAccumulator()
		for m.stream.Next() {
			acc.ProcessAnthropicEvent(m.stream.Current())
		}

		if err := m.stream.Err(); err != nil {
			m.err = fmt.Errorf("streaming error: %w", err)
			return
		}
		m.msg = acc.Message()
	})
	return m.msg, m.err
}
