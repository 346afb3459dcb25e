package hooks

import (
	"context"
	"sync"

	"github.com/youssefsiam38/agentctx/audit"
	"github.com/youssefsiam38/agentctx/llm"
)

// Request describes a call about to be forwarded to the wrapped streamer,
// after any pruning and summary injection.
type Request struct {
	Model   llm.Model
	Context llm.Context
	Tags    audit.Tags
}

// BeforeRequestHook is called before the primary request is forwarded
type BeforeRequestHook func(ctx context.Context, req Request) error

// SummaryHook is called with the audit event of a summarization attempt
type SummaryHook func(ctx context.Context, event audit.Event) error

// Registry holds all registered hooks. A nil *Registry triggers nothing.
type Registry struct {
	mu             sync.RWMutex
	beforeRequest  []BeforeRequestHook
	summaryUpdated []SummaryHook
	summaryFailed  []SummaryHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		beforeRequest:  []BeforeRequestHook{},
		summaryUpdated: []SummaryHook{},
		summaryFailed:  []SummaryHook{},
	}
}

// OnBeforeRequest registers a hook to be called before forwarding a request
func (r *Registry) OnBeforeRequest(hook BeforeRequestHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeRequest = append(r.beforeRequest, hook)
}

// OnSummaryUpdated registers a hook to be called after a summary update
func (r *Registry) OnSummaryUpdated(hook SummaryHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaryUpdated = append(r.summaryUpdated, hook)
}

// OnSummaryFailed registers a hook to be called after a failed summarization
func (r *Registry) OnSummaryFailed(hook SummaryHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaryFailed = append(r.summaryFailed, hook)
}

// TriggerBeforeRequest calls all registered before-request hooks
func (r *Registry) TriggerBeforeRequest(ctx context.Context, req Request) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	hooks := make([]BeforeRequestHook, len(r.beforeRequest))
	copy(hooks, r.beforeRequest)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// TriggerSummaryUpdated calls all registered summary-updated hooks
func (r *Registry) TriggerSummaryUpdated(ctx context.Context, event audit.Event) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	hooks := make([]SummaryHook, len(r.summaryUpdated))
	copy(hooks, r.summaryUpdated)
	r.mu.RUnlock()

	return triggerSummary(ctx, hooks, event)
}

// TriggerSummaryFailed calls all registered summary-failed hooks
func (r *Registry) TriggerSummaryFailed(ctx context.Context, event audit.Event) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	hooks := make([]SummaryHook, len(r.summaryFailed))
	copy(hooks, r.summaryFailed)
	r.mu.RUnlock()

	return triggerSummary(ctx, hooks, event)
}

func triggerSummary(ctx context.Context, hooks []SummaryHook, event audit.Event) error {
	for _, hook := range hooks {
		if err := hook(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
