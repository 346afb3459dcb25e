package hooks

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/youssefsiam38/agentctx/audit"
	"github.com/youssefsiam38/agentctx/llm"
	"github.com/youssefsiam38/agentctx/types"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
}

func TestNilRegistryTriggersNothing(t *testing.T) {
	var r *Registry
	if err := r.TriggerBeforeRequest(context.Background(), Request{}); err != nil {
		t.Errorf("TriggerBeforeRequest returned error: %v", err)
	}
	if err := r.TriggerSummaryUpdated(context.Background(), audit.Event{}); err != nil {
		t.Errorf("TriggerSummaryUpdated returned error: %v", err)
	}
	if err := r.TriggerSummaryFailed(context.Background(), audit.Event{}); err != nil {
		t.Errorf("TriggerSummaryFailed returned error: %v", err)
	}
}

func TestOnBeforeRequest(t *testing.T) {
	r := NewRegistry()
	var captured Request

	r.OnBeforeRequest(func(ctx context.Context, req Request) error {
		captured = req
		return nil
	})

	req := Request{Model: llm.Model{ID: "claude"}, Tags: audit.Tags{SessionID: "session-123"}}
	if err := r.TriggerBeforeRequest(context.Background(), req); err != nil {
		t.Errorf("TriggerBeforeRequest returned error: %v", err)
	}
	if captured.Model.ID != "claude" || captured.Tags.SessionID != "session-123" {
		t.Errorf("request was not passed to hook: %+v", captured)
	}
}

func TestOnSummaryUpdatedAndFailed(t *testing.T) {
	r := NewRegistry()
	var updated, failed []audit.EventType

	r.OnSummaryUpdated(func(ctx context.Context, event audit.Event) error {
		updated = append(updated, event.Type)
		return nil
	})
	r.OnSummaryFailed(func(ctx context.Context, event audit.Event) error {
		failed = append(failed, event.Type)
		return nil
	})

	now := time.Now()
	if err := r.TriggerSummaryUpdated(context.Background(), audit.NewSummaryUpdated(now, 4, 3, 6, audit.Tags{})); err != nil {
		t.Errorf("TriggerSummaryUpdated returned error: %v", err)
	}
	if err := r.TriggerSummaryFailed(context.Background(), audit.NewSummaryFailed(now, 4, 6, errors.New("x"), audit.Tags{})); err != nil {
		t.Errorf("TriggerSummaryFailed returned error: %v", err)
	}

	if len(updated) != 1 || updated[0] != audit.TypeSummaryUpdated {
		t.Errorf("unexpected updated calls: %v", updated)
	}
	if len(failed) != 1 || failed[0] != audit.TypeSummaryFailed {
		t.Errorf("unexpected failed calls: %v", failed)
	}
}

func TestHookStopsOnError(t *testing.T) {
	r := NewRegistry()
	called := []int{}
	expectedErr := errors.New("stop here")

	r.OnBeforeRequest(func(ctx context.Context, req Request) error {
		called = append(called, 1)
		return nil
	})
	r.OnBeforeRequest(func(ctx context.Context, req Request) error {
		called = append(called, 2)
		return expectedErr
	})
	r.OnBeforeRequest(func(ctx context.Context, req Request) error {
		called = append(called, 3)
		return nil
	})

	err := r.TriggerBeforeRequest(context.Background(), Request{})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	if len(called) != 2 {
		t.Errorf("expected 2 hooks to be called before error, got %d", len(called))
	}
}

func TestConcurrentRegistrationAndTrigger(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	wg.Add(200)
	for i := 0; i < 100; i++ {
		go func() {
			defer wg.Done()
			r.OnSummaryUpdated(func(ctx context.Context, event audit.Event) error {
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			r.TriggerSummaryUpdated(context.Background(), audit.Event{})
		}()
	}
	wg.Wait()
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	h := NewLoggingHooks(log.New(&buf, "", 0))
	r := NewRegistry()
	h.Register(r)

	req := Request{
		Model: llm.Model{ID: "claude"},
		Context: llm.Context{Messages: []*types.Message{
			types.NewUserText("hi"),
			types.NewToolResult("c1", "read", "ok", false),
		}},
	}
	if err := r.TriggerBeforeRequest(context.Background(), req); err != nil {
		t.Fatalf("TriggerBeforeRequest returned error: %v", err)
	}
	r.TriggerSummaryFailed(context.Background(), audit.NewSummaryFailed(time.Now(), 2, 5, errors.New("boom"), audit.Tags{}))

	out := buf.String()
	for _, want := range []string{"[agentctx]", "messages=2", "toolResults=1", "SUMMARY_FAIL", "pendingRounds=2", "error=boom", "session=-"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output %q", want, out)
		}
	}
}

func TestMetricsHooks(t *testing.T) {
	got := map[string]float64{}
	h := NewMetricsHooks(func(name string, value float64, tags map[string]string) {
		got[name] += value
	})
	r := NewRegistry()
	h.Register(r)

	r.TriggerSummaryUpdated(context.Background(), audit.NewSummaryUpdated(time.Now(), 4, 3, 6, audit.Tags{}))
	r.TriggerSummaryFailed(context.Background(), audit.NewSummaryFailed(time.Now(), 1, 6, errors.New("x"), audit.Tags{}))

	if got["agentctx.summary.updated"] != 1 {
		t.Errorf("summary.updated = %v, want 1", got["agentctx.summary.updated"])
	}
	if got["agentctx.summary.compressed_rounds"] != 4 {
		t.Errorf("summary.compressed_rounds = %v, want 4", got["agentctx.summary.compressed_rounds"])
	}
	if got["agentctx.summary.failed"] != 1 {
		t.Errorf("summary.failed = %v, want 1", got["agentctx.summary.failed"])
	}
}

func TestPrometheusHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := NewPrometheusHooks(reg)
	if err != nil {
		t.Fatalf("NewPrometheusHooks failed: %v", err)
	}
	r := NewRegistry()
	h.Register(r)

	ctx := context.Background()
	model := llm.Model{ID: "claude", Provider: "anthropic"}
	tags := audit.Tags{Provider: "anthropic", ModelID: "claude"}
	now := time.Now()

	_ = r.TriggerBeforeRequest(ctx, Request{Model: model, Context: llm.Context{Messages: []*types.Message{types.NewUserText("hi")}}})
	_ = r.TriggerBeforeRequest(ctx, Request{Model: model})
	_ = r.TriggerSummaryUpdated(ctx, audit.NewSummaryUpdated(now, 4, 5, 6, tags))
	_ = r.TriggerSummaryUpdated(ctx, audit.NewSummaryUpdated(now, 2, 5, 8, tags))
	_ = r.TriggerSummaryFailed(ctx, audit.NewSummaryFailed(now, 4, 10, errors.New("boom"), tags))

	tests := []struct {
		name   string
		metric prometheus.Collector
		want   float64
	}{
		{"requests", h.requests.WithLabelValues("anthropic", "claude"), 2},
		{"summary updated", h.summaryUpdated.WithLabelValues("anthropic", "claude"), 2},
		{"summary failed", h.summaryFailed.WithLabelValues("anthropic", "claude"), 1},
		{"compressed rounds", h.compressedRounds.WithLabelValues("anthropic", "claude"), 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.metric); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(h.requestMessages); n != 1 {
		t.Errorf("expected one request_messages series, got %d", n)
	}
}

func TestPrometheusHooks_SharedRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusHooks(reg)
	if err != nil {
		t.Fatalf("first NewPrometheusHooks failed: %v", err)
	}
	second, err := NewPrometheusHooks(reg)
	if err != nil {
		t.Fatalf("second NewPrometheusHooks failed: %v", err)
	}

	ctx := context.Background()
	req := Request{Model: llm.Model{ID: "claude", Provider: "anthropic"}}
	_ = first.BeforeRequest(ctx, req)
	_ = second.BeforeRequest(ctx, req)

	if got := testutil.ToFloat64(first.requests.WithLabelValues("anthropic", "claude")); got != 2 {
		t.Errorf("requests_total = %v, want 2 across both hooks", got)
	}
}

func TestPrometheusHooks_ConflictingCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agentctx",
		Subsystem: "compaction",
		Name:      "requests_total",
		Help:      "Unlabelled counter with the same name",
	}))

	if _, err := NewPrometheusHooks(reg); err == nil {
		t.Error("expected an error for a conflicting collector")
	}
}
