package agentctx

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/youssefsiam38/agentctx/audit"
	"github.com/youssefsiam38/agentctx/compaction"
	"github.com/youssefsiam38/agentctx/hooks"
	"github.com/youssefsiam38/agentctx/llm"
	"github.com/youssefsiam38/agentctx/storage"
)

// ModelInfo contains model-specific parameters
type ModelInfo struct {
	MaxContextTokens int
	DefaultMaxTokens int
}

// KnownModels maps Anthropic model IDs to their capabilities
var KnownModels = map[string]ModelInfo{
	// Claude 4 models
	"claude-sonnet-4-5-20250929": {MaxContextTokens: 200000, DefaultMaxTokens: 16384},
	"claude-opus-4-5-20251101":   {MaxContextTokens: 200000, DefaultMaxTokens: 16384},
	"claude-haiku-4-5-20251001":  {MaxContextTokens: 200000, DefaultMaxTokens: 16384},
	// Claude 3.5 models
	"claude-3-5-sonnet-20241022": {MaxContextTokens: 200000, DefaultMaxTokens: 8192},
	"claude-3-5-haiku-20241022":  {MaxContextTokens: 200000, DefaultMaxTokens: 8192},
}

// GetModelInfo returns model info, using sensible defaults for unknown models
func GetModelInfo(model string) ModelInfo {
	if info, ok := KnownModels[model]; ok {
		return info
	}
	// Sensible defaults for unknown models
	return ModelInfo{MaxContextTokens: 200000, DefaultMaxTokens: 8192}
}

// AnthropicModel returns an llm.Model for an Anthropic model ID with its
// known context window and response ceiling filled in.
func AnthropicModel(id string) llm.Model {
	info := GetModelInfo(id)
	return llm.Model{
		Provider:      "anthropic",
		ID:            id,
		ContextWindow: info.MaxContextTokens,
		MaxTokens:     info.DefaultMaxTokens,
	}
}

// Config holds the base configuration for an Engine. Options applied in New
// override individual fields.
//
// Example:
//
//	engine, _ := agentctx.New(provider, agentctx.Config{
//	    Compaction: compaction.Config{TriggerRounds: 6},
//	    Tags:       audit.Tags{SessionID: sessionID},
//	})
type Config struct {
	// Compaction tunes the engine. Zero fields take defaults.
	Compaction compaction.Config

	// Tags identify the run in logs and audit records. Provider and model
	// are filled from each request when unset.
	Tags audit.Tags
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Compaction.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// internalConfig holds the full engine configuration including optional parameters
type internalConfig struct {
	compaction compaction.Config
	logger     Logger
	hooks      *hooks.Registry

	// Audit sinks
	fileAudit   bool
	auditDir    string
	auditPrefix string
	auditStore  storage.Store

	// Request trace
	traceFile string
	traceOut  io.Writer

	promRegisterer prometheus.Registerer
}

// newInternalConfig creates a new internal config from the public Config
func newInternalConfig(cfg Config) *internalConfig {
	cc := cfg.Compaction
	cc.Tags = cfg.Tags

	return &internalConfig{
		compaction: cc,
		hooks:      hooks.NewRegistry(),

		// Defaults
		fileAudit: true,
		traceOut:  os.Stderr,
	}
}
