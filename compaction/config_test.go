package compaction

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.TriggerRounds != 4 || cfg.KeepRecentRounds != 2 || cfg.SummaryBatchRounds != 4 ||
		cfg.SummaryMaxCalls != 6 || cfg.SummaryInputMaxChars != 18000 || cfg.SummaryMaxTokens != 1000 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{
			name: "zero values use defaults",
			in:   Config{},
			want: *DefaultConfig(),
		},
		{
			name: "values below floor are raised",
			in: Config{
				TriggerRounds:        1,
				KeepRecentRounds:     0,
				SummaryBatchRounds:   1,
				SummaryMaxCalls:      1,
				SummaryInputMaxChars: 10,
				SummaryMaxTokens:     100,
			},
			want: Config{
				TriggerRounds:        MinTriggerRounds,
				KeepRecentRounds:     DefaultKeepRecentRounds,
				SummaryBatchRounds:   1,
				SummaryMaxCalls:      1,
				SummaryInputMaxChars: MinSummaryInputMaxChars,
				SummaryMaxTokens:     MinSummaryMaxTokens,
			},
		},
		{
			name: "overrides kept",
			in:   Config{TriggerRounds: 10, KeepRecentRounds: 3, SummaryMaxTokens: 2048},
			want: Config{
				TriggerRounds:        10,
				KeepRecentRounds:     3,
				SummaryBatchRounds:   DefaultSummaryBatchRounds,
				SummaryMaxCalls:      DefaultSummaryMaxCalls,
				SummaryInputMaxChars: DefaultSummaryInputMaxChars,
				SummaryMaxTokens:     2048,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			cfg.ApplyDefaults()
			if cfg != tt.want {
				t.Errorf("ApplyDefaults() = %+v, want %+v", cfg, tt.want)
			}
		})
	}
}

func TestConfig_ValidateRejectsNegatives(t *testing.T) {
	cfg := &Config{SummaryMaxCalls: -1}
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
