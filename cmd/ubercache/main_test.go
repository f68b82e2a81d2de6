package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Belphemur/ubercache/codec"
	"github.com/Belphemur/ubercache/internal/config"
)

func testConfig(operations int) *config.Config {
	cfg := &config.Config{}
	cfg.Cache.MaxEntries = 100
	cfg.Cache.Codec = "clone"
	cfg.Cache.Compression = codec.NoCompression
	cfg.Load.Operations = operations
	return cfg
}

func TestRun_Completes(t *testing.T) {
	if code := run(context.Background(), testConfig(20), zerolog.Nop()); code != 0 {
		t.Errorf("run = %d, want 0", code)
	}
}

func TestRun_AbortedLoadRunFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if code := run(ctx, testConfig(20), zerolog.Nop()); code != 1 {
		t.Errorf("run = %d, want 1", code)
	}
}

func TestRun_InvalidConfigurationFails(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *config.Config)
	}{
		{"unknown codec", func(cfg *config.Config) { cfg.Cache.Codec = "xml" }},
		{"bad ttl", func(cfg *config.Config) { cfg.Cache.DefaultTTL = "soon" }},
		{"negative capacity", func(cfg *config.Config) { cfg.Cache.MaxEntries = -1 }},
		{"no operations", func(cfg *config.Config) { cfg.Load.Operations = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(20)
			tt.modify(cfg)
			if code := run(context.Background(), cfg, zerolog.Nop()); code != 1 {
				t.Errorf("run = %d, want 1", code)
			}
		})
	}
}
