package config

import (
	"testing"
	"time"
)

var configKeys = []string{
	"SERVER_HOST", "SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
	"SERVER_IDLE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT", "SERVER_IDEMPOTENCY_TTL",
	"SERVER_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "LOG_INCLUDE_CALLER",
	"GRAPH_URI", "GRAPH_DATABASE", "GRAPH_USERNAME", "GRAPH_PASSWORD", "GRAPH_MAX_CONNECTIONS",
	"DATABASE_URL", "DATABASE_MAX_CONNS", "LEDGER_MIRROR", "LEDGER_MIRROR_WORKERS",
	"LEDGER_MIRROR_QUEUE", "FLOW_HOLD_DURATION", "FLOW_TTL", "SEED_WORKERS", "SEED_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTP.Address() != "0.0.0.0:8080" {
		t.Fatalf("unexpected address %s", cfg.HTTP.Address())
	}
	if cfg.Flow.HoldDuration != 1500*time.Millisecond || cfg.Flow.TTL != 30*time.Minute {
		t.Fatalf("unexpected flow config %+v", cfg.Flow)
	}
	if cfg.Ledger.Mirror != MirrorNone || cfg.Ledger.Workers != 4 {
		t.Fatalf("unexpected ledger config %+v", cfg.Ledger)
	}
	if cfg.HTTP.AllowedOrigins() != nil {
		t.Fatalf("expected no origins, got %v", cfg.HTTP.AllowedOrigins())
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("FLOW_HOLD_DURATION", "2s")
	t.Setenv("LEDGER_MIRROR", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/spay")
	t.Setenv("LEDGER_MIRROR_WORKERS", "8")
	t.Setenv("SEED_PATH", "seed.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Fatalf("unexpected port %d", cfg.HTTP.Port)
	}
	if origins := cfg.HTTP.AllowedOrigins(); len(origins) != 2 || origins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", origins)
	}
	if cfg.Flow.HoldDuration != 2*time.Second {
		t.Fatalf("unexpected hold duration %s", cfg.Flow.HoldDuration)
	}
	if cfg.Ledger.Mirror != MirrorPostgres || cfg.Ledger.Workers != 8 {
		t.Fatalf("unexpected ledger config %+v", cfg.Ledger)
	}
	if cfg.SeedPath != "seed.json" {
		t.Fatalf("unexpected seed path %q", cfg.SeedPath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"port":           {"SERVER_PORT": "70000"},
		"port syntax":    {"SERVER_PORT": "eighty"},
		"duration":       {"SERVER_READ_TIMEOUT": "soon"},
		"hold":           {"FLOW_HOLD_DURATION": "-1s"},
		"flow ttl":       {"FLOW_TTL": "0s"},
		"mirror":         {"LEDGER_MIRROR": "kafka"},
		"graph no uri":   {"LEDGER_MIRROR": "graph"},
		"postgres no db": {"LEDGER_MIRROR": "postgres"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
