package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP     HTTPConfig
	Graph    GraphConfig
	Postgres PostgresConfig
	Ledger   LedgerConfig
	Flow     FlowConfig
	Logging  LoggingConfig
	SeedPath string
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowedOriginsCSV string
	IdempotencyTTL    time.Duration
}

// GraphConfig describes connectivity to the Neo4j ledger mirror.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// PostgresConfig describes connectivity to the Postgres ledger mirror.
type PostgresConfig struct {
	URL      string
	MaxConns int
}

// MirrorMode selects which external ledger receives commit copies.
type MirrorMode string

const (
	MirrorNone     MirrorMode = "none"
	MirrorGraph    MirrorMode = "graph"
	MirrorPostgres MirrorMode = "postgres"
)

// LedgerConfig controls the asynchronous ledger mirror.
type LedgerConfig struct {
	Mirror    MirrorMode
	Workers   int
	QueueSize int
}

// FlowConfig tunes the guided transaction flows.
type FlowConfig struct {
	HoldDuration time.Duration
	TTL          time.Duration // flows older than this are evicted
	SeedWorkers  int
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultIdempotencyTTL   = 10 * time.Minute
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultPostgresMaxConns = 5
	defaultMirrorWorkers    = 4
	defaultMirrorQueueSize  = 256
	defaultHoldDuration     = 1500 * time.Millisecond
	defaultFlowTTL          = 30 * time.Minute
	defaultSeedWorkers      = 4
)

// Load reads an optional .env file, then configuration from environment
// variables, applying defaults. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTP: HTTPConfig{
			Host:              valueOrDefault("SERVER_HOST", defaultHost),
			AllowedOriginsCSV: os.Getenv("SERVER_ALLOWED_ORIGINS"),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
		Postgres: PostgresConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: parseIntWithDefault("DATABASE_MAX_CONNS", defaultPostgresMaxConns),
		},
		Ledger: LedgerConfig{
			Workers:   parseIntWithDefault("LEDGER_MIRROR_WORKERS", defaultMirrorWorkers),
			QueueSize: parseIntWithDefault("LEDGER_MIRROR_QUEUE", defaultMirrorQueueSize),
		},
		Flow: FlowConfig{
			SeedWorkers: parseIntWithDefault("SEED_WORKERS", defaultSeedWorkers),
		},
		SeedPath: os.Getenv("SEED_PATH"),
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", defaultReadTimeout, &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", defaultWriteTimeout, &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", defaultIdleTimeout, &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout, &cfg.HTTP.ShutdownTimeout},
		{"SERVER_IDEMPOTENCY_TTL", defaultIdempotencyTTL, &cfg.HTTP.IdempotencyTTL},
		{"FLOW_HOLD_DURATION", defaultHoldDuration, &cfg.Flow.HoldDuration},
		{"FLOW_TTL", defaultFlowTTL, &cfg.Flow.TTL},
	}
	for _, d := range durations {
		val, err := parseDuration(d.key, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.dst = val
	}

	mode, err := parseMirrorMode(valueOrDefault("LEDGER_MIRROR", string(MirrorNone)))
	if err != nil {
		return Config{}, err
	}
	cfg.Ledger.Mirror = mode

	switch mode {
	case MirrorGraph:
		if cfg.Graph.URI == "" {
			return Config{}, errors.New("LEDGER_MIRROR=graph requires GRAPH_URI")
		}
	case MirrorPostgres:
		if cfg.Postgres.URL == "" {
			return Config{}, errors.New("LEDGER_MIRROR=postgres requires DATABASE_URL")
		}
	}

	return cfg, nil
}

// Address returns the host:port listen address.
func (c HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AllowedOrigins splits AllowedOriginsCSV into trimmed, non-empty origins.
func (c HTTPConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOriginsCSV, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func parseMirrorMode(v string) (MirrorMode, error) {
	switch mode := MirrorMode(strings.ToLower(strings.TrimSpace(v))); mode {
	case MirrorNone, MirrorGraph, MirrorPostgres:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid LEDGER_MIRROR value %q", v)
	}
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
