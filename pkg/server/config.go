package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/fibers/pkg/metrics"
	"github.com/vango-dev/fibers/pkg/middleware"
	"github.com/vango-dev/fibers/pkg/snapshot"
)

// Config holds server configuration.
type Config struct {
	// ReadBufferSize is the websocket read buffer size.
	// Default: 1024.
	ReadBufferSize int

	// WriteBufferSize is the websocket write buffer size.
	// Default: 4096.
	WriteBufferSize int

	// WriteTimeout is the maximum time to wait when sending a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize is the maximum size of an incoming websocket message.
	// Default: 64KB.
	MaxMessageSize int64

	// SendQueue is how many frames may wait for a slow client before the
	// stream is dropped.
	// Default: 64.
	SendQueue int

	// CheckOrigin validates websocket upgrade origins.
	// Default: same-origin only (gorilla's default).
	CheckOrigin func(r *http.Request) bool

	// MinRemaining is the reconciler's yield threshold. Zero keeps
	// reconciler.DefaultMinRemaining.
	MinRemaining time.Duration

	// DebugHooks enables hook order checks.
	DebugHooks bool

	// Metrics receives reconciler and event metrics. Nil disables them.
	Metrics *metrics.Collector

	// HTTPMetrics receives request and stream metrics. Nil disables them.
	HTTPMetrics *middleware.Metrics

	// Gatherer serves /metrics.
	// Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Store enables the /snapshots endpoints.
	Store snapshot.Store

	// Logger is the server logger.
	// Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		WriteTimeout:    10 * time.Second,
		MaxMessageSize:  64 * 1024,
		SendQueue:       64,
		Gatherer:        prometheus.DefaultGatherer,
	}
}

// Clone returns a shallow copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

func (c *Config) withDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}
	cfg := c.Clone()
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = out.ReadBufferSize
	}
	if cfg.WriteBufferSize <= 0 {
		cfg.WriteBufferSize = out.WriteBufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = out.WriteTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = out.MaxMessageSize
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = out.SendQueue
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = out.Gatherer
	}
	return cfg
}
