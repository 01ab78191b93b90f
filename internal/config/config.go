package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/fibers/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "fibers.json"

	// DefaultAddr is the default inspection server address.
	DefaultAddr = "localhost:7070"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "fibers"

	// DefaultSnapshotDir is the default local snapshot directory.
	DefaultSnapshotDir = "snapshots"
)

// candidates are the file names Load looks for, in order.
var candidates = []string{ConfigFileName, "fibers.yaml", "fibers.yml"}

// Config represents the complete configuration.
type Config struct {
	// Scheduler controls the work loop and the idle loop frame timing.
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`

	// Debug enables development checks.
	Debug DebugConfig `json:"debug" yaml:"debug"`

	// Log configures the default slog handler.
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics configures Prometheus collectors.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Server configures the inspection server.
	Server ServerConfig `json:"server" yaml:"server"`

	// Snapshot configures where host tree snapshots are stored.
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// SchedulerConfig contains work loop timing.
type SchedulerConfig struct {
	// MinRemaining is the idle budget below which the work loop yields.
	MinRemaining Duration `json:"minRemaining,omitempty" yaml:"minRemaining,omitempty"`

	// FrameInterval is how often idle callbacks run.
	FrameInterval Duration `json:"frameInterval,omitempty" yaml:"frameInterval,omitempty"`

	// FrameBudget is the deadline handed to each idle callback.
	FrameBudget Duration `json:"frameBudget,omitempty" yaml:"frameBudget,omitempty"`
}

// DebugConfig contains development checks.
type DebugConfig struct {
	// HookOrder fails a render pass when a component's hook count changes.
	HookOrder bool `json:"hookOrder,omitempty" yaml:"hookOrder,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// ServerConfig configures the inspection server.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// SnapshotConfig configures snapshot storage. A non-empty Bucket selects
// S3; otherwise snapshots are written under Dir.
type SnapshotConfig struct {
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load finds and loads the configuration file in dir.
func Load(dir string) (*Config, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E141").
		WithDetail("No fibers.json or fibers.yaml found in " + dir).
		WithSuggestion("Create fibers.json, or run without a config to use defaults")
}

// LoadFile loads a configuration file. The format follows the extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Durations are strings such as \"16ms\"")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the configuration in dir, or returns defaults when
// there is none.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, "E141") {
		return New(), nil
	}
	return cfg, err
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Scheduler.MinRemaining == 0 {
		c.Scheduler.MinRemaining = Duration(time.Millisecond)
	}
	if c.Scheduler.FrameInterval == 0 {
		c.Scheduler.FrameInterval = Duration(16 * time.Millisecond)
	}
	if c.Scheduler.FrameBudget == 0 {
		c.Scheduler.FrameBudget = Duration(10 * time.Millisecond)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = DefaultSnapshotDir
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	s := c.Scheduler
	if s.MinRemaining < 0 {
		return errors.New("E121").WithDetail("scheduler.minRemaining must not be negative")
	}
	if s.FrameInterval <= 0 {
		return errors.New("E121").WithDetail("scheduler.frameInterval must be positive")
	}
	if s.FrameBudget <= 0 || s.FrameBudget > s.FrameInterval {
		return errors.New("E121").
			WithDetailf("scheduler.frameBudget %s must be positive and at most frameInterval %s", s.FrameBudget, s.FrameInterval)
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		return errors.New("E121").
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return errors.New("E121").
			WithDetailf("log.format %q is not text or json", c.Log.Format)
	}
	return nil
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured slog level.
func (l LogConfig) SlogLevel() slog.Level {
	return levels[strings.ToLower(l.Level)]
}

// Exists checks if a configuration file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range candidates {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
