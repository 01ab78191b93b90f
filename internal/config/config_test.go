package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vango-dev/fibers/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Scheduler.MinRemaining.Std() != time.Millisecond {
		t.Errorf("MinRemaining = %v, want 1ms", cfg.Scheduler.MinRemaining)
	}
	if cfg.Scheduler.FrameInterval.Std() != 16*time.Millisecond {
		t.Errorf("FrameInterval = %v, want 16ms", cfg.Scheduler.FrameInterval)
	}
	if cfg.Scheduler.FrameBudget.Std() != 10*time.Millisecond {
		t.Errorf("FrameBudget = %v, want 10ms", cfg.Scheduler.FrameBudget)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want info/text", cfg.Log)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "scheduler": { "minRemaining": "2ms", "frameBudget": "5ms" },
  "debug": { "hookOrder": true },
  "log": { "level": "debug", "format": "json" },
  "server": { "addr": ":9000" }
}`
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scheduler.MinRemaining.Std() != 2*time.Millisecond {
		t.Errorf("MinRemaining = %v, want 2ms", cfg.Scheduler.MinRemaining)
	}
	if cfg.Scheduler.FrameBudget.Std() != 5*time.Millisecond {
		t.Errorf("FrameBudget = %v, want 5ms", cfg.Scheduler.FrameBudget)
	}
	// Unset fields keep their defaults.
	if cfg.Scheduler.FrameInterval.Std() != 16*time.Millisecond {
		t.Errorf("FrameInterval = %v, want 16ms", cfg.Scheduler.FrameInterval)
	}
	if !cfg.Debug.HookOrder {
		t.Error("Debug.HookOrder = false, want true")
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
	}
	if cfg.Path() != filepath.Join(dir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	content := `scheduler:
  frameInterval: 20ms
log:
  level: warn
metrics:
  enabled: true
  namespace: app
snapshot:
  bucket: snaps
  region: eu-west-1
`
	if err := os.WriteFile(filepath.Join(dir, "fibers.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scheduler.FrameInterval.Std() != 20*time.Millisecond {
		t.Errorf("FrameInterval = %v, want 20ms", cfg.Scheduler.FrameInterval)
	}
	if cfg.Log.SlogLevel().String() != "WARN" {
		t.Errorf("SlogLevel() = %v, want WARN", cfg.Log.SlogLevel())
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != "app" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Snapshot.Bucket != "snaps" || cfg.Snapshot.Region != "eu-west-1" {
		t.Errorf("Snapshot = %+v", cfg.Snapshot)
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"server":{"addr":":1"}}`), 0644)
	os.WriteFile(filepath.Join(dir, "fibers.yml"), []byte("server:\n  addr: \":2\"\n"), 0644)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":1" {
		t.Errorf("Server.Addr = %q, want :1", cfg.Server.Addr)
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.HasCode(err, "E141") {
		t.Errorf("Load() error = %v, want E141", err)
	}

	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    string
	}{
		{"bad json", ConfigFileName, `{not json`, "E120"},
		{"numeric duration", ConfigFileName, `{"scheduler":{"frameBudget":10}}`, "E120"},
		{"bad duration", "fibers.yaml", "scheduler:\n  frameBudget: soon\n", "E120"},
		{"budget over interval", ConfigFileName, `{"scheduler":{"frameInterval":"5ms","frameBudget":"10ms"}}`, "E121"},
		{"negative minRemaining", ConfigFileName, `{"scheduler":{"minRemaining":"-1ms"}}`, "E121"},
		{"bad level", "fibers.yml", "log:\n  level: loud\n", "E121"},
		{"bad format", ConfigFileName, `{"log":{"format":"xml"}}`, "E121"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(dir)
			if !errors.HasCode(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSaveTo(t *testing.T) {
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.Scheduler.FrameBudget = Duration(7 * time.Millisecond)
			cfg.Debug.HookOrder = true

			path := filepath.Join(t.TempDir(), name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error = %v", err)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if loaded.Scheduler.FrameBudget.Std() != 7*time.Millisecond {
				t.Errorf("FrameBudget = %v, want 7ms", loaded.Scheduler.FrameBudget)
			}
			if !loaded.Debug.HookOrder {
				t.Error("Debug.HookOrder = false, want true")
			}
		})
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Error("Exists() = true for empty dir")
	}
	os.WriteFile(filepath.Join(dir, "fibers.yml"), []byte("{}\n"), 0644)
	if !Exists(dir) {
		t.Error("Exists() = false after writing fibers.yml")
	}
}
