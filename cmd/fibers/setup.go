package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vango-dev/fibers/internal/config"
	"github.com/vango-dev/fibers/internal/demo"
	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/snapshot"
)

// loadConfig loads the config at path, which may be a file or a
// directory. A directory without a config file yields defaults.
func loadConfig(path string) (*config.Config, error) {
	st, err := os.Stat(path)
	if err == nil && !st.IsDir() {
		return config.LoadFile(path)
	}
	return config.LoadOrDefault(path)
}

// newLogger builds the slog logger described by cfg.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// lookupDemo resolves a demo name, defaulting to "counter".
func lookupDemo(args []string) (string, *element.Element, error) {
	name := "counter"
	if len(args) > 0 {
		name = args[0]
	}
	el, ok := demo.Lookup(name)
	if !ok {
		return "", nil, fmt.Errorf("unknown demo %q (available: %s)", name, strings.Join(demo.Names(), ", "))
	}
	return name, el, nil
}

// openStore returns the configured snapshot store and a description of
// where it writes.
func openStore(cfg config.SnapshotConfig) (snapshot.Store, string, error) {
	if cfg.Bucket != "" {
		client := snapshot.NewS3Client(cfg.Region)
		return snapshot.NewS3Store(client, cfg.Bucket, cfg.Prefix), "s3://" + cfg.Bucket + "/" + cfg.Prefix, nil
	}
	store, err := snapshot.NewDiskStore(cfg.Dir)
	if err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}
