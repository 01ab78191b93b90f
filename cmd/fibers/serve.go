package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vango-dev/fibers/internal/config"
	"github.com/vango-dev/fibers/pkg/idle"
	"github.com/vango-dev/fibers/pkg/metrics"
	"github.com/vango-dev/fibers/pkg/middleware"
	"github.com/vango-dev/fibers/pkg/server"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		addr      string
		snapshots bool
	)

	cmd := &cobra.Command{
		Use:   "serve [demo]",
		Short: "Serve a demo over HTTP",
		Long: `Mount a demo on an idle loop and serve it over HTTP.

Endpoints:
  GET  /tree                       Committed host tree (HTML, or ?format=json)
  POST /nodes/{id}/events/{type}   Dispatch a native event at a node
  GET  /ws                         Mutation stream (binary frames)
  GET  /metrics                    Prometheus metrics
  /snapshots                       Snapshot store (with --snapshots)

Examples:
  fibers serve
  fibers serve app --addr :8080 --snapshots`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			name, el, err := lookupDemo(args)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			logger := newLogger(cfg.Log, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loop, loopDone := startLoop(ctx, cfg, logger)
			defer loop.Stop()

			scfg := serverConfig(cfg, logger)
			w := cmd.OutOrStdout()
			if snapshots {
				store, where, err := openStore(cfg.Snapshot)
				if err != nil {
					return err
				}
				scfg.Store = store
				info(w, "Snapshots: %s", where)
			}

			srv := server.New(loop, scfg)
			if err := srv.Render(ctx, el); err != nil {
				return err
			}

			printBanner(w)
			success(w, "Serving %s on http://%s", name, addr)

			err = srv.ListenAndServe(ctx, addr)
			if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
				err = nil
			}
			stop()
			if lerr := <-loopDone; err == nil && lerr != nil && !errors.Is(lerr, context.Canceled) {
				err = lerr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "Enable the /snapshots endpoints")

	return cmd
}

// startLoop runs an idle loop configured from cfg until ctx is done. The
// returned channel receives Run's result.
func startLoop(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*idle.Loop, <-chan error) {
	loop := idle.NewLoop(
		idle.WithFrameInterval(cfg.Scheduler.FrameInterval.Std()),
		idle.WithFrameBudget(cfg.Scheduler.FrameBudget.Std()),
		idle.WithLogger(logger.With("component", "idle")),
	)
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	return loop, done
}

// serverConfig maps cfg onto a server config. Metrics get a private
// registry that /metrics serves.
func serverConfig(cfg *config.Config, logger *slog.Logger) *server.Config {
	scfg := server.DefaultConfig()
	scfg.Logger = logger
	scfg.MinRemaining = cfg.Scheduler.MinRemaining.Std()
	scfg.DebugHooks = cfg.Debug.HookOrder
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		scfg.Metrics = metrics.New(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithRegistry(reg),
		)
		scfg.HTTPMetrics = middleware.NewMetrics(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithRegistry(reg),
		)
		scfg.Gatherer = reg
	}
	return scfg
}
