package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/events"
	"github.com/vango-dev/fibers/pkg/fiber"
	"github.com/vango-dev/fibers/pkg/idle"
	"github.com/vango-dev/fibers/pkg/memhost"
	"github.com/vango-dev/fibers/pkg/middleware"
	"github.com/vango-dev/fibers/pkg/protocol"
	"github.com/vango-dev/fibers/pkg/reconciler"
	"github.com/vango-dev/fibers/pkg/snapshot"
)

// ErrUnknownNode is returned when an event targets a node that is not in
// the live tree.
var ErrUnknownNode = errors.New("server: unknown node")

// Server serves one live tree.
type Server struct {
	config    *Config
	loop      *idle.Loop
	doc       *memhost.Document
	container *memhost.Node
	root      *reconciler.Root
	events    *events.System
	router    chi.Router
	upgrader  websocket.Upgrader
	logger    *slog.Logger

	mu      sync.Mutex
	streams map[*stream]struct{}
	closed  bool
}

// New creates a Server whose tree is driven by loop. The loop must be
// running, or started later, for any request to complete.
func New(loop *idle.Loop, config *Config) *Server {
	config = config.withDefaults()
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &Server{
		config:  config,
		loop:    loop,
		doc:     memhost.New(),
		streams: make(map[*stream]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: logger,
	}

	s.container = s.doc.CreateContainer("root")
	eventOpts := []events.Option{events.WithMetrics(config.Metrics)}
	if config.Logger != nil {
		eventOpts = append(eventOpts, events.WithLogger(config.Logger.With("component", "events")))
	}
	s.events = events.New(s.doc, eventOpts...)
	s.events.Listen(s.container)

	opts := []reconciler.Option{
		reconciler.WithDelegatedEvents(s.events.Handles),
		reconciler.WithOnCommit(s.onCommit),
		reconciler.WithMetrics(config.Metrics),
		reconciler.WithDebugHooks(config.DebugHooks),
	}
	if config.Logger != nil {
		opts = append(opts, reconciler.WithLogger(config.Logger.With("component", "reconciler")))
	}
	if config.MinRemaining > 0 {
		opts = append(opts, reconciler.WithMinRemaining(config.MinRemaining))
	}
	s.root = reconciler.New(s.container, s.doc, loop, opts...)

	// Streams start from a replay, so setup mutations are not journaled.
	s.doc.Drain()

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Tracing(middleware.WithFilter(func(r *http.Request) bool {
		return r.URL.Path != "/metrics"
	})))
	r.Use(s.config.HTTPMetrics.Handler)
	r.Use(s.requestLogger)

	r.Get("/tree", s.handleTree)
	r.Post("/nodes/{id}/events/{type}", s.handleDispatch)
	r.Get("/ws", s.handleStream)
	r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))

	if s.config.Store != nil {
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Post("/{name}", s.handleSaveSnapshot)
			r.Get("/{name}", s.handleGetSnapshot)
		})
	}
	return r
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Render stages el as the tree. The pass runs on the loop's idle ticks.
func (s *Server) Render(ctx context.Context, el *element.Element) error {
	return s.loop.Do(ctx, func() { s.root.Render(el) })
}

// Flush runs any staged pass to completion on the loop.
func (s *Server) Flush(ctx context.Context) error {
	var err error
	if doErr := s.loop.Do(ctx, func() { err = s.root.Flush() }); doErr != nil {
		return doErr
	}
	return err
}

// Dispatch delivers msg to its target node. It reports whether a handler
// prevented the default action. With flush, a pass staged by the handlers
// is run and committed before Dispatch returns.
func (s *Server) Dispatch(ctx context.Context, msg *protocol.EventMessage, flush bool) (prevented bool, err error) {
	doErr := s.loop.Do(ctx, func() {
		node, ok := s.doc.NodeByID(msg.Target)
		if !ok || !s.container.Contains(node) {
			err = ErrUnknownNode
			return
		}
		prevented = !s.doc.DispatchEvent(node, nativeEvent(msg))
		if flush {
			err = s.root.Flush()
		}
	})
	if doErr != nil {
		return false, doErr
	}
	return prevented, err
}

// HTML renders the container.
func (s *Server) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.loop.Do(ctx, func() { html = s.container.HTML() })
	return html, err
}

// Snapshot captures the container.
func (s *Server) Snapshot(ctx context.Context, name string) (*snapshot.Snapshot, error) {
	var snap *snapshot.Snapshot
	err := s.loop.Do(ctx, func() { snap = snapshot.Capture(name, s.container) })
	return snap, err
}

// Close stops the reconciler and closes all streams.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	streams := make([]*stream, 0, len(s.streams))
	for st := range s.streams {
		streams = append(streams, st)
	}
	s.mu.Unlock()

	for _, st := range streams {
		st.close()
	}
	_ = s.loop.Submit(func() {
		s.root.Stop()
		s.events.Close()
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// onCommit runs on the loop after every commit and fans the commit's
// mutations out to the streams.
func (s *Server) onCommit(*fiber.Fiber) {
	mf := s.doc.DrainFrame()
	if mf == nil {
		return
	}
	s.broadcast(encodeMutations(mf, 0))
}

func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for st := range s.streams {
		if !st.enqueue(data) {
			s.logger.Warn("dropping slow stream", "remote", st.remote)
			s.config.HTTPMetrics.StreamError("overflow")
			go st.close()
		}
	}
}

func encodeMutations(mf *protocol.MutationFrame, flags protocol.FrameFlags) []byte {
	frame := protocol.NewFrame(protocol.FrameMutations, protocol.EncodeMutations(mf))
	frame.Flags = flags
	return frame.Encode()
}

func encodeError(err error) []byte {
	e := protocol.NewEncoder()
	e.PutString(err.Error())
	return protocol.NewFrame(protocol.FrameError, e.Bytes()).Encode()
}

// nativeEvent builds the host event for msg, choosing the event shape the
// event system expects for its type.
func nativeEvent(msg *protocol.EventMessage) *memhost.Event {
	info, _ := events.Lookup(msg.Type)
	switch info.Kind {
	case events.KindMouse:
		return memhost.NewMouseEvent(msg.Type, msg.ClientX, msg.ClientY)
	case events.KindKeyboard:
		return memhost.NewKeyboardEvent(msg.Type, msg.Key)
	case events.KindInput:
		return memhost.NewInputEvent(msg.Type, msg.Value)
	default:
		return memhost.NewEvent(msg.Type)
	}
}
