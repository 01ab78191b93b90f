package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/fibers/pkg/protocol"
)

// stream is one websocket client of the mutation stream.
type stream struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	onDone func()

	// Guarded by Server.mu.
	registered bool
	abandoned  bool
}

// enqueue queues data without blocking. It returns false when the client
// is too far behind.
func (st *stream) enqueue(data []byte) bool {
	select {
	case <-st.done:
		return true
	default:
	}
	select {
	case st.send <- data:
		return true
	default:
		return false
	}
}

func (st *stream) close() {
	st.once.Do(func() {
		close(st.done)
		st.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		st.conn.Close()
		if st.onDone != nil {
			st.onDone()
		}
	})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		s.config.HTTPMetrics.StreamError("upgrade")
		return
	}

	st := s.newStream(conn, r.RemoteAddr)

	// The replay and the registration happen in one loop task, so the
	// stream sees every later commit exactly once. The task may still run
	// after Do gives up on ctx; an abandoned stream is never registered.
	err = s.loop.Do(r.Context(), func() { s.register(st) })
	if err != nil {
		s.logger.Warn("stream setup failed", "error", err)
		s.abandon(st)
		return
	}

	s.logger.Info("stream opened", "remote", st.remote)

	go s.writeLoop(st)
	s.readLoop(st)
}

func (s *Server) newStream(conn *websocket.Conn, remote string) *stream {
	st := &stream{
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, s.config.SendQueue),
		done:   make(chan struct{}),
	}
	st.onDone = func() {
		s.mu.Lock()
		registered := st.registered
		st.registered = false
		delete(s.streams, st)
		s.mu.Unlock()
		if registered {
			s.config.HTTPMetrics.StreamClosed()
			s.logger.Info("stream closed", "remote", st.remote)
		}
	}
	return st
}

// register queues the initial replay frame on st and subscribes it to
// commits. It must run on the loop.
func (s *Server) register(st *stream) {
	mf := &protocol.MutationFrame{
		Seq:       s.doc.Seq(),
		Mutations: s.doc.Replay(s.container),
	}
	data := encodeMutations(mf, protocol.FlagInitial)

	s.mu.Lock()
	defer s.mu.Unlock()
	if st.abandoned {
		return
	}
	st.send <- data
	s.streams[st] = struct{}{}
	st.registered = true
	s.config.HTTPMetrics.StreamOpened()
}

// abandon gives up on a stream whose setup failed. If the setup task
// already registered it, closing deregisters it and balances the open.
func (s *Server) abandon(st *stream) {
	s.mu.Lock()
	st.abandoned = true
	s.mu.Unlock()
	st.close()
}

// writeLoop sends queued frames until the stream closes.
func (s *Server) writeLoop(st *stream) {
	defer st.close()
	for {
		select {
		case <-st.done:
			return
		case data := <-st.send:
			st.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := st.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				s.logger.Warn("write error", "remote", st.remote, "error", err)
				s.config.HTTPMetrics.StreamError("write")
				return
			}
			s.config.HTTPMetrics.FrameSent()
		}
	}
}

// readLoop dispatches Event frames from the client until the connection
// closes.
func (s *Server) readLoop(st *stream) {
	defer st.close()
	st.conn.SetReadLimit(s.config.MaxMessageSize)

	for {
		_, msg, err := st.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Warn("read error", "remote", st.remote, "error", err)
				s.config.HTTPMetrics.StreamError("read")
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.reject(st, err)
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			ev, err := protocol.DecodeEvent(frame.Payload)
			if err != nil {
				s.reject(st, err)
				continue
			}
			if _, err := s.Dispatch(context.Background(), ev, false); err != nil {
				s.reject(st, err)
			}
		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type)
		}
	}
}

// reject reports a bad client frame back on the stream.
func (s *Server) reject(st *stream, err error) {
	s.logger.Debug("rejected client frame", "remote", st.remote, "error", err)
	s.config.HTTPMetrics.StreamError("decode")
	if !st.enqueue(encodeError(err)) {
		go st.close()
	}
}
