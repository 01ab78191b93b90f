package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vango-dev/fibers/pkg/protocol"
	"github.com/vango-dev/fibers/pkg/snapshot"
)

// dispatchRequest is the optional JSON body of an event POST.
type dispatchRequest struct {
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	Key     string  `json:"key"`
	Value   string  `json:"value"`
}

type dispatchResponse struct {
	DefaultPrevented bool `json:"defaultPrevented"`
	Flushed          bool `json:"flushed"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "json" {
		snap, err := s.Snapshot(r.Context(), "live")
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = snap.Encode(w)
		return
	}

	html, err := s.HTML(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("node id must be an unsigned integer"))
		return
	}

	var body dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	msg := &protocol.EventMessage{
		Target:  id,
		Type:    chi.URLParam(r, "type"),
		ClientX: body.ClientX,
		ClientY: body.ClientY,
		Key:     body.Key,
		Value:   body.Value,
	}
	flush := r.URL.Query().Get("flush") == "true"

	prevented, err := s.Dispatch(r.Context(), msg, flush)
	switch {
	case errors.Is(err, ErrUnknownNode):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, dispatchResponse{DefaultPrevented: prevented, Flushed: flush})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	names, err := s.config.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Snapshot(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if err := s.config.Store.Put(r.Context(), snap); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, snapshot.ErrInvalidName) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"name": snap.Name, "nodes": snap.Nodes})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.config.Store.Get(r.Context(), chi.URLParam(r, "name"))
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, snapshot.ErrInvalidName):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = snap.Encode(w)
}
