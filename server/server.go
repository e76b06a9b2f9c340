// Package server exposes a level store over HTTP.
package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/levelstore"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Server serves the level routes:
//
//	GET    /level/{id}
//	POST   /level/{id}
//	DELETE /level/{id}
//	GET    /levels
//	GET    /events   (websocket change feed)
type Server struct {
	store levelstore.Store
	hub   *Hub
	log   *zap.Logger
	mux   *http.ServeMux

	// PublishWrites sends a change notice from the handlers after each
	// successful write or delete. Leave it off when a Watcher feeds the hub.
	PublishWrites bool
}

func New(store levelstore.Store, hub *Hub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{store: store, hub: hub, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /level/{id}", s.handleGet)
	s.mux.HandleFunc("POST /level/{id}", s.handlePost)
	s.mux.HandleFunc("DELETE /level/{id}", s.handleDelete)
	s.mux.HandleFunc("GET /levels", s.handleList)
	if hub != nil {
		s.mux.Handle("GET /events", hub)
	}
	return s
}

// Handler returns the mux wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(cors(s.mux))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := s.store.Read(r.Context(), id)
	if err != nil {
		s.fail(w, err, "read", id)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Level data must be a non-empty array.", http.StatusBadRequest)
		return
	}
	doc, err := levels.Parse(body)
	if err != nil {
		http.Error(w, "Level data must be a non-empty array.", http.StatusBadRequest)
		return
	}
	if err := s.store.Write(r.Context(), id, doc); err != nil {
		s.fail(w, err, "write", id)
		return
	}
	s.publish(levelstore.Change{Op: levelstore.OpWrite, ID: id})
	writeText(w, http.StatusOK, "Level saved successfully.")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.fail(w, err, "delete", id)
		return
	}
	s.publish(levelstore.Change{Op: levelstore.OpDelete, ID: id})
	writeText(w, http.StatusOK, "Level deleted successfully.")
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, err, "list", "")
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) publish(c levelstore.Change) {
	if s.PublishWrites && s.hub != nil {
		s.hub.Publish(c)
	}
}

// fail maps the store error taxonomy onto status codes.
func (s *Server) fail(w http.ResponseWriter, err error, op, id string) {
	var (
		notFound   *levels.NotFoundError
		validation *levels.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		http.Error(w, "Level not found", http.StatusNotFound)
	case errors.As(err, &validation):
		http.Error(w, validation.Reason, http.StatusBadRequest)
	default:
		s.log.Error("store failure", zap.String("op", op), zap.String("id", id), zap.Error(err))
		http.Error(w, "Server error.", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("server: response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
