// Package server exposes a running engine over HTTP: JSON endpoints for the
// state, the catalog and commands, and a websocket stream of snapshots.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/tulen-chik/reshalka/internal/engine"
)

const writeTimeout = 5 * time.Second

// Server serves one engine. The engine must have been created with the
// server's Hub as an observer, and its Run loop must be active.
type Server struct {
	engine *engine.Engine
	hub    *Hub
	logger *slog.Logger
	router *mux.Router
}

// Options configures a Server.
type Options struct {
	Engine *engine.Engine
	Hub    *Hub
	Logger *slog.Logger
	// AllowedOrigins are host patterns accepted for websocket upgrades from
	// another origin. Same-origin requests are always accepted.
	AllowedOrigins []string
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: opts.Engine,
		hub:    opts.Hub,
		logger: logger,
		router: mux.NewRouter(),
	}

	s.router.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	s.router.HandleFunc("/api/categories", s.handleCategories).Methods(http.MethodGet)
	s.router.HandleFunc("/api/commands", s.handleCommand).Methods(http.MethodPost)
	s.router.HandleFunc("/api/events", s.handleEvents(opts.AllowedOrigins)).Methods(http.MethodGet)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type categoryBody struct {
	Name    string       `json:"name"`
	Puzzles []puzzleBody `json:"puzzles"`
}

type puzzleBody struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cat := s.engine.Catalog()
	out := make([]categoryBody, 0, len(cat.Categories))
	for _, c := range cat.Categories {
		body := categoryBody{Name: c.Name, Puzzles: make([]puzzleBody, 0, len(c.Puzzles))}
		for _, p := range c.Puzzles {
			body.Puzzles = append(body.Puzzles, puzzleBody{Name: p.Name, Kind: p.Kind})
		}
		out = append(out, body)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd engine.Command
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	res, err := s.engine.Do(r.Context(), cmd)
	if err != nil {
		var engErr *engine.Error
		switch {
		case engine.IsStopped(err):
			s.writeError(w, http.StatusServiceUnavailable, string(engine.ErrCodeStopped), err.Error())
		case errors.As(err, &engErr):
			s.writeError(w, http.StatusBadRequest, string(engErr.Code), engErr.Message)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			s.logger.Debug("command abandoned by client", "kind", cmd.Kind, "error", err)
		default:
			s.logger.Error("command failed", "kind", cmd.Kind, "error", err)
			s.writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleEvents streams snapshots over a websocket, starting with the
// current one. Messages from the client are ignored.
func (s *Server) handleEvents(origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: origins})
		if err != nil {
			s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "")

		updates, cancel := s.hub.Subscribe()
		defer cancel()
		s.logger.Debug("subscriber connected", "remote", r.RemoteAddr, "subscribers", s.hub.Len())

		ctx := conn.CloseRead(r.Context())
		if err := s.send(ctx, conn, s.engine.Snapshot()); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("subscriber disconnected", "remote", r.RemoteAddr)
				return
			case snap, ok := <-updates:
				if !ok {
					conn.Close(websocket.StatusGoingAway, "server stopping")
					return
				}
				if err := s.send(ctx, conn, snap); err != nil {
					return
				}
			}
		}
	}
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, snap engine.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, snap); err != nil {
		s.logger.Debug("websocket write failed", "seq", snap.Seq, "error", err)
		return err
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorBody{Error: apiError{Code: code, Message: message}})
}
