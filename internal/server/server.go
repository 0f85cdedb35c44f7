// Package server exposes viewer sessions over HTTP: one session per mounted
// page, driven by button posts and observed through a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bike-viewer/internal/viewer"
)

var (
	// ErrUnknownSession is returned for session ids that are not mounted.
	ErrUnknownSession = errors.New("unknown session")
	// ErrTooManySessions is returned by Mount once MaxSessions are mounted.
	ErrTooManySessions = errors.New("too many sessions")
)

const (
	defaultSessionGrace = 30 * time.Second
	defaultMaxSessions  = 64
)

// Options configures a Server.
type Options struct {
	// AssetDir is served under /models/. Empty disables static assets.
	AssetDir string
	Viewer   viewer.Options
	Logger   *zap.Logger

	// SessionGrace is how long a session may have no websocket attached
	// before it is unmounted. It covers the gap between mounting and
	// connecting, and pages that leave without unmounting.
	SessionGrace time.Duration
	MaxSessions  int
}

// Server owns the session registry and the HTTP routes.
type Server struct {
	loader   viewer.Loader
	opts     Options
	log      *zap.Logger
	router   chi.Router
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool
}

type session struct {
	id     string
	v      *viewer.Viewer
	cancel context.CancelFunc
	done   chan struct{}

	// Guarded by Server.mu.
	conns   int
	idle    *time.Timer
	idleGen uint64
}

// New builds a server whose sessions load assets through loader.
func New(loader viewer.Loader, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Viewer.Logger == nil {
		opts.Viewer.Logger = opts.Logger
	}
	if opts.SessionGrace <= 0 {
		opts.SessionGrace = defaultSessionGrace
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaultMaxSessions
	}
	s := &Server{
		loader:   loader,
		opts:     opts,
		log:      opts.Logger,
		sessions: make(map[string]*session),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handlePage)
	if s.opts.AssetDir != "" {
		r.Handle("/models/*", http.StripPrefix("/models/", http.FileServer(http.Dir(s.opts.AssetDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", s.handleModels)
		r.Post("/sessions", s.handleMount)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleState)
			r.Delete("/", s.handleUnmount)
			r.Post("/select/{model}", s.handleSelect)
			r.Post("/camera/{action}", s.handleCamera)
			r.Post("/color", s.handleColor)
			r.Post("/viewport", s.handleViewport)
			r.Get("/frame.webp", s.handleFrame)
			r.Get("/ws", s.handleWebSocket)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Mount creates a session and starts its render loop.
func (s *Server) Mount() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", viewer.ErrClosed
	}
	if len(s.sessions) >= s.opts.MaxSessions {
		return "", ErrTooManySessions
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:     id,
		v:      viewer.New(s.loader, s.opts.Viewer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(sess.done)
		if err := sess.v.Run(ctx); err != nil {
			s.log.Warn("Render loop stopped", zap.String("session", id), zap.Error(err))
		}
	}()
	s.sessions[id] = sess
	s.armIdleLocked(sess)

	s.log.Info("Session mounted", zap.String("session", id))
	return id, nil
}

// Unmount stops and removes a session.
func (s *Server) Unmount(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		sess.disarmIdleLocked()
	}
	s.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	sess.stop()
	s.log.Info("Session unmounted", zap.String("session", id))
	return nil
}

// attach registers a websocket on a session, keeping it mounted until the
// returned detach is called. The last detach starts the grace period.
func (s *Server) attach(id string) (*viewer.Viewer, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil, ErrUnknownSession
	}
	sess.conns++
	sess.disarmIdleLocked()

	var once sync.Once
	detach := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			sess.conns--
			if sess.conns == 0 && s.sessions[id] == sess {
				s.armIdleLocked(sess)
			}
		})
	}
	return sess.v, detach, nil
}

func (s *Server) armIdleLocked(sess *session) {
	sess.disarmIdleLocked()
	gen := sess.idleGen
	sess.idle = time.AfterFunc(s.opts.SessionGrace, func() {
		s.reapIdle(sess, gen)
	})
}

func (sess *session) disarmIdleLocked() {
	if sess.idle != nil {
		sess.idle.Stop()
		sess.idle = nil
	}
	sess.idleGen++
}

// reapIdle unmounts sess if nothing attached since the timer for gen was
// armed.
func (s *Server) reapIdle(sess *session, gen uint64) {
	s.mu.Lock()
	if s.sessions[sess.id] != sess || sess.conns > 0 || sess.idleGen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, sess.id)
	sess.idle = nil
	s.mu.Unlock()

	sess.stop()
	s.log.Info("Session expired", zap.String("session", sess.id))
}

// Session returns the viewer behind a session id.
func (s *Server) Session(id string) (*viewer.Viewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return sess.v, nil
}

// Len is the number of mounted sessions.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close unmounts every session. Later mounts fail with viewer.ErrClosed.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	for _, sess := range sessions {
		sess.disarmIdleLocked()
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.stop()
	}
}

func (sess *session) stop() {
	sess.cancel()
	sess.v.Close()
	<-sess.done
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
