// Package web serves a read-only HTML preview of courses, the progress
// ledger as JSON and the chat assistant over a websocket.
package web

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abhisek/coursekit/internal/chat"
	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/progress"
	"github.com/abhisek/coursekit/internal/store"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	AllowAll bool // allow all CORS origins
}

// Server is the local preview server.
type Server struct {
	cfg     Config
	courses []*course.Course
	byID    map[string]*course.Course
	tracker *progress.Tracker
	logger  *log.Logger

	kv       store.KV
	factory  chat.Factory
	chatOpts []chat.Option

	router     chi.Router
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChat enables /ws/chat. The credential is read from kv; opts apply to
// every connection's session.
func WithChat(kv store.KV, factory chat.Factory, opts ...chat.Option) Option {
	return func(s *Server) {
		s.kv = kv
		s.factory = factory
		s.chatOpts = opts
	}
}

// New creates a server for courses. The first course is the default for
// chat connections that do not name one.
func New(cfg Config, courses []*course.Course, tracker *progress.Tracker, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		courses: courses,
		byID:    make(map[string]*course.Course, len(courses)),
		tracker: tracker,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, c := range courses {
		s.byID[c.ID] = c
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", s.handleIndex)
	r.Get("/courses/{course}/weeks/{week}", s.handleWeek)
	r.Get("/api/progress", s.handleProgress)
	r.Get("/api/courses/{course}/weeks/{week}/progress", s.handleWeekProgress)
	r.Get("/ws/chat", s.handleWebSocket)

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Printf("web: listening on %s", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) course(id string) (*course.Course, bool) {
	c, ok := s.byID[id]
	return c, ok
}
