// Package server exposes the HTTP API: authentication, chat sessions,
// notes, and upload metadata.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/biioon/reforco-escolar/internal/auth"
	"github.com/biioon/reforco-escolar/internal/chat"
	"github.com/biioon/reforco-escolar/internal/config"
	"github.com/biioon/reforco-escolar/internal/database"
	"github.com/biioon/reforco-escolar/internal/logger"
	"github.com/biioon/reforco-escolar/internal/note"
)

// Server wires the HTTP handlers to the underlying services.
type Server struct {
	log     *slog.Logger
	cfg     config.Config
	auth    *auth.Service
	chat    *chat.Service
	notes   *note.Service
	store   database.Store
	httpSrv *http.Server
}

// New builds the server and its router.
func New(log *slog.Logger, cfg config.Config, authSvc *auth.Service, chatSvc *chat.Service, noteSvc *note.Service, store database.Store) *Server {
	s := &Server{
		log:   log.With("component", "server"),
		cfg:   cfg,
		auth:  authSvc,
		chat:  chatSvc,
		notes: noteSvc,
		store: store,
	}

	s.httpSrv = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.Post("/signin", s.handleSignin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", s.handleCreateSession)
				r.Get("/{sessionID}/messages", s.handleListMessages)
				r.Post("/{sessionID}/messages", s.handleSubmitMessage)
				r.Delete("/{sessionID}", s.handleEndSession)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Post("/", s.handleSaveNote)
				r.Get("/", s.handleListNotes)
			})

			r.Post("/uploads", s.handleSaveUpload)
		})
	})

	return r
}

// Run starts the HTTP listener and blocks until ctx is cancelled, then
// shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", s.cfg.Server.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.log.Info("shutting down HTTP server")
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}
