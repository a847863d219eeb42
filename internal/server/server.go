package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/webservice-umg/apiserver/config"
	"github.com/webservice-umg/apiserver/internal/db"
	"github.com/webservice-umg/apiserver/internal/handlers"
	"github.com/webservice-umg/apiserver/internal/mq"
	"github.com/webservice-umg/apiserver/internal/services"
)

const (
	// requestTimeout must stay below writeTimeout.
	requestTimeout = 10 * time.Second
	writeTimeout   = 15 * time.Second
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *db.DB
	events     *mq.MQ
}

// New opens the database, ensures the schema exists and wires the routes.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := dbConn.EnsureSchema(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	events, err := mq.NewFromConfig(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userService := services.NewUserService(dbConn, services.NewUserEvents(events, cfg.Events.Channel))

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(logger),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	router.Route("/api", func(r chi.Router) {
		handlers.InfoRouter(r)
		r.Route("/usuarios", func(r chi.Router) {
			handlers.UserRouter(r, userService)
		})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ListenPort()),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the broker and the pool.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.events != nil {
		err = errors.Join(err, s.events.Close())
	}
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
