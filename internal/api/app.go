package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/npezzotti/gurubu/internal/config"
	"github.com/npezzotti/gurubu/internal/grooming"
	"github.com/npezzotti/gurubu/internal/server"
	"github.com/rs/zerolog"
)

type GroomingApp struct {
	log            zerolog.Logger
	mux            *http.Server
	cs             *server.GroomingServer
	manager        *grooming.Manager
	validate       *validator.Validate
	allowedOrigins []string
}

func NewGroomingApp(mux *http.ServeMux, logger zerolog.Logger, cs *server.GroomingServer, m *grooming.Manager, cfg *config.Config) *GroomingApp {
	s := &GroomingApp{
		log:            logger.With().Str("component", "api").Logger(),
		cs:             cs,
		manager:        m,
		validate:       validator.New(),
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/rooms", s.createRoom)
	mux.HandleFunc("GET /api/rooms", s.listRooms)
	mux.HandleFunc("GET /api/rooms/{id}", s.getRoom)
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
	)(mux)

	h = s.errorHandler(h)
	h = s.requestLogger(h)

	s.mux = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *GroomingApp) Start() error {
	s.log.Info().Str("addr", s.mux.Addr).Msg("starting server")
	return s.mux.ListenAndServe()
}

func (s *GroomingApp) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
