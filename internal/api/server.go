package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lendshare/internal/config"
	"lendshare/internal/domain"
	"lendshare/internal/export"

	"github.com/rs/zerolog"
)

// Server exposes the core JSON API. The gateway forwards validated
// requests here.
type Server struct {
	cfg      config.ServerConfig
	users    domain.UserService
	items    domain.ItemService
	bookings domain.BookingService
	requests domain.RequestService
	exporter *export.Exporter
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(
	cfg config.ServerConfig,
	users domain.UserService,
	items domain.ItemService,
	bookings domain.BookingService,
	requests domain.RequestService,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		users:    users,
		items:    items,
		bookings: bookings,
		requests: requests,
		exporter: exporter,
		logger:   logger,
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           loggingMiddleware(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("PATCH /users/{id}", s.handleUpdateUser)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.HandleFunc("GET /users", s.handleGetAllUsers)
	mux.HandleFunc("DELETE /users/{id}", s.handleDeleteUser)

	mux.HandleFunc("POST /items", s.handleCreateItem)
	mux.HandleFunc("PATCH /items/{id}", s.handleUpdateItem)
	mux.HandleFunc("GET /items/{id}", s.handleGetItem)
	mux.HandleFunc("GET /items", s.handleGetUserItems)
	mux.HandleFunc("GET /items/search", s.handleSearchItems)
	mux.HandleFunc("POST /items/{id}/comment", s.handleAddComment)

	mux.HandleFunc("POST /bookings", s.handleCreateBooking)
	mux.HandleFunc("PATCH /bookings/{id}", s.handleDecideBooking)
	mux.HandleFunc("GET /bookings/{id}", s.handleGetBooking)
	mux.HandleFunc("GET /bookings", s.handleGetUserBookings)
	mux.HandleFunc("GET /bookings/owner", s.handleGetOwnerBookings)
	mux.HandleFunc("GET /bookings/owner/export", s.handleExportOwnerBookings)

	mux.HandleFunc("POST /requests", s.handleCreateRequest)
	mux.HandleFunc("GET /requests", s.handleGetUserRequests)
	mux.HandleFunc("GET /requests/all", s.handleGetAllRequests)
	mux.HandleFunc("GET /requests/{id}", s.handleGetRequest)
}

// Handler returns the root handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("core API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
