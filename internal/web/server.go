// Package web exposes the geocoder over HTTP. The engine itself is
// transport-agnostic; everything wire-format lives here.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ferdinand-hoffmann/osmgeocoder/internal/config"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/geocoder"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/web/handlers"
	"github.com/ferdinand-hoffmann/osmgeocoder/internal/web/middleware"
)

// requestTimeout bounds every store query issued on behalf of a request.
const requestTimeout = 10 * time.Second

// Server is the HTTP front of the geocoder.
type Server struct {
	geocoder   *geocoder.Geocoder
	httpServer *http.Server
	router     *mux.Router
	log        *logrus.Entry
}

// NewServer wires routes and middleware around a Geocoder.
func NewServer(g *geocoder.Geocoder, cfg config.ServerConfig) *Server {
	s := &Server{
		geocoder: g,
		log:      logrus.WithField("component", "web"),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	h := &handlers.GeocodeHandler{
		Geocoder: s.geocoder,
		Timeout:  requestTimeout,
	}

	s.router.HandleFunc("/forward", h.Forward).Methods("GET")
	s.router.HandleFunc("/reverse", h.Reverse).Methods("GET")
	s.router.HandleFunc("/predict", h.Predict).Methods("GET")
	s.router.HandleFunc("/country", h.Country).Methods("GET")
	s.router.HandleFunc("/healthz", h.Health).Methods("GET")

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging())
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("starting server")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Error("server error")
		}
	}()

	<-stop
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
