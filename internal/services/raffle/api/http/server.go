package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/School-of-Solana/program-thelotux/internal/platform/timeouts"
	"github.com/School-of-Solana/program-thelotux/internal/services/raffle/app"
)

// Config defines startup inputs for the raffle API server.
type Config struct {
	Addr    string
	Service *app.Service
	Auth    AuthConfig
}

// Server hosts the raffle HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler builds the root handler: chi routing and middleware, the
// authenticated v1 route group, and otel server spans around the whole tree.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("raffle service is required")
	}
	h := &handler{service: cfg.Service}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)

	r.Route("/v1", func(r chi.Router) {
		r.Use(requireAuth(cfg.Auth))
		r.Post("/raffles", h.createRaffle)
		r.Route("/raffles/{key}", func(r chi.Router) {
			r.Get("/", h.getRaffle)
			r.Delete("/", h.cancelRaffle)
			r.Post("/tickets", h.buyTicket)
			r.Get("/tickets", h.listTickets)
			r.Post("/draw", h.drawWinner)
			r.Get("/settlement", h.getSettlement)
		})
		r.Post("/accounts/deposit", h.deposit)
		r.Get("/accounts/{identity}", h.getAccount)
	})

	return otelhttp.NewHandler(r, "raffle-api"), nil
}

// NewServer validates config and constructs a raffle API server.
func NewServer(cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.Addr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose raffle handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("raffle server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown raffle http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve raffle http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}
