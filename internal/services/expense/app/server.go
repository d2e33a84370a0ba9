// Package app hosts the pennywise HTTP surface: the JSON API, the dashboard
// pages, and the chat websocket.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/louisbranch/pennywise/internal/platform/httpx"
	"github.com/louisbranch/pennywise/internal/platform/timeouts"
	"github.com/louisbranch/pennywise/internal/services/expense/app/static"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
)

// Config defines startup inputs for the HTTP server.
type Config struct {
	HTTPAddr string
	Service  *service.Service
	// Logger receives request logs; nil uses log.Default.
	Logger *log.Logger
}

// Server hosts the HTTP surface and its lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler builds the root handler with every route and middleware.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Service == nil {
		return nil, errors.New("expense service is required")
	}
	h := &handlers{svc: cfg.Service}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api", h.root)
	mux.HandleFunc("GET /api/expenses", h.listExpenses)
	mux.HandleFunc("POST /api/expenses", h.createExpense)
	mux.HandleFunc("GET /api/expenses/{id}", h.getExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", h.deleteExpense)
	mux.HandleFunc("POST /api/days:start", h.startNewDay)
	mux.HandleFunc("POST /api/days:reset", h.resetDay)
	mux.HandleFunc("GET /api/archives", h.listArchives)
	mux.HandleFunc("GET /api/summary", h.summary)
	mux.HandleFunc("GET /api/forecast", h.forecast)
	mux.HandleFunc("POST /api/chat", h.chat)

	mux.Handle("GET /ws/chat", newChatSocket(cfg.Service))

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static.FS))))
	mux.HandleFunc("GET /{$}", h.dashboard)
	mux.HandleFunc("POST /expenses", h.dashboardAddExpense)
	mux.HandleFunc("POST /expenses/{id}/delete", h.dashboardDeleteExpense)
	mux.HandleFunc("POST /days/start", h.dashboardStartNewDay)
	mux.HandleFunc("POST /days/reset", h.dashboardResetDay)

	return httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		httpx.CORS(),
		httpx.RequestLogger(cfg.Logger),
	), nil
}

// NewServer validates config and constructs a server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose handler: %w", err)
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

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.httpAddr
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
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
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}
