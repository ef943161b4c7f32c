// Package health exposes the liveness endpoint polled by the deployment
// platform. It carries no state and requires no authentication.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Nuarka/FinTrackO/internal/logger"
)

// Server is a minimal HTTP liveness surface.
type Server struct {
	srv *http.Server
}

// New builds the health server bound to addr.
func New(addr string) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":  true,
			"app": "FinTrackO",
			"msg": "alive",
		})
	})
	ok := func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}
	mux.HandleFunc("GET /health", ok)
	mux.HandleFunc("GET /healthz", ok)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled. The endpoint lives in its own goroutine
// so a bot loop failure never takes liveness down with it.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Component("health").Info("health endpoint listening",
			slog.String("event", "health.listen"),
			slog.String("addr", s.srv.Addr),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("health server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
