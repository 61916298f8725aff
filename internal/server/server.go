package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/penwyp/go-biz-monitor/internal/util"
)

const shutdownTimeout = 30 * time.Second

type Options struct {
	Addr           string
	AllowedOrigins []string
	UrgentDays     int
}

// Server is the read-only JSON API over the record snapshot
type Server struct {
	opts    Options
	store   *Store
	handler http.Handler
}

func New(store *Store, opts Options) *Server {
	h := &handler{
		store:      store,
		urgentDays: opts.UrgentDays,
		now:        func() time.Time { return util.GetTimeProvider().Now() },
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	})

	return &Server{
		opts:    opts,
		store:   store,
		handler: corsHandler.Handler(RequestIDMiddleware(LoggingMiddleware(h.routes()))),
	}
}

// Handler exposes the full middleware chain, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		util.LogInfo("Starting API server", util.F("addr", s.opts.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	util.LogInfo("Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
