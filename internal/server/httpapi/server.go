package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/clipcast/clipcast/internal/logging"
	"github.com/gin-gonic/gin"
)

// Server runs the HTTP endpoint and shuts it down when the context is
// cancelled.
type Server struct {
	address string
	router  *gin.Engine
	logger  logging.Logger
}

func NewServer(address string, router *gin.Engine, logger logging.Logger) *Server {
	return &Server{
		address: address,
		router:  router,
		logger:  logger.With("module", "http_server"),
	}
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
