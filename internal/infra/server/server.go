package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.elastic.co/apm/module/apmgin"

	"github.com/lloydmeta/assetversions/internal/api/controllers/run"
	"github.com/lloydmeta/assetversions/internal/config"
	"github.com/lloydmeta/assetversions/internal/infra/server/routing"
	"github.com/lloydmeta/assetversions/internal/infra/server/routing/runs"
)

// Server serves the read-only status API for the latest run
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

func NewServer(conf config.Server, view run.RunsView) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    conf.BindAddress,
			Handler: NewEngine(view),
		},
		shutdownTimeout: conf.ShutdownTimeout,
	}
}

// NewEngine returns a gin.Engine with all routes and middleware registered
func NewEngine(view run.RunsView) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(
		logger.SetLogger(logger.Config{Logger: &log.Logger, UTC: true}),
		gin.Recovery(),
		gzip.Gzip(gzip.DefaultCompression),
		apmgin.Middleware(engine),
	)
	engine.NoRoute(routing.NoRoute)
	engine.NoMethod(routing.NoMethod)

	handler := runs.RoutesHandler{Controller: run.New(view)}
	handler.RegisterRoutes(engine.Group(""))
	return engine
}

// Start serves until ctx is done, then shuts down gracefully within the configured timeout
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("bind_address", s.httpServer.Addr).Msg("Starting status server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down status server cleanly")
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
