package ops

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the payload served on /healthz.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// Server exposes the operational endpoints: health and Prometheus metrics.
type Server struct {
	addr      string
	store     Pinger
	logger    *zap.Logger
	startedAt time.Time
}

// NewServer builds the ops server. The store ping gates the health answer.
func NewServer(addr string, store Pinger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:      addr,
		store:     store,
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

// Router assembles the gin engine serving the ops endpoints.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// Run serves the ops endpoints until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("ops server shutdown failed", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) health(c *gin.Context) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Warn("health check store ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, HealthResponse{
				Status:    "degraded",
				StartedAt: s.startedAt,
			})
			return
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		StartedAt: s.startedAt,
	})
}
