// Package server provides the HTTP API for medragd.
package server

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/config"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/rag"
)

// Ingestor runs the document ingestion pipeline.
type Ingestor interface {
	Process(ctx context.Context, data []byte, filename string) (int, error)
}

// Answerer answers questions with a streamed response.
type Answerer interface {
	Answer(ctx context.Context, question string) (*rag.Stream, error)
}

// Server provides the HTTP endpoints for document upload and querying.
type Server struct {
	echo     *echo.Echo
	ingestor Ingestor
	answerer Answerer
	cfg      config.Config
	metrics  *Metrics
	logger   *zap.Logger
}

// NewServer creates the HTTP server with middleware and routes wired.
func NewServer(ingestor Ingestor, answerer Answerer, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if ingestor == nil {
		return nil, fmt.Errorf("ingestor is required")
	}
	if answerer == nil {
		return nil, fmt.Errorf("answerer is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if len(cfg.Server.CORSOrigins) > 0 {
		// Browsers reject Access-Control-Allow-Origin: * on credentialed
		// requests, so credentials are only allowed for explicit origins.
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowCredentials: !slices.Contains(cfg.Server.CORSOrigins, "*"),
		}))
	}
	e.Use(requestLogger(logger))

	s := &Server{
		echo:     e,
		ingestor: ingestor,
		answerer: answerer,
		cfg:      cfg,
		metrics:  NewMetrics(),
		logger:   logger,
	}
	s.registerRoutes()
	return s, nil
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	}
}

// rateLimiter builds a per-IP token bucket allowing perMinute requests.
// A non-positive limit disables rate limiting for the route.
func rateLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perMinute) / 60.0),
			Burst:     perMinute,
			ExpiresIn: 3 * time.Minute,
		}),
	})
}

func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/upload", s.handleUpload, rateLimiter(s.cfg.Server.UploadPerMinute))
	v1.POST("/query", s.handleQuery, rateLimiter(s.cfg.Server.QueryPerMinute))
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
