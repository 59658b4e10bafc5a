package cmd

import (
	"context"
	"fmt"
	"time"

	"stock-backtest/internal/delivery/http"
	"stock-backtest/pkg/logger"
	"stock-backtest/pkg/middleware"

	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

type HTTPServer struct {
	ctx     context.Context
	appDep  *AppDependency
	handler *http.HttpAPIHandler
}

func NewHTTPServer(ctx context.Context, appDep *AppDependency, handler *http.HttpAPIHandler) *HTTPServer {
	return &HTTPServer{
		ctx:     ctx,
		appDep:  appDep,
		handler: handler,
	}
}

func (s *HTTPServer) Start() error {
	s.appDep.log.Info("Starting HTTP server", logger.IntField("port", s.appDep.cfg.API.Port))
	address := fmt.Sprintf(":%d", s.appDep.cfg.API.Port)

	s.SetupMiddleware()
	s.SetupRoutes()

	return s.appDep.echo.Start(address)
}

func (s *HTTPServer) SetupMiddleware() {
	e := s.appDep.echo
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.NewRateLimiterMiddleware(middleware.RateLimitConfig{
		PerSecond:  s.appDep.cfg.API.RateLimitPerSecond,
		Burst:      s.appDep.cfg.API.RateLimitBurst,
		Expiration: s.appDep.cfg.API.RateLimitExpiration,
		SkipPaths:  []string{"/health", s.appDep.cfg.Metrics.Path},
	}))
}

func (s *HTTPServer) Stop() error {
	s.appDep.log.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.appDep.echo.Shutdown(ctx); err != nil {
		s.appDep.log.Error("Error when stopping HTTP server", logger.ErrorField(err))
		return err
	}
	s.appDep.log.Info("HTTP server stopped successfully")
	return nil
}

func (s *HTTPServer) SetupRoutes() {
	s.handler.SetupRoutes()
}
