// Package ioweb serves gnflore functionality over HTTP.
package ioweb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gnames/gnflore/internal/iometrics"
	"github.com/gnames/gnflore/pkg/config"
	"github.com/gnames/gnflore/pkg/gnflore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	apiPath         = "/api/v1"
	shutdownTimeout = 10 * time.Second
)

// Server is the HTTP front of a Flore instance.
type Server struct {
	cfg     *config.Config
	flore   gnflore.Flore
	metrics *iometrics.Metrics
	e       *echo.Echo
}

// New creates a server with all routes registered.
func New(
	cfg *config.Config,
	fl gnflore.Flore,
	m *iometrics.Metrics,
) *Server {
	res := &Server{
		cfg:     cfg,
		flore:   fl,
		metrics: m,
		e:       echo.New(),
	}
	res.e.HideBanner = true
	res.e.HidePort = true
	res.setup()
	return res
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Run listens on the configured port until ctx is canceled, then shuts
// the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "address", addr)
		errCh <- s.e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return ServerStartError(addr, err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("Shutting down HTTP server")
	if err := s.e.Shutdown(sctx); err != nil {
		return err
	}
	<-errCh
	return nil
}

func (s *Server) setup() {
	s.e.Use(middleware.Recover())
	s.e.Use(s.requestLogger())
	s.e.Use(s.observe)

	s.e.GET("/", s.root)
	s.e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := s.e.Group(apiPath)
	api.GET("/ping", s.ping)
	api.GET("/version", s.version)
	api.GET("/occurrences", s.occurrences)
	api.GET("/statuses", s.statuses)
	api.GET("/names", s.names)
	api.GET("/names/lookup", s.lookup)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			lvl := slog.LevelInfo
			switch {
			case v.Status >= 500:
				lvl = slog.LevelError
			case v.Status >= 400:
				lvl = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), lvl, "request", attrs...)
			return nil
		},
	})
}

// observe counts requests by route and status.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		status := c.Response().Status
		var he *echo.HTTPError
		if err != nil && errors.As(err, &he) {
			status = he.Code
		}
		path := c.Path()
		if path == "" {
			path = "unknown"
		}
		s.metrics.ObserveHTTP(path, status)
		return err
	}
}
