package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/config"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/metrics"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/middleware"
)

type Server struct {
	e    *echo.Echo
	addr string
}

func New(cfg config.Config, h Handlers, m *metrics.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.HTTPMetrics(m))

	RegisterRoutes(e, cfg, h)

	return &Server{e: e, addr: listenAddr(cfg.Port)}
}

func (s *Server) Handler() http.Handler { return s.e }

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	if err := s.e.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func listenAddr(port string) string {
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
