package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"rewatch/internal/logger"
	"rewatch/internal/model"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type History interface {
	GetRecent(limit int) ([]model.Run, error)
	GetFailed(limit int) ([]model.Run, error)
	GetStats() (model.RunStats, error)
}

type Server struct {
	echo    *echo.Echo
	loop    *Loop
	history History
	addr    string
	stopCh  chan struct{}
}

// NewServer exposes loop on localhost. history may be nil when runs are not
// persisted.
func NewServer(loop *Loop, history History, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		loop:    loop,
		history: history,
		addr:    net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
		stopCh:  make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)
	s.echo.POST("/trigger", s.handleTrigger)
	s.echo.GET("/history", s.handleHistory)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() {
	go func() {
		logger.Log.Info("control server started",
			zap.String("addr", s.addr))

		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("control server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	snap := s.loop.Snapshot()

	if s.history != nil {
		stats, err := s.history.GetStats()
		if err != nil {
			logger.Log.Warn("failed to load history stats", zap.Error(err))
		} else {
			snap.History = &stats
		}
	}

	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleTrigger(c echo.Context) error {
	s.loop.Trigger()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "triggered"})
}

func (s *Server) handleHistory(c echo.Context) error {
	if s.history == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "history is disabled"})
	}

	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 {
			n = parsed
		}
	}

	var (
		runs []model.Run
		err  error
	)
	if failed, _ := strconv.ParseBool(c.QueryParam("failed")); failed {
		runs, err = s.history.GetFailed(n)
	} else {
		runs, err = s.history.GetRecent(n)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, runs)
}
