package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"

	"reportship/internal/model"
	"reportship/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// StatusResponse is the body of GET /status. History is omitted when the
// history table cannot be read.
type StatusResponse struct {
	model.DaemonSnapshot
	History *repository.Stats `json:"history,omitempty"`
}

type Server struct {
	echo     *echo.Echo
	state    *State
	histRepo *repository.HistoryRepository
	port     int
	log      *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewServer(state *State, histRepo *repository.HistoryRepository, port int, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		state:    state,
		histRepo: histRepo,
		port:     port,
		log:      log,
		stopCh:   make(chan struct{}),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)

	s.echo.GET("/history", s.handleHistory)
	s.echo.GET("/failed", s.handleFailed)
}

// Start serves the control API on the loopback interface.
func (s *Server) Start() {
	go func() {
		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(s.port))
		s.log.Info("daemon server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("daemon server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// StopCh is closed once a stop has been requested through the API.
func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	resp := StatusResponse{DaemonSnapshot: s.state.Snapshot()}

	stats, err := s.histRepo.GetStats()
	if err != nil {
		s.log.Warn("failed to load history stats",
			zap.Error(err))
	} else {
		resp.History = &stats
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStop(c echo.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 {
			n = parsed
		}
	}

	histories, err := s.histRepo.GetRecent(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, histories)
}

func (s *Server) handleFailed(c echo.Context) error {
	histories, err := s.histRepo.GetFailed()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, histories)
}
