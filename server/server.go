package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lixenwraith/collide/config"
)

const shutdownTimeout = 5 * time.Second

// Server exposes simulations over HTTP
type Server struct {
	cfg    config.Config
	logger *log.Logger
	router *gin.Engine
	start  time.Time

	mu   sync.RWMutex
	runs map[uuid.UUID]*Run
}

// New builds the router; cfg supplies defaults for new runs and the stream rate
func New(cfg config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		router: gin.New(),
		start:  time.Now(),
		runs:   make(map[uuid.UUID]*Run),
	}
	s.router.Use(gin.Recovery(), requestLogger(logger))
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on cfg.Listen until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) add(run *Run) {
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()
}

func (s *Server) get(id string) (*Run, bool) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[key]
	return run, ok
}

func (s *Server) remove(id string) (*Run, bool) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[key]
	delete(s.runs, key)
	return run, ok
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, run := range s.runs {
		run.close()
		delete(s.runs, id)
	}
}

// requestLogger logs each request at debug level
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
