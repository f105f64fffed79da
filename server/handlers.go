package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lixenwraith/collide/engine"
)

const version = "1.0.0"

// advanceRequest selects exactly one of the two run modes
type advanceRequest struct {
	Until  *float64 `json:"until"`
	Events *int     `json:"events"`
}

type advanceResponse struct {
	Executed int      `json:"executed,omitempty"`
	Run      RunState `json:"run"`
}

type errorResponse struct {
	Error string    `json:"error"`
	Run   *RunState `json:"run,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	s.mu.RLock()
	n := len(s.runs)
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "collide",
		"version": version,
		"runs":    n,
		"uptime":  time.Since(s.start).String(),
	})
}

// createRun builds a run from the server defaults overlaid with the optional JSON body
func (s *Server) createRun(c *gin.Context) {
	cfg := s.cfg
	cfg.Particles = nil
	if err := c.ShouldBindJSON(&cfg); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	run, err := newRun(cfg, s.logger)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.add(run)
	s.logger.Info("run created", "run", run.ID, "particles", len(run.Snapshot().Particles))

	c.JSON(http.StatusCreated, run.State(false))
}

func (s *Server) listRuns(c *gin.Context) {
	s.mu.RLock()
	runs := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool { return runs[i].Created.Before(runs[j].Created) })
	states := make([]RunState, len(runs))
	for i, run := range runs {
		states[i] = run.State(false)
	}
	c.JSON(http.StatusOK, gin.H{"runs": states})
}

func (s *Server) getRun(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run.State(c.Query("particles") != "false"))
}

func (s *Server) deleteRun(c *gin.Context) {
	run, ok := s.remove(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "run not found"})
		return
	}
	run.close()
	s.logger.Info("run deleted", "run", run.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) stepRun(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}
	state, err := run.Step(c.Request.Context())
	if err != nil {
		s.fail(c, err, &state)
		return
	}
	c.JSON(http.StatusOK, advanceResponse{Executed: 1, Run: state})
}

func (s *Server) advanceRun(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}

	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if (req.Until == nil) == (req.Events == nil) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "exactly one of until and events is required"})
		return
	}

	ctx := c.Request.Context()
	if req.Events != nil {
		if *req.Events < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "events must be non-negative"})
			return
		}
		done, state, err := run.RunEvents(ctx, *req.Events)
		if err != nil {
			s.fail(c, err, &state)
			return
		}
		c.JSON(http.StatusOK, advanceResponse{Executed: done, Run: state})
		return
	}

	state, err := run.RunUntil(ctx, *req.Until)
	if err != nil {
		s.fail(c, err, &state)
		return
	}
	c.JSON(http.StatusOK, advanceResponse{Run: state})
}

func (s *Server) cancelRun(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}
	run.Cancel()
	c.JSON(http.StatusAccepted, gin.H{"id": run.ID.String(), "canceled": true})
}

func (s *Server) streamRun(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}
	if err := run.hub.Serve(c.Writer, c.Request, run.Snapshot()); err != nil {
		s.logger.Debug("stream upgrade", "run", run.ID, "err", err)
	}
}

func (s *Server) lookup(c *gin.Context) (*Run, bool) {
	run, ok := s.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "run not found"})
	}
	return run, ok
}

// fail maps engine errors onto HTTP statuses
func (s *Server) fail(c *gin.Context, err error, state *RunState) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrTimeReversal):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrCanceled), errors.Is(err, engine.ErrQueueExhausted):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrNumericAnomaly):
		s.logger.Error("run faulted", "run", state.ID, "err", err)
	}
	c.JSON(status, errorResponse{Error: err.Error(), Run: state})
}
