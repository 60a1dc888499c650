package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
)

func (s *Server) listMonitors(c *gin.Context) {
	tag := c.Query("tag")
	monitors, err := s.store.ListMonitors(c.Request.Context(), tag)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]monitorResponse, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, newMonitorResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createMonitor(c *gin.Context) {
	var req monitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	m := req.toMonitor()
	if err := s.validateMonitor(m); err != nil {
		respondErr(c, err)
		return
	}

	created, err := s.store.CreateMonitor(c.Request.Context(), m)
	if err != nil {
		respondErr(c, err)
		return
	}

	if s.scheduler != nil && created.Enabled {
		if err := s.scheduler.Upsert(c.Request.Context(), created); err != nil {
			s.log.Error("failed scheduling newly created monitor", err)
		}
	}

	c.JSON(http.StatusCreated, newMonitorResponse(created))
}

func (s *Server) getMonitor(c *gin.Context) {
	m, err := s.store.GetMonitor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newMonitorResponse(m))
}

func (s *Server) updateMonitor(c *gin.Context) {
	id := c.Param("id")
	var req monitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	candidate := req.toMonitor()
	candidate.ID = id
	if err := s.validateMonitor(candidate); err != nil {
		respondErr(c, err)
		return
	}

	updated, err := s.store.UpdateMonitor(c.Request.Context(), id, req.toPatch())
	if err != nil {
		respondErr(c, err)
		return
	}

	if s.scheduler != nil {
		if updated.Enabled {
			if err := s.scheduler.Upsert(c.Request.Context(), updated); err != nil {
				s.log.Error("failed rescheduling updated monitor", err)
			}
		} else if err := s.scheduler.Unschedule(c.Request.Context(), id); err != nil {
			s.log.Error("failed unscheduling disabled monitor", err)
		}
	}

	c.JSON(http.StatusOK, newMonitorResponse(updated))
}

func (s *Server) deleteMonitor(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.DeleteMonitor(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	if s.scheduler != nil {
		if err := s.scheduler.Unschedule(c.Request.Context(), id); err != nil {
			s.log.Error("failed unscheduling deleted monitor", err)
		}
	}
	c.Status(http.StatusNoContent)
}

// checkMonitor performs an ad-hoc synchronous run, bypassing the
// scheduler entirely (§4.7 "Ad-hoc runs").
func (s *Server) checkMonitor(c *gin.Context) {
	m, err := s.store.GetMonitor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	result, err := s.executor.Run(c.Request.Context(), m)
	if s.metrics != nil {
		s.metrics.RecordCheck(result.Status, time.Duration(result.ElapsedMs*float64(time.Millisecond)))
	}
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, newCheckResultResponse(result))
}

// checkAll runs every monitor matching the optional tag filter
// concurrently, bounded by the same worker pool limit the scheduler uses
// (§6).
func (s *Server) checkAll(c *gin.Context) {
	tag := c.Query("tag")
	monitors, err := s.store.ListMonitors(c.Request.Context(), tag)
	if err != nil {
		respondErr(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), checkAllTimeout)
	defer cancel()

	results := make([]check.Result, len(monitors))
	var wg sync.WaitGroup
	for i, m := range monitors {
		wg.Add(1)
		s.checkAllSem <- struct{}{}
		go func(i int, m monitor.Monitor) {
			defer wg.Done()
			defer func() { <-s.checkAllSem }()
			result, err := s.executor.Run(ctx, m)
			if err != nil {
				s.log.Error("ad-hoc check-all run failed to persist", err)
			}
			if s.metrics != nil {
				s.metrics.RecordCheck(result.Status, time.Duration(result.ElapsedMs*float64(time.Millisecond)))
			}
			results[i] = result
		}(i, m)
	}
	wg.Wait()

	out := make([]checkResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, newCheckResultResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listResults(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, apiError{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	results, err := s.store.ListResults(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	out := make([]checkResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, newCheckResultResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.store.ListTags(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (s *Server) listStages(c *gin.Context) {
	meta := s.registry.Metadata()
	out := make([]stageMetadataResponse, 0, len(meta))
	for _, m := range meta {
		out = append(out, newStageMetadataResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func respondErr(c *gin.Context, err error) {
	c.JSON(statusFor(err), apiError{Error: err.Error()})
}
