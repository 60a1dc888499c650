package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin.Engine exposing every route of §6, wired to s's
// handlers. A metrics middleware records request counts and latency via
// s.metrics when present.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.metricsMiddleware())

	r.GET("/health", s.health)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/monitors", s.listMonitors)
		api.POST("/monitors", s.createMonitor)
		api.GET("/monitors/tags", s.listTags)
		api.POST("/monitors/check-all", s.checkAll)
		api.GET("/monitors/:id", s.getMonitor)
		api.PUT("/monitors/:id", s.updateMonitor)
		api.DELETE("/monitors/:id", s.deleteMonitor)
		api.POST("/monitors/:id/check", s.checkMonitor)
		api.GET("/monitors/:id/results", s.listResults)

		api.GET("/stages", s.listStages)
	}

	return r
}

// metricsMiddleware records every request's status class and latency
// against s.metrics (§ ambient observability). A nil Collector makes this a
// no-op, keeping tests that build a Server without metrics unaffected.
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if s.metrics == nil {
			return
		}
		s.metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
