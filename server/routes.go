package server

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/health", s.health)

		runs := v1.Group("/runs")
		{
			runs.POST("", s.createRun)
			runs.GET("", s.listRuns)
			runs.GET("/:id", s.getRun)
			runs.DELETE("/:id", s.deleteRun)
			runs.POST("/:id/step", s.stepRun)
			runs.POST("/:id/run", s.advanceRun)
			runs.POST("/:id/cancel", s.cancelRun)
			runs.GET("/:id/stream", s.streamRun)
		}
	}
}
