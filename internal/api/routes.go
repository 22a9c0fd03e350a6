package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tvtracker/tvtracker/internal/api/handlers"
	apimw "github.com/tvtracker/tvtracker/internal/api/middleware"
	"github.com/tvtracker/tvtracker/internal/auth"
)

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(apimw.SecurityHeaders("/api"))

	// Show requests are tiny; posters only travel outward.
	s.echo.Use(middleware.BodyLimit("64K"))

	s.echo.Use(apimw.SameOriginCORS())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("requestId", v.RequestID).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("requestId", v.RequestID).
					Msg("request")
			}
			return nil
		},
	}))

	s.echo.Use(apimw.ProxyRequestBlock())
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")
	api.GET("/health", s.healthCheck)
	api.GET("/status", s.getStatus)

	api.GET("/shows", s.listShows)
	api.GET("/shows/:id", s.getShow)
	api.POST("/shows", s.addShow)

	s.setupAuthRoutes(api)

	protected := api.Group("")
	protected.Use(auth.RequireUser(s.authService))
	protected.GET("/auth/me", s.getMe)
	protected.POST("/subscribe", s.subscribe)
	protected.POST("/unsubscribe", s.unsubscribe)

	s.setupAlertRoutes(protected)
	s.setupSchedulerRoutes(protected)

	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket)
	}
}

func (s *Server) setupAuthRoutes(api *echo.Group) {
	authGroup := api.Group("/auth")
	authGroup.Use(s.authLimiter.Middleware())
	authGroup.POST("/signup", s.signup)
	authGroup.POST("/login", s.login)
}

func (s *Server) setupAlertRoutes(protected *echo.Group) {
	alertHandlers := handlers.NewAlertsHandler(s.alertService)
	alertsGroup := protected.Group("/alerts")
	alertsGroup.GET("", alertHandlers.ListJobs)
	alertsGroup.GET("/:showId", alertHandlers.GetJob)
	alertsGroup.POST("/:showId/run", alertHandlers.RunNow)
}

func (s *Server) setupSchedulerRoutes(protected *echo.Group) {
	schedulerHandlers := handlers.NewSchedulerHandler(s.scheduler)
	schedulerGroup := protected.Group("/scheduler")
	schedulerGroup.GET("/tasks", schedulerHandlers.ListTasks)
	schedulerGroup.GET("/tasks/:id", schedulerHandlers.GetTask)
	schedulerGroup.POST("/tasks/:id/run", schedulerHandlers.RunTask)
}
