package main

import (
	"github.com/gin-gonic/gin"
	"github.com/tickettractor/backend/internal/middleware"
	"github.com/tickettractor/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices, corsOrigins []string) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(corsOrigins))

	// Bulk mutations fan out to the Jira API; keep one client from flooding it.
	bulkLimiter := middleware.NewRateLimiter(5, 10)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "tickettractor"})
	})

	api := r.Group("/api")
	{
		// Auth routes (public: the OAuth dance happens before a session exists)
		auth := api.Group("/auth")
		{
			auth.GET("/login", svc.authHandler.Login)
			auth.GET("/callback", svc.authHandler.Callback)
			auth.POST("/logout", svc.authHandler.Logout)
		}

		// Dropdown config is static and needed by the login page
		api.GET("/tickets/config", svc.ticketHandler.GetConfig)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.SessionRequired(svc.authService))
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)

			// Tickets
			protected.GET("/tickets/:ticket_key/labels", svc.ticketHandler.GetLabels)
			protected.POST("/tickets/check-labels", svc.ticketHandler.CheckLabels)
			protected.POST("/tickets/update", bulkLimiter.Middleware(), svc.ticketHandler.BulkUpdate)

			// Assignees
			protected.GET("/assignees/users", svc.assigneeHandler.ListUsers)
			protected.POST("/assignees/users", svc.assigneeHandler.AddUser)
			protected.DELETE("/assignees/users/:id", svc.assigneeHandler.RemoveUser)
			protected.GET("/assignees/search-jira", svc.assigneeHandler.SearchJiraUsers)
			protected.POST("/assignees/current-assignees", svc.assigneeHandler.CurrentAssignees)
			protected.POST("/assignees/update", bulkLimiter.Middleware(), svc.assigneeHandler.BulkUpdate)

			// Audit trail
			protected.GET("/audit/history", svc.auditHandler.History)
		}
	}
}
