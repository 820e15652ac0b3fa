package main

import (
	"github.com/tickettractor/backend/internal/config"
	"github.com/tickettractor/backend/internal/handlers"
	"github.com/tickettractor/backend/internal/models"
	"github.com/tickettractor/backend/internal/services"
	"github.com/tickettractor/backend/internal/store"
	"github.com/tickettractor/backend/internal/utils"
	"github.com/tickettractor/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	authService     *services.AuthService
	retention       *services.RetentionScheduler
	authHandler     *handlers.AuthHandler
	ticketHandler   *handlers.TicketHandler
	assigneeHandler *handlers.AssigneeHandler
	auditHandler    *handlers.AuditHandler
	sessionStore    store.SessionStore
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()
	sessionStore := store.NewGormStore(db)

	authService := services.NewAuthService(cfg, sessionStore)
	auditService := services.NewAuditService(db)
	bulkService := services.NewBulkService(db, authService.JiraClient(), auditService)
	assigneeService := services.NewAssigneeService(db, auditService)

	retention := services.NewRetentionScheduler(authService, auditService, cfg)
	retention.Start()

	return &appServices{
		authService:     authService,
		retention:       retention,
		authHandler:     handlers.NewAuthHandler(authService, cfg),
		ticketHandler:   handlers.NewTicketHandler(bulkService, authService.JiraClient()),
		assigneeHandler: handlers.NewAssigneeHandler(assigneeService, bulkService, authService.JiraClient()),
		auditHandler:    handlers.NewAuditHandler(auditService),
		sessionStore:    sessionStore,
	}
}

// shutdown gracefully stops background work and releases the store.
func (s *appServices) shutdown() {
	s.retention.Stop()
	if err := s.sessionStore.Close(); err != nil {
		logger.Warn().Err(err).Msg("session store close failed")
	}
	logger.Info().Msg("shutdown complete")
}
