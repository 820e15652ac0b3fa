package services

import (
	"github.com/robfig/cron/v3"
	"github.com/tickettractor/backend/internal/config"
	"github.com/tickettractor/backend/pkg/logger"
)

// RetentionScheduler runs daily housekeeping: age-based session cleanup and
// audit log pruning. Session cleanup also happens opportunistically after
// each login; the cron pass covers quiet periods with no logins.
type RetentionScheduler struct {
	cron  *cron.Cron
	auth  *AuthService
	audit *AuditService
	cfg   *config.Config
}

func NewRetentionScheduler(auth *AuthService, audit *AuditService, cfg *config.Config) *RetentionScheduler {
	return &RetentionScheduler{
		cron:  cron.New(),
		auth:  auth,
		audit: audit,
		cfg:   cfg,
	}
}

// Start schedules the daily run at 03:00.
func (s *RetentionScheduler) Start() {
	s.cron.AddFunc("0 3 * * *", s.run)
	s.cron.Start()
	logger.Info().Msg("retention scheduler started (daily 03:00)")
}

func (s *RetentionScheduler) Stop() {
	s.cron.Stop()
}

func (s *RetentionScheduler) run() {
	s.auth.CleanupExpiredSessions()

	days := s.cfg.App.AuditRetentionDays
	if days <= 0 {
		return
	}
	deleted, err := s.audit.DeleteOlderThanDays(days)
	if err != nil {
		logger.Warn().Err(err).Msg("audit retention prune failed")
		return
	}
	if deleted > 0 {
		logger.Infof("Pruned %d audit entries older than %d days", deleted, days)
	}
}
