package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/wwtech/onboarding-backend/internal/database"
	"github.com/wwtech/onboarding-backend/internal/metrics"
)

// CronConfig holds job schedules in six-field (seconds) cron syntax
type CronConfig struct {
	OfferSweepSchedule string
	AuditCleanup       string
	AuditRetention     time.Duration
}

// CronService manages scheduled background jobs
type CronService struct {
	cron       *cron.Cron
	candidates database.CandidateStore
	audit      *AuditService
	metrics    *metrics.Metrics
	logger     *logrus.Logger
	cfg        CronConfig
	now        func() time.Time
}

// NewCronService creates a new CronService
func NewCronService(candidates database.CandidateStore, audit *AuditService, m *metrics.Metrics, logger *logrus.Logger, cfg CronConfig) *CronService {
	if cfg.OfferSweepSchedule == "" {
		cfg.OfferSweepSchedule = "0 0 * * * *"
	}
	if cfg.AuditCleanup == "" {
		cfg.AuditCleanup = "0 30 3 * * 0"
	}
	if cfg.AuditRetention == 0 {
		cfg.AuditRetention = 365 * 24 * time.Hour
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &CronService{
		cron:       cron.New(cron.WithSeconds()),
		candidates: candidates,
		audit:      audit,
		metrics:    m,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Start schedules every job and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.OfferSweepSchedule, s.sweepExpiredOfferTokensJob); err != nil {
		return fmt.Errorf("failed to schedule offer token sweep: %w", err)
	}
	s.logger.WithField("schedule", s.cfg.OfferSweepSchedule).Info("Scheduled: expired offer token sweep")

	if s.audit != nil {
		if _, err := s.cron.AddFunc(s.cfg.AuditCleanup, s.cleanupAuditLogsJob); err != nil {
			return fmt.Errorf("failed to schedule audit cleanup: %w", err)
		}
		s.logger.WithField("schedule", s.cfg.AuditCleanup).Info("Scheduled: audit log cleanup")
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// SweepExpiredOfferTokens clears tokens whose offer expired without acceptance
func (s *CronService) SweepExpiredOfferTokens(ctx context.Context) (int64, error) {
	n, err := s.candidates.ClearExpiredOfferTokens(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.SweptOfferTokens.Add(float64(n))
	return n, nil
}

func (s *CronService) sweepExpiredOfferTokensJob() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.SweepExpiredOfferTokens(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to sweep expired offer tokens")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"cleared":  n,
		"duration": time.Since(start).String(),
	}).Info("[CRON] Expired offer tokens swept")
}

func (s *CronService) cleanupAuditLogsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := s.audit.CleanupOldAuditLogs(ctx, s.cfg.AuditRetention)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Failed to clean up audit logs")
		return
	}
	s.logger.WithField("deleted", n).Info("[CRON] Old audit logs removed")
}

// JobStatus returns the next and previous run of every scheduled job
func (s *CronService) JobStatus() []map[string]interface{} {
	entries := s.cron.Entries()
	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}
	return jobs
}
