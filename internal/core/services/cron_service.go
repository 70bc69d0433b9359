package services

import (
	"context"
	"time"

	"loanportal/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService runs background housekeeping on a cron schedule
type CronService struct {
	cron     *cron.Cron
	sessions repositories.SessionRepository
	schedule string
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewCronService creates a new cron service. Panics inside jobs are
// recovered and logged.
func NewCronService(sessions repositories.SessionRepository, schedule string, log logrus.FieldLogger) *CronService {
	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log))))

	return &CronService{
		cron:     c,
		sessions: sessions,
		schedule: schedule,
		log:      log,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.purgeSessions); err != nil {
		return err
	}
	s.cron.Start()
	s.log.WithField("schedule", s.schedule).Info("🚀 Session cleanup job scheduled")
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("🛑 Cron jobs stopped")
}

// RunOnce deletes sessions whose expiry has passed
func (s *CronService) RunOnce(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

func (s *CronService) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.RunOnce(ctx)
	if err != nil {
		s.log.WithError(err).Error("❌ Session cleanup failed")
		return
	}
	if n > 0 {
		s.log.WithField("deleted", n).Info("🗑️ Expired sessions purged")
	}
}
