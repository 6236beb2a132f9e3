package service

import (
	"context"
	"fmt"
	"time"

	"sprinkler_client/internal/logger"

	"github.com/robfig/cron/v3"
)

// RefreshScheduler runs the periodic status sync and schedule refresh jobs.
type RefreshScheduler struct {
	cron     *cron.Cron
	sync     Synchronizer
	schedule Schedule
	log      *logger.Logger
}

func NewRefreshScheduler(sync Synchronizer, schedule Schedule, log *logger.Logger) *RefreshScheduler {
	if log == nil {
		log = logger.Nop()
	}
	cl := cronLogger{log: log}
	return &RefreshScheduler{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		sync:     sync,
		schedule: schedule,
		log:      log,
	}
}

// Start registers both jobs and starts the cron loop. Jobs run with ctx, so
// cancelling it aborts in-flight fetches.
func (s *RefreshScheduler) Start(ctx context.Context, syncEvery, scheduleEvery time.Duration) error {
	if _, err := s.cron.AddFunc(everySpec(syncEvery), func() {
		_ = s.sync.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("schedule status sync: %w", err)
	}
	if s.schedule != nil {
		if _, err := s.cron.AddFunc(everySpec(scheduleEvery), func() {
			_ = s.schedule.Refresh(ctx)
		}); err != nil {
			return fmt.Errorf("schedule listing refresh: %w", err)
		}
	}

	s.cron.Start()
	s.log.Infow("scheduler_started", "sync_every", syncEvery.String(), "schedule_every", scheduleEvery.String())
	return nil
}

// Stop waits for running jobs to finish.
func (s *RefreshScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Infow("scheduler_stopped")
}

func everySpec(d time.Duration) string {
	return "@every " + d.String()
}

// cronLogger adapts the zap logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debugw("cron_"+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Errorw("cron_"+msg, append(keysAndValues, "error", err)...)
}
