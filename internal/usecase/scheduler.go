package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	applogger "RiskPulse/pkg/logger"
)

const jobTimeout = 10 * time.Minute

// Scheduler runs the put/call sync and the cache warm-up on cron schedules.
// Specs use the standard five-field format and are read in loc.
type Scheduler struct {
	collector *PutCallCollector
	warmer    *CachedIndicators
	cron      *cron.Cron
	loc       *time.Location
	now       func() time.Time
	log       *applogger.Logger
}

func NewScheduler(collector *PutCallCollector, warmer *CachedIndicators, loc *time.Location, log *applogger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &Scheduler{
		collector: collector,
		warmer:    warmer,
		cron:      cron.New(cron.WithLocation(loc)),
		loc:       loc,
		now:       time.Now,
		log:       log,
	}
}

// Start registers both jobs and starts the cron loop. An empty spec disables its job.
func (s *Scheduler) Start(syncSpec, warmSpec string) error {
	if syncSpec != "" {
		if _, err := s.cron.AddFunc(syncSpec, s.SyncPutCall); err != nil {
			return fmt.Errorf("put/call sync schedule %q: %w", syncSpec, err)
		}
	}
	if warmSpec != "" {
		if _, err := s.cron.AddFunc(warmSpec, s.WarmCache); err != nil {
			return fmt.Errorf("cache warm-up schedule %q: %w", warmSpec, err)
		}
	}
	s.cron.Start()
	s.log.Info("scheduler started",
		applogger.String("put_call_sync", syncSpec),
		applogger.String("cache_warmup", warmSpec),
		applogger.String("timezone", s.loc.String()),
	)
	return nil
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}

// SyncPutCall refreshes both put/call tables.
func (s *Scheduler) SyncPutCall() {
	if s.collector == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	rows, err := s.collector.SyncSpx(ctx)
	if err != nil && !errors.Is(err, ErrSyncInProgress) {
		s.log.Error("scheduled spx put/call sync failed", applogger.Error(err))
	}
	added, err := s.collector.SyncDaily(ctx, Today(s.now(), s.loc))
	if err != nil && !errors.Is(err, ErrSyncInProgress) {
		s.log.Error("scheduled daily put/call sync failed", applogger.Error(err))
	}
	s.log.Info("scheduled put/call sync done",
		applogger.Int("spx_rows", rows),
		applogger.Int("daily_added", added),
		applogger.Duration("took", time.Since(start)),
	)
}

// WarmCache computes the default period of every indicator.
func (s *Scheduler) WarmCache() {
	if s.warmer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.warmer.Warm(ctx, Today(s.now(), s.loc)); err != nil {
		s.log.Warn("cache warm-up incomplete", applogger.Error(err))
	}
	s.log.Info("cache warm-up done", applogger.Duration("took", time.Since(start)))
}
