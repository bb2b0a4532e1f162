package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RiskPulse/internal/domain/models"
	drepo "RiskPulse/internal/domain/repository"
	"RiskPulse/internal/service/ycharts"
	"RiskPulse/pkg/cache"
	applogger "RiskPulse/pkg/logger"
	"RiskPulse/pkg/util"
)

const (
	// RecentDays is the number of weekdays the daily put/call view covers.
	RecentDays = 7

	// PutCallDaily names the refresh events of the daily volume table.
	PutCallDaily = "putcall-daily"

	syncLockTTL = 2 * time.Minute
)

// ErrSyncInProgress is returned when another sync holds the lock.
var ErrSyncInProgress = errors.New("put/call sync already running")

// SpxScraper loads the SPX put/call history page.
type SpxScraper interface {
	PutCall(ctx context.Context) (*ycharts.Snapshot, error)
}

// DailyScraper loads one day of CBOE daily market statistics.
type DailyScraper interface {
	Daily(ctx context.Context, date string) (*models.PutCallVolume, error)
}

// PutCallCollector keeps the stored put/call tables current.
type PutCallCollector struct {
	spx      SpxScraper
	daily    DailyScraper
	store    drepo.PutCallStore
	notifier drepo.RefreshNotifier
	locks    cache.Service
	metrics  drepo.Metrics
	log      *applogger.Logger
}

func NewPutCallCollector(
	spx SpxScraper,
	daily DailyScraper,
	store drepo.PutCallStore,
	notifier drepo.RefreshNotifier,
	locks cache.Service,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *PutCallCollector {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &PutCallCollector{
		spx: spx, daily: daily, store: store, notifier: notifier,
		locks: locks, metrics: metrics, log: log,
	}
}

// SetNotifier replaces the refresh notifier. Used to break the construction
// cycle between the collector and the cache it invalidates.
func (c *PutCallCollector) SetNotifier(n drepo.RefreshNotifier) { c.notifier = n }

// SyncSpx scrapes the SPX ratio page and upserts everything it shows.
func (c *PutCallCollector) SyncSpx(ctx context.Context) (int, error) {
	unlock, err := c.lock(ctx, "lock:putcall:spx")
	if err != nil {
		return 0, err
	}
	defer unlock()

	start := time.Now()
	snap, err := c.spx.PutCall(ctx)
	c.metrics.RecordFetch("ycharts:spx-putcall", time.Since(start), err)
	if err != nil {
		return 0, err
	}
	rows := snap.All()
	if len(rows) == 0 {
		return 0, nil
	}
	if err := c.store.UpsertSpxRatios(ctx, rows); err != nil {
		c.metrics.RecordError("store")
		return 0, fmt.Errorf("store spx ratios: %w", err)
	}
	c.log.Info("spx put/call synced",
		applogger.Int("rows", len(rows)),
		applogger.String("latest", rows[len(rows)-1].Date),
	)
	c.notify(ctx, "spx-putcall")
	return len(rows), nil
}

// SyncDaily fills in the weekdays before asOf that are not stored yet. A day
// whose page cannot be read is skipped and retried on the next sync.
func (c *PutCallCollector) SyncDaily(ctx context.Context, asOf time.Time) (int, error) {
	unlock, err := c.lock(ctx, "lock:putcall:daily")
	if err != nil {
		return 0, err
	}
	defer unlock()

	days := util.PreviousWeekdays(asOf, RecentDays)
	stored, err := c.store.DailyVolumes(ctx, days[0], days[len(days)-1])
	if err != nil {
		return 0, fmt.Errorf("load stored volumes: %w", err)
	}
	have := make(map[string]bool, len(stored))
	for _, row := range stored {
		have[row.Date] = true
	}

	added := 0
	for _, day := range days {
		if have[day] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return added, err
		}
		start := time.Now()
		row, err := c.daily.Daily(ctx, day)
		c.metrics.RecordFetch("cboe:daily", time.Since(start), err)
		if err != nil {
			c.log.Warn("daily put/call unavailable", applogger.String("date", day), applogger.Error(err))
			continue
		}
		if err := c.store.UpsertDailyVolume(ctx, *row); err != nil {
			c.metrics.RecordError("store")
			return added, fmt.Errorf("store daily volume %s: %w", day, err)
		}
		added++
	}
	if added > 0 {
		c.log.Info("daily put/call synced", applogger.Int("added", added))
		c.notify(ctx, PutCallDaily)
	}
	return added, nil
}

// Recent syncs the daily table and returns the stored weekdays before asOf,
// oldest first.
func (c *PutCallCollector) Recent(ctx context.Context, asOf time.Time) ([]models.PutCallVolume, error) {
	if _, err := c.SyncDaily(ctx, asOf); err != nil && !errors.Is(err, ErrSyncInProgress) {
		c.log.Warn("daily put/call sync failed", applogger.Error(err))
	}
	days := util.PreviousWeekdays(asOf, RecentDays)
	return c.store.DailyVolumes(ctx, days[0], days[len(days)-1])
}

func (c *PutCallCollector) notify(ctx context.Context, indicator string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyRefresh(ctx, indicator); err != nil {
		c.log.Warn("refresh notification failed", applogger.String("indicator", indicator), applogger.Error(err))
	}
}

func (c *PutCallCollector) lock(ctx context.Context, key string) (func(), error) {
	if c.locks == nil {
		return func() {}, nil
	}
	ok, err := c.locks.TryLock(ctx, key, syncLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}
	return func() { _ = c.locks.Unlock(context.WithoutCancel(ctx), key) }, nil
}

// StoredSpxSource exposes the persisted SPX put/call history as a series.
// Every fetch syncs first; a failed sync falls back to what is stored and is
// only reported when nothing is stored in range.
type StoredSpxSource struct {
	collector *PutCallCollector
	store     drepo.PutCallStore
	log       *applogger.Logger
}

func NewStoredSpxSource(collector *PutCallCollector, store drepo.PutCallStore, log *applogger.Logger) *StoredSpxSource {
	if log == nil {
		log = applogger.NewNop()
	}
	return &StoredSpxSource{collector: collector, store: store, log: log}
}

var _ drepo.SeriesSource = (*StoredSpxSource)(nil)

func (s *StoredSpxSource) Name() string { return "store:spx-putcall" }

func (s *StoredSpxSource) Fetch(ctx context.Context, r models.DateRange) (*models.Series, error) {
	var syncErr error
	if s.collector != nil {
		if _, err := s.collector.SyncSpx(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
			s.log.Warn("spx put/call sync failed, serving stored history", applogger.Error(err))
			syncErr = err
		}
	}
	rows, err := s.store.SpxRatios(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stored spx ratios: %w", err)
	}
	out := models.NewSeries("ratio")
	for _, row := range rows {
		if (r.From != "" && row.Date < r.From) || (r.To != "" && row.Date > r.To) {
			continue
		}
		out.Set(row.Date, row.Ratio)
	}
	if out.Len() == 0 && syncErr != nil {
		return nil, fmt.Errorf("%w: no stored spx put/call history: %w", models.ErrNoData, syncErr)
	}
	return out, nil
}
