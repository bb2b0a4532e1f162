package usecase

import (
	"context"
	"errors"
	"time"

	"RiskPulse/internal/domain/models"
	drepo "RiskPulse/internal/domain/repository"
	"RiskPulse/pkg/cache"
	applogger "RiskPulse/pkg/logger"
	"RiskPulse/pkg/util"
)

const (
	DefaultHistoryTTL = 12 * time.Hour
	DefaultLatestTTL  = time.Minute

	indicatorKeyPrefix = "indicator"
	latestPeriodKey    = "latest"
)

// CachedIndicators memoizes IndicatorService results per indicator, period
// and as-of date. A cache failure never fails the request.
type CachedIndicators struct {
	svc        *IndicatorService
	cache      cache.Service
	historyTTL time.Duration
	latestTTL  time.Duration
	metrics    drepo.Metrics
	log        *applogger.Logger
}

func NewCachedIndicators(svc *IndicatorService, c cache.Service, historyTTL, latestTTL time.Duration, metrics drepo.Metrics, log *applogger.Logger) *CachedIndicators {
	if historyTTL <= 0 {
		historyTTL = DefaultHistoryTTL
	}
	if latestTTL <= 0 {
		latestTTL = DefaultLatestTTL
	}
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &CachedIndicators{svc: svc, cache: c, historyTTL: historyTTL, latestTTL: latestTTL, metrics: metrics, log: log}
}

var _ IndicatorReader = (*CachedIndicators)(nil)

func (c *CachedIndicators) Indicators() []models.IndicatorInfo { return c.svc.Indicators() }

func (c *CachedIndicators) History(ctx context.Context, name, period string, asOf time.Time) (*models.IndicatorSeries, error) {
	def, p, err := c.svc.Resolve(name, period)
	if err != nil {
		return nil, err
	}
	key := historyKey(def.Name, string(p), asOf)
	return c.load(ctx, "history", key, c.historyTTL, func() (*models.IndicatorSeries, error) {
		return c.svc.History(ctx, def.Name, string(p), asOf)
	})
}

func (c *CachedIndicators) Latest(ctx context.Context, name string, asOf time.Time) (*models.IndicatorSeries, error) {
	def, _, err := c.svc.Resolve(name, "")
	if err != nil {
		return nil, err
	}
	key := historyKey(def.Name, latestPeriodKey, asOf)
	return c.load(ctx, "latest", key, c.latestTTL, func() (*models.IndicatorSeries, error) {
		// reuse a cached default-period history when there is one
		full, err := c.History(ctx, def.Name, "", asOf)
		if err != nil {
			return nil, err
		}
		return LastPoint(full)
	})
}

// Invalidate drops every cached result of indicator.
func (c *CachedIndicators) Invalidate(ctx context.Context, indicator string) error {
	def, err := c.svc.registry.Lookup(indicator)
	if err != nil {
		return err
	}
	pattern := cache.BuildPattern(cache.GenerateKeyWithParams(indicatorKeyPrefix, def.Name) + ":")
	if err := c.cache.DeleteByPattern(ctx, pattern); err != nil {
		return err
	}
	c.log.Info("indicator cache invalidated", applogger.String("indicator", def.Name))
	return nil
}

// Warm computes and caches the default period of every indicator.
func (c *CachedIndicators) Warm(ctx context.Context, asOf time.Time) error {
	var errs []error
	for _, info := range c.svc.Indicators() {
		if _, err := c.History(ctx, info.Name, "", asOf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *CachedIndicators) load(ctx context.Context, kind, key string, ttl time.Duration, compute func() (*models.IndicatorSeries, error)) (*models.IndicatorSeries, error) {
	var cached models.IndicatorSeries
	err := c.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		c.metrics.RecordCache(kind, true)
		return &cached, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		c.log.Warn("cache read failed", applogger.String("key", key), applogger.Error(err))
	}
	c.metrics.RecordCache(kind, false)

	out, err := compute()
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, out, ttl); err != nil {
		c.log.Warn("cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return out, nil
}

func historyKey(name, period string, asOf time.Time) string {
	return cache.GenerateKeyWithParams(indicatorKeyPrefix, name, period, util.FormatDate(asOf))
}
