package repository

import (
	"context"
	"time"

	"RiskPulse/internal/domain/models"
)

// SeriesSource delivers one raw series over a date range. Implementations may
// return more dates than asked; callers trim.
type SeriesSource interface {
	Name() string
	Fetch(ctx context.Context, r models.DateRange) (*models.Series, error)
}

// PutCallStore persists scraped put/call readings keyed by date.
type PutCallStore interface {
	Init(ctx context.Context) error
	UpsertSpxRatios(ctx context.Context, rows []models.PutCallRatio) error
	SpxRatios(ctx context.Context) ([]models.PutCallRatio, error)
	UpsertDailyVolume(ctx context.Context, row models.PutCallVolume) error
	DailyVolumes(ctx context.Context, from, to string) ([]models.PutCallVolume, error)
	Close() error
}

// RefreshNotifier is told when stored data behind an indicator changed.
type RefreshNotifier interface {
	NotifyRefresh(ctx context.Context, indicator string) error
}

type Metrics interface {
	RecordFetch(source string, d time.Duration, err error)
	RecordDroppedRows(source string, n int)
	RecordPipeline(indicator string, points int, d time.Duration)
	RecordCache(kind string, hit bool)
	RecordError(kind string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordFetch(string, time.Duration, error)  {}
func (NopMetrics) RecordDroppedRows(string, int)             {}
func (NopMetrics) RecordPipeline(string, int, time.Duration) {}
func (NopMetrics) RecordCache(string, bool)                  {}
func (NopMetrics) RecordError(string)                        {}
