package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/service/ycharts"
	"RiskPulse/pkg/cache"
)

var errNotPublished = errors.New("not published yet")

func TestSyncSpxUpsertsAndNotifies(t *testing.T) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	scraper := &fakeSpxScraper{snap: &ycharts.Snapshot{
		Latest:  &models.PutCallRatio{Date: "2024-03-15", Ratio: 0.95},
		History: []models.PutCallRatio{{Date: "2024-03-13", Ratio: 0.88}, {Date: "2024-03-14", Ratio: 1.02}},
	}}
	c := NewPutCallCollector(scraper, nil, store, notifier, cache.NewMemoryCache(), nil, nil)

	n, err := c.SyncSpx(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := store.SpxRatios(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-03-15", rows[2].Date)
	assert.Equal(t, []string{"spx-putcall"}, notifier.names)
}

func TestSyncSpxLockHeld(t *testing.T) {
	locks := cache.NewMemoryCache()
	ok, err := locks.TryLock(context.Background(), "lock:putcall:spx", syncLockTTL)
	require.NoError(t, err)
	require.True(t, ok)

	scraper := &fakeSpxScraper{}
	c := NewPutCallCollector(scraper, nil, newMemStore(), nil, locks, nil, nil)
	_, err = c.SyncSpx(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
	assert.Zero(t, scraper.calls)
}

func TestSyncDailyFillsOnlyMissingDays(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.UpsertDailyVolume(context.Background(), models.PutCallVolume{Date: "2024-03-14", Ratio: 1.1}))

	// asOf Friday 2024-03-15: the 7 weekdays before it run 03-06 .. 03-14
	daily := &fakeDailyScraper{rows: map[string]models.PutCallVolume{
		"2024-03-06": {Date: "2024-03-06", Ratio: 1.2},
		"2024-03-07": {Date: "2024-03-07", Ratio: 1.3},
		"2024-03-11": {Date: "2024-03-11", Ratio: 1.0},
		"2024-03-12": {Date: "2024-03-12", Ratio: 0.9},
		"2024-03-13": {Date: "2024-03-13", Ratio: 0.8},
	}}
	notifier := &recordingNotifier{}
	c := NewPutCallCollector(nil, daily, store, notifier, nil, nil, nil)

	added, err := c.SyncDaily(context.Background(), asOf)
	require.NoError(t, err)
	assert.Equal(t, 5, added)
	assert.Equal(t, []string{"2024-03-06", "2024-03-07", "2024-03-08", "2024-03-11", "2024-03-12", "2024-03-13"}, daily.asked)
	assert.Equal(t, []string{PutCallDaily}, notifier.names)

	rows, err := c.Recent(context.Background(), asOf)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "2024-03-06", rows[0].Date)
	assert.Equal(t, "2024-03-14", rows[5].Date)
	// the second sync only retries the day that failed
	assert.Equal(t, "2024-03-08", daily.asked[len(daily.asked)-1])
	assert.Len(t, notifier.names, 1)
}

func TestStoredSpxSource(t *testing.T) {
	store := newMemStore()
	scraper := &fakeSpxScraper{snap: &ycharts.Snapshot{History: []models.PutCallRatio{
		{Date: "2024-01-02", Ratio: 1.1},
		{Date: "2024-02-01", Ratio: 0.9},
		{Date: "2024-03-01", Ratio: 1.0},
	}}}
	c := NewPutCallCollector(scraper, nil, store, nil, nil, nil, nil)
	src := NewStoredSpxSource(c, store, nil)

	s, err := src.Fetch(context.Background(), models.DateRange{To: "2024-02-15"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"2024-01-02": 1.1, "2024-02-01": 0.9}, s.Values)
	assert.Equal(t, 1, scraper.calls)
}

func TestStoredSpxSourceFallsBackToStore(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.UpsertSpxRatios(context.Background(), []models.PutCallRatio{{Date: "2024-01-02", Ratio: 1.1}}))
	scraper := &fakeSpxScraper{err: errors.New("403")}
	src := NewStoredSpxSource(NewPutCallCollector(scraper, nil, store, nil, nil, nil, nil), store, nil)

	s, err := src.Fetch(context.Background(), models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	empty := newMemStore()
	_, err = NewStoredSpxSource(NewPutCallCollector(scraper, nil, empty, nil, nil, nil, nil), empty, nil).
		Fetch(context.Background(), models.DateRange{})
	assert.ErrorIs(t, err, models.ErrNoData)
	assert.ErrorContains(t, err, "403")
}

func TestStoredSpxSourceEmptyAfterSyncIsEmptySeries(t *testing.T) {
	store := newMemStore()
	scraper := &fakeSpxScraper{snap: &ycharts.Snapshot{}}
	src := NewStoredSpxSource(NewPutCallCollector(scraper, nil, store, nil, nil, nil, nil), store, nil)

	s, err := src.Fetch(context.Background(), models.DateRange{From: "2024-01-01"})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Zero(t, s.Len())
	assert.Equal(t, 1, scraper.calls)
}
