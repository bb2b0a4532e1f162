package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/services/indicators"
	"RiskPulse/internal/services/normalize"
	"RiskPulse/pkg/cache"
	"RiskPulse/pkg/util"
)

var asOf = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

// weekdaySeries gives n weekdays up to asOf the values fn(i), oldest first.
func weekdaySeries(n int, fn func(i int) float64) map[string]float64 {
	out := make(map[string]float64, n)
	for i, d := range util.PreviousWeekdays(asOf.AddDate(0, 0, 1), n) {
		out[d] = fn(i)
	}
	return out
}

func spreadDef(a, b *fakeSource) normalize.Definition {
	return normalize.Definition{
		Name:    "test-spread",
		Aliases: []string{"ts"},
		Inputs: []normalize.Input{
			{Field: "a", Source: a},
			{Field: "b", Source: b},
		},
		ValueField:    "spread",
		Transform:     normalize.Difference("a", "b", 100),
		WindowSize:    normalize.DailyWindow,
		PointsPerYear: normalize.DailyWindow,
		Periods:       []models.Period{models.Period1Y, models.PeriodMax},
		DefaultPeriod: models.Period1Y,
		Earliest:      "2020-01-01",
		Layout:        models.RecordLayout{ValueField: "spread", ZScorePrecision: 2},
	}
}

func newService(t *testing.T, defs ...normalize.Definition) (*IndicatorService, *recordingMetrics) {
	t.Helper()
	reg, err := indicators.NewRegistry(defs...)
	require.NoError(t, err)
	m := newRecordingMetrics()
	return NewIndicatorService(reg, m, nil), m
}

func TestHistoryRunsPipelineOverFetchWindow(t *testing.T) {
	a := &fakeSource{name: "src:a", values: weekdaySeries(600, func(i int) float64 { return 5 + float64(i%7)/10 })}
	b := &fakeSource{name: "src:b", values: weekdaySeries(600, func(int) float64 { return 4 })}
	svc, m := newService(t, spreadDef(a, b))

	out, err := svc.History(context.Background(), "ts", "", asOf)
	require.NoError(t, err)

	assert.Equal(t, "test-spread", out.Indicator)
	assert.Equal(t, models.Period1Y, out.Period)
	assert.Equal(t, "2023-03-15", out.DisplayStart)
	assert.Equal(t, "2024-03-15", out.DisplayEnd)
	require.NotEmpty(t, out.Points)
	assert.GreaterOrEqual(t, out.Points[0].Date, "2023-03-15")
	assert.Equal(t, "2024-03-15", out.Points[len(out.Points)-1].Date)
	assert.InDelta(t, 100+float64(599%7)*10, out.Points[len(out.Points)-1].Value, 1e-9)
	// more than a year of history precedes the display window
	assert.True(t, out.Points[0].Scored)

	require.Len(t, a.ranges, 1)
	assert.Equal(t, models.DateRange{From: "2021-03-15", To: "2024-03-15"}, a.ranges[0])
	assert.Equal(t, 1, m.fetches["src:a"])
	assert.Equal(t, 1, m.fetches["src:b"])
}

func TestHistoryFailsWholeRequestOnOneSource(t *testing.T) {
	boom := errors.New("connection reset")
	a := &fakeSource{name: "src:a", err: boom}
	b := &fakeSource{name: "src:b", delay: 5 * time.Second}
	svc, m := newService(t, spreadDef(a, b))

	start := time.Now()
	_, err := svc.History(context.Background(), "test-spread", "max", asOf)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	var ae *models.AcquisitionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "src:a", ae.Source)
	assert.Equal(t, "a", ae.Series)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, m.errs, "acquisition")
}

func TestHistoryRejectsUnknownNamesAndPeriods(t *testing.T) {
	a := &fakeSource{name: "src:a"}
	b := &fakeSource{name: "src:b"}
	svc, _ := newService(t, spreadDef(a, b))

	_, err := svc.History(context.Background(), "gold", "", asOf)
	assert.ErrorIs(t, err, models.ErrUnknownIndicator)

	_, err = svc.History(context.Background(), "ts", "3y", asOf)
	assert.ErrorIs(t, err, models.ErrUnsupportedPeriod)

	_, err = svc.History(context.Background(), "ts", "10y", asOf)
	assert.ErrorIs(t, err, models.ErrUnsupportedPeriod)

	assert.Zero(t, a.calls.Load())
}

func TestHistoryWithoutOverlapIsEmpty(t *testing.T) {
	a := &fakeSource{name: "src:a", values: map[string]float64{"2024-03-01": 1}}
	b := &fakeSource{name: "src:b", values: map[string]float64{"2024-03-04": 1}}
	svc, _ := newService(t, spreadDef(a, b))

	out, err := svc.History(context.Background(), "ts", "", asOf)
	require.NoError(t, err)
	assert.Empty(t, out.Points)

	_, err = svc.Latest(context.Background(), "ts", asOf)
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestLatestReturnsLastPoint(t *testing.T) {
	a := &fakeSource{name: "src:a", values: weekdaySeries(10, func(i int) float64 { return float64(i) })}
	b := &fakeSource{name: "src:b", values: weekdaySeries(10, func(int) float64 { return 0 })}
	svc, _ := newService(t, spreadDef(a, b))

	out, err := svc.Latest(context.Background(), "ts", asOf)
	require.NoError(t, err)
	require.Len(t, out.Points, 1)
	assert.Equal(t, "2024-03-15", out.Points[0].Date)
	assert.InDelta(t, 900, out.Points[0].Value, 1e-9)
}

func TestIndicatorsListsInfo(t *testing.T) {
	svc, _ := newService(t, spreadDef(&fakeSource{name: "a"}, &fakeSource{name: "b"}))
	infos := svc.Indicators()
	require.Len(t, infos, 1)
	assert.Equal(t, "test-spread", infos[0].Name)
	assert.Equal(t, []string{"ts"}, infos[0].Aliases)
}

func TestCachedIndicatorsServesFromCache(t *testing.T) {
	a := &fakeSource{name: "src:a", values: weekdaySeries(20, func(i int) float64 { return float64(i) })}
	b := &fakeSource{name: "src:b", values: weekdaySeries(20, func(int) float64 { return 1 })}
	svc, m := newService(t, spreadDef(a, b))
	mc := cache.NewMemoryCache()
	defer mc.Close()
	cached := NewCachedIndicators(svc, mc, 0, 0, m, nil)
	ctx := context.Background()

	first, err := cached.History(ctx, "ts", "", asOf)
	require.NoError(t, err)
	second, err := cached.History(ctx, "test-spread", "1y", asOf)
	require.NoError(t, err)

	assert.Equal(t, int32(1), a.calls.Load())
	assert.Equal(t, first.Points, second.Points)
	assert.Equal(t, 1, m.cache[true])

	latest, err := cached.Latest(ctx, "ts", asOf)
	require.NoError(t, err)
	require.Len(t, latest.Points, 1)
	assert.Equal(t, int32(1), a.calls.Load())

	exists, err := mc.Exists(ctx, "indicator:test-spread:1y:2024-03-15", "indicator:test-spread:latest:2024-03-15")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cached.Invalidate(ctx, "ts"))
	_, err = cached.History(ctx, "ts", "", asOf)
	require.NoError(t, err)
	assert.Equal(t, int32(2), a.calls.Load())
}

func TestCachedIndicatorsDoesNotCacheFailures(t *testing.T) {
	a := &fakeSource{name: "src:a", err: errors.New("503")}
	b := &fakeSource{name: "src:b"}
	svc, _ := newService(t, spreadDef(a, b))
	mc := cache.NewMemoryCache()
	defer mc.Close()
	cached := NewCachedIndicators(svc, mc, time.Hour, time.Minute, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := cached.History(context.Background(), "ts", "", asOf)
		assert.True(t, models.IsAcquisitionError(err))
	}
	assert.Equal(t, int32(2), a.calls.Load())
	assert.Zero(t, mc.Len())
}

func TestWarmCachesDefaultPeriods(t *testing.T) {
	a := &fakeSource{name: "src:a", values: weekdaySeries(5, func(i int) float64 { return float64(i) })}
	b := &fakeSource{name: "src:b", values: weekdaySeries(5, func(int) float64 { return 1 })}
	svc, _ := newService(t, spreadDef(a, b))
	mc := cache.NewMemoryCache()
	defer mc.Close()
	cached := NewCachedIndicators(svc, mc, 0, 0, nil, nil)

	require.NoError(t, cached.Warm(context.Background(), asOf))
	exists, err := mc.Exists(context.Background(), "indicator:test-spread:1y:2024-03-15")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestToday(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 02:00 UTC on the 16th is still the 15th in New York
	now := time.Date(2024, 3, 16, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-15", util.FormatDate(Today(now, ny)))
	assert.Equal(t, "2024-03-16", util.FormatDate(Today(now, nil)))
}
