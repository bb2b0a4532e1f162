package usecase

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/service/ycharts"
)

type fakeSource struct {
	name   string
	values map[string]float64
	err    error
	delay  time.Duration
	calls  atomic.Int32
	ranges []models.DateRange
	mu     sync.Mutex
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Fetch(ctx context.Context, r models.DateRange) (*models.Series, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.ranges = append(s.ranges, r)
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	out := models.NewSeries(s.name)
	for d, v := range s.values {
		out.Set(d, v)
	}
	return out, nil
}

type memStore struct {
	mu     sync.Mutex
	spx    map[string]models.PutCallRatio
	daily  map[string]models.PutCallVolume
	spxErr error
}

func newMemStore() *memStore {
	return &memStore{spx: map[string]models.PutCallRatio{}, daily: map[string]models.PutCallVolume{}}
}

func (s *memStore) Init(context.Context) error { return nil }

func (s *memStore) UpsertSpxRatios(_ context.Context, rows []models.PutCallRatio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spxErr != nil {
		return s.spxErr
	}
	for _, r := range rows {
		s.spx[r.Date] = r
	}
	return nil
}

func (s *memStore) SpxRatios(context.Context) ([]models.PutCallRatio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PutCallRatio, 0, len(s.spx))
	for _, r := range s.spx {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *memStore) UpsertDailyVolume(_ context.Context, row models.PutCallVolume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.daily[row.Date] = row
	return nil
}

func (s *memStore) DailyVolumes(_ context.Context, from, to string) ([]models.PutCallVolume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PutCallVolume, 0)
	for d, r := range s.daily {
		if d >= from && d <= to {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *memStore) Close() error { return nil }

type fakeSpxScraper struct {
	snap  *ycharts.Snapshot
	err   error
	calls int
}

func (f *fakeSpxScraper) PutCall(context.Context) (*ycharts.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

type fakeDailyScraper struct {
	rows  map[string]models.PutCallVolume
	asked []string
}

func (f *fakeDailyScraper) Daily(_ context.Context, date string) (*models.PutCallVolume, error) {
	f.asked = append(f.asked, date)
	row, ok := f.rows[date]
	if !ok {
		return nil, models.NewAcquisitionError("cboe", date, errNotPublished)
	}
	return &row, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	names []string
}

func (n *recordingNotifier) NotifyRefresh(_ context.Context, indicator string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.names = append(n.names, indicator)
	return nil
}

type recordingMetrics struct {
	mu      sync.Mutex
	fetches map[string]int
	dropped map[string]int
	cache   map[bool]int
	errs    []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{fetches: map[string]int{}, dropped: map[string]int{}, cache: map[bool]int{}}
}

func (m *recordingMetrics) RecordFetch(source string, _ time.Duration, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[source]++
}

func (m *recordingMetrics) RecordDroppedRows(source string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[source] += n
}

func (m *recordingMetrics) RecordPipeline(string, int, time.Duration) {}

func (m *recordingMetrics) RecordCache(_ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[hit]++
}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, kind)
}
