package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RiskPulse/internal/domain/models"
	drepo "RiskPulse/internal/domain/repository"
	"RiskPulse/internal/services/indicators"
	"RiskPulse/internal/services/normalize"
	applogger "RiskPulse/pkg/logger"
	"RiskPulse/pkg/util"
)

// IndicatorReader is what the HTTP layer needs from the indicator service.
type IndicatorReader interface {
	Indicators() []models.IndicatorInfo
	History(ctx context.Context, name, period string, asOf time.Time) (*models.IndicatorSeries, error)
	Latest(ctx context.Context, name string, asOf time.Time) (*models.IndicatorSeries, error)
}

// IndicatorService fetches the raw inputs of an indicator and runs them
// through the normalization pipeline.
type IndicatorService struct {
	registry *indicators.Registry
	metrics  drepo.Metrics
	log      *applogger.Logger
}

func NewIndicatorService(registry *indicators.Registry, metrics drepo.Metrics, log *applogger.Logger) *IndicatorService {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &IndicatorService{registry: registry, metrics: metrics, log: log}
}

var _ IndicatorReader = (*IndicatorService)(nil)

func (s *IndicatorService) Indicators() []models.IndicatorInfo {
	defs := s.registry.List()
	out := make([]models.IndicatorInfo, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Info())
	}
	return out
}

// Resolve returns the definition and period a request maps to. An empty
// period selects the indicator's default.
func (s *IndicatorService) Resolve(name, period string) (normalize.Definition, models.Period, error) {
	def, err := s.registry.Lookup(name)
	if err != nil {
		return normalize.Definition{}, "", err
	}
	if period == "" {
		return def, def.DefaultPeriod, nil
	}
	p, ok := models.ParsePeriod(period)
	if !ok || !def.Supports(p) {
		return normalize.Definition{}, "", fmt.Errorf("%w: %s does not offer %q", models.ErrUnsupportedPeriod, def.Name, period)
	}
	return def, p, nil
}

// History computes an indicator over period as of the given calendar day.
// Any input that fails to load fails the whole request.
func (s *IndicatorService) History(ctx context.Context, name, period string, asOf time.Time) (*models.IndicatorSeries, error) {
	def, p, err := s.Resolve(name, period)
	if err != nil {
		return nil, err
	}
	w, err := normalize.ResolveWindow(def, p, asOf)
	if err != nil {
		return nil, err
	}

	raw, err := s.fetchInputs(ctx, def, w.FetchRange())
	if err != nil {
		s.metrics.RecordError("acquisition")
		s.log.Warn("indicator inputs unavailable",
			applogger.String("indicator", def.Name),
			applogger.String("period", p.String()),
			applogger.Error(err),
		)
		return nil, err
	}

	start := time.Now()
	out, err := normalize.Run(def, p, w, raw)
	if err != nil {
		s.metrics.RecordError("pipeline")
		return nil, fmt.Errorf("run %s: %w", def.Name, err)
	}
	s.metrics.RecordPipeline(def.Name, len(out.Points), time.Since(start))
	s.log.Debug("indicator computed",
		applogger.String("indicator", def.Name),
		applogger.String("period", p.String()),
		applogger.String("as_of", out.AsOf),
		applogger.Int("points", len(out.Points)),
		applogger.Int("dropped", out.Dropped),
	)
	return &out, nil
}

// Latest returns the default-period series cut down to its last point.
func (s *IndicatorService) Latest(ctx context.Context, name string, asOf time.Time) (*models.IndicatorSeries, error) {
	out, err := s.History(ctx, name, "", asOf)
	if err != nil {
		return nil, err
	}
	return LastPoint(out)
}

// LastPoint trims series to its most recent point. ErrNoData if it has none.
func LastPoint(series *models.IndicatorSeries) (*models.IndicatorSeries, error) {
	if len(series.Points) == 0 {
		return nil, fmt.Errorf("%w: %s as of %s", models.ErrNoData, series.Indicator, series.AsOf)
	}
	last := *series
	last.Points = series.Points[len(series.Points)-1:]
	return &last, nil
}

// fetchInputs loads every input concurrently. The first failure cancels the
// rest and is returned.
func (s *IndicatorService) fetchInputs(ctx context.Context, def normalize.Definition, r models.DateRange) (map[string]*models.Series, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		raw      = make(map[string]*models.Series, len(def.Inputs))
	)
	for _, in := range def.Inputs {
		if in.Source == nil {
			return nil, fmt.Errorf("%s: input %q has no source", def.Name, in.Field)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			series, err := in.Source.Fetch(ctx, r)
			s.metrics.RecordFetch(in.Source.Name(), time.Since(start), err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = models.NewAcquisitionError(in.Source.Name(), in.Field, err)
					cancel()
				}
				return
			}
			if series == nil {
				series = models.NewSeries(in.Field)
			}
			if series.Dropped > 0 {
				s.metrics.RecordDroppedRows(in.Source.Name(), series.Dropped)
			}
			raw[in.Field] = series
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return raw, nil
}

// Today is the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return util.CalendarDay(now.In(loc))
}
