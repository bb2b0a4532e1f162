package normalize

import (
	"fmt"

	"RiskPulse/internal/domain/models"
)

// Run aligns, transforms, scores and truncates one indicator. raw must hold
// a series for every input field of def; values outside the fetch window
// are ignored. An empty result is not an error.
func Run(def Definition, period models.Period, w Window, raw map[string]*models.Series) (models.IndicatorSeries, error) {
	cols := make([]Column, 0, len(def.Inputs))
	dropped := 0
	for _, in := range def.Inputs {
		s, ok := raw[in.Field]
		if !ok || s == nil {
			return models.IndicatorSeries{}, fmt.Errorf("%s: no series for input %q", def.Name, in.Field)
		}
		dropped += s.Dropped
		from := w.FetchStart
		if in.Soft {
			// a soft value from before the window may still anchor its first dates
			from = ""
		}
		cols = append(cols, Column{
			Field:  in.Field,
			Values: scaled(s.Values, in.scale(), from, w.DisplayEnd),
			Soft:   in.Soft,
		})
	}

	records := Align(cols)
	points, rejected := Apply(records, def.Transform)
	scored := Score(points, def.WindowSize)

	return models.IndicatorSeries{
		Indicator:    def.Name,
		Period:       period,
		AsOf:         w.AsOf,
		WindowSize:   def.WindowSize,
		FetchStart:   w.FetchStart,
		DisplayStart: w.DisplayStart,
		DisplayEnd:   w.DisplayEnd,
		Points:       Truncate(scored, w),
		Dropped:      dropped + rejected,
		Layout:       def.Layout,
	}, nil
}

// scaled copies the in-range values multiplied by factor.
func scaled(values map[string]float64, factor float64, from, to string) map[string]float64 {
	out := make(map[string]float64, len(values))
	for d, v := range values {
		if (from != "" && d < from) || (to != "" && d > to) {
			continue
		}
		out[d] = v * factor
	}
	return out
}
