package normalize

import (
	"fmt"
	"time"

	"RiskPulse/internal/domain/models"
	"RiskPulse/pkg/util"
)

// Window is the resolved date range of one pipeline run. An empty
// FetchStart or DisplayStart means unbounded.
type Window struct {
	AsOf         string
	FetchStart   string
	DisplayStart string
	DisplayEnd   string
}

// FetchRange is the range to request from sources.
func (w Window) FetchRange() models.DateRange {
	return models.DateRange{From: w.FetchStart, To: w.DisplayEnd}
}

// ResolveWindow maps a period to fetch and display bounds relative to asOf.
// Bounded periods fetch warm-up years ahead of the display start so the
// z-score window is full on the first displayed date; "max" starts at the
// definition's earliest date.
func ResolveWindow(def Definition, p models.Period, asOf time.Time) (Window, error) {
	if !def.Supports(p) {
		return Window{}, fmt.Errorf("%w: %s does not offer %q", models.ErrUnsupportedPeriod, def.Name, p)
	}

	end := util.MinDate(util.FormatDate(asOf), def.EndDate)
	endDay, _ := util.ParseDate(end)
	w := Window{AsOf: end, DisplayEnd: end}

	years, bounded := p.Years()
	if !bounded {
		w.DisplayStart = def.Earliest
		w.FetchStart = def.Earliest
	} else {
		w.DisplayStart = util.FormatDate(util.SubYears(endDay, years))
		w.FetchStart = util.FormatDate(util.SubYears(endDay, years+warmupYears(def)))
	}
	if def.FetchAll {
		w.FetchStart = ""
	}
	return w, nil
}

// warmupYears covers WindowSize points plus one spare year. Intersecting two
// market calendars leaves a year a few points short of PointsPerYear.
func warmupYears(def Definition) int {
	per := def.PointsPerYear
	if per <= 0 {
		per = DailyWindow
	}
	return (def.WindowSize+per-1)/per + 1
}

// Truncate keeps the points inside the display bounds. Input order is preserved.
func Truncate(points []models.ScoredPoint, w Window) []models.ScoredPoint {
	out := make([]models.ScoredPoint, 0, len(points))
	for _, p := range points {
		if w.DisplayStart != "" && p.Date < w.DisplayStart {
			continue
		}
		if w.DisplayEnd != "" && p.Date > w.DisplayEnd {
			continue
		}
		out = append(out, p)
	}
	return out
}
