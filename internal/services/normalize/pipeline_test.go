package normalize

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskPulse/internal/domain/models"
	"RiskPulse/pkg/util"
)

// businessDays returns n weekday dates ending at or before end, oldest first.
func businessDays(end time.Time, n int) []string {
	out := util.PreviousWeekdays(end.AddDate(0, 0, 1), n)
	return out
}

func ratioDef() Definition {
	return Definition{
		Name:          "hy-ig-ratio",
		Inputs:        []Input{{Field: "hySpread"}, {Field: "igSpread"}},
		ValueField:    "ratio",
		Transform:     Ratio("hySpread", "igSpread"),
		WindowSize:    DailyWindow,
		PointsPerYear: DailyWindow,
		Periods:       []models.Period{models.Period1Y, models.PeriodMax},
		DefaultPeriod: models.Period1Y,
		Layout: models.RecordLayout{
			Fields:          []models.FieldFormat{{Name: "hySpread"}, {Name: "igSpread"}},
			ValueField:      "ratio",
			ValuePrecision:  2,
			ZScorePrecision: 2,
		},
	}
}

func maxWindow(end string) Window {
	return Window{AsOf: end, DisplayEnd: end}
}

func TestRunHYIGScenario(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	dates := businessDays(end, 253)
	hy := models.NewSeries("hy")
	ig := models.NewSeries("ig")
	for i, d := range dates[:252] {
		hy.Set(d, 500+float64(i%2)*20)
		ig.Set(d, 100+float64(i%2)*2)
	}
	hy.Set(dates[252], 900)
	ig.Set(dates[252], 100)

	got, err := Run(ratioDef(), models.PeriodMax, maxWindow(util.FormatDate(end)),
		map[string]*models.Series{"hySpread": hy, "igSpread": ig})
	require.NoError(t, err)
	require.Len(t, got.Points, 253)

	records := got.Layout.Records(got.Points)
	r1, _ := records[1].Rounded("ratio")
	assert.Equal(t, 5.1, r1) // 520/102 = 5.098...
	raw1, _ := records[1].Get("ratio")
	assert.InDelta(t, 520.0/102.0, raw1, 1e-12)

	last := got.Points[252]
	assert.True(t, last.Scored)
	assert.Greater(t, math.Abs(last.ZScore), 2.0)
}

func TestRunDropsZeroDenominator(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	dates := businessDays(end, 30)
	hy := models.NewSeries("hy")
	ig := models.NewSeries("ig")
	for i, d := range dates {
		hy.Set(d, 500)
		ig.Set(d, 100)
		if i == 12 {
			ig.Set(d, 0)
		}
	}

	got, err := Run(ratioDef(), models.PeriodMax, maxWindow(util.FormatDate(end)),
		map[string]*models.Series{"hySpread": hy, "igSpread": ig})
	require.NoError(t, err)
	assert.Len(t, got.Points, 29)
	assert.Equal(t, 1, got.Dropped)
	for _, p := range got.Points {
		assert.NotEqual(t, dates[12], p.Date)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	dates := businessDays(end, 400)
	hy := models.NewSeries("hy")
	ig := models.NewSeries("ig")
	for i, d := range dates {
		hy.Set(d, 400+math.Sin(float64(i)/7)*60)
		ig.Set(d, 110+math.Cos(float64(i)/11)*15)
	}
	raw := map[string]*models.Series{"hySpread": hy, "igSpread": ig}

	w, err := ResolveWindow(ratioDef(), models.Period1Y, end)
	require.NoError(t, err)

	render := func() []byte {
		s, err := Run(ratioDef(), models.Period1Y, w, raw)
		require.NoError(t, err)
		b, err := json.Marshal(s.Layout.Records(s.Points))
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, render(), render())
}

func TestRunWarmupDataFeedsDisplayedScores(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	dates := businessDays(end, 600)
	hy := models.NewSeries("hy")
	ig := models.NewSeries("ig")
	for i, d := range dates {
		hy.Set(d, 300+float64(i%17)*9+float64(i)/3)
		ig.Set(d, 100)
	}
	raw := map[string]*models.Series{"hySpread": hy, "igSpread": ig}

	w, err := ResolveWindow(ratioDef(), models.Period1Y, end)
	require.NoError(t, err)
	withWarmup, err := Run(ratioDef(), models.Period1Y, w, raw)
	require.NoError(t, err)
	require.NotEmpty(t, withWarmup.Points)

	for _, p := range withWarmup.Points {
		assert.GreaterOrEqual(t, p.Date, w.DisplayStart)
	}
	// the first displayed point already has a full window behind it
	assert.True(t, withWarmup.Points[0].Scored)

	naive := w
	naive.FetchStart = w.DisplayStart
	withoutWarmup, err := Run(ratioDef(), models.Period1Y, naive, raw)
	require.NoError(t, err)
	require.Equal(t, len(withWarmup.Points), len(withoutWarmup.Points))

	assert.False(t, withoutWarmup.Points[0].Scored)
	assert.NotEqual(t, withWarmup.Points[0].ZScore, withoutWarmup.Points[0].ZScore)
}

func TestRunWarmupSurvivesMarketHolidays(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	hy := models.NewSeries("hy")
	ig := models.NewSeries("ig")
	for i, d := range businessDays(end, 1100) {
		day, _ := util.ParseDate(d)
		// about eleven closed weekdays a year
		if day.YearDay()%23 == 0 {
			continue
		}
		hy.Set(d, 300+float64(i%13)*7)
		ig.Set(d, 100)
	}
	raw := map[string]*models.Series{"hySpread": hy, "igSpread": ig}

	w, err := ResolveWindow(ratioDef(), models.Period1Y, end)
	require.NoError(t, err)
	got, err := Run(ratioDef(), models.Period1Y, w, raw)
	require.NoError(t, err)
	require.NotEmpty(t, got.Points)

	for _, p := range got.Points {
		assert.True(t, p.Scored, "date %s", p.Date)
	}
}

func TestRunForwardFillsSoftInputFromBeforeWindow(t *testing.T) {
	def := Definition{
		Name: "erp-proxy",
		Inputs: []Input{
			{Field: "sp500"},
			{Field: "realYield"},
			{Field: "epsTtm", Soft: true},
		},
		ValueField:    "erpProxy",
		Transform:     EquityRiskPremium("epsTtm", "sp500", "realYield", "earningsYield"),
		WindowSize:    2,
		Periods:       []models.Period{models.PeriodMax},
		DefaultPeriod: models.PeriodMax,
	}
	px := models.NewSeries("sp500")
	ry := models.NewSeries("dfii10")
	eps := models.NewSeries("eps")
	eps.Set("2023-12-31", 200)
	for _, d := range []string{"2024-01-02", "2024-01-03"} {
		px.Set(d, 4000)
		ry.Set(d, 2)
	}

	w := Window{AsOf: "2024-01-03", FetchStart: "2024-01-01", DisplayStart: "2024-01-01", DisplayEnd: "2024-01-03"}
	got, err := Run(def, models.PeriodMax, w, map[string]*models.Series{"sp500": px, "realYield": ry, "epsTtm": eps})
	require.NoError(t, err)
	require.Len(t, got.Points, 2)
	assert.InDelta(t, 3.0, got.Points[0].Value, 1e-12)
	assert.InDelta(t, 5.0, got.Points[0].Derived["earningsYield"], 1e-12)
}

func TestRunEmptyAndMissingInputs(t *testing.T) {
	got, err := Run(ratioDef(), models.PeriodMax, maxWindow("2024-01-31"), map[string]*models.Series{
		"hySpread": models.NewSeries("hy"),
		"igSpread": models.NewSeries("ig"),
	})
	require.NoError(t, err)
	assert.Empty(t, got.Points)

	_, err = Run(ratioDef(), models.PeriodMax, maxWindow("2024-01-31"), map[string]*models.Series{
		"hySpread": models.NewSeries("hy"),
	})
	assert.Error(t, err)
}

func TestRunScalesInputsAndCountsSourceDrops(t *testing.T) {
	def := Definition{
		Name:          "hy-spread",
		Inputs:        []Input{{Field: "spread", Scale: 100}},
		ValueField:    "spread",
		Transform:     Identity("spread"),
		WindowSize:    DailyWindow,
		Periods:       []models.Period{models.PeriodMax},
		DefaultPeriod: models.PeriodMax,
	}
	s := models.NewSeries("BAMLH0A0HYM2")
	s.Set("2024-01-02", 3.41)
	s.Dropped = 2

	got, err := Run(def, models.PeriodMax, maxWindow("2024-01-31"), map[string]*models.Series{"spread": s})
	require.NoError(t, err)
	require.Len(t, got.Points, 1)
	assert.InDelta(t, 341.0, got.Points[0].Value, 1e-9)
	assert.Equal(t, 2, got.Dropped)
}

func TestDefinitionValidate(t *testing.T) {
	assert.NoError(t, ratioDef().Validate())

	bad := ratioDef()
	bad.Inputs = []Input{{Field: "eps", Soft: true}}
	bad.WindowSize = 0
	bad.DefaultPeriod = models.Period10Y
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hard input")
	assert.Contains(t, err.Error(), "window size")
	assert.Contains(t, err.Error(), "default period")
}
