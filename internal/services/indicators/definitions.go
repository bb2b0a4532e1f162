package indicators

import (
	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/services/normalize"
)

// FRED series ids.
const (
	SeriesHYOAS      = "BAMLH0A0HYM2"
	SeriesIGOAS      = "BAMLC0A0CM"
	SeriesSOFR90     = "SOFR90DAYAVG"
	SeriesTBill3M    = "DTB3"
	SeriesTED        = "TEDRATE"
	SeriesTreasury10 = "DGS10"
	SeriesTreasury3M = "DGS3MO"
	SeriesNFCI       = "NFCI"
	SeriesSP500      = "SP500"
	SeriesRealYield  = "DFII10"
)

// Canonical indicator names.
const (
	VIXTermStructure = "vix-term-structure"
	HYSpread         = "hy-spread"
	HYIGRatio        = "hy-ig-ratio"
	SOFRSpread       = "sofr-spread"
	TEDSpread        = "ted-spread"
	YieldCurve       = "yield-curve"
	JNKPremium       = "jnk-premium"
	NFCI             = "nfci"
	ERPProxy         = "erp-proxy"
	SpxPutCall       = "spx-putcall"
)

// TEDDiscontinued is the last TEDRATE observation FRED publishes.
const TEDDiscontinued = "2022-01-31"

var (
	longPeriods  = []models.Period{models.Period1Y, models.Period2Y, models.Period5Y, models.Period10Y, models.PeriodMax}
	shortPeriods = []models.Period{models.Period1Y, models.Period2Y, models.Period5Y, models.PeriodMax}
)

func layout(value string, valuePrecision int32, fields ...models.FieldFormat) models.RecordLayout {
	return models.RecordLayout{
		Fields:          fields,
		ValueField:      value,
		ValuePrecision:  valuePrecision,
		ZScorePrecision: 2,
	}
}

func field(name string, precision int32) models.FieldFormat {
	return models.FieldFormat{Name: name, Precision: precision}
}

func daily(d normalize.Definition) normalize.Definition {
	d.WindowSize = normalize.DailyWindow
	d.PointsPerYear = normalize.DailyWindow
	if d.Periods == nil {
		d.Periods = longPeriods
	}
	if d.DefaultPeriod == "" {
		d.DefaultPeriod = models.Period2Y
	}
	return d
}

// Definitions lists the built-in indicators wired to src.
func Definitions(src Sources) []normalize.Definition {
	fred := src.FRED
	return []normalize.Definition{
		daily(normalize.Definition{
			Name:    VIXTermStructure,
			Title:   "VIX term structure (VIX3M - VIX)",
			Aliases: []string{"vix"},
			Inputs: []normalize.Input{
				{Field: "vix", Source: src.VIX},
				{Field: "vix3m", Source: src.VIX3M},
			},
			ValueField: "slope",
			Transform:  normalize.Difference("vix3m", "vix", 1),
			Earliest:   "2008-01-01",
			Layout:     layout("slope", 2, field("vix", 2), field("vix3m", 2)),
		}),
		daily(normalize.Definition{
			Name:       HYSpread,
			Title:      "High yield option-adjusted spread",
			Inputs:     []normalize.Input{{Field: "spread", Source: fred(SeriesHYOAS), Scale: 100}},
			ValueField: "spread",
			Transform:  normalize.Identity("spread"),
			Earliest:   "1997-01-01",
			Layout:     layout("spread", 0),
		}),
		daily(normalize.Definition{
			Name:  HYIGRatio,
			Title: "High yield / investment grade spread ratio",
			Inputs: []normalize.Input{
				{Field: "hySpread", Source: fred(SeriesHYOAS), Scale: 100},
				{Field: "igSpread", Source: fred(SeriesIGOAS), Scale: 100},
			},
			ValueField: "ratio",
			Transform:  normalize.Ratio("hySpread", "igSpread"),
			Earliest:   "1997-01-01",
			Layout:     layout("ratio", 2, field("hySpread", 0), field("igSpread", 0)),
		}),
		daily(normalize.Definition{
			Name:  SOFRSpread,
			Title: "SOFR 90-day average minus 3M T-bill",
			Inputs: []normalize.Input{
				{Field: "sofr90", Source: fred(SeriesSOFR90)},
				{Field: "tbill3m", Source: fred(SeriesTBill3M)},
			},
			ValueField: "spread",
			Transform:  normalize.Difference("sofr90", "tbill3m", 100),
			Periods:    shortPeriods,
			Earliest:   "2020-01-01",
			Layout:     layout("spread", 0, field("sofr90", 2), field("tbill3m", 2)),
		}),
		daily(normalize.Definition{
			Name:          TEDSpread,
			Title:         "TED spread",
			Inputs:        []normalize.Input{{Field: "spread", Source: fred(SeriesTED), Scale: 100}},
			ValueField:    "spread",
			Transform:     normalize.Identity("spread"),
			DefaultPeriod: models.Period10Y,
			Earliest:      "1986-01-01",
			EndDate:       TEDDiscontinued,
			Layout:        layout("spread", 0),
		}),
		daily(normalize.Definition{
			Name:  YieldCurve,
			Title: "10Y minus 3M Treasury",
			Inputs: []normalize.Input{
				{Field: "dgs10", Source: fred(SeriesTreasury10)},
				{Field: "dgs3mo", Source: fred(SeriesTreasury3M)},
			},
			ValueField: "slope",
			Transform:  normalize.Difference("dgs10", "dgs3mo", 1),
			Earliest:   "2000-01-01",
			Layout:     layout("slope", 2, field("dgs10", 2), field("dgs3mo", 2)),
		}),
		daily(normalize.Definition{
			Name:  JNKPremium,
			Title: "JNK premium/discount to NAV",
			Inputs: []normalize.Input{
				{Field: "premium", Source: src.JNKPremium, Scale: 100},
				{Field: "nav", Source: src.JNKNav},
			},
			ValueField: "premium",
			Transform:  normalize.Identity("premium"),
			Periods:    shortPeriods,
			Earliest:   "2010-01-01",
			Layout:     layout("premium", 2, field("nav", 2)),
		}),
		{
			Name:          NFCI,
			Title:         "Chicago Fed National Financial Conditions Index",
			Inputs:        []normalize.Input{{Field: "nfci", Source: fred(SeriesNFCI)}},
			ValueField:    "nfci",
			Transform:     normalize.Identity("nfci"),
			WindowSize:    normalize.WeeklyWindow,
			PointsPerYear: normalize.WeeklyWindow,
			Periods:       longPeriods,
			DefaultPeriod: models.Period2Y,
			Earliest:      "1971-01-01",
			Layout:        layout("nfci", 4),
		},
		daily(normalize.Definition{
			Name:  ERPProxy,
			Title: "Equity risk premium proxy",
			Inputs: []normalize.Input{
				{Field: "sp500", Source: fred(SeriesSP500)},
				{Field: "realYield", Source: fred(SeriesRealYield)},
				{Field: "epsTtm", Source: src.EPS, Soft: true},
			},
			ValueField: "erpProxy",
			Transform:  normalize.EquityRiskPremium("epsTtm", "sp500", "realYield", "earningsYield"),
			Earliest:   "2000-01-01",
			Layout: layout("erpProxy", 2,
				field("sp500", 2), field("realYield", 2), field("epsTtm", 2), field("earningsYield", 2)),
		}),
		daily(normalize.Definition{
			Name:          SpxPutCall,
			Title:         "CBOE SPX put/call ratio",
			Inputs:        []normalize.Input{{Field: "ratio", Source: src.SpxPutCall}},
			ValueField:    "ratio",
			Transform:     normalize.Identity("ratio"),
			Periods:       shortPeriods,
			DefaultPeriod: models.PeriodMax,
			FetchAll:      true,
			Layout:        layout("ratio", 2),
		}),
	}
}
