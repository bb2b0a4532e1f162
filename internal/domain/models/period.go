package models

import "strings"

// Period is a display period token.
type Period string

const (
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	Period10Y Period = "10y"
	PeriodMax Period = "max"
)

// AllPeriods lists every token in ascending length.
var AllPeriods = []Period{Period1Y, Period2Y, Period5Y, Period10Y, PeriodMax}

// ParsePeriod normalizes a raw token. ok is false for unknown tokens.
func ParsePeriod(s string) (Period, bool) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllPeriods {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Years returns the length of a bounded period. ok is false for max.
func (p Period) Years() (int, bool) {
	switch p {
	case Period1Y:
		return 1, true
	case Period2Y:
		return 2, true
	case Period5Y:
		return 5, true
	case Period10Y:
		return 10, true
	}
	return 0, false
}

func (p Period) String() string { return string(p) }
