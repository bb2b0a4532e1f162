// Package normalize turns raw, irregularly sampled series into aligned,
// transformed and rolling z-scored indicator series.
//
// Everything here is pure: the caller fetches the raw series, picks the
// as-of date and hands both in. Same inputs, same output.
package normalize

import (
	"errors"
	"fmt"

	"RiskPulse/internal/domain/models"
	"RiskPulse/internal/domain/repository"
)

const (
	// DailyWindow is one trading year of business-daily observations.
	DailyWindow = 252
	// WeeklyWindow is one year of weekly observations.
	WeeklyWindow = 52
)

// Input declares one raw series an indicator consumes.
type Input struct {
	Field  string
	Source repository.SeriesSource
	// Soft inputs are forward-filled onto the dates of the hard inputs.
	Soft bool
	// Scale multiplies every raw value before alignment. Zero means 1.
	Scale float64
}

func (in Input) scale() float64 {
	if in.Scale == 0 {
		return 1
	}
	return in.Scale
}

// Definition is everything that distinguishes one indicator from another.
type Definition struct {
	Name    string
	Title   string
	Aliases []string

	Inputs     []Input
	ValueField string
	Transform  TransformFunc

	WindowSize    int
	PointsPerYear int

	Periods       []models.Period
	DefaultPeriod models.Period
	// Earliest is where "max" starts. Empty means the full available history.
	Earliest string
	// EndDate caps the as-of date for discontinued series.
	EndDate string
	// FetchAll asks for the whole stored history regardless of period.
	FetchAll bool

	Layout models.RecordLayout
}

// Supports reports whether p is offered for this indicator.
func (d Definition) Supports(p models.Period) bool {
	for _, known := range d.Periods {
		if known == p {
			return true
		}
	}
	return false
}

// Validate checks the definition is internally consistent.
func (d Definition) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(d.Inputs) == 0 {
		errs = append(errs, errors.New("at least one input is required"))
	}
	hard := 0
	seen := map[string]bool{}
	for _, in := range d.Inputs {
		if in.Field == "" {
			errs = append(errs, errors.New("input field is required"))
		}
		if seen[in.Field] {
			errs = append(errs, fmt.Errorf("duplicate input %q", in.Field))
		}
		seen[in.Field] = true
		if !in.Soft {
			hard++
		}
	}
	if hard == 0 {
		errs = append(errs, errors.New("at least one hard input is required"))
	}
	if d.Transform == nil {
		errs = append(errs, errors.New("transform is required"))
	}
	if d.ValueField == "" {
		errs = append(errs, errors.New("value field is required"))
	}
	if d.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %d", d.WindowSize))
	}
	if !d.Supports(d.DefaultPeriod) {
		errs = append(errs, fmt.Errorf("default period %q is not in %v", d.DefaultPeriod, d.Periods))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("indicator %q: %w", d.Name, err)
	}
	return nil
}

// Info summarizes the definition for listing endpoints.
func (d Definition) Info() models.IndicatorInfo {
	return models.IndicatorInfo{
		Name:          d.Name,
		Title:         d.Title,
		Aliases:       d.Aliases,
		Periods:       d.Periods,
		DefaultPeriod: d.DefaultPeriod,
		WindowSize:    d.WindowSize,
		Layout:        d.Layout,
	}
}
