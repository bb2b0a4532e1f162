package models

// Fields maps a field name to its value for one date.
type Fields map[string]float64

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Series is one raw source series keyed by ISO calendar date.
// Dropped counts rows the adapter discarded while parsing.
type Series struct {
	Name    string
	Values  map[string]float64
	Dropped int
}

func NewSeries(name string) *Series {
	return &Series{Name: name, Values: make(map[string]float64)}
}

// Set stores v for date, overwriting any earlier value for the same date.
func (s *Series) Set(date string, v float64) {
	s.Values[date] = v
}

func (s *Series) Len() int { return len(s.Values) }

// DateRange is an inclusive pair of ISO dates. An empty From means "from the beginning".
type DateRange struct {
	From string
	To   string
}

// AlignedRecord holds every required input for one date.
type AlignedRecord struct {
	Date   string
	Inputs Fields
}

// IndicatorPoint is one aligned date after the indicator transform ran.
type IndicatorPoint struct {
	Date    string
	Raw     Fields
	Derived Fields
	Value   float64
}

// ScoredPoint carries the rolling z-score of Value. Scored is false during
// warm-up, when ZScore is reported as 0.
type ScoredPoint struct {
	IndicatorPoint
	ZScore float64
	Scored bool
}

// IndicatorSeries is the output of one pipeline run.
type IndicatorSeries struct {
	Indicator    string
	Period       Period
	AsOf         string
	WindowSize   int
	FetchStart   string
	DisplayStart string
	DisplayEnd   string
	Points       []ScoredPoint
	Dropped      int
	Layout       RecordLayout
}
