package models

// HistoryRequest binds GET /api/indicators/:name/history.
type HistoryRequest struct {
	Name   string `param:"name" json:"name"`
	Period string `query:"period" json:"period" validate:"omitempty,oneof=1y 2y 5y 10y max"`
}

// LatestRequest binds GET /api/indicators/:name/latest.
type LatestRequest struct {
	Name string `param:"name" json:"name" validate:"required"`
}

// IndicatorInfo describes a registered indicator for GET /api/indicators.
type IndicatorInfo struct {
	Name          string       `json:"name"`
	Title         string       `json:"title"`
	Aliases       []string     `json:"aliases,omitempty"`
	Periods       []Period     `json:"periods"`
	DefaultPeriod Period       `json:"defaultPeriod"`
	WindowSize    int          `json:"windowSize"`
	Layout        RecordLayout `json:"layout"`
}

// HistoryResponse is the envelope payload of a history request.
type HistoryResponse struct {
	Indicator    string   `json:"indicator"`
	Period       Period   `json:"period"`
	AsOf         string   `json:"asOf"`
	WindowSize   int      `json:"windowSize"`
	DisplayStart string   `json:"displayStart"`
	DisplayEnd   string   `json:"displayEnd"`
	Count        int      `json:"count"`
	Records      []Record `json:"records"`
}
