package models

import "time"

// PutCallRatio is one stored SPX put/call reading.
type PutCallRatio struct {
	Date      string    `json:"date" badgerhold:"index"`
	Ratio     float64   `json:"ratio"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PutCallVolume is one day of SPX + SPXW option volume from the CBOE daily statistics page.
type PutCallVolume struct {
	Date        string    `json:"date" badgerhold:"index"`
	Ratio       float64   `json:"ratio"`
	CallVolume  int64     `json:"callVolume"`
	PutVolume   int64     `json:"putVolume"`
	TotalVolume int64     `json:"totalVolume"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RefreshEvent announces that stored data behind an indicator changed.
type RefreshEvent struct {
	ID         string    `json:"id"`
	Indicator  string    `json:"indicator"`
	OccurredAt time.Time `json:"occurredAt"`
}
