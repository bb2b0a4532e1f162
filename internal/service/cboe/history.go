// Package cboe reads CBOE index history files and the daily options
// market statistics page.
package cboe

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"RiskPulse/internal/domain/models"
	drepo "RiskPulse/internal/domain/repository"
	xhttp "RiskPulse/pkg/http"
	"RiskPulse/pkg/util"
)

const sourceName = "cboe"

var errNoCloseColumn = errors.New("csv header has no CLOSE column")

// HistorySource serves one CBOE daily price history CSV
// (DATE,OPEN,HIGH,LOW,CLOSE with MM/DD/YYYY dates). The whole file is
// returned on every fetch.
type HistorySource struct {
	http *xhttp.Client
	name string
	url  string
}

func NewHistorySource(http *xhttp.Client, name, url string) *HistorySource {
	return &HistorySource{http: http, name: name, url: url}
}

var _ drepo.SeriesSource = (*HistorySource)(nil)

func (s *HistorySource) Name() string { return sourceName + ":" + s.name }

func (s *HistorySource) Fetch(ctx context.Context, _ models.DateRange) (*models.Series, error) {
	body, err := s.http.Get(ctx, s.url, nil)
	if err != nil {
		return nil, models.NewAcquisitionError(sourceName, s.name, err)
	}
	series, err := ParseHistoryCSV(s.name, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewAcquisitionError(sourceName, s.name, err)
	}
	return series, nil
}

// ParseHistoryCSV reads the CLOSE column keyed by ISO date. Rows with an
// unparseable date or close are dropped and counted.
func ParseHistoryCSV(name string, r io.Reader) (*models.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	dateCol, closeCol := -1, -1
	for i, h := range header {
		switch strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "DATE":
			dateCol = i
		case "CLOSE":
			closeCol = i
		}
	}
	if dateCol < 0 {
		dateCol = 0
	}
	if closeCol < 0 {
		return nil, errNoCloseColumn
	}

	s := models.NewSeries(name)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(row) <= closeCol || len(row) <= dateCol {
			s.Dropped++
			continue
		}
		date, ok := util.ParseDateLayouts(row[dateCol], "01/02/2006", "1/2/2006", util.DateLayout)
		if !ok {
			s.Dropped++
			continue
		}
		v, ok := util.ParseNumber(row[closeCol])
		if !ok {
			s.Dropped++
			continue
		}
		s.Set(date, v)
	}
	return s, nil
}
