// Package multpl scrapes the monthly S&P 500 trailing earnings table from multpl.com.
package multpl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"RiskPulse/internal/domain/models"
	drepo "RiskPulse/internal/domain/repository"
	xhttp "RiskPulse/pkg/http"
	"RiskPulse/pkg/util"
)

const sourceName = "multpl"

var (
	ErrTableNotFound = errors.New("earnings table not found")

	monthYearPattern = regexp.MustCompile(`([A-Za-z]{3})[a-z]*\.?\s+\d{1,2},?\s+(\d{4})`)
	numberCleaner    = regexp.MustCompile(`[^0-9.\-]`)
)

// EPSSource serves trailing twelve-month EPS. Each reading is keyed by the
// last day of its month so forward-fill attributes it to the whole month.
type EPSSource struct {
	http *xhttp.Client
	url  string
}

func NewEPSSource(http *xhttp.Client, url string) *EPSSource {
	return &EPSSource{http: http, url: url}
}

var _ drepo.SeriesSource = (*EPSSource)(nil)

func (s *EPSSource) Name() string { return sourceName + ":eps" }

func (s *EPSSource) Fetch(ctx context.Context, _ models.DateRange) (*models.Series, error) {
	body, err := s.http.Get(ctx, s.url, nil)
	if err != nil {
		return nil, models.NewAcquisitionError(sourceName, "eps", err)
	}
	series, err := ParseEPSTable(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewAcquisitionError(sourceName, "eps", err)
	}
	return series, nil
}

// ParseEPSTable reads "Mon DD, YYYY | value" rows. Non-positive values are dropped.
func ParseEPSTable(r io.Reader) (*models.Series, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := doc.Find("table#datatable, table.data-table").First()
	if table.Length() == 0 {
		return nil, ErrTableNotFound
	}

	s := models.NewSeries("eps")
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		date, ok := monthEnd(strings.TrimSpace(cells.Eq(0).Text()))
		if !ok {
			s.Dropped++
			return
		}
		v, ok := util.ParseNumber(numberCleaner.ReplaceAllString(cells.Eq(1).Text(), ""))
		if !ok || v <= 0 {
			s.Dropped++
			return
		}
		s.Set(date, v)
	})
	return s, nil
}

func monthEnd(text string) (string, bool) {
	m := monthYearPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	mon := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
	t, err := time.Parse("Jan 2006", mon+" "+m[2])
	if err != nil {
		return "", false
	}
	return util.FormatDate(util.MonthEnd(t)), true
}
