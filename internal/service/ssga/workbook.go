// Package ssga reads State Street fund history workbooks (premium/discount
// and NAV history) published as xlsx files.
package ssga

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"RiskPulse/internal/domain/models"
	drepo "RiskPulse/internal/domain/repository"
	xhttp "RiskPulse/pkg/http"
	"RiskPulse/pkg/util"
)

const sourceName = "ssga"

var dateLayouts = []string{
	"02-Jan-06",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 02, 2006",
	"Jan 2, 2006",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	util.DateLayout,
}

// WorkbookSource serves the first two columns (date, value) of the first
// sheet of a workbook.
type WorkbookSource struct {
	http *xhttp.Client
	name string
	url  string
}

func NewWorkbookSource(http *xhttp.Client, name, url string) *WorkbookSource {
	return &WorkbookSource{http: http, name: name, url: url}
}

var _ drepo.SeriesSource = (*WorkbookSource)(nil)

func (s *WorkbookSource) Name() string { return sourceName + ":" + s.name }

func (s *WorkbookSource) Fetch(ctx context.Context, _ models.DateRange) (*models.Series, error) {
	body, err := s.http.Get(ctx, s.url, nil)
	if err != nil {
		return nil, models.NewAcquisitionError(sourceName, s.name, err)
	}
	series, err := ParseWorkbook(s.name, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewAcquisitionError(sourceName, s.name, err)
	}
	return series, nil
}

// ParseWorkbook reads date/value pairs. Rows whose first cell is not a date
// are preamble and skipped; dated rows with a bad value count as dropped.
func ParseWorkbook(name string, r io.Reader) (*models.Series, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	s := models.NewSeries(name)
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		date, ok := parseCellDate(row[0])
		if !ok {
			continue
		}
		if len(row) < 2 {
			s.Dropped++
			continue
		}
		v, ok := util.ParseNumber(row[1])
		if !ok {
			s.Dropped++
			continue
		}
		s.Set(date, v)
	}
	return s, nil
}

// parseCellDate accepts the textual layouts seen in the published files and
// raw Excel serial numbers.
func parseCellDate(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	if date, ok := util.ParseDateLayouts(cell, dateLayouts...); ok {
		return date, true
	}
	serial, err := strconv.ParseFloat(cell, 64)
	if err != nil || serial < 10000 || serial > 2958465 {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return util.FormatDate(t), true
}
