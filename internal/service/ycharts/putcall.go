// Package ycharts scrapes the CBOE SPX put/call ratio indicator page.
package ycharts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"RiskPulse/internal/domain/models"
	xhttp "RiskPulse/pkg/http"
	"RiskPulse/pkg/util"
)

const sourceName = "ycharts"

var (
	latestPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s+for\s+([A-Za-z]{3})\s+(\d{1,2})\s+(\d{4})`)
	historyPattern = regexp.MustCompile(`([A-Za-z]+)\.?\s+(\d{1,2}),\s+(\d{4})\s+(\d+(?:\.\d+)?)`)
)

// Snapshot is what one page load yields. History is ascending and unique by date.
type Snapshot struct {
	Latest  *models.PutCallRatio
	History []models.PutCallRatio
}

// All returns History with Latest merged in.
func (s *Snapshot) All() []models.PutCallRatio {
	if s.Latest == nil {
		return s.History
	}
	out := make([]models.PutCallRatio, 0, len(s.History)+1)
	for _, r := range s.History {
		if r.Date != s.Latest.Date {
			out = append(out, r)
		}
	}
	out = append(out, *s.Latest)
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type Client struct {
	http *xhttp.Client
	url  string
	now  func() time.Time
}

func New(http *xhttp.Client, url string) *Client {
	return &Client{http: http, url: url, now: time.Now}
}

// PutCall loads the indicator page and parses it.
func (c *Client) PutCall(ctx context.Context) (*Snapshot, error) {
	var body []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.url,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
		},
	}, &body)
	if err != nil {
		return nil, models.NewAcquisitionError(sourceName, "spx-putcall", err)
	}
	snap, err := ParsePutCallPage(bytes.NewReader(body), c.now().UTC())
	if err != nil {
		return nil, models.NewAcquisitionError(sourceName, "spx-putcall", err)
	}
	return snap, nil
}

// ParsePutCallPage reads the "<v> for <Mon> <DD> <YYYY>" headline and the
// "<Month> <DD>, <YYYY> <v>" history rows. stamp becomes UpdatedAt.
func ParsePutCallPage(r io.Reader, stamp time.Time) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	snap := &Snapshot{}
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if m := latestPattern.FindStringSubmatch(text); m != nil {
		if date, ok := isoDate(m[2], m[3], m[4]); ok {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				snap.Latest = &models.PutCallRatio{Date: date, Ratio: v, UpdatedAt: stamp}
			}
		}
	}

	seen := make(map[string]bool)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cells []string
		row.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		for _, m := range historyPattern.FindAllStringSubmatch(strings.Join(cells, " "), -1) {
			date, ok := isoDate(m[1], m[2], m[3])
			if !ok || seen[date] {
				continue
			}
			v, err := strconv.ParseFloat(m[4], 64)
			if err != nil {
				continue
			}
			seen[date] = true
			snap.History = append(snap.History, models.PutCallRatio{Date: date, Ratio: v, UpdatedAt: stamp})
		}
	})
	sort.Slice(snap.History, func(i, j int) bool { return snap.History[i].Date < snap.History[j].Date })

	if snap.Latest == nil && len(snap.History) == 0 {
		return nil, fmt.Errorf("no put/call readings on page")
	}
	return snap, nil
}

// isoDate accepts full or abbreviated English month names.
func isoDate(month, day, year string) (string, bool) {
	if len(month) < 3 {
		return "", false
	}
	mon := strings.ToUpper(month[:1]) + strings.ToLower(month[1:3])
	return util.ParseDateLayouts(mon+" "+day+" "+year, "Jan 2 2006")
}
