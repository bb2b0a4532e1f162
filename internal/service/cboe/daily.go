package cboe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"RiskPulse/internal/domain/models"
	xhttp "RiskPulse/pkg/http"
)

// ErrRowNotFound means the page rendered but carried no SPX + SPXW figures,
// which is normal for holidays.
var ErrRowNotFound = errors.New("SPX + SPXW row not found")

var (
	ratioPattern  = regexp.MustCompile(`\b\d+\.\d{2}\b`)
	volumePattern = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+\b`)
)

// PageFetcher returns the HTML of a page.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// HTTPFetcher fetches pages with a plain GET.
type HTTPFetcher struct {
	http *xhttp.Client
}

func NewHTTPFetcher(http *xhttp.Client) *HTTPFetcher {
	return &HTTPFetcher{http: http}
}

func (f *HTTPFetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	body, err := f.http.Get(ctx, pageURL, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// BrowserFetcher renders pages in headless Chrome. The statistics tables are
// filled in by script after load, so it waits before reading the DOM.
type BrowserFetcher struct {
	userAgent string
	wait      time.Duration
	timeout   time.Duration
}

func NewBrowserFetcher(userAgent string, wait, timeout time.Duration) *BrowserFetcher {
	return &BrowserFetcher{userAgent: userAgent, wait: wait, timeout: timeout}
}

func (f *BrowserFetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if f.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, f.timeout)
		defer cancel()
	}

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return html, nil
}

// DailyStats reads the SPX + SPXW put/call figures for one trading date.
type DailyStats struct {
	fetcher PageFetcher
	baseURL string
	now     func() time.Time
}

func NewDailyStats(fetcher PageFetcher, baseURL string) *DailyStats {
	return &DailyStats{fetcher: fetcher, baseURL: baseURL, now: time.Now}
}

// Daily scrapes the statistics page for date (YYYY-MM-DD).
func (d *DailyStats) Daily(ctx context.Context, date string) (*models.PutCallVolume, error) {
	pageURL := d.baseURL + "?dt=" + url.QueryEscape(date)
	html, err := d.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, models.NewAcquisitionError(sourceName, "daily "+date, err)
	}
	row, err := ParseDailyStats(html)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", date, err)
	}
	row.Date = date
	row.CreatedAt = d.now().UTC()
	return row, nil
}

// ParseDailyStats extracts the put/call ratio and call, put and total volume
// from the SPX + SPXW row. Table rows are tried first, then the page text
// line by line.
func ParseDailyStats(html string) (*models.PutCallVolume, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var found *models.PutCallVolume
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		text := strings.Join(strings.Fields(row.Text()), " ")
		if !isSpxRow(text) {
			return true
		}
		found = figuresFrom(text)
		return found == nil
	})
	if found != nil {
		return found, nil
	}

	lines := strings.Split(doc.Find("body").Text(), "\n")
	for i, line := range lines {
		if !isSpxRow(line) {
			continue
		}
		for j := i; j < len(lines) && j < i+10; j++ {
			if v := figuresFrom(lines[j]); v != nil {
				return v, nil
			}
		}
	}
	return nil, ErrRowNotFound
}

func isSpxRow(s string) bool {
	return strings.Contains(s, "SPX") && strings.Contains(s, "SPXW")
}

func figuresFrom(text string) *models.PutCallVolume {
	ratioText := ratioPattern.FindString(volumePattern.ReplaceAllString(text, " "))
	if ratioText == "" {
		return nil
	}
	ratio, err := strconv.ParseFloat(ratioText, 64)
	if err != nil {
		return nil
	}
	vols := volumePattern.FindAllString(text, -1)
	if len(vols) < 3 {
		return nil
	}
	parsed := make([]int64, 3)
	for i := range parsed {
		n, err := strconv.ParseInt(strings.ReplaceAll(vols[i], ",", ""), 10, 64)
		if err != nil {
			return nil
		}
		parsed[i] = n
	}
	return &models.PutCallVolume{
		Ratio:       ratio,
		CallVolume:  parsed[0],
		PutVolume:   parsed[1],
		TotalVolume: parsed[2],
	}
}
