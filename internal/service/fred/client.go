package fred

import (
	"context"
	"encoding/json"
	"fmt"

	"RiskPulse/internal/domain/models"
	drepo "RiskPulse/internal/domain/repository"
	xhttp "RiskPulse/pkg/http"
	"RiskPulse/pkg/util"
)

const sourceName = "fred"

// Client reads series observations from the FRED REST API.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
}

// New creates a FRED client. The http client is expected to carry the
// configured rate limit.
func New(http *xhttp.Client, baseURL, apiKey string) *Client {
	return &Client{http: http, baseURL: baseURL, apiKey: apiKey}
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

// Observations fetches seriesID over r. Missing values ("." in FRED) are
// skipped and counted in Series.Dropped.
func (c *Client) Observations(ctx context.Context, seriesID string, r models.DateRange) (*models.Series, error) {
	if c.apiKey == "" {
		return nil, models.NewAcquisitionError(sourceName, seriesID, models.ErrMissingCredential)
	}

	query := map[string][]string{
		"series_id": {seriesID},
		"api_key":   {c.apiKey},
		"file_type": {"json"},
	}
	if r.From != "" {
		query["observation_start"] = []string{r.From}
	}
	if r.To != "" {
		query["observation_end"] = []string{r.To}
	}

	body, err := c.http.Get(ctx, c.baseURL+"/series/observations", query)
	if err != nil {
		return nil, models.NewAcquisitionError(sourceName, seriesID, err)
	}

	var resp observationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, models.NewAcquisitionError(sourceName, seriesID, fmt.Errorf("decode observations: %w", err))
	}

	s := models.NewSeries(seriesID)
	for _, o := range resp.Observations {
		if _, ok := util.ParseDate(o.Date); !ok {
			s.Dropped++
			continue
		}
		v, ok := util.ParseNumber(o.Value)
		if !ok {
			s.Dropped++
			continue
		}
		s.Set(o.Date, v)
	}
	return s, nil
}

// Series returns a SeriesSource bound to seriesID.
func (c *Client) Series(seriesID string) drepo.SeriesSource {
	return &seriesSource{client: c, id: seriesID}
}

type seriesSource struct {
	client *Client
	id     string
}

func (s *seriesSource) Name() string { return sourceName + ":" + s.id }

func (s *seriesSource) Fetch(ctx context.Context, r models.DateRange) (*models.Series, error) {
	return s.client.Observations(ctx, s.id, r)
}
