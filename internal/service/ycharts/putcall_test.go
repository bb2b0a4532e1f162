package ycharts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskPulse/internal/domain/models"
	xhttp "RiskPulse/pkg/http"
)

const page = `<html><body>
<div class="key-stat">
  <span>0.95</span> for <span>Mar 15 2024</span>
</div>
<table>
  <tr><th>Date</th><th>Value</th></tr>
  <tr><td>March 14, 2024</td><td>1.02</td></tr>
  <tr><td>March 13, 2024</td><td>0.88</td></tr>
  <tr><td>March 13, 2024</td><td>0.50</td></tr>
  <tr><td>Sept. 29, 2023</td><td>1.31</td></tr>
</table>
</body></html>`

var stamp = time.Date(2024, 3, 16, 1, 0, 0, 0, time.UTC)

func TestParsePutCallPage(t *testing.T) {
	snap, err := ParsePutCallPage(strings.NewReader(page), stamp)
	require.NoError(t, err)

	require.NotNil(t, snap.Latest)
	assert.Equal(t, models.PutCallRatio{Date: "2024-03-15", Ratio: 0.95, UpdatedAt: stamp}, *snap.Latest)
	assert.Equal(t, []models.PutCallRatio{
		{Date: "2023-09-29", Ratio: 1.31, UpdatedAt: stamp},
		{Date: "2024-03-13", Ratio: 0.88, UpdatedAt: stamp},
		{Date: "2024-03-14", Ratio: 1.02, UpdatedAt: stamp},
	}, snap.History)

	all := snap.All()
	require.Len(t, all, 4)
	assert.Equal(t, "2024-03-15", all[3].Date)
}

func TestSnapshotAllLatestOverridesHistory(t *testing.T) {
	snap := &Snapshot{
		Latest:  &models.PutCallRatio{Date: "2024-03-14", Ratio: 1.10},
		History: []models.PutCallRatio{{Date: "2024-03-13", Ratio: 0.9}, {Date: "2024-03-14", Ratio: 1.02}},
	}
	all := snap.All()
	require.Len(t, all, 2)
	assert.Equal(t, 1.10, all[1].Ratio)
}

func TestParsePutCallPageEmpty(t *testing.T) {
	_, err := ParsePutCallPage(strings.NewReader(`<html><body>Sign in</body></html>`), stamp)
	assert.Error(t, err)
}

func TestClientPutCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	c := New(xhttp.NewClient(), srv.URL)
	c.now = func() time.Time { return stamp }
	snap, err := c.PutCall(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.History, 3)
}

func TestClientPutCallForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(xhttp.NewClient(), srv.URL).PutCall(context.Background())
	assert.True(t, models.IsAcquisitionError(err))
}
