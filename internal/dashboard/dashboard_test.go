package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrigo/irrigo/internal/content/videos"
	"github.com/irrigo/irrigo/internal/quotes"
	"github.com/irrigo/irrigo/internal/visitors"
)

type fixedCount struct {
	n   int
	err error
}

func (f fixedCount) Count(context.Context) (int, error) { return f.n, f.err }

type quoteStats struct{}

func (quoteStats) Stats(context.Context) (quotes.Stats, error) {
	return quotes.Stats{
		ByStatus:      map[quotes.Status]int{quotes.StatusDraft: 2, quotes.StatusAccepted: 1},
		AcceptedValue: decimal.RequireFromString("125000.50"),
	}, nil
}

type visitStats struct{ days int }

func (v *visitStats) Stats(_ context.Context, days int) (visitors.Stats, error) {
	v.days = days
	return visitors.Stats{Days: days, Total: 40, UniqueVisitors: 12}, nil
}

type topVideos struct{ limit int }

func (t *topVideos) Top(_ context.Context, limit int) ([]videos.Video, error) {
	t.limit = limit
	return []videos.Video{{ID: 3, Title: "Drip install walkthrough", Views: 900}}, nil
}

func sources() (Sources, *visitStats, *topVideos) {
	visits := &visitStats{}
	top := &topVideos{}
	return Sources{
		Products:  fixedCount{n: 14},
		Projects:  fixedCount{n: 6},
		Customers: fixedCount{n: 31},
		Quotes:    quoteStats{},
		Visits:    visits,
		Videos:    top,
	}, visits, top
}

func TestSummaryCombinesSections(t *testing.T) {
	src, visits, top := sources()
	summary, err := NewService(src).Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 14, summary.Products)
	assert.Equal(t, 6, summary.Projects)
	assert.Equal(t, 31, summary.Customers)
	assert.Equal(t, 2, summary.QuotesByStatus[quotes.StatusDraft])
	assert.True(t, decimal.RequireFromString("125000.5").Equal(summary.AcceptedValue))
	assert.Equal(t, 40, summary.Visits.Total)
	assert.Equal(t, visitWindow, visits.days)
	assert.Equal(t, topVideoCount, top.limit)
	require.Len(t, summary.TopVideos, 1)
}

func TestSummaryFailsWhenAnySectionFails(t *testing.T) {
	src, _, _ := sources()
	src.Customers = fixedCount{err: errors.New("connection refused")}
	_, err := NewService(src).Summary(context.Background())
	assert.EqualError(t, err, "connection refused")
}

func TestHandlerServesSummary(t *testing.T) {
	src, _, _ := sources()
	router := chi.NewRouter()
	NewHandler(nil, NewService(src)).MountAdmin(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 14, body["products"])
	assert.Equal(t, "125000.5", body["accepted_value"])
}
