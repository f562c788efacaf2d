package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fenilmodi00/analyst-backend/models"
	"github.com/fenilmodi00/analyst-backend/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMarketDataService points a service with no call spacing at a stub
// upstream, so tests run without waiting on the production rate limit.
func newTestMarketDataService(upstreamURL string) *MarketDataService {
	configuration := NewDefaultMarketDataConfiguration()
	configuration.BaseURL = upstreamURL
	configuration.APIKey = "test-key"
	configuration.MinimumCallSpacing = 0
	return NewMarketDataService(configuration)
}

func TestFetchBuildsStockURL(t *testing.T) {
	var requestedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"Time Series (Daily)": {"2024-01-02": {"4. close": "101.5"}}}`)
	}))
	defer server.Close()

	service := newTestMarketDataService(server.URL)

	_, err := service.Fetch("ACME", models.AssetKindStock, FrequencyDaily, false)
	require.NoError(t, err)

	assert.Contains(t, requestedQuery, "function=TIME_SERIES_DAILY")
	assert.Contains(t, requestedQuery, "symbol=ACME")
	assert.Contains(t, requestedQuery, "outputsize=compact")
	assert.Contains(t, requestedQuery, "apikey=test-key")
	assert.NotContains(t, requestedQuery, "interval=")
}

func TestFetchBuildsForexPairURL(t *testing.T) {
	var requestedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"Time Series FX (Daily)": {"2024-01-02": {"4. close": "1.0921"}}}`)
	}))
	defer server.Close()

	service := newTestMarketDataService(server.URL)

	_, err := service.Fetch("EUR/USD", models.AssetKindForex, FrequencyDaily, true)
	require.NoError(t, err)

	assert.Contains(t, requestedQuery, "function=FX_DAILY")
	assert.Contains(t, requestedQuery, "from_symbol=EUR")
	assert.Contains(t, requestedQuery, "to_symbol=USD")
	assert.Contains(t, requestedQuery, "outputsize=full")
}

func TestFetchAppendsIntervalOnlyForIntraday(t *testing.T) {
	var requestedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"Time Series (Daily)": {"2024-01-02 15:00:00": {"4. close": "10"}}}`)
	}))
	defer server.Close()

	service := newTestMarketDataService(server.URL)

	_, err := service.Fetch("ACME", models.AssetKindStock, FrequencyIntraday, false)
	require.NoError(t, err)
	assert.Contains(t, requestedQuery, "interval=60min")
}

func TestFetchRejectsUnsplittableForexSymbol(t *testing.T) {
	service := newTestMarketDataService("http://unused")

	_, err := service.Fetch("EURUSD", models.AssetKindForex, FrequencyDaily, false)
	assert.Error(t, err)
}

func TestFetchSortsSeriesAscending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upstream order is not guaranteed
		fmt.Fprint(w, `{"Time Series (Daily)": {
			"2024-01-04": {"4. close": "103.0"},
			"2024-01-02": {"4. close": "101.0"},
			"2024-01-03": {"4. close": "102.0"}
		}}`)
	}))
	defer server.Close()

	service := newTestMarketDataService(server.URL)

	series, err := service.Fetch("ACME", models.AssetKindStock, FrequencyDaily, false)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, 101.0, series[0].Close)
	assert.Equal(t, 102.0, series[1].Close)
	assert.Equal(t, 103.0, series[2].Close)
	assert.True(t, series[0].Date.Before(series[1].Date))
	assert.True(t, series[1].Date.Before(series[2].Date))

	latest, ok := series.Latest()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), latest.Date)
}

func TestFetchClassifiesSymbolNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Error Message": "Invalid API call."}`)
	}))
	defer server.Close()

	service := newTestMarketDataService(server.URL)

	_, err := service.Fetch("BOGUS", models.AssetKindStock, FrequencyDaily, false)
	require.Error(t, err)
	assert.True(t, shared.HasErrorCode(err, shared.CodeSymbolNotFound))
	assert.False(t, shared.IsRetryableError(err))
}

func TestFetchClassifiesTooManyCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Note": "Thank you for using our API. Our standard API call frequency is 5 calls per minute."}`)
	}))
	defer server.Close()

	service := newTestMarketDataService(server.URL)

	_, err := service.Fetch("ACME", models.AssetKindStock, FrequencyDaily, false)
	require.Error(t, err)
	assert.True(t, shared.HasErrorCode(err, shared.CodeTooManyCalls))
	assert.True(t, shared.IsRetryableError(err))
}

func TestFetchClassifiesMissingSeriesKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Meta Data": {"1. Information": "Daily Prices"}}`)
	}))
	defer server.Close()

	service := newTestMarketDataService(server.URL)

	_, err := service.Fetch("ACME", models.AssetKindStock, FrequencyDaily, false)
	require.Error(t, err)
	assert.True(t, shared.HasErrorCode(err, shared.CodeNoDataAvailable))
}

func TestFetchClassifiesUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	service := newTestMarketDataService(server.URL)

	_, err := service.Fetch("ACME", models.AssetKindStock, FrequencyDaily, false)
	require.Error(t, err)
	assert.True(t, shared.HasErrorCode(err, shared.CodeNoDataAvailable))
}

func TestFetchEnforcesMinimumCallSpacing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Time Series (Daily)": {"2024-01-02": {"4. close": "10"}}}`)
	}))
	defer server.Close()

	configuration := NewDefaultMarketDataConfiguration()
	configuration.BaseURL = server.URL
	configuration.MinimumCallSpacing = 120 * time.Millisecond
	service := NewMarketDataService(configuration)

	start := time.Now()
	_, err := service.Fetch("ACME", models.AssetKindStock, FrequencyDaily, false)
	require.NoError(t, err)
	_, err = service.Fetch("ACME", models.AssetKindStock, FrequencyDaily, false)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 120*time.Millisecond)
}
