package services

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fenilmodi00/analyst-backend/models"
	"github.com/fenilmodi00/analyst-backend/shared"
	"github.com/sirupsen/logrus"
)

// SeriesFrequency selects the upstream time-series resolution
type SeriesFrequency string

const (
	FrequencyDaily    SeriesFrequency = "DAILY"
	FrequencyWeekly   SeriesFrequency = "WEEKLY"
	FrequencyMonthly  SeriesFrequency = "MONTHLY"
	FrequencyIntraday SeriesFrequency = "INTRADAY"
)

// MarketDataConfiguration holds configuration parameters for the market data service
type MarketDataConfiguration struct {
	BaseURL            string        // Upstream API base URL
	APIKey             string        // Upstream API key
	HTTPRequestTimeout time.Duration // Maximum time to wait for HTTP responses
	MinimumCallSpacing time.Duration // Minimum delay between consecutive upstream calls
	IntradayInterval   string        // Interval parameter appended for intraday fetches
}

// NewDefaultMarketDataConfiguration returns production-ready default configuration.
// The upstream allows five calls per minute, hence the 12 second spacing.
func NewDefaultMarketDataConfiguration() *MarketDataConfiguration {
	return &MarketDataConfiguration{
		BaseURL:            "https://www.alphavantage.co",
		HTTPRequestTimeout: 30 * time.Second,
		MinimumCallSpacing: 12 * time.Second,
		IntradayInterval:   "60min",
	}
}

// MarketDataService fetches close-price series for one instrument from the
// rate-limited upstream market-data API. The spacing rule is tracked through
// a single last-call timestamp, so all callers against the same upstream
// account must go through one service instance.
type MarketDataService struct {
	config        *MarketDataConfiguration
	clientFactory *shared.HTTPClientFactory
	rateLimiter   *shared.RequestRateLimiter
}

// NewMarketDataService creates a new market data service instance. A nil
// configuration selects the defaults.
func NewMarketDataService(config *MarketDataConfiguration) *MarketDataService {
	if config == nil {
		config = NewDefaultMarketDataConfiguration()
	}

	return &MarketDataService{
		config:        config,
		clientFactory: shared.NewHTTPClientFactory(config.HTTPRequestTimeout),
		rateLimiter:   shared.NewRequestRateLimiter(config.MinimumCallSpacing),
	}
}

// buildQueryURL builds the upstream query for one symbol. Forex symbols are
// split into a from/to pair; stocks and indices use the single-symbol form.
// The interval parameter is only appended for intraday fetches.
func (s *MarketDataService) buildQueryURL(symbol string, kind models.AssetKind, frequency SeriesFrequency, full bool) (string, error) {
	outputSize := "compact"
	if full {
		outputSize = "full"
	}

	var queryURL string
	switch kind {
	case models.AssetKindForex:
		fromSymbol, toSymbol, found := strings.Cut(symbol, "/")
		if !found {
			return "", fmt.Errorf("forex symbol %q is not a from/to pair", symbol)
		}
		queryURL = fmt.Sprintf("%s/query?function=FX_%s&from_symbol=%s&to_symbol=%s&outputsize=%s&apikey=%s",
			s.config.BaseURL, frequency, fromSymbol, toSymbol, outputSize, s.config.APIKey)
	case models.AssetKindStock, models.AssetKindIndice:
		queryURL = fmt.Sprintf("%s/query?function=TIME_SERIES_%s&symbol=%s&outputsize=%s&apikey=%s",
			s.config.BaseURL, frequency, symbol, outputSize, s.config.APIKey)
	default:
		return "", fmt.Errorf("asset kind %q is not supported by the market data upstream", kind)
	}

	if frequency == FrequencyIntraday {
		queryURL += fmt.Sprintf("&interval=%s", s.config.IntradayInterval)
	}

	return queryURL, nil
}

// seriesKey returns the JSON key under which the upstream nests the series
func (s *MarketDataService) seriesKey(kind models.AssetKind) string {
	if kind == models.AssetKindForex {
		return "Time Series FX (Daily)"
	}
	return "Time Series (Daily)"
}

// Fetch retrieves the close-price series for the given symbol. It blocks
// until the minimum call spacing is satisfied, then classifies the response
// into exactly one outcome: success, SymbolNotFound (explicit upstream error
// field), TooManyCalls (upstream rate-limit note), or NoDataAvailable
// (transport failure or missing series payload).
func (s *MarketDataService) Fetch(symbol string, kind models.AssetKind, frequency SeriesFrequency, full bool) (models.PriceSeries, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "MarketDataService",
		"symbol":    symbol,
		"kind":      kind,
		"frequency": frequency,
	})

	queryURL, err := s.buildQueryURL(symbol, kind, frequency, full)
	if err != nil {
		return nil, err
	}

	s.rateLimiter.Wait()

	client := s.clientFactory.Client(s.config.HTTPRequestTimeout)
	response, err := client.Get(queryURL)
	if err != nil {
		logger.WithError(err).Error("No data available: transport failure")
		return nil, shared.NewNoDataAvailableError(symbol, "MarketDataService", err)
	}
	defer response.Body.Close()

	if response.StatusCode != 200 {
		logger.WithField("status_code", response.StatusCode).Error("No data available: non-OK upstream status")
		return nil, shared.NewNoDataAvailableError(symbol, "MarketDataService",
			fmt.Errorf("upstream returned HTTP %d", response.StatusCode))
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, shared.NewNoDataAvailableError(symbol, "MarketDataService", err)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, shared.NewNoDataAvailableError(symbol, "MarketDataService", err)
	}

	if _, found := payload["Error Message"]; found {
		logger.Error("Symbol not found upstream")
		return nil, shared.NewSymbolNotFoundError(symbol, "MarketDataService")
	}

	if _, found := payload["Note"]; found {
		logger.Error("Too many upstream api calls")
		return nil, shared.NewTooManyCallsError(symbol, "MarketDataService")
	}

	raw, found := payload[s.seriesKey(kind)]
	if !found {
		logger.Error("No data available: payload missing time series key")
		return nil, shared.NewNoDataAvailableError(symbol, "MarketDataService", nil)
	}

	series, err := s.buildSeries(raw)
	if err != nil {
		return nil, shared.NewNoDataAvailableError(symbol, "MarketDataService", err)
	}

	logger.WithField("points", len(series)).Debug("Fetched close-price series")
	return series, nil
}

// buildSeries reshapes the raw per-date objects into a close-price series,
// keeping only the closing-price field and sorting ascending by date since
// the upstream does not guarantee order.
func (s *MarketDataService) buildSeries(raw json.RawMessage) (models.PriceSeries, error) {
	var observations map[string]map[string]string
	if err := json.Unmarshal(raw, &observations); err != nil {
		return nil, fmt.Errorf("unexpected time series payload shape: %w", err)
	}

	series := make(models.PriceSeries, 0, len(observations))
	for dateText, fields := range observations {
		date, err := parseObservationDate(dateText)
		if err != nil {
			return nil, err
		}

		close, err := strconv.ParseFloat(fields["4. close"], 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse close value for %s: %w", dateText, err)
		}

		series = append(series, models.PricePoint{Date: date, Close: close})
	}

	series.Sort()
	return series, nil
}

// parseObservationDate handles the daily and intraday date formats the
// upstream uses as object keys.
func parseObservationDate(text string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05"} {
		if date, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse observation date %q", text)
}
