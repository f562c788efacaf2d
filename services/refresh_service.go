package services

import (
	"fmt"
	"time"

	"github.com/fenilmodi00/analyst-backend/models"
	"github.com/fenilmodi00/analyst-backend/shared"
	"github.com/fenilmodi00/analyst-backend/storage"
	"github.com/sirupsen/logrus"
)

// DefaultContinuityTolerance bounds how far a freshly fetched close may drift
// from the last known close before the series is rejected as implausible.
// 0.75 accepts roughly a third either way.
const DefaultContinuityTolerance = 0.75

// RefreshStatus reports the outcome of a refresh attempt that did not fail
type RefreshStatus string

const (
	RefreshStatusRefreshed RefreshStatus = "refreshed"
	RefreshStatusUpToDate  RefreshStatus = "up_to_date"
)

// RefreshService decides whether an instrument's time series needs a fetch,
// validates fetched series for price continuity, and hands accepted series to
// the time-series store.
type RefreshService struct {
	marketData  *MarketDataService
	seriesStore storage.SeriesStore
	tolerance   float64
	now         func() time.Time
}

// NewRefreshService creates a new refresh service instance with the default
// continuity tolerance.
func NewRefreshService(marketData *MarketDataService, seriesStore storage.SeriesStore) *RefreshService {
	return &RefreshService{
		marketData:  marketData,
		seriesStore: seriesStore,
		tolerance:   DefaultContinuityTolerance,
		now:         time.Now,
	}
}

// OffsetDate computes the staleness cutoff: midnight UTC of "yesterday",
// advanced further backward across weekends so Friday, Saturday and Sunday
// all measure staleness against the last trading-relevant day.
func (s *RefreshService) OffsetDate(now time.Time) time.Time {
	now = now.UTC()

	// Monday-based weekday, as trading weeks are counted
	weekday := (int(now.Weekday()) + 6) % 7

	offsetDays := 1 + max(0, weekday-3)
	cutoff := now.AddDate(0, 0, -offsetDays)

	return time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)
}

// IsOutdated reports whether a series needs refreshing: it is current only
// when a latest measurement exists and lies strictly after the cutoff. A
// missing or empty series is always outdated.
func (s *RefreshService) IsOutdated(latest *models.PricePoint, cutoff time.Time) bool {
	return latest == nil || !latest.Date.After(cutoff)
}

// AcceptPrice checks a freshly fetched series for continuity against the
// previously recorded close. The new close must lie strictly inside
// (p*tolerance, p/tolerance); this guards against corrupted data and
// mismatched tickers, not against real market moves.
func (s *RefreshService) AcceptPrice(series models.PriceSeries, lastClose, tolerance float64) bool {
	newClose := series.LastClose()
	return newClose < lastClose/tolerance && newClose > lastClose*tolerance
}

// RefreshAsset refreshes the asset's close-price series under its current
// ticker. See RefreshAssetTicker.
func (s *RefreshService) RefreshAsset(asset *models.Asset, full bool) (RefreshStatus, error) {
	return s.RefreshAssetTicker(asset, asset.Ticker, full)
}

// RefreshAssetTicker runs the staleness gate, fetches the series from the
// market-data upstream under the given ticker, validates price continuity
// and appends the accepted series to the time-series store. The continuity
// rejection is surfaced distinctly from both "no data" and "already up to
// date".
func (s *RefreshService) RefreshAssetTicker(asset *models.Asset, ticker string, full bool) (RefreshStatus, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "RefreshService",
		"asset":     asset.Name,
		"ticker":    ticker,
	})

	if ticker == "" {
		return "", fmt.Errorf("asset %s has no ticker set", asset.Name)
	}

	switch asset.Kind {
	case models.AssetKindStock, models.AssetKindForex, models.AssetKindIndice:
	default:
		return "", fmt.Errorf("refreshing %s assets is not implemented", asset.Kind.Expanded())
	}

	seriesKey := storage.SeriesKey(asset)

	latestPoint, hasLatest, err := s.seriesStore.Latest(seriesKey)
	if err != nil {
		return "", err
	}

	var latest *models.PricePoint
	if hasLatest {
		latest = &latestPoint
	}

	if !s.IsOutdated(latest, s.OffsetDate(s.now())) {
		logger.Debug("Asset is up-to-date")
		return RefreshStatusUpToDate, nil
	}

	series, err := s.marketData.Fetch(ticker, asset.Kind, FrequencyDaily, full)
	if err != nil {
		return "", err
	}

	if lastClose, recorded := asset.LastClose(); recorded {
		if !s.AcceptPrice(series, lastClose, s.tolerance) {
			logger.WithFields(logrus.Fields{
				"new_close":  series.LastClose(),
				"last_close": lastClose,
			}).Warn("Rejecting series failing price continuity check")
			return "", shared.NewPriceContinuityError(ticker, series.LastClose(), lastClose)
		}
	}

	if err := s.seriesStore.Append(seriesKey, series); err != nil {
		return "", err
	}

	logger.WithField("points", len(series)).Debug("Asset series saved")
	return RefreshStatusRefreshed, nil
}
