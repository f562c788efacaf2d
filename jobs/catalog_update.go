package jobs

import (
	"github.com/fenilmodi00/analyst-backend/models"
	"github.com/fenilmodi00/analyst-backend/services"
	"github.com/fenilmodi00/analyst-backend/shared"
	"github.com/sirupsen/logrus"
)

// CatalogUpdateJob runs the daily catalog pass: scrape the major-indices
// listing, reconcile indexes and their constituents against the catalog,
// resolve missing instrument details, then refresh stale close-price series
// concurrently. A failure for one instrument never aborts the others.
type CatalogUpdateJob struct {
	ScraperService   *services.ScraperService
	ReconcileService *services.ReconcileService
	RefreshService   *services.RefreshService
	WorkerCount      int
}

// NewCatalogUpdateJob creates a new catalog update job
func NewCatalogUpdateJob(scraperService *services.ScraperService, reconcileService *services.ReconcileService, refreshService *services.RefreshService, workerCount int) *CatalogUpdateJob {
	return &CatalogUpdateJob{
		ScraperService:   scraperService,
		ReconcileService: reconcileService,
		RefreshService:   refreshService,
		WorkerCount:      workerCount,
	}
}

// jobTally accumulates per-entity outcomes across the whole pass
type jobTally struct {
	indexesCreated int
	indexesUpdated int
	assetsCreated  int
	assetsUpdated  int
	membersAdded   int
	membersRemoved int
	refreshed      int
	upToDate       int
	failures       int
}

// Run executes the catalog update pass
func (j *CatalogUpdateJob) Run() {
	logrus.Info("Starting Catalog Update Job")

	tally := &jobTally{}

	scraped, err := j.ScraperService.ListIndices()
	if err != nil {
		logrus.Errorf("Failed to run Catalog Update Job: failed to scrape indices listing: %v", err)
		return
	}

	indexResults, err := j.ReconcileService.ReconcileIndices(scraped)
	if err != nil {
		logrus.Errorf("Failed to run Catalog Update Job: failed to reconcile indices: %v", err)
		return
	}

	refreshCandidates := make(map[string]*models.Asset)

	for _, indexResult := range indexResults {
		switch indexResult.Action {
		case models.ActionCreated:
			tally.indexesCreated++
		case models.ActionUpdated:
			tally.indexesUpdated++
		}

		j.processIndex(indexResult.Index, tally, refreshCandidates)
	}

	j.refreshSeries(refreshCandidates, tally)

	logrus.WithFields(logrus.Fields{
		"indexes_created":   tally.indexesCreated,
		"indexes_updated":   tally.indexesUpdated,
		"assets_created":    tally.assetsCreated,
		"assets_updated":    tally.assetsUpdated,
		"members_added":     tally.membersAdded,
		"members_removed":   tally.membersRemoved,
		"series_refreshed":  tally.refreshed,
		"series_up_to_date": tally.upToDate,
		"failures":          tally.failures,
	}).Info("Catalog Update Job completed")
}

// processIndex reconciles one index's own instrument and its constituent set
func (j *CatalogUpdateJob) processIndex(index *models.Index, tally *jobTally, refreshCandidates map[string]*models.Asset) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "CatalogUpdateJob",
		"index":     index.Name,
	})

	detail, err := j.ScraperService.FetchAssetDetails(index.Link)
	if err != nil {
		logger.Errorf("Failed to fetch index details: %v", err)
		tally.failures++
	} else {
		indexAsset, err := j.ReconcileService.ReconcileIndexDetail(index, detail)
		if err != nil {
			logger.Errorf("Failed to reconcile index instrument: %v", err)
			tally.failures++
		} else {
			tally.recordAssetAction(indexAsset.Action)
			refreshCandidates[indexAsset.Asset.Name] = indexAsset.Asset
		}
	}

	constituents, err := j.ScraperService.ListConstituents(index.Link)
	if err != nil {
		logger.Errorf("Failed to scrape constituents: %v", err)
		tally.failures++
		return
	}

	results, err := j.ReconcileService.ReconcileConstituents(index, constituents)
	if err != nil {
		logger.Errorf("Failed to reconcile constituents: %v", err)
		tally.failures++
		return
	}

	for _, result := range results {
		tally.recordAssetAction(result.FieldAction)

		switch result.MembershipAction {
		case models.ActionAdded:
			tally.membersAdded++
		case models.ActionRemoved:
			tally.membersRemoved++
			continue // removed assets are not refresh candidates
		}

		asset := j.resolveAssetDetails(result.Asset, logger, tally)
		refreshCandidates[asset.Name] = asset
	}
}

// resolveAssetDetails fetches the detail page of an asset whose ticker has
// not been resolved yet, so the pending ticker and metadata get populated.
func (j *CatalogUpdateJob) resolveAssetDetails(asset *models.Asset, logger *logrus.Entry, tally *jobTally) *models.Asset {
	if asset.Ticker != "" || asset.PendingTicker() != "" || asset.Link == "" {
		return asset
	}

	detail, err := j.ScraperService.FetchAssetDetails(asset.Link)
	if err != nil {
		logger.WithField("asset", asset.Name).Errorf("Failed to fetch asset details: %v", err)
		tally.failures++
		return asset
	}

	result, err := j.ReconcileService.ReconcileAsset(asset, detail)
	if err != nil {
		logger.WithField("asset", asset.Name).Errorf("Failed to reconcile asset details: %v", err)
		tally.failures++
		return asset
	}

	tally.recordAssetAction(result.Action)
	return result.Asset
}

// refreshSeries runs the price refresh over all candidates through the
// bounded worker pool. Assets without a resolved ticker are skipped.
func (j *CatalogUpdateJob) refreshSeries(candidates map[string]*models.Asset, tally *jobTally) {
	results := shared.RunKeyed(
		j.WorkerCount,
		candidates,
		func(_ string, asset *models.Asset) bool {
			return asset.Ticker != ""
		},
		func(_ string, asset *models.Asset) (services.RefreshStatus, error) {
			return j.RefreshService.RefreshAsset(asset, false)
		},
	)

	for name, result := range results {
		if result.Err != nil {
			tally.failures++
			logrus.WithFields(logrus.Fields{
				"component": "CatalogUpdateJob",
				"asset":     name,
				"retryable": shared.IsRetryableError(result.Err),
			}).Errorf("Failed to refresh series: %v", result.Err)
			continue
		}

		switch result.Value {
		case services.RefreshStatusRefreshed:
			tally.refreshed++
		case services.RefreshStatusUpToDate:
			tally.upToDate++
		}
	}
}

func (t *jobTally) recordAssetAction(action models.ReconcileAction) {
	switch action {
	case models.ActionCreated:
		t.assetsCreated++
	case models.ActionUpdated:
		t.assetsUpdated++
	}
}
