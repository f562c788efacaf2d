package services

import (
	"time"

	"github.com/fenilmodi00/analyst-backend/models"
	"github.com/fenilmodi00/analyst-backend/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReconcileService diffs a freshly scraped snapshot against the cached
// catalog and applies the minimal set of create/update/add/remove actions.
// Identity resolution is by unique name within an in-memory snapshot of the
// catalog loaded once per top-level operation; the snapshot is not refreshed
// mid-run, so concurrent external mutation yields last-writer-wins semantics.
type ReconcileService struct {
	catalog storage.CatalogStore

	assetCache map[string]*models.Asset
	indexCache map[string]*models.Index
}

// NewReconcileService creates a new reconcile service instance
func NewReconcileService(catalog storage.CatalogStore) *ReconcileService {
	return &ReconcileService{catalog: catalog}
}

// setup loads the catalog snapshot caches. Called once at the start of every
// top-level reconcile operation, never per row.
func (s *ReconcileService) setup() error {
	s.assetCache = make(map[string]*models.Asset)
	s.indexCache = make(map[string]*models.Index)

	assets, err := s.catalog.ListAssets()
	if err != nil {
		return err
	}
	for _, asset := range assets {
		s.assetCache[asset.Name] = asset
	}

	indexes, err := s.catalog.ListIndexes()
	if err != nil {
		return err
	}
	for _, index := range indexes {
		s.indexCache[index.Name] = index
	}

	return nil
}

// getOrCreateAsset applies the create-or-update policy for one instrument:
// create on first sighting, otherwise compare country/link/kind/extraData
// field by field and apply the supplied non-empty fields when any differ.
func (s *ReconcileService) getOrCreateAsset(name string, record *models.ScrapeRecord) (*models.Asset, models.ReconcileAction, error) {
	asset := s.assetCache[name]

	if asset == nil {
		logrus.WithFields(logrus.Fields{
			"component": "ReconcileService",
			"asset":     name,
		}).Info("Creating asset")

		now := time.Now().UTC()
		asset = &models.Asset{
			ID:        uuid.New(),
			Name:      name,
			Kind:      record.Kind,
			Link:      record.Link,
			Country:   record.Country,
			ExtraData: record.ExtraData,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.catalog.CreateAsset(asset); err != nil {
			return nil, models.ActionNone, err
		}
		s.assetCache[name] = asset
		return asset, models.ActionCreated, nil
	}

	toUpdate := false

	if record.Country != "" && asset.Country != record.Country {
		asset.Country = record.Country
		toUpdate = true
	}
	if record.Link != "" && asset.Link != record.Link {
		asset.Link = record.Link
		toUpdate = true
	}
	if record.Kind != "" && asset.Kind != record.Kind {
		asset.Kind = record.Kind
		toUpdate = true
	}
	if !record.ExtraData.IsEmpty() && !asset.ExtraData.Equal(record.ExtraData) {
		asset.ExtraData = record.ExtraData
		toUpdate = true
	}

	if !toUpdate {
		return asset, models.ActionNone, nil
	}

	logrus.WithFields(logrus.Fields{
		"component": "ReconcileService",
		"asset":     name,
	}).Info("Updating asset")

	asset.UpdatedAt = time.Now().UTC()
	if err := s.catalog.UpdateAsset(asset); err != nil {
		return nil, models.ActionNone, err
	}
	return asset, models.ActionUpdated, nil
}

// getOrCreateIndex mirrors the asset policy for an index group, but only
// compares link and country for the update decision; membership is
// reconciled separately.
func (s *ReconcileService) getOrCreateIndex(record *models.ScrapeRecord) (*models.Index, models.ReconcileAction, error) {
	index := s.indexCache[record.Name]

	if index == nil {
		logrus.WithFields(logrus.Fields{
			"component": "ReconcileService",
			"index":     record.Name,
		}).Info("Creating index")

		index = &models.Index{
			Name:    record.Name,
			Link:    record.Link,
			Country: record.Country,
			Members: make(map[string]*models.Asset),
		}
		if err := s.catalog.CreateIndex(index); err != nil {
			return nil, models.ActionNone, err
		}
		s.indexCache[record.Name] = index
		return index, models.ActionCreated, nil
	}

	if index.Link == record.Link && index.Country == record.Country {
		return index, models.ActionNone, nil
	}

	logrus.WithFields(logrus.Fields{
		"component": "ReconcileService",
		"index":     record.Name,
	}).Info("Updating index")

	index.Link = record.Link
	index.Country = record.Country
	if err := s.catalog.UpdateIndex(index); err != nil {
		return nil, models.ActionNone, err
	}
	return index, models.ActionUpdated, nil
}

// ReconcileIndices merges a scraped major-indices snapshot (grouped by
// country) into the catalog and reports one result per index, including the
// no-change case.
func (s *ReconcileService) ReconcileIndices(scraped map[string][]models.ScrapeRecord) ([]models.IndexResult, error) {
	logrus.WithField("component", "ReconcileService").Info("Launching indices reconciliation")

	if err := s.setup(); err != nil {
		return nil, err
	}

	var results []models.IndexResult
	for _, records := range scraped {
		for i := range records {
			index, action, err := s.getOrCreateIndex(&records[i])
			if err != nil {
				return nil, err
			}
			results = append(results, models.IndexResult{Index: index, Action: action})
		}
	}

	logrus.WithFields(logrus.Fields{
		"component": "ReconcileService",
		"indexes":   len(results),
	}).Info("End of indices reconciliation")
	return results, nil
}

// ReconcileIndexDetail merges the detail-page scrape of an index's own
// instrument into the catalog under the index's name and links it as the
// index's quoted instrument when that changed.
func (s *ReconcileService) ReconcileIndexDetail(index *models.Index, detail *models.ScrapeRecord) (models.AssetResult, error) {
	if err := s.setup(); err != nil {
		return models.AssetResult{}, err
	}

	asset, action, err := s.getOrCreateAsset(index.Name, detail)
	if err != nil {
		return models.AssetResult{}, err
	}

	if index.Indice == nil || index.Indice.Name != asset.Name {
		if err := s.catalog.SetIndexInstrument(index, asset); err != nil {
			return models.AssetResult{}, err
		}
	}

	return models.AssetResult{Asset: asset, Action: action}, nil
}

// ReconcileAsset merges the detail-page scrape of a single instrument into
// the catalog.
func (s *ReconcileService) ReconcileAsset(asset *models.Asset, detail *models.ScrapeRecord) (models.AssetResult, error) {
	if err := s.setup(); err != nil {
		return models.AssetResult{}, err
	}

	reconciled, action, err := s.getOrCreateAsset(asset.Name, detail)
	if err != nil {
		return models.AssetResult{}, err
	}
	return models.AssetResult{Asset: reconciled, Action: action}, nil
}

// ReconcileConstituents merges a scraped constituent list into the index's
// membership set. Cached members absent from the scrape are removed, scraped
// assets absent from the membership are added, assets present in both stay
// unreported for membership. The per-asset field action and the membership
// action are independent fields of the result, never merged. Duplicate
// scraped rows are collapsed by name.
func (s *ReconcileService) ReconcileConstituents(index *models.Index, scraped []models.ScrapeRecord) ([]models.ConstituentResult, error) {
	logrus.WithFields(logrus.Fields{
		"component": "ReconcileService",
		"index":     index.Name,
	}).Info("Launching constituents reconciliation")

	if err := s.setup(); err != nil {
		return nil, err
	}

	// Reconcile every scraped constituent's own fields first, collapsing
	// duplicates while keeping scrape order.
	scrapedOrder := make([]*models.Asset, 0, len(scraped))
	scrapedSet := make(map[string]*models.Asset, len(scraped))
	fieldActions := make(map[string]models.ReconcileAction, len(scraped))

	for i := range scraped {
		record := &scraped[i]
		if _, seen := scrapedSet[record.Name]; seen {
			continue
		}

		asset, action, err := s.getOrCreateAsset(record.Name, record)
		if err != nil {
			return nil, err
		}
		scrapedOrder = append(scrapedOrder, asset)
		scrapedSet[record.Name] = asset
		fieldActions[record.Name] = action
	}

	var results []models.ConstituentResult

	// Current members missing from the scrape leave the group
	for _, name := range index.MemberNames() {
		member := index.Members[name]
		if _, stillListed := scrapedSet[name]; stillListed {
			results = append(results, models.ConstituentResult{
				Asset:            member,
				FieldAction:      fieldActions[name],
				MembershipAction: models.ActionNone,
			})
			continue
		}

		logrus.WithFields(logrus.Fields{
			"component": "ReconcileService",
			"index":     index.Name,
			"asset":     name,
		}).Info("Removing asset from index")

		if err := s.catalog.RemoveIndexMember(index, member); err != nil {
			return nil, err
		}
		results = append(results, models.ConstituentResult{
			Asset:            member,
			FieldAction:      models.ActionNone,
			MembershipAction: models.ActionRemoved,
		})
	}

	// Scraped assets missing from the membership join the group
	for _, asset := range scrapedOrder {
		if index.HasMember(asset.Name) {
			continue
		}

		logrus.WithFields(logrus.Fields{
			"component": "ReconcileService",
			"index":     index.Name,
			"asset":     asset.Name,
		}).Info("Adding asset to index")

		if err := s.catalog.AddIndexMember(index, asset); err != nil {
			return nil, err
		}
		results = append(results, models.ConstituentResult{
			Asset:            asset,
			FieldAction:      fieldActions[asset.Name],
			MembershipAction: models.ActionAdded,
		})
	}

	logrus.WithFields(logrus.Fields{
		"component": "ReconcileService",
		"index":     index.Name,
		"results":   len(results),
	}).Info("End of constituents reconciliation")
	return results, nil
}
