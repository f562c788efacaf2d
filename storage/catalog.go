// Package storage defines the contracts the analyst backend expects from its
// persistence collaborators: the relational catalog holding assets and
// indexes, and the time-series engine holding close-price history. The
// concrete engines live outside this codebase; only the interfaces and the
// series-key derivation are owned here.
package storage

import (
	"fmt"

	"github.com/fenilmodi00/analyst-backend/models"
)

// CatalogStore is the persistence contract for assets and indexes. The
// reconcile service reads a full snapshot at the start of a run and applies
// creates, field updates and membership changes through it.
type CatalogStore interface {
	ListAssets() ([]*models.Asset, error)
	ListIndexes() ([]*models.Index, error)

	GetAssetByName(name string) (*models.Asset, error)
	GetIndexByName(name string) (*models.Index, error)

	CreateAsset(asset *models.Asset) error
	UpdateAsset(asset *models.Asset) error

	CreateIndex(index *models.Index) error
	UpdateIndex(index *models.Index) error

	// SetIndexInstrument links an index to the asset representing its own
	// quoted value.
	SetIndexInstrument(index *models.Index, asset *models.Asset) error

	AddIndexMember(index *models.Index, asset *models.Asset) error
	RemoveIndexMember(index *models.Index, asset *models.Asset) error
}

// SeriesStore is the persistence contract for close-price history. Series
// are addressed by an opaque key; use SeriesKey to derive one from an asset.
type SeriesStore interface {
	// Append writes the series under the given key, merging with any
	// existing points.
	Append(key string, series models.PriceSeries) error

	// Query returns the stored series restricted to the requested fields and
	// optional time bounds; a nil or empty series means no data.
	Query(key string, fields []string, start, end *string, extra string) (models.PriceSeries, error)

	// Latest returns the single most recent stored point, or ok=false when
	// the series is empty or missing.
	Latest(key string) (models.PricePoint, bool, error)
}

// SeriesKey derives the deterministic time-series key for an asset
func SeriesKey(asset *models.Asset) string {
	return fmt.Sprintf("asset_%s", asset.ID)
}
