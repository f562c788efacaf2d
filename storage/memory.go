package storage

import (
	"sync"

	"github.com/fenilmodi00/analyst-backend/models"
)

// MemoryCatalog is an in-memory CatalogStore. It backs tests and serves as
// the reference behavior for external catalog implementations. Lookups for
// absent names return nil without error.
type MemoryCatalog struct {
	mutex   sync.RWMutex
	assets  map[string]*models.Asset
	indexes map[string]*models.Index
}

// NewMemoryCatalog creates an empty in-memory catalog
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		assets:  make(map[string]*models.Asset),
		indexes: make(map[string]*models.Index),
	}
}

func (c *MemoryCatalog) ListAssets() ([]*models.Asset, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	assets := make([]*models.Asset, 0, len(c.assets))
	for _, asset := range c.assets {
		assets = append(assets, asset)
	}
	return assets, nil
}

func (c *MemoryCatalog) ListIndexes() ([]*models.Index, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	indexes := make([]*models.Index, 0, len(c.indexes))
	for _, index := range c.indexes {
		indexes = append(indexes, index)
	}
	return indexes, nil
}

func (c *MemoryCatalog) GetAssetByName(name string) (*models.Asset, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.assets[name], nil
}

func (c *MemoryCatalog) GetIndexByName(name string) (*models.Index, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.indexes[name], nil
}

func (c *MemoryCatalog) CreateAsset(asset *models.Asset) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.assets[asset.Name] = asset
	return nil
}

func (c *MemoryCatalog) UpdateAsset(asset *models.Asset) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.assets[asset.Name] = asset
	return nil
}

func (c *MemoryCatalog) CreateIndex(index *models.Index) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.indexes[index.Name] = index
	return nil
}

func (c *MemoryCatalog) UpdateIndex(index *models.Index) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.indexes[index.Name] = index
	return nil
}

func (c *MemoryCatalog) SetIndexInstrument(index *models.Index, asset *models.Asset) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	index.Indice = asset
	return nil
}

func (c *MemoryCatalog) AddIndexMember(index *models.Index, asset *models.Asset) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	index.AddMember(asset)
	return nil
}

func (c *MemoryCatalog) RemoveIndexMember(index *models.Index, asset *models.Asset) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	index.RemoveMember(asset.Name)
	return nil
}

// MemorySeries is an in-memory SeriesStore used by tests
type MemorySeries struct {
	mutex  sync.RWMutex
	series map[string]models.PriceSeries
}

// NewMemorySeries creates an empty in-memory series store
func NewMemorySeries() *MemorySeries {
	return &MemorySeries{series: make(map[string]models.PriceSeries)}
}

func (s *MemorySeries) Append(key string, series models.PriceSeries) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	merged := append(s.series[key], series...)
	merged.Sort()
	s.series[key] = merged
	return nil
}

func (s *MemorySeries) Query(key string, fields []string, start, end *string, extra string) (models.PriceSeries, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.series[key], nil
}

func (s *MemorySeries) Latest(key string) (models.PricePoint, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	point, ok := s.series[key].Latest()
	return point, ok, nil
}
