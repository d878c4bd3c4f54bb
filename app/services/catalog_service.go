package services

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/feed"
	"github.com/listing-radar/internal/matcher"
	"github.com/listing-radar/internal/parser"
)

// CatalogService owns the internal catalog: the deals.xml snapshot and the
// street-key index built over it. Load replaces both atomically; everything
// else reads under the lock.
type CatalogService struct {
	extractor *parser.Extractor
	logger    *zap.Logger

	mu       sync.RWMutex
	records  []*models.ListingRecord
	index    *matcher.Index
	path     string
	loadedAt time.Time
}

// NewCatalogService builds an empty catalog. Call Load before comparing.
func NewCatalogService(extractor *parser.Extractor, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		extractor: extractor,
		logger:    logger,
	}
}

// Load reads the catalog feed and rebuilds the index. Returns the number of
// usable listings.
func (cs *CatalogService) Load(path string) (int, error) {
	records, err := feed.ReadCatalogXML(path, cs.logger)
	if err != nil {
		return 0, err
	}

	index := matcher.BuildIndex(records, cs.extractor)

	cs.mu.Lock()
	cs.records = records
	cs.index = index
	cs.path = path
	cs.loadedAt = time.Now()
	cs.mu.Unlock()

	cs.logger.Info("catalog loaded",
		zap.String("path", path),
		zap.Int("listings", len(records)),
		zap.Int("street_keys", index.Size()))
	return len(records), nil
}

// Index returns the current street-key index, or an error before first Load.
func (cs *CatalogService) Index() (*matcher.Index, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.index == nil {
		return nil, errors.New("catalog not loaded")
	}
	return cs.index, nil
}

// Records returns the loaded catalog listings.
func (cs *CatalogService) Records() []*models.ListingRecord {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.records
}

// Stats reports the catalog state.
func (cs *CatalogService) Stats() map[string]interface{} {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	stats := map[string]interface{}{
		"listings": len(cs.records),
		"loaded":   cs.index != nil,
	}
	if cs.index != nil {
		stats["street_keys"] = cs.index.Size()
		stats["path"] = cs.path
		stats["loaded_at"] = cs.loadedAt.Format(time.RFC3339)
	}
	return stats
}
