package services

import (
	"context"
	"sync"
	"time"

	"github.com/listing-radar/app/models"
)

// MemoryCacheService is a process-local ICacheService for runs without Redis
// or MongoDB, mainly the CLI tools. Entries expire lazily on read.
type MemoryCacheService struct {
	cache      map[string]*models.CachedComponents
	timestamps map[string]time.Time
	mu         sync.RWMutex
	ttl        time.Duration

	hits   int64
	misses int64
}

// NewMemoryCacheService builds the cache. ttl zero means no expiry.
func NewMemoryCacheService(ttl time.Duration) *MemoryCacheService {
	return &MemoryCacheService{
		cache:      make(map[string]*models.CachedComponents),
		timestamps: make(map[string]time.Time),
		ttl:        ttl,
	}
}

// Get returns the cached parse when present and not expired.
func (mcs *MemoryCacheService) Get(ctx context.Context, key string) (*models.CachedComponents, bool, error) {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()

	rec, exists := mcs.cache[key]
	if exists && mcs.isExpiredLocked(key) {
		delete(mcs.cache, key)
		delete(mcs.timestamps, key)
		exists = false
	}
	if !exists {
		mcs.misses++
		return nil, false, nil
	}
	mcs.hits++
	return rec, true, nil
}

// Set stores a parse.
func (mcs *MemoryCacheService) Set(ctx context.Context, key string, rec *models.CachedComponents) error {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()

	mcs.cache[key] = rec
	mcs.timestamps[key] = time.Now()
	return nil
}

// Delete removes one entry.
func (mcs *MemoryCacheService) Delete(ctx context.Context, key string) error {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()

	delete(mcs.cache, key)
	delete(mcs.timestamps, key)
	return nil
}

// Clear removes everything and resets the counters.
func (mcs *MemoryCacheService) Clear(ctx context.Context) error {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()

	mcs.cache = make(map[string]*models.CachedComponents)
	mcs.timestamps = make(map[string]time.Time)
	mcs.hits, mcs.misses = 0, 0
	return nil
}

// InvalidateByRulesVersion drops entries parsed under other rule versions.
func (mcs *MemoryCacheService) InvalidateByRulesVersion(ctx context.Context, rulesVersion string) error {
	mcs.mu.Lock()
	defer mcs.mu.Unlock()

	for key, rec := range mcs.cache {
		if rec.RulesVersion != rulesVersion {
			delete(mcs.cache, key)
			delete(mcs.timestamps, key)
		}
	}
	return nil
}

// GetStats reports the hit counters.
func (mcs *MemoryCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	mcs.mu.RLock()
	defer mcs.mu.RUnlock()

	total := mcs.hits + mcs.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(mcs.hits) / float64(total)
	}
	return &CacheStats{
		HitRate:    hitRate,
		TotalHits:  mcs.hits,
		TotalMiss:  mcs.misses,
		TotalItems: int64(len(mcs.cache)),
	}, nil
}

// Exists checks a key without counting it as a hit.
func (mcs *MemoryCacheService) Exists(ctx context.Context, key string) (bool, error) {
	mcs.mu.RLock()
	defer mcs.mu.RUnlock()

	if _, exists := mcs.cache[key]; !exists {
		return false, nil
	}
	return !mcs.isExpiredLocked(key), nil
}

// GetTTL returns the remaining lifetime of a key.
func (mcs *MemoryCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	mcs.mu.RLock()
	defer mcs.mu.RUnlock()

	ts, exists := mcs.timestamps[key]
	if !exists || mcs.ttl == 0 {
		return 0, nil
	}
	remaining := mcs.ttl - time.Since(ts)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Close is a no-op.
func (mcs *MemoryCacheService) Close() error {
	return nil
}

func (mcs *MemoryCacheService) isExpiredLocked(key string) bool {
	if mcs.ttl == 0 {
		return false
	}
	ts, exists := mcs.timestamps[key]
	if !exists {
		return true
	}
	return time.Since(ts) > mcs.ttl
}
