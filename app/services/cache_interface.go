package services

import (
	"context"
	"time"

	"github.com/listing-radar/app/models"
)

// CacheStats summarizes cache effectiveness.
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService caches parsed address components. Keys are normalized
// addresses; the rules version rides inside the stored record so stale
// parses can be swept after a rule change.
type ICacheService interface {
	// Get returns the cached parse for a normalized address.
	Get(ctx context.Context, key string) (*models.CachedComponents, bool, error)

	// Set stores a parse.
	Set(ctx context.Context, key string, rec *models.CachedComponents) error

	// Delete removes one entry.
	Delete(ctx context.Context, key string) error

	// Clear removes everything.
	Clear(ctx context.Context) error

	// InvalidateByRulesVersion removes entries parsed under other rule
	// versions.
	InvalidateByRulesVersion(ctx context.Context, rulesVersion string) error

	// GetStats reports hit counters.
	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists checks a key without fetching it.
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL returns the remaining lifetime of a key, when the backend has
	// the notion.
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close releases backend connections.
	Close() error
}
