package services

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/search"
)

// SeedResult summarizes one street catalog seeding run.
type SeedResult struct {
	Streets    int       `json:"streets"`
	SeededAt   time.Time `json:"seeded_at"`
	DurationMs int64     `json:"duration_ms"`
}

// SystemStats is the operator-facing health snapshot.
type SystemStats struct {
	UptimeSeconds int64                  `json:"uptime_seconds"`
	RulesVersion  string                 `json:"rules_version"`
	MemoryMB      uint64                 `json:"memory_mb"`
	Goroutines    int                    `json:"goroutines"`
	Catalog       map[string]interface{} `json:"catalog"`
	Cache         *CacheStats            `json:"cache,omitempty"`
}

// AdminService covers the operational endpoints: seeding the street catalog,
// sweeping the component cache and reporting system health.
type AdminService struct {
	catalog   *CatalogService
	cache     ICacheService
	index     *search.StreetIndex
	db        *mongo.Database
	logger    *zap.Logger
	startTime time.Time
}

// NewAdminService builds the service. cache, index and db may each be nil;
// the endpoints that need them report an error instead.
func NewAdminService(catalog *CatalogService, cache ICacheService, index *search.StreetIndex, db *mongo.Database, logger *zap.Logger) *AdminService {
	return &AdminService{
		catalog:   catalog,
		cache:     cache,
		index:     index,
		db:        db,
		logger:    logger,
		startTime: time.Now(),
	}
}

// SeedStreets rebuilds the canonical street catalog from the loaded internal
// catalog: one document per distinct street key, carrying the district when
// the listings agree on one.
func (as *AdminService) SeedStreets(ctx context.Context) (*SeedResult, error) {
	if as.index == nil {
		return nil, fmt.Errorf("street index not configured")
	}

	records := as.catalog.Records()
	if len(records) == 0 {
		return nil, fmt.Errorf("catalog not loaded")
	}

	started := time.Now()

	type streetInfo struct {
		aliases   map[string]bool
		districts map[string]int
	}
	streets := make(map[string]*streetInfo)
	for _, rec := range records {
		comp := rec.Components
		if comp == nil || comp.StreetKey == "" {
			continue
		}
		info, ok := streets[comp.StreetKey]
		if !ok {
			info = &streetInfo{aliases: make(map[string]bool), districts: make(map[string]int)}
			streets[comp.StreetKey] = info
		}
		if comp.StreetKeyBag != "" && comp.StreetKeyBag != comp.StreetKey {
			info.aliases[comp.StreetKeyBag] = true
		}
		if rec.District != "" {
			info.districts[rec.District]++
		}
	}

	keys := make([]string, 0, len(streets))
	for k := range streets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	docs := make([]search.StreetDoc, 0, len(keys))
	for _, key := range keys {
		info := streets[key]
		doc := search.StreetDoc{
			ID:       search.StreetDocID(key),
			Name:     key,
			NormName: key,
			District: topDistrict(info.districts),
		}
		for alias := range info.aliases {
			doc.Aliases = append(doc.Aliases, alias)
		}
		sort.Strings(doc.Aliases)
		docs = append(docs, doc)
	}

	if err := as.index.Configure(); err != nil {
		return nil, err
	}
	if err := as.index.Seed(docs); err != nil {
		return nil, err
	}

	result := &SeedResult{
		Streets:    len(docs),
		SeededAt:   started,
		DurationMs: time.Since(started).Milliseconds(),
	}
	as.logger.Info("street catalog reseeded", zap.Int("streets", result.Streets))
	return result, nil
}

// InvalidateCache sweeps cached parses from older rule versions.
func (as *AdminService) InvalidateCache(ctx context.Context) error {
	if as.cache == nil {
		return fmt.Errorf("cache not configured")
	}
	return as.cache.InvalidateByRulesVersion(ctx, normalizer.RulesVersion)
}

// ClearCache drops every cached parse.
func (as *AdminService) ClearCache(ctx context.Context) error {
	if as.cache == nil {
		return fmt.Errorf("cache not configured")
	}
	return as.cache.Clear(ctx)
}

// GetSystemStats reports uptime, memory, the catalog state and cache
// counters.
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		UptimeSeconds: int64(time.Since(as.startTime).Seconds()),
		RulesVersion:  normalizer.RulesVersion,
		MemoryMB:      bToMb(m.Alloc),
		Goroutines:    runtime.NumGoroutine(),
		Catalog:       as.catalog.Stats(),
	}

	if as.cache != nil {
		cacheStats, err := as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("cache stats unavailable", zap.Error(err))
		} else {
			stats.Cache = cacheStats
		}
	}
	return stats, nil
}

// GetDatabaseStats counts the MongoDB collections the system writes to.
func (as *AdminService) GetDatabaseStats(ctx context.Context) (map[string]int64, error) {
	if as.db == nil {
		return nil, fmt.Errorf("database not configured")
	}

	out := make(map[string]int64)
	for _, name := range []string{"component_cache"} {
		count, err := as.db.Collection(name).CountDocuments(ctx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		out[name] = count
	}
	return out, nil
}

func topDistrict(counts map[string]int) string {
	best, bestCnt := "", 0
	for d, c := range counts {
		if c > bestCnt || (c == bestCnt && (best == "" || d < best)) {
			best, bestCnt = d, c
		}
	}
	return best
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
