package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/normalizer"
)

// MongoCacheService is the persistent cache tier: an in-memory LRU in front
// of a MongoDB collection keyed by parse fingerprint.
type MongoCacheService struct {
	db         *mongo.Database
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, *models.CachedComponents]
	logger     *zap.Logger

	totalHits atomic.Int64
	totalMiss atomic.Int64
	l1Hits    atomic.Int64
	l1Miss    atomic.Int64
	mongoHits atomic.Int64
	mongoMiss atomic.Int64
}

// NewMongoCacheService builds the service and ensures indexes. Index
// creation failure is logged, not fatal: the cache works without them.
func NewMongoCacheService(db *mongo.Database, l1Size int, logger *zap.Logger) (*MongoCacheService, error) {
	l1Cache, err := lru.New[string, *models.CachedComponents](l1Size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}

	collection := db.Collection("component_cache")

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "rules_version", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "created_at", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "last_hit_at", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("component_cache index creation failed", zap.Error(err))
	}

	return &MongoCacheService{
		db:         db,
		collection: collection,
		l1Cache:    l1Cache,
		logger:     logger,
	}, nil
}

// Get reads L1 first, MongoDB second. A MongoDB hit backfills L1 and bumps
// the record's access stats asynchronously.
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.CachedComponents, bool, error) {
	if rec, found := mcs.l1Cache.Get(key); found {
		mcs.l1Hits.Add(1)
		mcs.totalHits.Add(1)
		return rec, true, nil
	}
	mcs.l1Miss.Add(1)

	fingerprint := models.ComponentsFingerprint(key, normalizer.RulesVersion)

	var rec models.CachedComponents
	err := mcs.collection.FindOne(ctx, bson.M{"_id": fingerprint}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			mcs.mongoMiss.Add(1)
			mcs.totalMiss.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query component cache: %w", err)
	}

	mcs.mongoHits.Add(1)
	mcs.totalHits.Add(1)

	go mcs.bumpHitStats(rec.Fingerprint)

	mcs.l1Cache.Add(key, &rec)
	return &rec, true, nil
}

// Set writes both tiers.
func (mcs *MongoCacheService) Set(ctx context.Context, key string, rec *models.CachedComponents) error {
	mcs.l1Cache.Add(key, rec)

	opts := options.Replace().SetUpsert(true)
	if _, err := mcs.collection.ReplaceOne(ctx, bson.M{"_id": rec.Fingerprint}, rec, opts); err != nil {
		mcs.logger.Error("component cache write failed",
			zap.Error(err),
			zap.String("fingerprint", rec.Fingerprint))
		return fmt.Errorf("write component cache: %w", err)
	}
	return nil
}

// Delete removes one entry from both tiers.
func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)

	fingerprint := models.ComponentsFingerprint(key, normalizer.RulesVersion)
	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"_id": fingerprint}); err != nil {
		return fmt.Errorf("delete from component cache: %w", err)
	}
	return nil
}

// Clear empties both tiers and resets counters.
func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear component cache: %w", err)
	}

	mcs.totalHits.Store(0)
	mcs.totalMiss.Store(0)
	mcs.l1Hits.Store(0)
	mcs.l1Miss.Store(0)
	mcs.mongoHits.Store(0)
	mcs.mongoMiss.Store(0)
	return nil
}

// InvalidateByRulesVersion purges L1 and deletes every record parsed under a
// different rule version.
func (mcs *MongoCacheService) InvalidateByRulesVersion(ctx context.Context, rulesVersion string) error {
	mcs.l1Cache.Purge()

	result, err := mcs.collection.DeleteMany(ctx, bson.M{"rules_version": bson.M{"$ne": rulesVersion}})
	if err != nil {
		return fmt.Errorf("invalidate by rules version: %w", err)
	}

	mcs.logger.Info("component cache invalidated",
		zap.String("rules_version", rulesVersion),
		zap.Int64("deleted_count", result.DeletedCount))
	return nil
}

// GetStats reports the combined counters plus the MongoDB record count.
func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	mongoCount, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count component cache: %w", err)
	}

	hits, misses := mcs.totalHits.Load(), mcs.totalMiss.Load()
	total := hits + misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return &CacheStats{
		HitRate:    hitRate,
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: mongoCount,
	}, nil
}

// Exists checks both tiers.
func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}

	fingerprint := models.ComponentsFingerprint(key, normalizer.RulesVersion)
	count, err := mcs.collection.CountDocuments(ctx, bson.M{"_id": fingerprint})
	if err != nil {
		return false, fmt.Errorf("check component cache: %w", err)
	}
	return count > 0, nil
}

// GetTTL is always zero: the persistent tier does not expire records.
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

// Close is a no-op; the Mongo client belongs to the caller.
func (mcs *MongoCacheService) Close() error {
	return nil
}

// bumpHitStats updates access stats out of band.
func (mcs *MongoCacheService) bumpHitStats(fingerprint string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"last_hit_at": time.Now()},
		"$inc": bson.M{"hit_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": fingerprint}, update); err != nil {
		mcs.logger.Warn("hit stats update failed", zap.Error(err))
	}
}

// WarmUp preloads the hottest records into L1.
func (mcs *MongoCacheService) WarmUp(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "hit_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("warm up component cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var rec models.CachedComponents
		if err := cursor.Decode(&rec); err != nil {
			mcs.logger.Warn("warm up decode failed", zap.Error(err))
			continue
		}
		mcs.l1Cache.Add(rec.Normalized, &rec)
		count++
	}

	mcs.logger.Info("component cache warmed up",
		zap.Int("loaded_items", count),
		zap.Int("l1_size", mcs.l1Cache.Len()))
	return nil
}
