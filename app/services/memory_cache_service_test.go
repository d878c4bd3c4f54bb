package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/normalizer"
)

func cachedRecord(normalized, rulesVersion string) *models.CachedComponents {
	now := time.Now()
	return &models.CachedComponents{
		Fingerprint:  models.ComponentsFingerprint(normalized, rulesVersion),
		Normalized:   normalized,
		Components:   &models.AddressComponents{StreetKey: "невский"},
		RulesVersion: rulesVersion,
		CreatedAt:    now,
		LastHitAt:    now,
		HitCount:     1,
	}
}

func TestMemoryCacheGetSet(t *testing.T) {
	mcs := NewMemoryCacheService(0)
	ctx := context.Background()

	_, found, err := mcs.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, mcs.Set(ctx, "k", cachedRecord("k", normalizer.RulesVersion)))
	rec, found, err := mcs.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "невский", rec.Components.StreetKey)

	stats, err := mcs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.Equal(t, int64(1), stats.TotalItems)
	assert.Equal(t, 0.5, stats.HitRate)
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	mcs := NewMemoryCacheService(time.Millisecond)
	ctx := context.Background()

	require.NoError(t, mcs.Set(ctx, "k", cachedRecord("k", normalizer.RulesVersion)))
	time.Sleep(10 * time.Millisecond)

	_, found, err := mcs.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	exists, err := mcs.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCacheInvalidateByRulesVersion(t *testing.T) {
	mcs := NewMemoryCacheService(0)
	ctx := context.Background()

	require.NoError(t, mcs.Set(ctx, "old", cachedRecord("old", "0.0.1")))
	require.NoError(t, mcs.Set(ctx, "cur", cachedRecord("cur", normalizer.RulesVersion)))

	require.NoError(t, mcs.InvalidateByRulesVersion(ctx, normalizer.RulesVersion))

	_, found, err := mcs.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = mcs.Get(ctx, "cur")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryCacheClear(t *testing.T) {
	mcs := NewMemoryCacheService(0)
	ctx := context.Background()

	require.NoError(t, mcs.Set(ctx, "k", cachedRecord("k", normalizer.RulesVersion)))
	require.NoError(t, mcs.Clear(ctx))

	stats, err := mcs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalItems)
}
