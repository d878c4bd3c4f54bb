package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
)

func newTestReviewService(t *testing.T) *ReviewService {
	t.Helper()
	cfg := config.ReviewCfg{
		SQLitePath:  filepath.Join(t.TempDir(), "votes.db"),
		Respondents: []string{"olya", "sasha", "dima", "test"},
	}
	rs, err := NewReviewService(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { rs.Close() })
	return rs
}

func unifiedObject(key, source, district, address string, result string) *models.UnifiedObject {
	obj := &models.UnifiedObject{AddressKey: key}
	obj.Add(&models.SourceListing{
		Source:   source,
		Address:  address,
		District: district,
		DealType: models.DealSale,
		Result:   result,
	})
	return obj
}

func TestSaveVoteAndLatest(t *testing.T) {
	rs := newTestReviewService(t)
	ctx := context.Background()

	_, err := rs.SaveVote(ctx, "olya", "obj-1", "no", "")
	require.NoError(t, err)
	v, err := rs.SaveVote(ctx, "olya", "obj-1", "yes", "передумала")
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)

	votes, err := rs.LatestVotes(ctx, "olya")
	require.NoError(t, err)
	require.Contains(t, votes, "obj-1")
	assert.Equal(t, "yes", votes["obj-1"].Decision)
	assert.Equal(t, "передумала", votes["obj-1"].Comment)
}

func TestSaveVoteValidation(t *testing.T) {
	rs := newTestReviewService(t)
	ctx := context.Background()

	_, err := rs.SaveVote(ctx, "nobody", "obj-1", "yes", "")
	assert.Error(t, err)

	_, err = rs.SaveVote(ctx, "olya", "obj-1", "maybe", "")
	assert.Error(t, err)

	_, err = rs.SaveVote(ctx, "olya", "", "yes", "")
	assert.Error(t, err)
}

func TestObjectVotes(t *testing.T) {
	rs := newTestReviewService(t)
	ctx := context.Background()

	_, err := rs.SaveVote(ctx, "olya", "obj-1", "yes", "")
	require.NoError(t, err)
	_, err = rs.SaveVote(ctx, "dima", "obj-1", "no", "")
	require.NoError(t, err)
	_, err = rs.SaveVote(ctx, "dima", "obj-2", "skip", "")
	require.NoError(t, err)

	votes, err := rs.ObjectVotes(ctx, "obj-1")
	require.NoError(t, err)
	assert.Len(t, votes, 2)
	assert.Equal(t, "yes", votes["olya"].Decision)
	assert.Equal(t, "no", votes["dima"].Decision)
}

func TestBoardFiltersAndVotes(t *testing.T) {
	rs := newTestReviewService(t)
	ctx := context.Background()

	objects := []*models.UnifiedObject{
		unifiedObject("obj-1", "knru", "Центральный", "невский пр, 126", "Нет у нас"),
		unifiedObject("obj-2", "nordwest", "Выборгский", "лесной пр, 20", "Совпало"),
	}

	_, err := rs.SaveVote(ctx, "olya", "obj-1", "yes", "")
	require.NoError(t, err)

	items, err := rs.Board(ctx, objects, "olya", BoardFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Voted object carries the vote.
	var withVote *BoardItem
	for _, it := range items {
		if it.ObjectKey == "obj-1" {
			withVote = it
		}
	}
	require.NotNil(t, withVote)
	require.NotNil(t, withVote.Vote)
	assert.Equal(t, "yes", withVote.Vote.Decision)

	// Unvoted filter hides it.
	items, err = rs.Board(ctx, objects, "olya", BoardFilter{OnlyUnvoted: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "obj-2", items[0].ObjectKey)

	// District filter.
	items, err = rs.Board(ctx, objects, "olya", BoardFilter{District: "Выборгский"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "obj-2", items[0].ObjectKey)
}

func TestProgress(t *testing.T) {
	rs := newTestReviewService(t)
	ctx := context.Background()

	objects := []*models.UnifiedObject{
		unifiedObject("obj-1", "knru", "", "a", ""),
		unifiedObject("obj-2", "knru", "", "b", ""),
	}

	_, err := rs.SaveVote(ctx, "test", "obj-1", "skip", "")
	require.NoError(t, err)

	voted, total, err := rs.Progress(ctx, objects, "test")
	require.NoError(t, err)
	assert.Equal(t, 1, voted)
	assert.Equal(t, 2, total)
}
