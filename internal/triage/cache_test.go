package triage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*AssessmentCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAssessmentCache(client, ttl), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	assessment := &Assessment{
		Level:               LevelHigh,
		Rationale:           "urgent",
		Recommendation:      "go to the ER",
		CandidateConditions: []string{"Fracture"},
		Source:              "rules",
	}

	assert.Nil(t, cache.Get(ctx, "broken arm"), "expected miss on empty cache")
	require.NoError(t, cache.Put(ctx, "broken arm", assessment))

	got := cache.Get(ctx, "broken arm")
	require.NotNil(t, got, "expected cache hit")
	assert.Equal(t, LevelHigh, got.Level)
	assert.Equal(t, "urgent", got.Rationale)
	assert.Equal(t, []string{"Fracture"}, got.CandidateConditions)
}

func TestCacheNormalizesKey(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "Broken   Arm", &Assessment{Level: LevelHigh}))
	assert.NotNil(t, cache.Get(ctx, "broken arm"),
		"case and whitespace differences should share a cache entry")
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t, time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "fever", &Assessment{Level: LevelMedium}))
	mr.FastForward(2 * time.Second)
	assert.Nil(t, cache.Get(ctx, "fever"), "expected entry to expire")
}

func TestNilCacheIsNoOp(t *testing.T) {
	var cache *AssessmentCache
	ctx := context.Background()

	assert.Nil(t, cache.Get(ctx, "anything"), "nil cache must miss")
	assert.NoError(t, cache.Put(ctx, "anything", &Assessment{}), "nil cache put should be a no-op")
}
