package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threatforge/detection-platform/internal/models"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, ttl, nil), mr
}

func TestRedisRoundtrip(t *testing.T) {
	c, _ := newTestRedis(t, time.Hour)
	ctx := context.Background()
	key := Key{DetectionID: "d1", Version: "1.0.0", Platform: models.PlatformSIEM}

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	want := sampleResult("d1")
	want.Issues = []models.ValidationIssue{
		{Code: "SIEM_NO_TIME_BOUNDS", Message: "search has no time bounds", Severity: models.SeverityWarning},
	}
	c.Put(ctx, key, want)

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, want.DetectionID, got.DetectionID)
	assert.Equal(t, want.Issues, got.Issues)
	assert.Equal(t, want.QualityScore, got.QualityScore)
}

func TestRedisEntriesExpire(t *testing.T) {
	c, mr := newTestRedis(t, time.Minute)
	ctx := context.Background()
	key := Key{DetectionID: "d1", Version: "1.0.0", Platform: models.PlatformSIEM}

	c.Put(ctx, key, sampleResult("d1"))
	_, ok := c.Get(ctx, key)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}

func TestRedisCorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestRedis(t, time.Hour)
	ctx := context.Background()
	key := Key{DetectionID: "d1", Version: "1.0.0", Platform: models.PlatformSIEM}

	require.NoError(t, mr.Set(key.String(), "{not json"))

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}

func TestRedisDownDegradesToMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := NewRedis(client, time.Hour, nil)
	ctx := context.Background()
	key := Key{DetectionID: "d1", Version: "1.0.0", Platform: models.PlatformSIEM}

	mr.Close()

	// Writes and reads fail silently; callers just revalidate.
	c.Put(ctx, key, sampleResult("d1"))
	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}
