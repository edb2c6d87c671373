package cache

import (
	"context"
	"math"
	"testing"
	"time"

	"amplification-report/app/src/domain"
	sharederrors "amplification-report/app/src/shared/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisRunCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	c := NewRedisRunCache(server.Addr(), "", 0, time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c, server
}

func testRun(id string, ratio float64) domain.Run {
	return domain.Run{
		ID:           id,
		ProcessCount: 2,
		Template:     "output/MytestCountsMesh-part-{}",
		Measurements: []domain.Measurement{
			{Name: "CDN", Value: 20},
			{Name: "PCDN", Value: 5},
		},
		Amplification: domain.Amplification{PCDN: 5, CDN: 20, Ratio: ratio},
		CreatedAt:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPublishAndReadBack(t *testing.T) {
	t.Log("Шаг 1: публикуем run в redis")
	c, server := newTestCache(t)
	run := testRun("3f6c2b1e-8d4a-4c7e-9b2f-0a1d5e6f7a8b", 0.25)

	require.NoError(t, c.Publish(context.Background(), run))
	require.NoError(t, c.Ping(context.Background()))

	t.Log("Шаг 2: читаем по id и последний")
	byID, err := c.ByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, byID)

	latest, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, run, latest)

	t.Log("Шаг 3: ключи получают TTL")
	assert.Equal(t, time.Minute, server.TTL(runKeyPrefix+run.ID))
	assert.Equal(t, time.Minute, server.TTL(latestKey))
}

func TestLatestFollowsNewestPublish(t *testing.T) {
	c, _ := newTestCache(t)
	first := testRun("3f6c2b1e-8d4a-4c7e-9b2f-0a1d5e6f7a8b", 0.25)
	second := testRun("8a1f0c7e-2b3d-4e5f-9a6b-7c8d9e0f1a2b", 0.5)

	require.NoError(t, c.Publish(context.Background(), first))
	require.NoError(t, c.Publish(context.Background(), second))

	latest, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	recent, err := c.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.ID, recent[0].ID)
	assert.Equal(t, first.ID, recent[1].ID)
}

func TestRecentListIsCapped(t *testing.T) {
	c, server := newTestCache(t)
	run := testRun("3f6c2b1e-8d4a-4c7e-9b2f-0a1d5e6f7a8b", 0.25)

	for i := 0; i < RecentLimit+5; i++ {
		require.NoError(t, c.Publish(context.Background(), run))
	}

	items, err := server.List(recentKey)
	require.NoError(t, err)
	assert.Len(t, items, RecentLimit)
}

func TestMissingKeysMapToNotFound(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Latest(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = c.ByID(context.Background(), "3f6c2b1e-8d4a-4c7e-9b2f-0a1d5e6f7a8b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestByIDValidatesIdentifier(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.ByID(context.Background(), "latest")
	assert.ErrorIs(t, err, sharederrors.ErrInvalidRunID)
}

func TestNonFiniteValuesSurvive(t *testing.T) {
	c, _ := newTestCache(t)
	run := testRun("3f6c2b1e-8d4a-4c7e-9b2f-0a1d5e6f7a8b", math.Inf(1))
	run.Measurements = append(run.Measurements, domain.Measurement{Name: "odd", Value: math.Inf(-1)})

	require.NoError(t, c.Publish(context.Background(), run))

	got, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.True(t, math.IsInf(got.Amplification.Ratio, 1))
	assert.True(t, math.IsInf(got.Measurements[2].Value, -1))
}

func TestCorruptPayload(t *testing.T) {
	c, server := newTestCache(t)
	require.NoError(t, server.Set(latestKey, "{not json"))

	_, err := c.Latest(context.Background())
	assert.ErrorContains(t, err, "unmarshal run")
}

func TestUnavailableServer(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	c := NewRedisRunCache(server.Addr(), "", 0, time.Minute)
	defer c.Close()
	server.Close()

	err = c.Publish(context.Background(), testRun("3f6c2b1e-8d4a-4c7e-9b2f-0a1d5e6f7a8b", 1))
	assert.Error(t, err)

	_, err = c.Latest(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
