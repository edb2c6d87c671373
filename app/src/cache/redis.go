package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/shared/constants"

	"github.com/redis/go-redis/v9"
)

const (
	runKeyPrefix = "amplify:run:"
	latestKey    = "amplify:latest"
	recentKey    = "amplify:recent"

	// RecentLimit caps the amplify:recent list.
	RecentLimit = 100
)

// RedisRunCache keeps published runs in Redis as JSON documents.
type RedisRunCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRunCache(addr, password string, db int, ttl time.Duration) *RedisRunCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRunCache{client: client, ttl: ttl}
}

func (c *RedisRunCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisRunCache) Close() error {
	return c.client.Close()
}

// Publish stores run under its own key, replaces the latest pointer and
// prepends it to the capped recent list.
func (c *RedisRunCache) Publish(ctx context.Context, run domain.Run) error {
	payload, err := json.Marshal(toPayload(run))
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, runKeyPrefix+run.ID, payload, c.ttl)
	pipe.Set(ctx, latestKey, payload, c.ttl)
	pipe.LPush(ctx, recentKey, payload)
	pipe.LTrim(ctx, recentKey, 0, RecentLimit-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis exec: %w", err)
	}
	return nil
}

func (c *RedisRunCache) ByID(ctx context.Context, id string) (domain.Run, error) {
	runID, err := constants.ParseRunID(id)
	if err != nil {
		return domain.Run{}, err
	}
	return c.load(ctx, runKeyPrefix+runID)
}

func (c *RedisRunCache) Latest(ctx context.Context) (domain.Run, error) {
	return c.load(ctx, latestKey)
}

// Recent returns up to limit runs, newest first.
func (c *RedisRunCache) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 || limit > RecentLimit {
		limit = RecentLimit
	}

	items, err := c.client.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	runs := make([]domain.Run, 0, len(items))
	for _, item := range items {
		run, err := decode([]byte(item))
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (c *RedisRunCache) load(ctx context.Context, key string) (domain.Run, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Run{}, domain.ErrNotFound
		}
		return domain.Run{}, fmt.Errorf("redis get: %w", err)
	}
	return decode(data)
}

// Floats travel as strings so inf and nan survive the round trip.
type measurementPayload struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type runPayload struct {
	ID           string               `json:"id"`
	ProcessCount int                  `json:"process_count"`
	Template     string               `json:"template"`
	Measurements []measurementPayload `json:"measurements"`
	PCDN         string               `json:"pcdn"`
	CDN          string               `json:"cdn"`
	Ratio        string               `json:"ratio"`
	CreatedAt    string               `json:"created_at"`
}

func toPayload(run domain.Run) runPayload {
	measurements := make([]measurementPayload, 0, len(run.Measurements))
	for _, m := range run.Measurements {
		measurements = append(measurements, measurementPayload{Name: m.Name, Value: formatFloat(m.Value)})
	}

	return runPayload{
		ID:           run.ID,
		ProcessCount: run.ProcessCount,
		Template:     run.Template,
		Measurements: measurements,
		PCDN:         formatFloat(run.Amplification.PCDN),
		CDN:          formatFloat(run.Amplification.CDN),
		Ratio:        formatFloat(run.Amplification.Ratio),
		CreatedAt:    run.CreatedAt.UTC().Format(constants.TimeFormat),
	}
}

func decode(data []byte) (domain.Run, error) {
	var p runPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Run{}, fmt.Errorf("unmarshal run: %w", err)
	}

	run := domain.Run{
		ID:           p.ID,
		ProcessCount: p.ProcessCount,
		Template:     p.Template,
		Measurements: make([]domain.Measurement, 0, len(p.Measurements)),
	}

	var err error
	for _, m := range p.Measurements {
		value, parseErr := strconv.ParseFloat(m.Value, 64)
		if parseErr != nil {
			return domain.Run{}, fmt.Errorf("decode measurement %q: %w", m.Name, parseErr)
		}
		run.Measurements = append(run.Measurements, domain.Measurement{Name: m.Name, Value: value})
	}

	if run.Amplification.PCDN, err = strconv.ParseFloat(p.PCDN, 64); err != nil {
		return domain.Run{}, fmt.Errorf("decode pcdn: %w", err)
	}
	if run.Amplification.CDN, err = strconv.ParseFloat(p.CDN, 64); err != nil {
		return domain.Run{}, fmt.Errorf("decode cdn: %w", err)
	}
	if run.Amplification.Ratio, err = strconv.ParseFloat(p.Ratio, 64); err != nil {
		return domain.Run{}, fmt.Errorf("decode ratio: %w", err)
	}
	if run.CreatedAt, err = time.Parse(constants.TimeFormat, p.CreatedAt); err != nil {
		return domain.Run{}, fmt.Errorf("decode created_at: %w", err)
	}

	return run, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var _ domain.RunCache = (*RedisRunCache)(nil)
