package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "skycast:favorites"

// RedisPersister keeps the favorites list as one JSON array under a single key.
// The key never expires.
type RedisPersister struct {
	client *redis.Client
	key    string
}

// NewRedisPersister constructs a RedisPersister using the default key.
func NewRedisPersister(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client, key: defaultRedisKey}
}

// ConnectRedis parses redisURL, creates a client, and verifies connectivity with a ping.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// Load returns the stored list, or an empty list when nothing was saved yet.
func (p *RedisPersister) Load(ctx context.Context) ([]City, error) {
	val, err := p.client.Get(ctx, p.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []City{}, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", p.key, err)
	}

	var cities []City
	if err := json.Unmarshal(val, &cities); err != nil {
		return nil, fmt.Errorf("unmarshaling favorites from %s: %w", p.key, err)
	}
	return cities, nil
}

// Save overwrites the stored list.
func (p *RedisPersister) Save(ctx context.Context, cities []City) error {
	if cities == nil {
		cities = []City{}
	}

	b, err := json.Marshal(cities)
	if err != nil {
		return fmt.Errorf("marshaling favorites: %w", err)
	}

	if err := p.client.Set(ctx, p.key, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", p.key, err)
	}
	return nil
}

// Ping checks redis connectivity.
func (p *RedisPersister) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
