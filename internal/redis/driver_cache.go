package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"courier-dispatch/internal/common"
)

type CachedDriverLocation struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// DriverLocationCache keeps the last heartbeat position per driver with a TTL,
// so hot location reads skip postgres.
type DriverLocationCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewDriverLocationCache(client *goredis.Client, ttlSeconds int) *DriverLocationCache {
	return &DriverLocationCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

func (c *DriverLocationCache) Set(ctx context.Context, driverID string, loc common.Location) error {
	data := CachedDriverLocation{
		Lat:       loc.Lat,
		Lng:       loc.Lng,
		Timestamp: time.Now(),
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal driver location: %w", err)
	}
	return c.client.Set(ctx, driverLocationKey(driverID), bytes, c.ttl).Err()
}

func (c *DriverLocationCache) Get(ctx context.Context, driverID string) (*CachedDriverLocation, error) {
	bytes, err := c.client.Get(ctx, driverLocationKey(driverID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get driver location: %w", err)
	}

	var loc CachedDriverLocation
	if err := json.Unmarshal(bytes, &loc); err != nil {
		return nil, fmt.Errorf("unmarshal driver location: %w", err)
	}
	return &loc, nil
}

func driverLocationKey(driverID string) string {
	return fmt.Sprintf("driver:location:%s", driverID)
}
