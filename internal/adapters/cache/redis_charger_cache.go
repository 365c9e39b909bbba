package cache

import (
	"context"
	"encoding/json"
	"errors"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/ports"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisChargerCache wraps a ChargerFinder and memoizes lookups in Redis.
// Both hits and "nothing found" answers are cached; provider errors never are.
// A cache hit skips the wrapped finder entirely, including its courtesy delay.
type RedisChargerCache struct {
	client redis.Cmdable
	next   ports.ChargerFinder
	ttl    time.Duration
	prefix string
}

func NewRedisChargerCache(client redis.Cmdable, next ports.ChargerFinder, ttl time.Duration) *RedisChargerCache {
	return &RedisChargerCache{client: client, next: next, ttl: ttl, prefix: "charger:"}
}

type chargerEntry struct {
	Found bool    `json:"found"`
	Lat   float64 `json:"lat,omitempty"`
	Lon   float64 `json:"lon,omitempty"`
	Label string  `json:"label,omitempty"`
}

// Key rounds the search point to four decimals (about 11 m).
func (c *RedisChargerCache) Key(lat, lon float64, radiusMeters int) string {
	return fmt.Sprintf("%s%.4f:%.4f:%d", c.prefix, lat, lon, radiusMeters)
}

func (c *RedisChargerCache) FindChargingStation(
	ctx context.Context,
	lat, lon float64,
	radiusMeters int,
) (*domain.Waypoint, error) {
	key := c.Key(lat, lon, radiusMeters)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var e chargerEntry
		if jerr := json.Unmarshal(raw, &e); jerr == nil {
			if !e.Found {
				return nil, nil
			}
			return &domain.Waypoint{
				Coordinate: domain.Coordinate{Lat: e.Lat, Lon: e.Lon},
				Label:      e.Label,
				Kind:       domain.WaypointCharger,
			}, nil
		}
		slog.WarnContext(ctx, "charger cache entry corrupt", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		slog.WarnContext(ctx, "charger cache read failed", "key", key, "err", err)
	}

	wp, err := c.next.FindChargingStation(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, err
	}

	entry := chargerEntry{}
	if wp != nil {
		entry = chargerEntry{Found: true, Lat: wp.Coordinate.Lat, Lon: wp.Coordinate.Lon, Label: wp.Label}
	}
	payload, err := json.Marshal(entry)
	if err == nil {
		err = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		slog.WarnContext(ctx, "charger cache write failed", "key", key, "err", err)
	}

	return wp, nil
}
