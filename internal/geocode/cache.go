package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/votehubph/backend/internal/location"
	"github.com/votehubph/backend/internal/logger"
	"github.com/votehubph/backend/internal/metrics"
)

// Cached memoizes a Source in Redis. Coordinates are rounded to three
// decimals (about 100m) for the key.
type Cached struct {
	next Source
	rdb  redis.Cmdable
	ttl  time.Duration
}

func NewCached(next Source, rdb redis.Cmdable, ttl time.Duration) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl}
}

func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("revgeo:%.3f:%.3f", lat, lon)
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Reverse(ctx context.Context, lat, lon float64) (location.Hints, error) {
	key := cacheKey(lat, lon)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var h location.Hints
		if json.Unmarshal(raw, &h) == nil {
			metrics.GeocodeCacheHitsTotal.Inc()
			return h, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.L().Warn("geocode_cache_error", "key", key, "err", err)
	}
	metrics.GeocodeCacheMissesTotal.Inc()

	h, err := c.next.Reverse(ctx, lat, lon)
	if err != nil {
		return h, err
	}
	if buf, mErr := json.Marshal(h); mErr == nil {
		if sErr := c.rdb.Set(ctx, key, buf, c.ttl).Err(); sErr != nil {
			logger.L().Warn("geocode_cache_error", "key", key, "err", sErr)
		}
	}
	return h, nil
}
