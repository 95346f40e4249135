package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/votehubph/backend/internal/models"
)

// RedisStore keeps one selection per user under "browse_selected_location:<user>".
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, userID string) *RedisStore {
	return &RedisStore{rdb: rdb, key: StorageKey + ":" + userID}
}

func (r *RedisStore) Load(ctx context.Context) (models.LocationSelection, bool, error) {
	b, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.LocationSelection{}, false, nil
	}
	if err != nil {
		return models.LocationSelection{}, false, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	var sel models.LocationSelection
	if err := json.Unmarshal(b, &sel); err != nil {
		return models.LocationSelection{}, false, fmt.Errorf("parse %s: %w", r.key, err)
	}
	return sel, !sel.IsZero(), nil
}

func (r *RedisStore) Save(ctx context.Context, sel models.LocationSelection) error {
	b, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
