package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ai-docview/internal/entity"
	"ai-docview/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const defaultSessionKey = "docview:session"

// RedisSessionRepository shares one session between every docview process
// pointed at the same Redis.
type RedisSessionRepository struct {
	rdb *redis.Client
	key string
}

var _ contract.SessionRepository = (*RedisSessionRepository)(nil)

func NewRedisSessionRepository(rdb *redis.Client, key string) *RedisSessionRepository {
	if key == "" {
		key = defaultSessionKey
	}
	return &RedisSessionRepository{rdb: rdb, key: key}
}

func (r *RedisSessionRepository) Load(ctx context.Context) (*entity.SessionRecord, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	var record entity.SessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &record, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, record *entity.SessionRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}
