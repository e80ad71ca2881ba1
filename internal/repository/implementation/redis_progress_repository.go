package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-docview/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// progressTTL bounds how long a stale progress key survives a crashed
// processor.
const progressTTL = time.Hour

type RedisProgressRepository struct {
	rdb *redis.Client
}

var _ contract.ProgressRepository = (*RedisProgressRepository)(nil)

func NewRedisProgressRepository(rdb *redis.Client) *RedisProgressRepository {
	return &RedisProgressRepository{rdb: rdb}
}

func progressKey(documentId string) string {
	return "progress:" + documentId
}

func (r *RedisProgressRepository) Set(ctx context.Context, documentId string, progress int) error {
	return r.rdb.Set(ctx, progressKey(documentId), progress, progressTTL).Err()
}

func (r *RedisProgressRepository) Get(ctx context.Context, documentId string) (int, bool, error) {
	p, err := r.rdb.Get(ctx, progressKey(documentId)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get progress %s: %w", documentId, err)
	}
	return p, true, nil
}

func (r *RedisProgressRepository) Delete(ctx context.Context, documentId string) error {
	return r.rdb.Del(ctx, progressKey(documentId)).Err()
}
