package memory

import (
	"context"
	"time"

	"ai-docview/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type ProgressRepository struct {
	cache *cache.Cache
}

var _ contract.ProgressRepository = (*ProgressRepository)(nil)

func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{cache: cache.New(time.Hour, 10*time.Minute)}
}

func (r *ProgressRepository) Set(ctx context.Context, documentId string, progress int) error {
	r.cache.Set("progress:"+documentId, progress, cache.DefaultExpiration)
	return nil
}

func (r *ProgressRepository) Get(ctx context.Context, documentId string) (int, bool, error) {
	if x, found := r.cache.Get("progress:" + documentId); found {
		return x.(int), true, nil
	}
	return 0, false, nil
}

func (r *ProgressRepository) Delete(ctx context.Context, documentId string) error {
	r.cache.Delete("progress:" + documentId)
	return nil
}
