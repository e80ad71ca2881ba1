package memory

import (
	"context"
	"time"

	"ai-docview/internal/entity"
	"ai-docview/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

const sessionKey = "session"

type SessionRepository struct {
	cache *cache.Cache
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository() *SessionRepository {
	// Sessions live for a day at most, expired items are purged every 10 minutes
	c := cache.New(24*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Load(ctx context.Context) (*entity.SessionRecord, error) {
	if x, found := r.cache.Get(sessionKey); found {
		record := x.(entity.SessionRecord).Clone()
		return &record, nil
	}
	return nil, nil
}

func (r *SessionRepository) Save(ctx context.Context, record *entity.SessionRecord) error {
	r.cache.Set(sessionKey, record.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context) error {
	r.cache.Delete(sessionKey)
	return nil
}
