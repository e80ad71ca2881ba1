package memory

import (
	"context"
	"fmt"
	"sync"

	"ai-docview/internal/entity"
	"ai-docview/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// UserRepository keeps accounts by id with a subject index.
type UserRepository struct {
	cache *cache.Cache

	mu        sync.RWMutex
	bySubject map[string]string
}

var _ contract.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{
		cache:     cache.New(cache.NoExpiration, 0),
		bySubject: make(map[string]string),
	}
}

func (r *UserRepository) Create(ctx context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.bySubject[account.GoogleSubject]; taken {
		return fmt.Errorf("account for subject %s already exists", account.GoogleSubject)
	}
	cp := *account
	if err := r.cache.Add(account.Id, &cp, cache.NoExpiration); err != nil {
		return fmt.Errorf("create account %s: %w", account.Id, err)
	}
	r.bySubject[account.GoogleSubject] = account.Id
	return nil
}

func (r *UserRepository) Update(ctx context.Context, account *entity.Account) error {
	cp := *account
	if err := r.cache.Replace(account.Id, &cp, cache.NoExpiration); err != nil {
		return fmt.Errorf("update account %s: %w", account.Id, err)
	}
	return nil
}

func (r *UserRepository) FindOne(ctx context.Context, id string) (*entity.Account, error) {
	if x, found := r.cache.Get(id); found {
		cp := *x.(*entity.Account)
		return &cp, nil
	}
	return nil, nil
}

func (r *UserRepository) FindBySubject(ctx context.Context, subject string) (*entity.Account, error) {
	r.mu.RLock()
	id, ok := r.bySubject[subject]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.FindOne(ctx, id)
}
