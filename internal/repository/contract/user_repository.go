package contract

import (
	"context"

	"ai-docview/internal/entity"
)

// UserRepository stores mock service accounts.
type UserRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	Update(ctx context.Context, account *entity.Account) error
	FindOne(ctx context.Context, id string) (*entity.Account, error)
	FindBySubject(ctx context.Context, subject string) (*entity.Account, error)
}
