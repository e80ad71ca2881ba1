package contract

import (
	"context"

	"ai-docview/internal/entity"
)

// SessionRepository persists the single local session record between runs.
// Load returns (nil, nil) when nothing is stored.
type SessionRepository interface {
	Load(ctx context.Context) (*entity.SessionRecord, error)
	Save(ctx context.Context, record *entity.SessionRecord) error
	Delete(ctx context.Context) error
}
