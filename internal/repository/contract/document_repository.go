package contract

import (
	"context"

	"ai-docview/internal/entity"
)

// DocumentRepository backs the mock document service.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.OwnedDocument) error
	Update(ctx context.Context, doc *entity.OwnedDocument) error
	Delete(ctx context.Context, id string) error
	FindOne(ctx context.Context, id string) (*entity.OwnedDocument, error)
	FindAllByOwner(ctx context.Context, ownerId string) ([]*entity.OwnedDocument, error)
	FindAllProcessing(ctx context.Context) ([]*entity.OwnedDocument, error)
}

// ProgressRepository holds the live progress of documents that are still
// processing, keyed "progress:{id}".
type ProgressRepository interface {
	Set(ctx context.Context, documentId string, progress int) error
	Get(ctx context.Context, documentId string) (int, bool, error)
	Delete(ctx context.Context, documentId string) error
}
