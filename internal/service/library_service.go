// FILE: internal/service/library_service.go
package service

import (
	"context"
	"errors"

	"ai-docview/internal/dto"
	"ai-docview/internal/entity"
	"ai-docview/internal/mapper"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/repository/contract"
	"ai-docview/pkg/events"

	"github.com/google/uuid"
)

var (
	ErrDocumentNotFound = errors.New("Document not found")
	ErrNotDocumentOwner = errors.New("Not authorized to access this document")
)

// ILibraryService is the document side of the mock service: it answers the
// same list/get/delete contract the real service does.
type ILibraryService interface {
	List(ctx context.Context, userId string) ([]*dto.DocumentResponse, error)
	Get(ctx context.Context, userId, id string) (*dto.DocumentResponse, error)
	Create(ctx context.Context, userId string, req *dto.CreateDocumentRequest) (*dto.DocumentResponse, error)
	Delete(ctx context.Context, userId, id string) error
}

type libraryService struct {
	documents contract.DocumentRepository
	progress  contract.ProgressRepository
	mirror    EventMirror
	mapper    *mapper.DocumentMapper
	clock     clock.Clock
	logger    logger.ILogger
}

// NewLibraryService wires the mock document store. mirror may be nil.
func NewLibraryService(
	documents contract.DocumentRepository,
	progress contract.ProgressRepository,
	mirror EventMirror,
	clk clock.Clock,
	log logger.ILogger,
) ILibraryService {
	return &libraryService{
		documents: documents,
		progress:  progress,
		mirror:    mirror,
		mapper:    mapper.NewDocumentMapper(),
		clock:     clk,
		logger:    log,
	}
}

func (s *libraryService) List(ctx context.Context, userId string) ([]*dto.DocumentResponse, error) {
	docs, err := s.documents.FindAllByOwner(ctx, userId)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		res, err := s.render(ctx, d)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, nil
}

func (s *libraryService) Get(ctx context.Context, userId, id string) (*dto.DocumentResponse, error) {
	doc, err := s.owned(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, doc)
}

// Create registers a document in the processing state. The processing
// simulator picks it up on its next tick.
func (s *libraryService) Create(ctx context.Context, userId string, req *dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	now := s.clock.Now()
	doc := &entity.OwnedDocument{
		Document: entity.Document{
			Id:        uuid.NewString(),
			Name:      req.Name,
			Status:    entity.DocumentStatusProcessing,
			CreatedAt: now,
		},
		OwnerId:   userId,
		UpdatedAt: now,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.progress.Set(ctx, doc.Id, 0); err != nil {
		s.logger.Warn("Library", "Failed to seed progress", map[string]interface{}{"document_id": doc.Id, "error": err.Error()})
	}

	s.logger.Info("Library", "Document created", map[string]interface{}{"document_id": doc.Id, "user_id": userId})
	return s.render(ctx, doc)
}

func (s *libraryService) Delete(ctx context.Context, userId, id string) error {
	if _, err := s.owned(ctx, userId, id); err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.progress.Delete(ctx, id)

	s.logger.Info("Library", "Document deleted", map[string]interface{}{"document_id": id, "user_id": userId})
	if s.mirror != nil {
		event := events.NewDocumentEvent(events.TypeDocumentDeleted, id, map[string]interface{}{"user_id": userId}, s.clock.Now())
		if err := s.mirror.Publish(ctx, event); err != nil {
			s.logger.Warn("Library", "Failed to publish delete event", map[string]interface{}{"document_id": id, "error": err.Error()})
		}
	}
	return nil
}

func (s *libraryService) owned(ctx context.Context, userId, id string) (*entity.OwnedDocument, error) {
	doc, err := s.documents.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.OwnerId != userId {
		return nil, ErrNotDocumentOwner
	}
	return doc, nil
}

// render fills in live progress: the stored value while processing, 100
// once ready.
func (s *libraryService) render(ctx context.Context, doc *entity.OwnedDocument) (*dto.DocumentResponse, error) {
	d := doc.Document
	switch d.Status {
	case entity.DocumentStatusProcessing:
		p, ok, err := s.progress.Get(ctx, d.Id)
		if err != nil {
			return nil, err
		}
		d.Progress = 0
		if ok {
			d.Progress = p
		}
	case entity.DocumentStatusReady:
		d.Progress = 100
	default:
		d.Progress = 0
	}
	return s.mapper.ToDTO(&d), nil
}
