// FILE: internal/service/document_service.go
package service

import (
	"context"
	"errors"

	"ai-docview/internal/apperror"
	"ai-docview/internal/dto"
	"ai-docview/internal/entity"
	"ai-docview/internal/mapper"
	"ai-docview/internal/pkg/logger"
)

const documentModule = "DocumentService"

// DocumentAPI is the protected half of the remote contract. *docapi.Client
// implements it.
type DocumentAPI interface {
	GetDocument(ctx context.Context, token, id string) (*dto.DocumentResponse, error)
	ListDocuments(ctx context.Context, token string) ([]dto.DocumentResponse, error)
	DeleteDocument(ctx context.Context, token, id string) error
}

// CredentialSource yields the backend token of the current session.
// *session.Context implements it.
type CredentialSource interface {
	BackendToken() (string, bool)
}

type IDocumentService interface {
	GetBearerCredential() (string, bool)
	Fetch(ctx context.Context, id string) (*entity.Document, error)
	FetchDocument(ctx context.Context, token, id string) (*entity.Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.Document, error)
}

type documentService struct {
	api         DocumentAPI
	credentials CredentialSource
	mapper      *mapper.DocumentMapper
	logger      logger.ILogger
}

func NewDocumentService(api DocumentAPI, credentials CredentialSource, log logger.ILogger) IDocumentService {
	return &documentService{
		api:         api,
		credentials: credentials,
		mapper:      mapper.NewDocumentMapper(),
		logger:      log,
	}
}

func (s *documentService) GetBearerCredential() (string, bool) {
	return s.credentials.BackendToken()
}

func (s *documentService) Fetch(ctx context.Context, id string) (*entity.Document, error) {
	token, ok := s.GetBearerCredential()
	if !ok {
		return nil, apperror.ErrAuthRequired
	}
	return s.FetchDocument(ctx, token, id)
}

// FetchDocument performs one authorized GET with an explicit token. The poll
// loop uses it so that every request carries the credential it was issued
// under.
func (s *documentService) FetchDocument(ctx context.Context, token, id string) (*entity.Document, error) {
	if token == "" {
		return nil, apperror.ErrAuthRequired
	}

	res, err := s.api.GetDocument(ctx, token, id)
	if err != nil {
		if errors.Is(err, apperror.ErrAuthRequired) {
			return nil, err
		}
		s.logger.Warn(documentModule, "Document fetch failed", map[string]interface{}{
			"document_id": id,
			"status":      apperror.StatusCode(err),
			"error":       err.Error(),
		})
		return nil, &apperror.FetchFailure{DocumentId: id, Cause: err}
	}

	doc, err := s.mapper.ToEntity(res)
	if err != nil {
		s.logger.Warn(documentModule, "Dropping malformed mind tree", map[string]interface{}{
			"document_id": id,
			"error":       err.Error(),
		})
	}
	if doc == nil {
		return nil, &apperror.FetchFailure{DocumentId: id, Cause: errors.New("empty response body")}
	}
	if doc.Id == "" {
		doc.Id = id
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	token, ok := s.GetBearerCredential()
	if !ok {
		return &apperror.DeleteFailure{DocumentId: id, Cause: apperror.ErrAuthRequired}
	}

	if err := s.api.DeleteDocument(ctx, token, id); err != nil {
		s.logger.Error(documentModule, "Document delete failed", map[string]interface{}{
			"document_id": id,
			"status":      apperror.StatusCode(err),
			"error":       err.Error(),
		})
		return &apperror.DeleteFailure{DocumentId: id, Cause: err}
	}

	s.logger.Info(documentModule, "Document deleted", map[string]interface{}{"document_id": id})
	return nil
}

// List returns the caller's documents in the order the service sends them
// (newest first).
func (s *documentService) List(ctx context.Context) ([]*entity.Document, error) {
	token, ok := s.GetBearerCredential()
	if !ok {
		return nil, apperror.ErrAuthRequired
	}

	items, err := s.api.ListDocuments(ctx, token)
	if err != nil {
		return nil, err
	}

	result := make([]*entity.Document, 0, len(items))
	for i := range items {
		doc, err := s.mapper.ToEntity(&items[i])
		if err != nil {
			s.logger.Warn(documentModule, "Dropping malformed mind tree", map[string]interface{}{
				"document_id": items[i].Id,
				"error":       err.Error(),
			})
		}
		result = append(result, doc)
	}
	return result, nil
}
