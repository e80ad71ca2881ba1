package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"ai-docview/internal/apperror"
	"ai-docview/internal/dto"
	"ai-docview/internal/entity"
	"ai-docview/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDocumentAPI struct {
	mock.Mock
}

func (m *mockDocumentAPI) GetDocument(ctx context.Context, token, id string) (*dto.DocumentResponse, error) {
	args := m.Called(ctx, token, id)
	res, _ := args.Get(0).(*dto.DocumentResponse)
	return res, args.Error(1)
}

func (m *mockDocumentAPI) ListDocuments(ctx context.Context, token string) ([]dto.DocumentResponse, error) {
	args := m.Called(ctx, token)
	res, _ := args.Get(0).([]dto.DocumentResponse)
	return res, args.Error(1)
}

func (m *mockDocumentAPI) DeleteDocument(ctx context.Context, token, id string) error {
	return m.Called(ctx, token, id).Error(0)
}

type staticCredential string

func (s staticCredential) BackendToken() (string, bool) {
	return string(s), s != ""
}

func intPtr(v int) *int { return &v }

func TestFetchWithoutCredentialSkipsNetwork(t *testing.T) {
	api := &mockDocumentAPI{}
	svc := NewDocumentService(api, staticCredential(""), logger.NewNopLogger())

	_, ok := svc.GetBearerCredential()
	assert.False(t, ok)

	_, err := svc.Fetch(context.Background(), "doc-1")
	assert.ErrorIs(t, err, apperror.ErrAuthRequired)

	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, apperror.ErrAuthRequired)

	api.AssertNotCalled(t, "GetDocument", mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "ListDocuments", mock.Anything, mock.Anything)
}

func TestFetchMapsProcessingDocument(t *testing.T) {
	api := &mockDocumentAPI{}
	api.On("GetDocument", mock.Anything, "T1", "doc-1").Return(&dto.DocumentResponse{
		Id:       "doc-1",
		Status:   "processing",
		MindTree: json.RawMessage(`{}`),
	}, nil)
	svc := NewDocumentService(api, staticCredential("T1"), logger.NewNopLogger())

	doc, err := svc.Fetch(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusProcessing, doc.Status)
	assert.Equal(t, 0, doc.Progress, "missing progress reads as 0")
	assert.Nil(t, doc.MindTree)
}

func TestFetchToleratesMalformedMindTree(t *testing.T) {
	api := &mockDocumentAPI{}
	api.On("GetDocument", mock.Anything, "T1", "doc-1").Return(&dto.DocumentResponse{
		Id:       "doc-1",
		Status:   "processing",
		Progress: intPtr(40),
		MindTree: json.RawMessage(`[]`),
	}, nil).Once()
	api.On("GetDocument", mock.Anything, "T1", "doc-1").Return(&dto.DocumentResponse{
		Id:       "doc-1",
		Status:   "ready",
		Progress: intPtr(100),
		Topics:   []string{"A", "B"},
		MindTree: json.RawMessage(`"pending"`),
	}, nil).Once()
	svc := NewDocumentService(api, staticCredential("T1"), logger.NewNopLogger())

	doc, err := svc.FetchDocument(context.Background(), "T1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusProcessing, doc.Status)
	assert.Equal(t, 40, doc.Progress)

	doc, err = svc.FetchDocument(context.Background(), "T1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusReady, doc.Status)
	assert.Equal(t, []string{"A", "B"}, doc.Topics)
	assert.Nil(t, doc.MindTree)
}

func TestFetchNon2xxIsFetchFailure(t *testing.T) {
	api := &mockDocumentAPI{}
	api.On("GetDocument", mock.Anything, "T1", "doc-1").
		Return(nil, &apperror.StatusError{StatusCode: http.StatusNotFound})
	svc := NewDocumentService(api, staticCredential("T1"), logger.NewNopLogger())

	_, err := svc.FetchDocument(context.Background(), "T1", "doc-1")

	assert.ErrorIs(t, err, apperror.ErrFetchFailed)
	assert.True(t, apperror.IsNotFound(err))
	var failure *apperror.FetchFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "doc-1", failure.DocumentId)
}

func TestDeleteOutcomes(t *testing.T) {
	api := &mockDocumentAPI{}
	api.On("DeleteDocument", mock.Anything, "T1", "ok").Return(nil)
	api.On("DeleteDocument", mock.Anything, "T1", "denied").
		Return(&apperror.StatusError{StatusCode: http.StatusForbidden})
	svc := NewDocumentService(api, staticCredential("T1"), logger.NewNopLogger())

	assert.NoError(t, svc.Delete(context.Background(), "ok"))

	err := svc.Delete(context.Background(), "denied")
	assert.ErrorIs(t, err, apperror.ErrDeleteFailed)
	assert.Equal(t, http.StatusForbidden, apperror.StatusCode(err))
}

func TestDeleteWithoutCredential(t *testing.T) {
	api := &mockDocumentAPI{}
	svc := NewDocumentService(api, staticCredential(""), logger.NewNopLogger())

	err := svc.Delete(context.Background(), "doc-1")
	assert.ErrorIs(t, err, apperror.ErrDeleteFailed)
	assert.ErrorIs(t, err, apperror.ErrAuthRequired)
	api.AssertNotCalled(t, "DeleteDocument", mock.Anything, mock.Anything, mock.Anything)
}

func TestListKeepsServiceOrder(t *testing.T) {
	api := &mockDocumentAPI{}
	api.On("ListDocuments", mock.Anything, "T1").Return([]dto.DocumentResponse{
		{Id: "new", Status: "processing", Progress: intPtr(40)},
		{Id: "broken", Status: "ready", MindTree: json.RawMessage(`[1,2]`)},
		{Id: "old", Status: "ready"},
	}, nil)
	svc := NewDocumentService(api, staticCredential("T1"), logger.NewNopLogger())

	docs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "new", docs[0].Id)
	assert.Equal(t, 40, docs[0].Progress)
	assert.Equal(t, "old", docs[1].Id)
}
