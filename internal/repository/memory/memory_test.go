package memory

import (
	"context"
	"testing"
	"time"

	"ai-docview/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositoryRoundTripIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	none, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	record := &entity.SessionRecord{IdToken: "id", BackendToken: "T1", User: entity.User{"id": "u1"}}
	require.NoError(t, repo.Save(ctx, record))

	record.User["id"] = "mutated"

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", loaded.User.Id())

	loaded.User["id"] = "mutated again"
	again, _ := repo.Load(ctx)
	assert.Equal(t, "u1", again.User.Id())

	require.NoError(t, repo.Delete(ctx))
	gone, _ := repo.Load(ctx)
	assert.Nil(t, gone)
}

func TestDocumentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository()
	now := time.Now()

	older := &entity.OwnedDocument{OwnerId: "u1", Document: entity.Document{Id: "a", Status: entity.DocumentStatusReady, CreatedAt: now.Add(-time.Hour)}}
	newer := &entity.OwnedDocument{OwnerId: "u1", Document: entity.Document{Id: "b", Status: entity.DocumentStatusProcessing, CreatedAt: now}}
	other := &entity.OwnedDocument{OwnerId: "u2", Document: entity.Document{Id: "c", Status: entity.DocumentStatusProcessing, CreatedAt: now}}

	for _, d := range []*entity.OwnedDocument{older, newer, other} {
		require.NoError(t, repo.Create(ctx, d))
	}
	assert.Error(t, repo.Create(ctx, older), "duplicate id")

	mine, err := repo.FindAllByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "b", mine[0].Id)
	assert.Equal(t, "a", mine[1].Id)

	processing, err := repo.FindAllProcessing(ctx)
	require.NoError(t, err)
	assert.Len(t, processing, 2)

	newer.Status = entity.DocumentStatusReady
	require.NoError(t, repo.Update(ctx, newer))
	found, err := repo.FindOne(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusReady, found.Status)

	require.NoError(t, repo.Delete(ctx, "b"))
	missing, err := repo.FindOne(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Error(t, repo.Update(ctx, newer), "update of deleted document")
}

func TestProgressRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository()

	_, ok, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "d1", 45))
	p, ok, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 45, p)

	require.NoError(t, repo.Delete(ctx, "d1"))
	_, ok, _ = repo.Get(ctx, "d1")
	assert.False(t, ok)
}

func TestUserRepositorySubjectIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	missing, err := repo.FindBySubject(ctx, "google-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	account := &entity.Account{Id: "u1", GoogleSubject: "google-1", Email: "ada@example.com"}
	require.NoError(t, repo.Create(ctx, account))
	assert.Error(t, repo.Create(ctx, &entity.Account{Id: "u2", GoogleSubject: "google-1"}))

	found, err := repo.FindBySubject(ctx, "google-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.Id)

	found.Email = "changed@example.com"
	require.NoError(t, repo.Update(ctx, found))
	again, _ := repo.FindOne(ctx, "u1")
	assert.Equal(t, "changed@example.com", again.Email)
}
