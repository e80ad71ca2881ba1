package service

import (
	"context"
	"testing"
	"time"

	"ai-docview/internal/dto"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/repository/memory"
	"ai-docview/pkg/events"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthLoginCreatesThenReusesAccount(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewUserRepository(), "secret", clock.Fake(testEpoch), logger.NewNopLogger())
	idToken := providerToken(t, "google-123")

	first, err := svc.Login(ctx, &dto.LoginRequest{IdToken: idToken})
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, "ada@example.com", first.User["email"])
	assert.Equal(t, "https://img/ada.png", first.User["image"])

	second, err := svc.Login(ctx, &dto.LoginRequest{IdToken: idToken})
	require.NoError(t, err)
	assert.Equal(t, first.User["id"], second.User["id"])

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(second.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return testEpoch }))
	require.NoError(t, err)
	assert.Equal(t, first.User["id"], claims["sub"])
}

func TestAuthLoginRejectsBadTokens(t *testing.T) {
	svc := NewAuthService(memory.NewUserRepository(), "secret", clock.Fake(testEpoch.Add(2*time.Hour)), logger.NewNopLogger())

	_, err := svc.Login(context.Background(), &dto.LoginRequest{IdToken: "not-a-jwt"})
	assert.ErrorIs(t, err, ErrInvalidGoogleToken)

	_, err = svc.Login(context.Background(), &dto.LoginRequest{IdToken: providerToken(t, "google-123")})
	assert.ErrorIs(t, err, ErrInvalidGoogleToken, "provider token expired an hour ago")
}

type libraryFixture struct {
	library    ILibraryService
	processing IProcessingService
	progress   *memory.ProgressRepository
	clock      *clock.FakeClock
	mirror     *recordingMirror
}

func newLibraryFixture() libraryFixture {
	docs := memory.NewDocumentRepository()
	progress := memory.NewProgressRepository()
	clk := clock.Fake(testEpoch)
	mirror := &recordingMirror{}
	return libraryFixture{
		library:    NewLibraryService(docs, progress, mirror, clk, logger.NewNopLogger()),
		processing: NewProcessingService(docs, progress, mirror, 40, time.Second, clk, logger.NewNopLogger()),
		progress:   progress,
		clock:      clk,
		mirror:     mirror,
	}
}

func TestLibraryOwnershipChecks(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture()

	created, err := f.library.Create(ctx, "u1", &dto.CreateDocumentRequest{Name: "Biology.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "processing", created.Status)

	_, err = f.library.Get(ctx, "u1", "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	_, err = f.library.Get(ctx, "u2", created.Id)
	assert.ErrorIs(t, err, ErrNotDocumentOwner)

	assert.ErrorIs(t, f.library.Delete(ctx, "u2", created.Id), ErrNotDocumentOwner)
	require.NoError(t, f.library.Delete(ctx, "u1", created.Id))
	_, err = f.library.Get(ctx, "u1", created.Id)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	require.Len(t, f.mirror.events, 1)
	assert.Equal(t, events.TypeDocumentDeleted, f.mirror.events[0].EventType())
}

func TestLibraryListNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture()

	older, _ := f.library.Create(ctx, "u1", &dto.CreateDocumentRequest{Name: "old.pdf"})
	f.clock.Advance(time.Minute)
	newer, _ := f.library.Create(ctx, "u1", &dto.CreateDocumentRequest{Name: "new.pdf"})
	f.library.Create(ctx, "u2", &dto.CreateDocumentRequest{Name: "other.pdf"})

	list, err := f.library.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.Id, list[0].Id)
	assert.Equal(t, older.Id, list[1].Id)
}

func TestProcessingAdvancesThenFinalizes(t *testing.T) {
	ctx := context.Background()
	f := newLibraryFixture()
	doc, _ := f.library.Create(ctx, "u1", &dto.CreateDocumentRequest{Name: "Cell Biology.pdf"})

	require.NoError(t, f.processing.Step(ctx))
	got, err := f.library.Get(ctx, "u1", doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "processing", got.Status)
	assert.Equal(t, 40, *got.Progress)
	assert.JSONEq(t, `{}`, string(got.MindTree))

	require.NoError(t, f.processing.Step(ctx))
	require.NoError(t, f.processing.Step(ctx))

	got, err = f.library.Get(ctx, "u1", doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "ready", got.Status)
	assert.Equal(t, 100, *got.Progress)
	assert.Contains(t, got.Topics, "Introduction to Cell Biology")
	assert.Len(t, got.PredictedQuestions, 3)
	assert.NotEqual(t, `{}`, string(got.MindTree))

	_, found, _ := f.progress.Get(ctx, doc.Id)
	assert.False(t, found, "progress key removed once ready")

	require.Len(t, f.mirror.events, 1)
	assert.Equal(t, events.TypeDocumentReady, f.mirror.events[0].EventType())
	assert.Equal(t, doc.Id, f.mirror.events[0].Payload()["document_id"])
}
