package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-docview/internal/entity"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newContext() (*Context, *memory.SessionRepository) {
	repo := memory.NewSessionRepository()
	return NewContext(repo, clock.Fake(epoch), logger.NewNopLogger()), repo
}

func TestReplaceAndUpdateAreImmutable(t *testing.T) {
	ctx := context.Background()
	c, _ := newContext()

	_, ok := c.Update(ctx, func(r entity.SessionRecord) entity.SessionRecord { return r })
	assert.False(t, ok, "no session yet")

	c.Replace(ctx, entity.SessionRecord{IdToken: "id-1", User: entity.User{"id": "u1"}})

	first := c.Current()
	require.NotNil(t, first)
	first.User["id"] = "tampered"
	assert.Equal(t, "u1", c.Current().User.Id(), "callers get copies")

	updated, ok := c.Update(ctx, func(r entity.SessionRecord) entity.SessionRecord {
		r.BackendToken = "T1"
		return r
	})
	require.True(t, ok)
	assert.Equal(t, "T1", updated.BackendToken)
	assert.Equal(t, "id-1", updated.IdToken)
	assert.Equal(t, epoch, updated.UpdatedAt)

	token, ok := c.BackendToken()
	assert.True(t, ok)
	assert.Equal(t, "T1", token)
}

func TestBackendTokenAbsent(t *testing.T) {
	c, _ := newContext()

	_, ok := c.BackendToken()
	assert.False(t, ok)

	c.Replace(context.Background(), entity.SessionRecord{IdToken: "id"})
	_, ok = c.BackendToken()
	assert.False(t, ok, "provider sign-in alone is not API-authenticated")
}

func TestPersistsAndLoads(t *testing.T) {
	ctx := context.Background()
	c, repo := newContext()
	c.Replace(ctx, entity.SessionRecord{IdToken: "id", BackendToken: "T1"})

	stored, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T1", stored.BackendToken)

	fresh := NewContext(repo, clock.Fake(epoch), logger.NewNopLogger())
	require.NoError(t, fresh.Load(ctx))
	token, ok := fresh.BackendToken()
	assert.True(t, ok)
	assert.Equal(t, "T1", token)
}

func TestSubscribersSeeCommitsAndSignOut(t *testing.T) {
	ctx := context.Background()
	c, _ := newContext()

	var seen []string
	unsubscribe := c.Subscribe(func(r *entity.SessionRecord) {
		if r == nil {
			seen = append(seen, "<signed out>")
			return
		}
		seen = append(seen, r.BackendToken)
	})

	c.Replace(ctx, entity.SessionRecord{IdToken: "id"})
	c.Update(ctx, func(r entity.SessionRecord) entity.SessionRecord { r.BackendToken = "T1"; return r })
	require.NoError(t, c.Clear(ctx))

	unsubscribe()
	c.Replace(ctx, entity.SessionRecord{IdToken: "id-2", BackendToken: "T2"})

	assert.Equal(t, []string{"", "T1", "<signed out>"}, seen)
	assert.NotNil(t, c.Current())
}

type failingRepo struct{ memory.SessionRepository }

func (f *failingRepo) Save(ctx context.Context, r *entity.SessionRecord) error {
	return errors.New("disk full")
}

func TestPersistFailureKeepsInMemoryRecord(t *testing.T) {
	repo := &failingRepo{SessionRepository: *memory.NewSessionRepository()}
	c := NewContext(repo, clock.Fake(epoch), logger.NewNopLogger())

	c.Replace(context.Background(), entity.SessionRecord{IdToken: "id", BackendToken: "T1"})

	token, ok := c.BackendToken()
	assert.True(t, ok)
	assert.Equal(t, "T1", token)
}

func TestUpdateIfDeclinedCommitsNothing(t *testing.T) {
	ctx := context.Background()
	c, _ := newContext()
	c.Replace(ctx, entity.SessionRecord{IdToken: "id-1"})

	notified := 0
	unsubscribe := c.Subscribe(func(*entity.SessionRecord) { notified++ })
	defer unsubscribe()

	_, ok := c.UpdateIf(ctx, func(r entity.SessionRecord) (entity.SessionRecord, bool) {
		r.BackendToken = "T1"
		return r, false
	})

	assert.False(t, ok)
	assert.Zero(t, notified)
	_, has := c.BackendToken()
	assert.False(t, has)
}
