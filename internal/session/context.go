// Package session owns the application session record. There is exactly one
// writer (the identity bridge); everyone else reads immutable copies or
// subscribes to changes.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"ai-docview/internal/entity"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"
	"ai-docview/internal/repository/contract"
)

// Listener is told about every committed record. record is nil after sign-out.
// Listeners run on the writer's goroutine and must not write to the Context.
type Listener func(record *entity.SessionRecord)

type Context struct {
	current atomic.Pointer[entity.SessionRecord]

	// mu serializes writers and guards listeners.
	mu        sync.Mutex
	listeners map[int]Listener
	nextId    int

	repo   contract.SessionRepository
	clock  clock.Clock
	logger logger.ILogger
}

func NewContext(repo contract.SessionRepository, clk clock.Clock, log logger.ILogger) *Context {
	return &Context{
		listeners: make(map[int]Listener),
		repo:      repo,
		clock:     clk,
		logger:    log,
	}
}

// Load restores a persisted record, if any. A record that cannot be read is
// treated as absent.
func (c *Context) Load(ctx context.Context) error {
	record, err := c.repo.Load(ctx)
	if err != nil {
		c.logger.Warn("Session", "Stored session unreadable, starting signed out", map[string]interface{}{"error": err.Error()})
		return err
	}
	if record == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.Store(record)
	c.notifyLocked(record)
	return nil
}

// Current returns a private copy of the record, or nil when signed out.
func (c *Context) Current() *entity.SessionRecord {
	r := c.current.Load()
	if r == nil {
		return nil
	}
	cp := r.Clone()
	return &cp
}

// BackendToken is the bearer credential for protected calls.
func (c *Context) BackendToken() (string, bool) {
	r := c.current.Load()
	if r == nil || !r.HasBackendToken() {
		return "", false
	}
	return r.BackendToken, true
}

// Replace installs a brand-new record (a fresh sign-in supersedes whatever
// was there).
func (c *Context) Replace(ctx context.Context, record entity.SessionRecord) entity.SessionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	record = record.Clone()
	record.UpdatedAt = c.clock.Now()
	c.commitLocked(ctx, &record)
	return record.Clone()
}

// Update derives a new record from the current one. It reports false and
// changes nothing when there is no session.
func (c *Context) Update(ctx context.Context, fn func(entity.SessionRecord) entity.SessionRecord) (entity.SessionRecord, bool) {
	return c.UpdateIf(ctx, func(r entity.SessionRecord) (entity.SessionRecord, bool) {
		return fn(r), true
	})
}

// UpdateIf is Update where fn may decline by returning false. A declined or
// missing session commits nothing, persists nothing and notifies no one.
func (c *Context) UpdateIf(ctx context.Context, fn func(entity.SessionRecord) (entity.SessionRecord, bool)) (entity.SessionRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.current.Load()
	if prev == nil {
		return entity.SessionRecord{}, false
	}

	next, ok := fn(prev.Clone())
	if !ok {
		return entity.SessionRecord{}, false
	}
	next.UpdatedAt = c.clock.Now()
	c.commitLocked(ctx, &next)
	return next.Clone(), true
}

// Clear destroys the session (sign-out).
func (c *Context) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current.Store(nil)
	err := c.repo.Delete(ctx)
	c.notifyLocked(nil)
	return err
}

// Subscribe registers l and returns a function that removes it.
func (c *Context) Subscribe(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextId
	c.nextId++
	c.listeners[id] = l

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Context) commitLocked(ctx context.Context, record *entity.SessionRecord) {
	c.current.Store(record)
	if err := c.repo.Save(ctx, record); err != nil {
		// The in-memory record stays authoritative for this process.
		c.logger.Warn("Session", "Failed to persist session", map[string]interface{}{"error": err.Error()})
	}
	c.notifyLocked(record)
}

func (c *Context) notifyLocked(record *entity.SessionRecord) {
	for _, l := range c.listeners {
		if record == nil {
			l(nil)
			continue
		}
		cp := record.Clone()
		l(&cp)
	}
}
