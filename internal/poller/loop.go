// Package poller drives a document view: it fetches the document, keeps
// re-fetching every PollInterval while the service reports "processing",
// and stops on the first terminal answer.
//
// Polling is sequential. The next request is scheduled only after the
// previous answer arrived, so answers are observed in issuance order. Every
// cycle carries a generation number; answers that come back for an older
// generation are dropped.
package poller

import (
	"context"
	"sync"
	"time"

	"ai-docview/internal/entity"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"
)

const PollInterval = 2000 * time.Millisecond

const pollerModule = "DocumentPollLoop"

// Fetcher performs one authorized GET for a document.
type Fetcher interface {
	FetchDocument(ctx context.Context, token, id string) (*entity.Document, error)
}

// Observer is notified after each state change. Calls are made without the
// loop's lock held, from the goroutine that completed the fetch.
type Observer interface {
	OnProgress(documentId string, progress int)
	OnReady(doc *entity.Document)
	OnError(documentId string, err error)
}

type Loop struct {
	mu    sync.Mutex
	state State
	token string
	timer clock.Timer

	// inFlight maps a document id to the generation of its outstanding fetch.
	inFlight map[string]uint64
	closed   bool
	fetches  sync.WaitGroup

	ctx       context.Context
	fetcher   Fetcher
	clock     clock.Clock
	logger    logger.ILogger
	observers []Observer
}

// NewLoop returns an idle loop. ctx scopes every request the loop issues;
// switching documents or closing the loop does not cancel it.
func NewLoop(ctx context.Context, fetcher Fetcher, clk clock.Clock, log logger.ILogger, observers ...Observer) *Loop {
	return &Loop{
		inFlight:  make(map[string]uint64),
		ctx:       ctx,
		fetcher:   fetcher,
		clock:     clk,
		logger:    log,
		observers: observers,
	}
}

// Track points the loop at a document. A different id cancels the pending
// retry and starts a new cycle; the same id is a no-op.
func (l *Loop) Track(documentId string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || documentId == l.state.DocumentId {
		return
	}

	l.resetLocked()
	l.state = State{
		DocumentId: documentId,
		Phase:      Idle,
		Generation: l.state.Generation,
	}
	l.logger.Debug(pollerModule, "Tracking document", map[string]interface{}{
		"document_id": documentId,
		"generation":  l.state.Generation,
	})
	l.startLocked()
}

// SetCredential supplies the bearer token. A changed token restarts the
// cycle for the current document and keeps the last snapshot visible; an
// empty token parks the loop until a token arrives.
func (l *Loop) SetCredential(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || token == l.token {
		return
	}
	l.token = token

	l.resetLocked()
	l.state.Phase = Idle
	l.state.IsLoading = false
	l.state.Err = nil
	if token == "" {
		l.logger.Debug(pollerModule, "Credential withdrawn, polling parked", map[string]interface{}{
			"document_id": l.state.DocumentId,
		})
		return
	}
	l.startLocked()
}

// Close cancels the pending retry. Responses still in flight are discarded
// when they arrive.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.resetLocked()
	l.closed = true
	l.state.IsLoading = false
}

// Wait blocks until every fetch the loop started has returned.
func (l *Loop) Wait() {
	l.fetches.Wait()
}

func (l *Loop) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) resetLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.state.Generation++
}

func (l *Loop) startLocked() {
	if l.state.DocumentId == "" || l.token == "" {
		return
	}
	l.state.Phase = Fetching
	l.state.IsLoading = true

	// An older request for the same id is still out. Its completion starts
	// this cycle, so the id never has two requests in flight.
	if _, busy := l.inFlight[l.state.DocumentId]; busy {
		return
	}
	l.launchLocked()
}

func (l *Loop) launchLocked() {
	id, token, gen := l.state.DocumentId, l.token, l.state.Generation
	l.inFlight[id] = gen
	l.fetches.Add(1)

	go func() {
		defer l.fetches.Done()
		doc, err := l.fetcher.FetchDocument(l.ctx, token, id)
		l.complete(id, gen, doc, err)
	}()
}

func (l *Loop) complete(id string, gen uint64, doc *entity.Document, err error) {
	l.mu.Lock()
	delete(l.inFlight, id)

	if l.closed || gen != l.state.Generation {
		l.logger.Debug(pollerModule, "Discarding stale response", map[string]interface{}{
			"document_id": id,
			"generation":  gen,
		})
		if !l.closed && l.state.DocumentId == id && l.state.Phase == Fetching {
			l.launchLocked()
		}
		l.mu.Unlock()
		return
	}

	var notify func(Observer)
	switch {
	case err != nil:
		l.state.Phase = Error
		l.state.IsLoading = false
		l.state.Err = err
		l.state.Last = nil
		l.logger.Warn(pollerModule, "Document fetch failed", map[string]interface{}{
			"document_id": id,
			"error":       err.Error(),
		})
		notify = func(o Observer) { o.OnError(id, err) }

	case doc.IsProcessing():
		progress := doc.Progress
		l.state.Phase = ProcessingWait
		l.state.Progress = progress
		l.timer = l.clock.AfterFunc(PollInterval, func() { l.retry(gen) })
		notify = func(o Observer) { o.OnProgress(id, progress) }

	default:
		l.state.Phase = Ready
		l.state.IsLoading = false
		l.state.Progress = doc.Progress
		l.state.Last = doc
		l.state.Err = nil
		l.logger.Info(pollerModule, "Document ready", map[string]interface{}{
			"document_id": id,
			"status":      string(doc.Status),
		})
		notify = func(o Observer) { o.OnReady(doc) }
	}
	observers := l.observers
	l.mu.Unlock()

	for _, o := range observers {
		notify(o)
	}
}

func (l *Loop) retry(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || gen != l.state.Generation || l.state.Phase != ProcessingWait {
		return
	}
	l.timer = nil
	l.startLocked()
}
