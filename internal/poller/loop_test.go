package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-docview/internal/apperror"
	"ai-docview/internal/entity"
	"ai-docview/internal/pkg/clock"
	"ai-docview/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchReply struct {
	doc *entity.Document
	err error
}

type fetchCall struct {
	token string
	id    string
	reply chan fetchReply
}

// scriptedFetcher parks every request until the test answers it.
type scriptedFetcher struct {
	started chan *fetchCall
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{started: make(chan *fetchCall, 16)}
}

func (f *scriptedFetcher) FetchDocument(ctx context.Context, token, id string) (*entity.Document, error) {
	call := &fetchCall{token: token, id: id, reply: make(chan fetchReply, 1)}
	f.started <- call
	select {
	case r := <-call.reply:
		return r.doc, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type event struct {
	kind     string
	id       string
	progress int
	doc      *entity.Document
	err      error
}

type recorder struct {
	mu     sync.Mutex
	events []event
	ch     chan event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan event, 16)}
}

func (r *recorder) add(e event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	r.ch <- e
}

func (r *recorder) OnProgress(id string, progress int) {
	r.add(event{kind: "progress", id: id, progress: progress})
}

func (r *recorder) OnReady(doc *entity.Document) {
	r.add(event{kind: "ready", id: doc.Id, doc: doc})
}

func (r *recorder) OnError(id string, err error) {
	r.add(event{kind: "error", id: id, err: err})
}

func (r *recorder) all() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting")
	}
	var zero T
	return zero
}

func assertQuiet[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected %+v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func processing(id string, progress int) fetchReply {
	return fetchReply{doc: &entity.Document{Id: id, Status: entity.DocumentStatusProcessing, Progress: progress}}
}

func ready(id string, topics ...string) fetchReply {
	return fetchReply{doc: &entity.Document{Id: id, Status: entity.DocumentStatusReady, Progress: 100, Topics: topics}}
}

type fixture struct {
	loop    *Loop
	fetcher *scriptedFetcher
	clock   *clock.FakeClock
	events  *recorder
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		fetcher: newScriptedFetcher(),
		clock:   clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		events:  newRecorder(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.loop = NewLoop(ctx, f.fetcher, f.clock, logger.NewNopLogger(), f.events)
	t.Cleanup(func() {
		f.loop.Close()
		cancel()
		f.loop.Wait()
	})
	return f
}

func TestProgressThenReady(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-1")

	call := receive(t, f.fetcher.started)
	assert.Equal(t, "T1", call.token)
	assert.Equal(t, "doc-1", call.id)
	assert.True(t, f.loop.Snapshot().IsLoading)

	call.reply <- processing("doc-1", 10)
	ev := receive(t, f.events.ch)
	assert.Equal(t, event{kind: "progress", id: "doc-1", progress: 10}, ev)
	assert.Equal(t, ProcessingWait, f.loop.Snapshot().Phase)
	assert.Equal(t, 1, f.clock.Pending())

	f.clock.Advance(PollInterval)
	call = receive(t, f.fetcher.started)
	call.reply <- processing("doc-1", 55)
	ev = receive(t, f.events.ch)
	assert.Equal(t, 55, ev.progress)
	assert.Equal(t, 55, f.loop.Snapshot().Progress)

	f.clock.Advance(PollInterval)
	call = receive(t, f.fetcher.started)
	call.reply <- ready("doc-1", "A", "B")
	ev = receive(t, f.events.ch)
	require.Equal(t, "ready", ev.kind)

	st := f.loop.Snapshot()
	assert.Equal(t, Ready, st.Phase)
	assert.False(t, st.IsLoading)
	require.NotNil(t, st.Last)
	assert.Equal(t, []string{"A", "B"}, st.Last.Topics)
	assert.Equal(t, 0, f.clock.Pending())
}

func TestRetryFiresExactlyOnceAtInterval(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-1")

	receive(t, f.fetcher.started).reply <- processing("doc-1", 0)
	receive(t, f.events.ch)

	f.clock.Advance(PollInterval - time.Millisecond)
	assertQuiet(t, f.fetcher.started)
	assert.Equal(t, 1, f.clock.Pending())

	f.clock.Advance(time.Millisecond)
	call := receive(t, f.fetcher.started)
	assert.Equal(t, "doc-1", call.id)
	assert.Equal(t, 0, f.clock.Pending(), "no second timer while a fetch is out")

	f.clock.Advance(10 * PollInterval)
	assertQuiet(t, f.fetcher.started)
	call.reply <- ready("doc-1")
	receive(t, f.events.ch)
}

func TestNoRetryAfterError(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-1")

	receive(t, f.fetcher.started).reply <- processing("doc-1", 30)
	receive(t, f.events.ch)
	f.clock.Advance(PollInterval)

	failure := &apperror.FetchFailure{DocumentId: "doc-1", Cause: &apperror.StatusError{StatusCode: 404}}
	receive(t, f.fetcher.started).reply <- fetchReply{err: failure}
	ev := receive(t, f.events.ch)
	assert.Equal(t, "error", ev.kind)
	assert.ErrorIs(t, ev.err, apperror.ErrFetchFailed)

	st := f.loop.Snapshot()
	assert.Equal(t, Error, st.Phase)
	assert.True(t, st.Phase.Terminal())
	assert.False(t, st.IsLoading)
	assert.Nil(t, st.Last)
	assert.Equal(t, 0, f.clock.Pending())

	f.clock.Advance(5 * PollInterval)
	assertQuiet(t, f.fetcher.started)
}

func TestNoRetryAfterReady(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-1")

	receive(t, f.fetcher.started).reply <- ready("doc-1")
	receive(t, f.events.ch)

	f.clock.Advance(5 * PollInterval)
	assertQuiet(t, f.fetcher.started)
}

func TestNoFetchWithoutCredential(t *testing.T) {
	f := newFixture(t)
	f.loop.Track("doc-1")

	assertQuiet(t, f.fetcher.started)
	assert.Equal(t, Idle, f.loop.Snapshot().Phase)

	f.loop.SetCredential("T1")
	call := receive(t, f.fetcher.started)
	assert.Equal(t, "T1", call.token)
}

func TestWithdrawnCredentialParksLoop(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-1")

	receive(t, f.fetcher.started).reply <- processing("doc-1", 20)
	receive(t, f.events.ch)
	require.Equal(t, 1, f.clock.Pending())

	f.loop.SetCredential("")
	assert.Equal(t, 0, f.clock.Pending())
	assert.Equal(t, Idle, f.loop.Snapshot().Phase)

	f.clock.Advance(5 * PollInterval)
	assertQuiet(t, f.fetcher.started)
}

func TestTrackingNewIdCancelsTimerAndDropsLateAnswers(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-a")
	callA := receive(t, f.fetcher.started)

	f.loop.Track("doc-b")
	callB := receive(t, f.fetcher.started)
	assert.Equal(t, "doc-b", callB.id)

	// Answer for the abandoned id arrives late.
	callA.reply <- ready("doc-a", "stale")

	callB.reply <- processing("doc-b", 40)
	ev := receive(t, f.events.ch)
	assert.Equal(t, event{kind: "progress", id: "doc-b", progress: 40}, ev)
	require.Equal(t, 1, f.clock.Pending())

	f.loop.Track("doc-c")
	assert.Equal(t, 0, f.clock.Pending(), "pending retry for doc-b cancelled")
	callC := receive(t, f.fetcher.started)
	assert.Equal(t, "doc-c", callC.id)

	f.clock.Advance(PollInterval)
	assertQuiet(t, f.fetcher.started)

	callC.reply <- ready("doc-c")
	receive(t, f.events.ch)

	f.loop.Close()
	f.loop.Wait()
	for _, e := range f.events.all() {
		assert.NotEqual(t, "doc-a", e.id)
	}
	st := f.loop.Snapshot()
	assert.Equal(t, "doc-c", st.DocumentId)
}

func TestCredentialChangeRestartsWithoutOverlap(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-1")

	first := receive(t, f.fetcher.started)
	genBefore := f.loop.Snapshot().Generation

	f.loop.SetCredential("T2")
	assert.Greater(t, f.loop.Snapshot().Generation, genBefore)
	assertQuiet(t, f.fetcher.started)

	// The old request finishing hands over to the new cycle.
	first.reply <- ready("doc-1", "old")
	second := receive(t, f.fetcher.started)
	assert.Equal(t, "T2", second.token)

	second.reply <- processing("doc-1", 5)
	ev := receive(t, f.events.ch)
	assert.Equal(t, event{kind: "progress", id: "doc-1", progress: 5}, ev)
}

func TestCredentialChangeKeepsLastSnapshot(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-1")

	receive(t, f.fetcher.started).reply <- ready("doc-1", "A")
	receive(t, f.events.ch)

	f.loop.SetCredential("T2")
	st := f.loop.Snapshot()
	assert.Equal(t, Fetching, st.Phase)
	require.NotNil(t, st.Last)
	assert.Equal(t, []string{"A"}, st.Last.Topics)

	call := receive(t, f.fetcher.started)
	assert.Equal(t, "T2", call.token)
	call.reply <- ready("doc-1", "B")
	receive(t, f.events.ch)
	assert.Equal(t, []string{"B"}, f.loop.Snapshot().Last.Topics)
}

func TestProgressRegressionPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-1")

	receive(t, f.fetcher.started).reply <- processing("doc-1", 60)
	assert.Equal(t, 60, receive(t, f.events.ch).progress)

	f.clock.Advance(PollInterval)
	receive(t, f.fetcher.started).reply <- processing("doc-1", 40)
	assert.Equal(t, 40, receive(t, f.events.ch).progress)
}

func TestCloseCancelsTimerAndIgnoresInFlight(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-1")

	receive(t, f.fetcher.started).reply <- processing("doc-1", 10)
	receive(t, f.events.ch)

	f.clock.Advance(PollInterval)
	call := receive(t, f.fetcher.started)

	f.loop.Close()
	call.reply <- ready("doc-1")
	f.loop.Wait()

	assertQuiet(t, f.events.ch)
	assert.Equal(t, 0, f.clock.Pending())

	f.loop.Track("doc-2")
	assertQuiet(t, f.fetcher.started)
}

func TestSameIdDoesNotRestart(t *testing.T) {
	f := newFixture(t)
	f.loop.SetCredential("T1")
	f.loop.Track("doc-1")
	call := receive(t, f.fetcher.started)

	gen := f.loop.Snapshot().Generation
	f.loop.Track("doc-1")
	f.loop.SetCredential("T1")
	assert.Equal(t, gen, f.loop.Snapshot().Generation)
	assertQuiet(t, f.fetcher.started)

	call.reply <- ready("doc-1")
	receive(t, f.events.ch)
}
