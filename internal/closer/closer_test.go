package closer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeLister struct {
	ids   []string
	err   error
	since time.Time
}

func (f *fakeLister) ListFinishedEvents(ctx context.Context, since time.Time) ([]string, error) {
	f.since = since
	return f.ids, f.err
}

type fakeEngine struct {
	mu     sync.Mutex
	closed map[string]bool
	fail   map[string]bool
	calls  []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{closed: make(map[string]bool), fail: make(map[string]bool)}
}

func (f *fakeEngine) MarkClosed(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, eventID)
	if f.fail[eventID] {
		return errors.New("store unavailable")
	}
	f.closed[eventID] = true
	return nil
}

func (f *fakeEngine) IsClosed(eventID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed[eventID]
}

func TestCloser_closeFinished(t *testing.T) {
	lister := &fakeLister{ids: []string{"evt_1", "evt_2", "evt_3"}}
	engine := newFakeEngine()
	engine.closed["evt_2"] = true

	now := time.Date(2026, 6, 13, 6, 0, 0, 0, time.UTC)
	c := NewCloser(lister, engine, time.Minute, 24*time.Hour, zerolog.Nop())
	c.now = func() time.Time { return now }

	closed, err := c.closeFinished(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, closed)

	// Already-closed events are skipped
	assert.Equal(t, []string{"evt_1", "evt_3"}, engine.calls)
	assert.True(t, lister.since.Equal(now.Add(-24*time.Hour)))

	// Second pass is a no-op
	closed, err = c.closeFinished(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, closed)
}

func TestCloser_closeFinished_ContinuesPastFailures(t *testing.T) {
	lister := &fakeLister{ids: []string{"evt_1", "evt_2"}}
	engine := newFakeEngine()
	engine.fail["evt_1"] = true

	c := NewCloser(lister, engine, time.Minute, time.Hour, zerolog.Nop())

	closed, err := c.closeFinished(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.False(t, engine.IsClosed("evt_1"))
	assert.True(t, engine.IsClosed("evt_2"))
}

func TestCloser_closeFinished_ListError(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	c := NewCloser(lister, newFakeEngine(), time.Minute, time.Hour, zerolog.Nop())

	_, err := c.closeFinished(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "list finished events")
}

func TestCloser_StartStop(t *testing.T) {
	lister := &fakeLister{ids: []string{"evt_1"}}
	engine := newFakeEngine()
	c := NewCloser(lister, engine, time.Hour, time.Hour, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return engine.IsClosed("evt_1") }, time.Second, 5*time.Millisecond)

	c.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("closer did not stop")
	}
}
