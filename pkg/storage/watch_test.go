package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// collect drains events in the background.
type collect struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
	done   chan struct{}
}

func collectEvents(ch <-chan domain.ChangeEvent) *collect {
	c := &collect{done: make(chan struct{})}
	go func() {
		defer close(c.done)
		for ev := range ch {
			c.mu.Lock()
			c.events = append(c.events, ev)
			c.mu.Unlock()
		}
	}()
	return c
}

func (c *collect) has(id domain.Identifier, kind domain.ChangeKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range c.events {
		if ev.ID == id && ev.Kind == kind {
			return true
		}
	}
	return false
}

func TestCollection_Watch(t *testing.T) {
	c := newTestCollection(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.Watch(ctx)
	require.NoError(t, err)
	events := collectEvents(ch)

	id, err := c.InsertOne(domain.Document{"name": "a"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return events.has(id, domain.ChangeWritten) },
		5*time.Second, 10*time.Millisecond)

	require.NoError(t, c.DeleteOne(id))
	require.Eventually(t, func() bool { return events.has(id, domain.ChangeRemoved) },
		5*time.Second, 10*time.Millisecond)

	// Non-document files are not reported.
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "notes.txt"), []byte("x"), 0o644))

	cancel()
	select {
	case <-events.done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch channel not closed after cancel")
	}

	events.mu.Lock()
	defer events.mu.Unlock()
	for _, ev := range events.events {
		assert.Equal(t, "users", ev.Collection)
		assert.False(t, ev.ID.IsZero())
	}
}

func TestCollection_WatchMissingDirectory(t *testing.T) {
	c := newTestCollection(t)
	require.NoError(t, os.RemoveAll(c.Dir()))

	_, err := c.Watch(context.Background())
	assert.ErrorIs(t, err, domain.ErrIO)
}
