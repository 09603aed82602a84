package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupManagerEvictsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := func() time.Time { return now }
	store := NewMemoryStore(time.Minute, WithClock(func() time.Time { return clock() }))

	_, err := store.Issue(ctx)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)

	cm := NewCleanupManager(store, 10*time.Millisecond)
	cm.Start(ctx)

	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)

	cm.Stop()
}

func TestCleanupManagerStopsCleanly(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	cm := NewCleanupManager(store, time.Hour)

	cm.Start(context.Background())
	done := make(chan struct{})
	go func() {
		cm.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup manager did not stop")
	}
}
