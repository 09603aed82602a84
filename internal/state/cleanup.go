package state

import (
	"context"
	"time"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/log"
)

// CleanupManager periodically evicts expired unconsumed states.
type CleanupManager struct {
	states   Store
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewCleanupManager creates a cleanup manager sweeping at the given interval.
func NewCleanupManager(states Store, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		states:   states,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the cleanup loop in a goroutine.
func (cm *CleanupManager) Start(ctx context.Context) {
	log.LogInfoWithFields("state_cleanup", "Starting state cleanup manager", map[string]any{
		"interval": cm.interval.String(),
	})

	go cm.run(ctx)
}

// Stop gracefully stops the cleanup loop.
func (cm *CleanupManager) Stop() {
	close(cm.stopChan)
	<-cm.doneChan
	log.Logf("State cleanup manager stopped")
}

func (cm *CleanupManager) run(ctx context.Context) {
	defer close(cm.doneChan)

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run cleanup immediately on start
	cm.cleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.cleanup(ctx)
		case <-cm.stopChan:
			cm.cleanup(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (cm *CleanupManager) cleanup(ctx context.Context) {
	count, err := cm.states.CleanupExpired(ctx)
	if err != nil {
		log.LogErrorWithFields("state_cleanup", "Failed to evict expired states", map[string]any{
			"error": err.Error(),
		})
		return
	}

	if count > 0 {
		log.LogInfoWithFields("state_cleanup", "Evicted expired states", map[string]any{
			"count": count,
		})
	}
}
