// Package notify is the narrow interface to the email-delivery queue. The
// broker only ever hands it a recipient address and template identifiers,
// never token material; delivery itself is out of scope.
package notify

import (
	"context"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/log"
)

// Dispatcher enqueues a notification for later delivery.
type Dispatcher interface {
	Enqueue(ctx context.Context, recipient, template string, params map[string]string) error
}

// Template identifiers recognized by the delivery worker.
const (
	TemplateReconcileTokens = "reconcile-tokens"
)

var _ Dispatcher = (*LogDispatcher)(nil)

// LogDispatcher records enqueue calls in the log. Used when no queue
// backend is configured.
type LogDispatcher struct{}

// NewLogDispatcher creates a log-only dispatcher.
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

// Enqueue logs the notification instead of queueing it.
func (d *LogDispatcher) Enqueue(_ context.Context, recipient, template string, params map[string]string) error {
	log.LogInfoWithFields("notify", "Notification enqueue (log only)", map[string]any{
		"recipient": recipient,
		"template":  template,
		"params":    params,
	})
	return nil
}
