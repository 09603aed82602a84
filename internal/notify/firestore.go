package notify

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

var _ Dispatcher = (*FirestoreDispatcher)(nil)

// FirestoreDispatcher inserts notifications into the email-delivery queue
// collection, where the delivery worker picks them up.
type FirestoreDispatcher struct {
	client     *firestore.Client
	collection string
}

type queueDoc struct {
	ID         string            `firestore:"id"`
	Recipient  string            `firestore:"recipient"`
	Template   string            `firestore:"template"`
	Params     map[string]string `firestore:"params,omitempty"`
	Status     string            `firestore:"status"`
	EnqueuedAt time.Time         `firestore:"enqueued_at"`
}

// NewFirestoreDispatcher creates a Firestore-backed dispatcher.
func NewFirestoreDispatcher(client *firestore.Client, collection string) (*FirestoreDispatcher, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	return &FirestoreDispatcher{client: client, collection: collection}, nil
}

// Enqueue inserts a pending queue document.
func (d *FirestoreDispatcher) Enqueue(ctx context.Context, recipient, template string, params map[string]string) error {
	id := uuid.NewString()
	doc := queueDoc{
		ID:         id,
		Recipient:  recipient,
		Template:   template,
		Params:     params,
		Status:     "pending",
		EnqueuedAt: time.Now(),
	}
	if _, err := d.client.Collection(d.collection).Doc(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("enqueueing notification: %w", err)
	}
	return nil
}
