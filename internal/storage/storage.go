// Package storage is the durable persistence collaborator for canonical
// token records.
package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/token"
)

// TokenStore persists canonical token records. Records are handed over as
// immutable values; failures surface to the caller rather than being
// swallowed, since a consumed authorization code cannot be re-exchanged.
type TokenStore interface {
	UpsertToken(ctx context.Context, rec *token.Record, correlationState string) error
}

// NewFirestoreClient creates the shared Firestore client used by the token
// store, the state store, and the notification queue.
func NewFirestoreClient(ctx context.Context, projectID, database string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}

	if database != "" && database != "(default)" {
		client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
		return client, nil
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}
