package state

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/crypto"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/log"
)

var _ Store = (*FirestoreStore)(nil)

// FirestoreStore backs the state cache with a shared Firestore collection so
// multiple broker instances can serve issuance and callback independently.
// Consume runs in a transaction: the check and the delete are atomic, which
// closes the race window between two callbacks replaying the same state.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	ttl        time.Duration
	now        func() time.Time
}

type stateDoc struct {
	IssuedAt  time.Time `firestore:"issued_at"`
	ExpiresAt time.Time `firestore:"expires_at"`
}

// NewFirestoreStore creates a Firestore-backed state store.
func NewFirestoreStore(client *firestore.Client, collection string, ttl time.Duration) (*FirestoreStore, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	return &FirestoreStore{
		client:     client,
		collection: collection,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

// docID derives a document ID from the state value. Caller-supplied states
// are arbitrary strings, so they are hashed rather than used directly.
func docID(state string) string {
	sum := sha256.Sum256([]byte(state))
	return hex.EncodeToString(sum[:])
}

// Issue generates a random state and records it.
func (s *FirestoreStore) Issue(ctx context.Context) (string, error) {
	token, err := crypto.GenerateSecureToken()
	if err != nil {
		return "", err
	}
	if err := s.Track(ctx, token); err != nil {
		return "", err
	}
	return token, nil
}

// Track records a caller-supplied state.
func (s *FirestoreStore) Track(ctx context.Context, state string) error {
	now := s.now()
	doc := stateDoc{IssuedAt: now, ExpiresAt: now.Add(s.ttl)}
	if _, err := s.client.Collection(s.collection).Doc(docID(state)).Set(ctx, doc); err != nil {
		return fmt.Errorf("recording state: %w", err)
	}
	return nil
}

// Consume atomically checks and deletes the state document. Backend failures
// count as a negative result: the caller sees an authorization failure, not
// a system error.
func (s *FirestoreStore) Consume(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}

	ref := s.client.Collection(s.collection).Doc(docID(state))
	expired := false

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc stateDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		expired = s.now().After(doc.ExpiresAt)
		// Delete even when expired so stale entries do not accumulate.
		return tx.Delete(ref)
	})
	if err != nil {
		if status.Code(err) != codes.NotFound {
			log.LogWarnWithFields("state", "State consume transaction failed", map[string]any{
				"error": err.Error(),
			})
		}
		return false
	}
	return !expired
}

// CleanupExpired sweeps expired unconsumed state documents.
func (s *FirestoreStore) CleanupExpired(ctx context.Context) (int, error) {
	iter := s.client.Collection(s.collection).
		Where("expires_at", "<=", s.now()).
		Documents(ctx)
	defer iter.Stop()

	removed := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return removed, fmt.Errorf("iterating expired states: %w", err)
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			log.LogWarnWithFields("state", "Failed to delete expired state", map[string]any{
				"error": err.Error(),
			})
			continue
		}
		removed++
	}
	return removed, nil
}
