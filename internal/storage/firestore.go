package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/crypto"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/log"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/token"
)

var _ TokenStore = (*FirestoreTokenStore)(nil)

// FirestoreTokenStore persists token records to a Firestore collection.
// Access and refresh token values are encrypted before they leave the
// process.
type FirestoreTokenStore struct {
	client     *firestore.Client
	collection string
	encryptor  crypto.Encryptor
}

type tokenDoc struct {
	ID           string    `firestore:"id"`
	AccessToken  string    `firestore:"access_token"`
	RefreshToken string    `firestore:"refresh_token,omitempty"`
	TokenType    string    `firestore:"token_type,omitempty"`
	Scope        string    `firestore:"scope,omitempty"`
	ExpiresIn    int64     `firestore:"expires_in"`
	ExpiresAt    int64     `firestore:"expires_at"`
	ReceivedAt   time.Time `firestore:"received_at"`
	State        string    `firestore:"state,omitempty"`
}

// NewFirestoreTokenStore creates a Firestore-backed token store.
func NewFirestoreTokenStore(client *firestore.Client, collection string, encryptor crypto.Encryptor) (*FirestoreTokenStore, error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}
	return &FirestoreTokenStore{
		client:     client,
		collection: collection,
		encryptor:  encryptor,
	}, nil
}

// UpsertToken writes the record as a new document with encrypted token
// values.
func (s *FirestoreTokenStore) UpsertToken(ctx context.Context, rec *token.Record, correlationState string) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	accessToken, err := s.encryptor.Encrypt(rec.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypting access token: %w", err)
	}

	var refreshToken string
	if rec.RefreshToken != "" {
		refreshToken, err = s.encryptor.Encrypt(rec.RefreshToken)
		if err != nil {
			return fmt.Errorf("encrypting refresh token: %w", err)
		}
	}

	id := uuid.NewString()
	doc := tokenDoc{
		ID:           id,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    rec.TokenType,
		Scope:        rec.Scope,
		ExpiresIn:    rec.ExpiresIn,
		ExpiresAt:    rec.ExpiresAt,
		ReceivedAt:   rec.ReceivedAt,
		State:        correlationState,
	}

	if _, err := s.client.Collection(s.collection).Doc(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("writing token record: %w", err)
	}

	log.LogDebugWithFields("storage", "Persisted token record", map[string]any{
		"id": id,
	})
	return nil
}
