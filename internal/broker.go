// Package internal wires the OAuth broker application together.
package internal

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"golang.org/x/sync/errgroup"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/config"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/crypto"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/gateway"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/httputil"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/log"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/notify"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/redirect"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/server"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/state"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/storage"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/token"
)

// Firestore collection names.
const (
	tokenCollection = "oauth_tokens"
	stateCollection = "oauth_states"
	emailCollection = "email_queue"
)

const shutdownTimeout = 10 * time.Second

// Broker is the assembled application.
type Broker struct {
	cfg        config.Config
	httpServer *server.HTTPServer
	cleanup    *state.CleanupManager
	fsClient   *firestore.Client
}

// NewBroker builds the application from configuration.
func NewBroker(ctx context.Context, cfg config.Config) (*Broker, error) {
	var (
		fsClient   *firestore.Client
		states     state.Store
		tokenStore storage.TokenStore
		notifier   notify.Dispatcher
		err        error
	)

	switch cfg.Storage {
	case config.StorageFirestore:
		fsClient, err = storage.NewFirestoreClient(ctx, cfg.GCPProjectID, cfg.FirestoreDatabase)
		if err != nil {
			return nil, err
		}

		key, err := cfg.EncryptionKeyBytes()
		if err != nil {
			return nil, err
		}
		encryptor, err := crypto.NewEncryptor(key)
		if err != nil {
			return nil, err
		}

		tokenStore, err = storage.NewFirestoreTokenStore(fsClient, tokenCollection, encryptor)
		if err != nil {
			return nil, err
		}
		states, err = state.NewFirestoreStore(fsClient, stateCollection, cfg.StateTTL)
		if err != nil {
			return nil, err
		}
		notifier, err = notify.NewFirestoreDispatcher(fsClient, emailCollection)
		if err != nil {
			return nil, err
		}

	case config.StorageMemory:
		tokenStore = storage.NewMemoryTokenStore()
		states = state.NewMemoryStore(cfg.StateTTL)
		notifier = notify.NewLogDispatcher()

	default:
		return nil, fmt.Errorf("unknown storage kind %q", cfg.Storage)
	}

	tokenClient := token.NewClient(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.ProviderTimeout)

	policy := redirect.NewPolicy(cfg.AllowedRedirectURIs, cfg.DefaultRedirectURI, cfg.RedirectAllowAny)

	gw := gateway.New(gateway.Params{
		Policy:         policy,
		States:         states,
		Tokens:         tokenClient,
		Store:          tokenStore,
		Notifier:       notifier,
		AuthorizeURL:   cfg.AuthorizeURL,
		ClientID:       cfg.ClientID,
		EnforceState:   cfg.EnforceState,
		AlertRecipient: cfg.OperatorAlertEmail,
	})

	handler := httputil.Chain(
		server.NewHandlers(gw).Routes(),
		httputil.NewCORSMiddleware(cfg.FrontendOrigin),
		httputil.NewLoggerMiddleware("http"),
		httputil.NewRecoverMiddleware("http"),
	)

	return &Broker{
		cfg:        cfg,
		httpServer: server.NewHTTPServer(handler, cfg.Addr),
		cleanup:    state.NewCleanupManager(states, cfg.StateCleanupInterval),
		fsClient:   fsClient,
	}, nil
}

// Run starts the HTTP server and the state cleanup loop, and blocks until
// the context is cancelled or a component fails.
func (b *Broker) Run(ctx context.Context) error {
	log.LogInfoWithFields("broker", "Starting OAuth broker", map[string]any{
		"addr":          b.cfg.Addr,
		"storage":       string(b.cfg.Storage),
		"enforce_state": b.cfg.EnforceState,
	})

	b.cleanup.Start(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := b.httpServer.Start(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		b.cleanup.Stop()
		if err := b.httpServer.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		if b.fsClient != nil {
			if err := b.fsClient.Close(); err != nil {
				log.LogWarn("Failed to close Firestore client: %v", err)
			}
		}
		return nil
	})

	return g.Wait()
}
