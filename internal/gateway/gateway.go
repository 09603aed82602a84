// Package gateway orchestrates the authorization-code and refresh flows:
// it wires the redirect policy, the state store, and the token client
// together and talks to the persistence and notification collaborators.
package gateway

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/log"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/notify"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/redirect"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/state"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/storage"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/token"
)

// TokenExchanger performs the two provider grants.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*token.Record, error)
	Refresh(ctx context.Context, refreshToken string) (*token.Record, error)
}

// Authorization is the result of BuildAuthorizationURL: everything the
// caller needs to send the browser to the provider and correlate the
// callback.
type Authorization struct {
	URL         string `json:"url"`
	State       string `json:"state"`
	RedirectURI string `json:"redirect_uri"`
}

// Gateway exposes the three public operations of the broker.
type Gateway struct {
	policy   *redirect.Policy
	states   state.Store
	tokens   TokenExchanger
	store    storage.TokenStore
	notifier notify.Dispatcher

	authorizeURL string
	clientID     string

	// enforceState collapses the original portal's divergent flow variants
	// into one configuration flag: when false, ExchangeCode skips state
	// validation entirely.
	enforceState bool

	alertRecipient string
}

// Params configures a Gateway.
type Params struct {
	Policy       *redirect.Policy
	States       state.Store
	Tokens       TokenExchanger
	Store        storage.TokenStore
	Notifier     notify.Dispatcher
	AuthorizeURL string
	ClientID     string
	EnforceState bool

	// AlertRecipient receives the reconciliation notification after a
	// persistence failure. Empty disables the notification.
	AlertRecipient string
}

// New creates a gateway.
func New(p Params) *Gateway {
	notifier := p.Notifier
	if notifier == nil {
		notifier = notify.NewLogDispatcher()
	}
	return &Gateway{
		policy:         p.Policy,
		states:         p.States,
		tokens:         p.Tokens,
		store:          p.Store,
		notifier:       notifier,
		authorizeURL:   p.AuthorizeURL,
		clientID:       p.ClientID,
		enforceState:   p.EnforceState,
		alertRecipient: p.AlertRecipient,
	}
}

// BuildAuthorizationURL resolves the redirect, issues (or tracks) a state,
// and returns the fully formed provider authorization URL. A caller-supplied
// state is used as-is, for clients that manage their own correlation.
func (g *Gateway) BuildAuthorizationURL(ctx context.Context, preferredRedirect, suppliedState string) (*Authorization, error) {
	redirectURI := g.policy.Resolve(preferredRedirect)

	stateValue := suppliedState
	if stateValue == "" {
		issued, err := g.states.Issue(ctx)
		if err != nil {
			return nil, err
		}
		stateValue = issued
	} else if err := g.states.Track(ctx, stateValue); err != nil {
		return nil, err
	}

	// The client secret stays out of the authorization URL; only the token
	// client ever holds it.
	conf := oauth2.Config{
		ClientID:    g.clientID,
		Endpoint:    oauth2.Endpoint{AuthURL: g.authorizeURL},
		RedirectURL: redirectURI,
	}

	return &Authorization{
		URL:         conf.AuthCodeURL(stateValue),
		State:       stateValue,
		RedirectURI: redirectURI,
	}, nil
}

// ExchangeCode validates the state, resolves the redirect with the same
// policy the authorization URL used, redeems the code, and persists the
// canonical record before returning it.
func (g *Gateway) ExchangeCode(ctx context.Context, code, stateValue, preferredRedirect string) (*token.Record, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	if g.enforceState && !g.states.Consume(ctx, stateValue) {
		log.LogWarnWithFields("gateway", "Rejected exchange with invalid state", nil)
		return nil, ErrInvalidState
	}

	redirectURI := g.policy.Resolve(preferredRedirect)

	rec, err := g.tokens.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	if err := g.persist(ctx, rec, stateValue); err != nil {
		return nil, err
	}

	log.LogInfoWithFields("gateway", "Authorization code exchanged", map[string]any{
		"expires_in": rec.ExpiresIn,
	})
	return rec, nil
}

// Refresh performs the refresh grant and persists the result. The returned
// record carries whichever refresh token the provider supplied; the input
// token may have been rotated away.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*token.Record, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	rec, err := g.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if err := g.persist(ctx, rec, ""); err != nil {
		return nil, err
	}

	log.LogInfoWithFields("gateway", "Token refreshed", map[string]any{
		"expires_in": rec.ExpiresIn,
		"rotated":    rec.RefreshToken != refreshToken,
	})
	return rec, nil
}

// persist hands the record to the durable store. A failure here is the one
// partial-success case: the provider-side grant went through and cannot be
// replayed, so it is logged distinctly and an operator reconciliation
// notification is enqueued.
func (g *Gateway) persist(ctx context.Context, rec *token.Record, stateValue string) error {
	err := g.store.UpsertToken(ctx, rec, stateValue)
	if err == nil {
		return nil
	}

	log.LogErrorWithFields("gateway", "Token obtained but persistence failed, manual reconciliation required", map[string]any{
		"error":      err.Error(),
		"expires_at": rec.ExpiresAt,
	})

	if g.alertRecipient != "" {
		if notifyErr := g.notifier.Enqueue(ctx, g.alertRecipient, notify.TemplateReconcileTokens, map[string]string{
			"reason": "persistence_failure",
		}); notifyErr != nil {
			log.LogErrorWithFields("gateway", "Failed to enqueue reconciliation notification", map[string]any{
				"error": notifyErr.Error(),
			})
		}
	}

	return &PersistenceError{Err: err}
}
