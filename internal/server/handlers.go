package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/gateway"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/httputil"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/log"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/token"
)

// Flow is the gateway surface the handlers need.
type Flow interface {
	BuildAuthorizationURL(ctx context.Context, preferredRedirect, suppliedState string) (*gateway.Authorization, error)
	ExchangeCode(ctx context.Context, code, state, preferredRedirect string) (*token.Record, error)
	Refresh(ctx context.Context, refreshToken string) (*token.Record, error)
}

// Handlers provides the broker's HTTP handlers.
type Handlers struct {
	flow Flow
}

// NewHandlers creates the handlers.
func NewHandlers(flow Flow) *Handlers {
	return &Handlers{flow: flow}
}

// Routes builds the route mux.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/url", h.AuthURL)
	mux.HandleFunc("POST /auth/exchange", h.Exchange)
	mux.HandleFunc("POST /auth/refresh", h.Refresh)
	mux.Handle("GET /health", NewHealthHandler())
	return mux
}

// AuthURL handles GET /auth/url. Optional query params: state, redirect_uri.
func (h *Handlers) AuthURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	auth, err := h.flow.BuildAuthorizationURL(r.Context(), q.Get("redirect_uri"), q.Get("state"))
	if err != nil {
		log.LogError("Failed to build authorization URL: %v", err)
		httputil.WriteInternalServerError(w, "Failed to build authorization URL")
		return
	}

	_ = httputil.WriteJSON(w, http.StatusOK, auth)
}

type exchangeRequest struct {
	Code        string `json:"code"`
	State       string `json:"state"`
	RedirectURI string `json:"redirect_uri"`
}

// Exchange handles POST /auth/exchange.
func (h *Handlers) Exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	rec, err := h.flow.ExchangeCode(r.Context(), req.Code, req.State, req.RedirectURI)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	_ = httputil.WriteJSON(w, http.StatusOK, rec)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	rec, err := h.flow.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeFlowError(w, err)
		return
	}

	_ = httputil.WriteJSON(w, http.StatusOK, rec)
}

// writeFlowError maps the flow error taxonomy to HTTP responses. Provider
// rejections mirror the provider's status and carry its raw payload as
// details; everything else is a 400 input error or a 500.
func writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gateway.ErrMissingCode):
		httputil.WriteBadRequest(w, "Missing authorization code")
		return
	case errors.Is(err, gateway.ErrMissingRefreshToken):
		httputil.WriteBadRequest(w, "Missing refresh token")
		return
	case errors.Is(err, gateway.ErrInvalidState):
		httputil.WriteBadRequest(w, "Invalid or expired state")
		return
	case errors.Is(err, token.ErrMalformedResponse):
		httputil.WriteInternalServerError(w, "Provider returned an invalid response")
		return
	}

	var providerErr *token.ProviderError
	if errors.As(err, &providerErr) {
		httputil.WriteErrorDetails(w, providerErr.Status, "Token request rejected by provider", providerErr.Details())
		return
	}

	var transportErr *token.TransportError
	if errors.As(err, &transportErr) {
		httputil.WriteInternalServerError(w, "Failed to reach authorization provider")
		return
	}

	var persistErr *gateway.PersistenceError
	if errors.As(err, &persistErr) {
		httputil.WriteInternalServerError(w, "Token could not be durably stored")
		return
	}

	log.LogError("Unhandled flow error: %v", err)
	httputil.WriteInternalServerError(w, "Internal server error")
}
