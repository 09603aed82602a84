package token

import "time"

// Record is the canonical, provider-agnostic token shape. Every grant
// response is normalized into it before being persisted or returned;
// unknown provider fields are dropped. The JSON encoding is exactly the
// sanitized subset exposed to callers.
type Record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`

	// ExpiresAt is epoch milliseconds, computed server-side from ExpiresIn
	// at the moment the grant response was received. Absolute timestamps
	// from the provider are never trusted.
	ExpiresAt int64 `json:"expires_at"`

	ReceivedAt time.Time `json:"-"`
}

// tokenResponse is the wire shape of a provider token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
}

// newRecord normalizes a parsed provider response received at receivedAt.
func newRecord(resp tokenResponse, receivedAt time.Time) *Record {
	expiresIn := resp.ExpiresIn
	if expiresIn < 0 {
		expiresIn = 0
	}
	return &Record{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		Scope:        resp.Scope,
		ExpiresIn:    expiresIn,
		ExpiresAt:    receivedAt.UnixMilli() + expiresIn*1000,
		ReceivedAt:   receivedAt,
	}
}
