package config

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OAUTH_CLIENT_ID", "client-id")
	t.Setenv("OAUTH_CLIENT_SECRET", "client-secret")
	t.Setenv("OAUTH_DEFAULT_REDIRECT_URI", "https://app.example.com/cb")
	t.Setenv("FRONTEND_ORIGIN", "https://portal.ffainvestments.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DefaultAuthorizeURL, cfg.AuthorizeURL)
	assert.Equal(t, DefaultTokenURL, cfg.TokenURL)
	assert.True(t, cfg.EnforceState)
	assert.False(t, cfg.RedirectAllowAny)
	assert.Equal(t, 10*time.Minute, cfg.StateTTL)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, StorageMemory, cfg.Storage)

	// The default redirect is always a member of the allow-list.
	assert.Contains(t, cfg.AllowedRedirectURIs, "https://app.example.com/cb")
}

func TestLoadAllowList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OAUTH_ALLOWED_REDIRECT_URIS", "https://a.example.com/cb,https://b.example.com/cb")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.AllowedRedirectURIs, "https://a.example.com/cb")
	assert.Contains(t, cfg.AllowedRedirectURIs, "https://b.example.com/cb")
	assert.Contains(t, cfg.AllowedRedirectURIs, "https://app.example.com/cb")
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{name: "client_id", unset: "OAUTH_CLIENT_ID", wantErr: "OAUTH_CLIENT_ID"},
		{name: "client_secret", unset: "OAUTH_CLIENT_SECRET", wantErr: "OAUTH_CLIENT_SECRET"},
		{name: "default_redirect", unset: "OAUTH_DEFAULT_REDIRECT_URI", wantErr: "OAUTH_DEFAULT_REDIRECT_URI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadProductionRequiresOrigin(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FRONTEND_ORIGIN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FRONTEND_ORIGIN")
}

func TestLoadDevelopmentRelaxesOrigin(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FRONTEND_ORIGIN", "")
	t.Setenv("BROKER_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
}

func TestLoadFirestoreRequirements(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_KIND", "firestore")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GCP_PROJECT_ID")

	t.Setenv("GCP_PROJECT_ID", "ffa-investments")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_ENCRYPTION_KEY")

	t.Setenv("TOKEN_ENCRYPTION_KEY", "not base64!!!")
	_, err = Load()
	require.Error(t, err)

	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	t.Setenv("TOKEN_ENCRYPTION_KEY", key)
	cfg, err := Load()
	require.NoError(t, err)

	decoded, err := cfg.EncryptionKeyBytes()
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
}

func TestLoadUnknownStorage(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_KIND", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_KIND")
}

func TestSecretRedaction(t *testing.T) {
	secret := Secret("super-sensitive")
	assert.Equal(t, "***", secret.String())
	assert.Equal(t, "", Secret("").String())

	data, err := json.Marshal(struct {
		ClientSecret Secret `json:"client_secret"`
	}{ClientSecret: secret})
	require.NoError(t, err)
	assert.JSONEq(t, `{"client_secret":"***"}`, string(data))
	assert.NotContains(t, string(data), "super-sensitive")
}
