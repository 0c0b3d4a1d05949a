package api_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xordon/webform-go/internal/api"
	"github.com/xordon/webform-go/internal/domain"
	"github.com/xordon/webform-go/internal/i18n"
	"github.com/xordon/webform-go/internal/storage/memory"
)

// testOIDCServer creates a fake OIDC issuer serving JWKS.
func testOIDCServer(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()
	jwk := jose.JSONWebKey{Key: &key.PublicKey, KeyID: "test-kid", Algorithm: "RS256", Use: "sig"}
	jwks := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{jwk}}

	mux := http.NewServeMux()
	var issuerURL string

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{
			"issuer":   issuerURL,
			"jwks_uri": issuerURL + "/jwks",
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(jwks); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	ts := httptest.NewServer(mux)
	issuerURL = ts.URL
	return ts
}

// signJWT creates a signed JWT with the given claims.
func signJWT(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()
	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithHeader("kid", "test-kid"),
	)
	require.NoError(t, err)

	raw, err := jwt.Signed(sig).Claims(claims).Serialize()
	require.NoError(t, err)
	return raw
}

type authEnv struct {
	ts        *httptest.Server
	key       *rsa.PrivateKey
	issuerURL string
}

func setupAuthServer(t *testing.T) authEnv {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	issuer := testOIDCServer(t, key)
	t.Cleanup(issuer.Close)

	oidcCtx := oidc.InsecureIssuerURLContext(t.Context(), issuer.URL)
	verifier, err := api.NewOIDCVerifier(oidcCtx, issuer.URL, "test-audience")
	require.NoError(t, err)

	store := memory.New()
	form := &domain.Form{
		ID:     "gated",
		Title:  "Members Only",
		Status: domain.StatusPublished,
		Fields: []domain.FieldSpec{{ID: "name", Type: domain.FieldText, Label: "Name", Required: true}},
	}
	form.Settings.RequireLogin = true
	store.AddForm(form)

	msgs, err := i18n.New("en")
	require.NoError(t, err)

	ts := httptest.NewServer(api.New(store, msgs, api.Options{
		SubmitRate:  1000,
		SubmitBurst: 1000,
		Verifier:    verifier,
	}))
	t.Cleanup(ts.Close)
	return authEnv{ts: ts, key: key, issuerURL: issuer.URL}
}

func (e authEnv) submit(t *testing.T, authHeader string) *http.Response {
	t.Helper()
	body := []byte(`{"data": {"name": "Ada"}}`)
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+"/api/v1/forms/gated/submissions", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAuthVisitorFlow(t *testing.T) {
	env := setupAuthServer(t)
	now := time.Now()

	validToken := signJWT(t, env.key, map[string]any{
		"iss": env.issuerURL, "aud": "test-audience", "sub": "user-123",
		"exp": now.Add(time.Hour).Unix(), "iat": now.Unix(),
	})
	expiredToken := signJWT(t, env.key, map[string]any{
		"iss": env.issuerURL, "aud": "test-audience", "sub": "user-123",
		"exp": now.Add(-time.Hour).Unix(), "iat": now.Add(-2 * time.Hour).Unix(),
	})
	wrongAudienceToken := signJWT(t, env.key, map[string]any{
		"iss": env.issuerURL, "aud": "wrong-audience", "sub": "user-123",
		"exp": now.Add(time.Hour).Unix(), "iat": now.Unix(),
	})

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "authenticated visitor may submit",
			authHeader: "Bearer " + validToken,
			wantStatus: http.StatusCreated,
		},
		{
			// Missing credentials are not a transport error; the form's
			// login gate turns the visitor away instead.
			name:       "anonymous visitor hits the login gate",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token rejected",
			authHeader: "Bearer " + expiredToken,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong audience rejected",
			authHeader: "Bearer " + wrongAudienceToken,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed header rejected",
			authHeader: "NotBearer xyz",
			wantStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.submit(t, tt.authHeader)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestAnonymousAccessToPublicEndpoints(t *testing.T) {
	env := setupAuthServer(t)

	// Fetching the form is public even when submitting requires login.
	resp, err := http.Get(env.ts.URL + "/api/v1/forms/gated")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	gateBlock := body["gate"].(map[string]any)
	assert.Equal(t, "login_required", gateBlock["state"])
}
