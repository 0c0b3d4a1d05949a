package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// TokenVerifier validates a raw bearer token and returns its ID token.
// *oidc.IDTokenVerifier satisfies it; tests substitute their own.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*oidc.IDToken, error)
}

// NewOIDCVerifier builds a verifier via OIDC discovery against the issuer.
func NewOIDCVerifier(ctx context.Context, issuerURL, audience string) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, err
	}
	return provider.Verifier(&oidc.Config{ClientID: audience}), nil
}

type contextKey string

const ctxUserID contextKey = "user_id"

// UserFromContext extracts the authenticated user ID from the request
// context. Empty means anonymous.
func UserFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxUserID).(string)
	return v
}

// auth verifies a Bearer token when one is presented. Forms are public, so
// a missing Authorization header is not an error; the visitor is simply
// anonymous, and forms that require login turn them away at the gate. A
// token that is present but invalid is rejected.
func auth(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if verifier == nil || authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
			return
		}

		token, err := verifier.Verify(r.Context(), parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}

		var claims struct {
			Sub   string `json:"sub"`
			Email string `json:"email"`
		}
		if err := token.Claims(&claims); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		userID := claims.Sub
		if userID == "" {
			userID = claims.Email
		}
		ctx := r.Context()
		if userID != "" {
			ctx = context.WithValue(ctx, ctxUserID, userID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
