package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/promptforge/promptforge/internal/auth"
)

// ctxKey is the private type for request context keys in this package.
type ctxKey int

const claimsKey ctxKey = iota

// requireAuth wraps next so it only runs for requests bearing a valid
// access token. The verified claims are stored in the request context for
// [claimsFrom].
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, r, auth.ErrInvalidToken)
			return
		}

		claims, err := s.issuer.Verify(strings.TrimSpace(token))
		if err != nil {
			respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// claimsFrom returns the verified token claims stored by requireAuth.
// Handlers registered behind requireAuth can rely on the claims being
// present.
func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}
