package auth

import (
	"context"
	"net/http"
	"strings"

	applog "expensetracker/internal/log"
)

type ownerKey struct{}

// WithOwner returns a context carrying ownerID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	ctx = applog.WithOwnerID(ctx, ownerID)
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFrom returns the authenticated owner, or "" when there is none.
func OwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware rejects requests without a valid token through onError and
// stores the owner in the request context otherwise.
func (m *JWTManager) Middleware(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := m.Validate(BearerToken(r))
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), claims.OwnerID)))
		})
	}
}
