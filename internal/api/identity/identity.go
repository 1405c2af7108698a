// Package identity carries the authenticated caller through the request
// context. Authentication itself happens upstream (a gateway terminates
// credentials and forwards X-User-ID / X-User-Role); this service trusts
// those headers unconditionally.
package identity

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"skillswap-backend/internal/storage"
)

type Identity struct {
	UserID uuid.UUID
	Role   string
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Middleware rejects requests without a parseable X-User-ID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
		if err != nil {
			http.Error(w, `{"error":"not_authorized","message":"missing or invalid X-User-ID header"}`, http.StatusUnauthorized)
			return
		}

		role := r.Header.Get("X-User-Role")
		if role == "" {
			role = storage.RoleStudent
		}

		ctx := WithIdentity(r.Context(), Identity{UserID: userID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards the moderation surface.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok || id.Role != storage.RoleAdmin {
			http.Error(w, `{"error":"not_authorized","message":"admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
