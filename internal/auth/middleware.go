package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"educonnect/placement-service/internal/domain"
	"educonnect/placement-service/internal/httpx"
)

type ctxKey struct{}

// WithActor stores actor on ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFrom returns the authenticated caller, if any.
func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(domain.Actor)
	return a, ok
}

// Middleware rejects requests without a valid bearer token with 401.
func Middleware(v *Verifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				httpx.Detail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			actor, err := v.Verify(token)
			if err != nil {
				msg := "Could not validate credentials"
				if errors.Is(err, ErrExpired) {
					msg = "Session expired, please log in again"
				}
				httpx.Detail(w, http.StatusUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireRole responds 403 unless the caller holds one of roles.
func RequireRole(roles ...domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				httpx.Detail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.Detail(w, http.StatusForbidden, "You do not have permission to access this resource")
		})
	}
}

func bearer(h string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
