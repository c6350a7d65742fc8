package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/contractforge/registry/internal/httpserver"
)

// Middleware resolves the caller's ActorIdentity via, in precedence order:
//  1. Authorization: Bearer <jwt>  — OIDC, when oidcAuth is non-nil
//  2. X-API-Key: <raw-key>         — API key hash lookup, when apikeyAuth is non-nil
//  3. devAddress                   — static local/dev fallback (may be empty)
//
// When none resolve and devAddress is empty, the request proceeds
// unauthenticated; RequireAuth rejects it downstream for routes that need an
// actor.
func Middleware(oidcAuth *OIDCAuthenticator, apikeyAuth *APIKeyAuthenticator, devAddress string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id *ActorIdentity

			if authHeader := r.Header.Get("Authorization"); oidcAuth != nil &&
				(strings.HasPrefix(authHeader, "Bearer ") || strings.HasPrefix(authHeader, "bearer ")) {
				resolved, err := oidcAuth.Authenticate(r.Context(), authHeader)
				if err != nil {
					logger.Warn("oidc authentication failed", "error", err)
					httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
					return
				}
				id = resolved
			}

			if id == nil && apikeyAuth != nil {
				if rawKey := r.Header.Get("X-API-Key"); rawKey != "" {
					resolved, err := apikeyAuth.Authenticate(r.Context(), rawKey)
					if err != nil {
						logger.Warn("api key authentication failed", "error", err)
						httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "invalid API key")
						return
					}
					id = resolved
				}
			}

			if id == nil && devAddress != "" {
				id = &ActorIdentity{Address: devAddress, Subject: devAddress, Method: MethodDev}
			}

			if id != nil {
				r = r.WithContext(NewContext(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests with no resolved ActorIdentity. Mount after
// Middleware on routes that mutate state and must attribute an actor.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			httpserver.RespondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
