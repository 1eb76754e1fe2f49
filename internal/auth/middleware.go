package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"sentinel/internal/core"
	"sentinel/internal/observability"
)

type contextKey int

const authInfoKey contextKey = 0

// WithAuthInfo returns a copy of ctx carrying info, retrievable via
// InfoFromContext.
func WithAuthInfo(ctx context.Context, info core.AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}

// InfoFromContext retrieves the AuthInfo attached by Middleware, if any.
func InfoFromContext(ctx context.Context) (core.AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey).(core.AuthInfo)
	return info, ok
}

// extractAPIKey pulls the credential out of the Authorization header,
// supporting "Bearer <key>" (OpenAI-compatible), "ApiKey <key>", and a
// bare key with no scheme.
func extractAPIKey(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	if key, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(key), true
	}
	if key, ok := strings.CutPrefix(header, "ApiKey "); ok {
		return strings.TrimSpace(key), true
	}
	if !strings.Contains(header, " ") {
		return header, true
	}
	return "", false
}

func writeAuthError(w http.ResponseWriter, status int, code, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(core.ErrorResponse{
		Error: core.ErrorBody{Code: code, Message: message, Type: errType},
	})
}

// RequireLevel returns middleware that authenticates the request against
// store and rejects it unless the resolved auth level satisfies required.
// On success it attaches a core.AuthInfo to the request context.
func RequireLevel(store *KeyStore, required core.AuthLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := observability.LoggerWithTrace(r.Context())

			key, ok := extractAPIKey(r)
			if !ok {
				log.Error().Msg("missing Authorization header")
				writeAuthError(w, http.StatusUnauthorized, "missing_authorization",
					"authentication_error", "Authorization header is required")
				return
			}

			keyID, err := store.ValidateKey(key)
			if err != nil {
				log.Error().Err(err).Msg("authentication failed")
				writeAuthError(w, http.StatusUnauthorized, "invalid_api_key",
					"authentication_error", "Authentication failed: "+err.Error())
				return
			}

			level, _ := store.AuthLevel(key)
			if !level.Satisfies(required) {
				log.Error().Str("key_id", string(keyID)).
					Str("required", required.String()).
					Str("have", level.String()).
					Msg("authorization failed")
				writeAuthError(w, http.StatusForbidden, "insufficient_permissions",
					"authorization_error",
					"Required "+required.String()+" access, but have "+level.String())
				return
			}

			info := core.AuthInfo{KeyID: keyID, AuthLevel: level}
			log.Info().Str("key_id", string(keyID)).Msg("authenticated and authorized request")
			next.ServeHTTP(w, r.WithContext(WithAuthInfo(r.Context(), info)))
		})
	}
}
