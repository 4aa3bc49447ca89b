package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// UserIDFromContext returns the authenticated user ID set by JWTAuth, or "".
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithUserID returns a context carrying the given user ID, as if
// JWTAuth had authenticated it.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// JWTAuth validates HMAC-signed bearer tokens and stores the subject claim in
// context as the user ID. Token issuance is handled by the external identity
// service; this middleware only verifies.
func JWTAuth(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid bearer token",
					slog.String("path", r.URL.Path),
					slog.String("error", errString(err)),
				)
				writeAuthError(w, "invalid or expired token")
				return
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				writeAuthError(w, "token has no subject")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, sub)
			r.Header.Set("X-User-ID", sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func errString(err error) string {
	if err == nil {
		return "token invalid"
	}
	return err.Error()
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "UNAUTHORIZED", "message": message},
	})
}
