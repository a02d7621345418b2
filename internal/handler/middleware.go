package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/handybob/callops/internal/askbob"
	"github.com/handybob/callops/pkg/logger"
	"go.uber.org/zap"
)

type contextKey string

const authContextKey contextKey = "callops.auth"

// AuthFromContext returns the authenticated identity placed on the
// request context by AuthMiddleware.
func AuthFromContext(ctx context.Context) (askbob.AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey).(askbob.AuthContext)
	return auth, ok
}

// LoggingMiddleware logs HTTP requests with status and latency.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.Base().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// CORSMiddleware adds CORS headers for browser clients of the action API.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware validates a Bearer JWT and places the caller's
// workspace and user ids on the request context. Tokens without a
// workspace claim are rejected; the AskBob dispatcher re-validates the
// workspace on every task, this is only the first gate.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.Base().Error("JWT secret not configured, rejecting request")
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			header := r.Header.Get("Authorization")
			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == "" || tokenString == header {
				writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				logger.Base().Warn("invalid bearer token",
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err))
				writeJSONError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			workspaceID, _ := claims["workspace_id"].(string)
			userID, _ := claims["user_id"].(string)
			if workspaceID == "" {
				writeJSONError(w, http.StatusUnauthorized, "token missing workspace claim")
				return
			}

			auth := askbob.AuthContext{WorkspaceID: workspaceID, UserID: userID}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authContextKey, auth)))
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error": "` + msg + `"}`))
}
