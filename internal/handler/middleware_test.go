package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handybob/callops/internal/askbob"
)

const testJWTSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func requestWithAuth(t *testing.T, secret, authorization string) (*httptest.ResponseRecorder, *askbob.AuthContext) {
	t.Helper()

	var captured *askbob.AuthContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth, ok := AuthFromContext(r.Context()); ok {
			captured = &auth
		}
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/calls", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	AuthMiddleware(secret)(next).ServeHTTP(rec, req)
	return rec, captured
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	token := signToken(t, testJWTSecret, jwt.MapClaims{
		"workspace_id": "ws-1",
		"user_id":      "user-1",
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	rec, auth := requestWithAuth(t, testJWTSecret, "Bearer "+token)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, auth)
	assert.Equal(t, "ws-1", auth.WorkspaceID)
	assert.Equal(t, "user-1", auth.UserID)
}

func TestAuthMiddlewareRejectsMissingWorkspaceClaim(t *testing.T) {
	token := signToken(t, testJWTSecret, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec, auth := requestWithAuth(t, testJWTSecret, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, auth)
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	token := signToken(t, "another-secret", jwt.MapClaims{
		"workspace_id": "ws-1",
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := requestWithAuth(t, testJWTSecret, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	token := signToken(t, testJWTSecret, jwt.MapClaims{
		"workspace_id": "ws-1",
		"exp":          time.Now().Add(-time.Hour).Unix(),
	})

	rec, _ := requestWithAuth(t, testJWTSecret, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	rec, _ := requestWithAuth(t, testJWTSecret, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
