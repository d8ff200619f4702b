package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                testJWTSecret,
		Issuer:                "storefront-test",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func newAdminRouter(svc *auth.JWTService, seen **auth.Claims) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/admin/orders/:id", AdminAuth(svc), func(c *gin.Context) {
		*seen = GetJWTClaims(c)
		c.Status(http.StatusOK)
	})
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestAdminAuth(t *testing.T) {
	svc := newTestJWTService()

	adminToken, _, err := svc.GenerateToken(auth.GenerateTokenInput{Subject: "staff-1", Username: "ops", Role: auth.RoleAdmin})
	require.NoError(t, err)
	viewerToken, _, err := svc.GenerateToken(auth.GenerateTokenInput{Subject: "staff-2", Username: "viewer", Role: "viewer"})
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "storefront-test",
			Subject:   "staff-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Role: auth.RoleAdmin,
	})
	expiredToken, err := expired.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
		{"not a bearer", "Basic abc", http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, "ERR_TOKEN_INVALID"},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized, "ERR_TOKEN_EXPIRED"},
		{"non-admin role", "Bearer " + viewerToken, http.StatusForbidden, "ERR_FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *auth.Claims
			req := httptest.NewRequest("GET", "/admin/orders/o-1", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			newAdminRouter(svc, &seen).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
			assert.Nil(t, seen)
		})
	}

	t.Run("admin token passes and exposes claims", func(t *testing.T) {
		var seen *auth.Claims
		req := httptest.NewRequest("GET", "/admin/orders/o-1", nil)
		req.Header.Set(AuthHeaderKey, "Bearer "+adminToken)
		w := httptest.NewRecorder()
		newAdminRouter(svc, &seen).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "staff-1", seen.Subject)
		assert.Equal(t, "ops", seen.Username)
	})
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
}
