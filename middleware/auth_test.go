package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriguide/config"
	"nutriguide/models"
)

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(config.JWTSecret())
	require.NoError(t, err)
	return token
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthRequired(), func(c *gin.Context) {
		id, _ := c.Get("userID")
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	r.GET("/admin", AuthRequired(), AdminRequired(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": "user-1",
		"email":   "alice@example.com",
		"role":    models.RoleUser,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthRequiredBearerHeader(t *testing.T) {
	r := authTestRouter()
	token := signToken(t, jwt.SigningMethodHS256, validClaims())

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-1")
}

func TestAuthRequiredCookieFallback(t *testing.T) {
	r := authTestRouter()
	token := signToken(t, jwt.SigningMethodHS256, validClaims())

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequiredRejections(t *testing.T) {
	r := authTestRouter()

	expiredClaims := validClaims()
	expiredClaims["exp"] = time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name   string
		header string
	}{
		{"missing token", ""},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired token", "Bearer " + signToken(t, jwt.SigningMethodHS256, expiredClaims)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthRequiredRejectsWrongAlg(t *testing.T) {
	r := authTestRouter()

	// alg=none must never be accepted, whatever the claims say.
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims()).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// The signing key must be read after the process environment is fully
// populated (main loads .env before serving), not frozen at package init.
func TestAuthRequiredUsesSecretSetAfterStartup(t *testing.T) {
	t.Setenv("JWT_SECRET", "loaded-after-startup")
	r := authTestRouter()

	token := signToken(t, jwt.SigningMethodHS256, validClaims())
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// A token signed with the stale empty key no longer verifies.
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte(""))
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+stale)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRequiredRoleClaim(t *testing.T) {
	r := authTestRouter()

	claims := validClaims()
	claims["role"] = models.RoleAdmin
	token := signToken(t, jwt.SigningMethodHS256, claims)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
