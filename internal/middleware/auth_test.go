package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(InternalAuthMiddleware(apiKey))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func doAuthRequest(t *testing.T, router *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("GET", "/protected", nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInternalAuthAcceptsAPIKeyHeader(t *testing.T) {
	router := setupAuthRouter("secret-key")
	w := doAuthRequest(t, router, map[string]string{"X-Internal-API-Key": "secret-key"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInternalAuthAcceptsBearerToken(t *testing.T) {
	router := setupAuthRouter("secret-key")
	w := doAuthRequest(t, router, map[string]string{"Authorization": "Bearer secret-key"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInternalAuthRejectsWrongKey(t *testing.T) {
	router := setupAuthRouter("secret-key")

	w := doAuthRequest(t, router, map[string]string{"X-Internal-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doAuthRequest(t, router, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInternalAuthRejectsMissingKey(t *testing.T) {
	router := setupAuthRouter("secret-key")
	w := doAuthRequest(t, router, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInternalAuthFailsClosedWhenUnconfigured(t *testing.T) {
	router := setupAuthRouter("")
	w := doAuthRequest(t, router, map[string]string{"X-Internal-API-Key": ""})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
