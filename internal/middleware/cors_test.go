package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestCORSAllowsAPIKeyHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("OPTIONS", "/api/v1/chat", nil)
	c.Request.Header.Set("Origin", "https://app.example.com")

	CORS(nil)(c)

	require.Equal(t, 204, rec.Code)
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-API-Key")
}

func TestCORSAllowlist(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := CORS([]string{"https://app.example.com"})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/api/v1/documents", nil)
	c.Request.Header.Set("Origin", "https://app.example.com")
	handler(c)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/api/v1/documents", nil)
	c.Request.Header.Set("Origin", "https://evil.example.com")
	handler(c)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
