package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"pexl-backend/internal/config"
	"pexl-backend/internal/middleware"
)

func testConfig() *config.Config {
	return &config.Config{
		SupabaseJWTSecret: "test-secret-key-for-jwt-signing-must-be-long-enough",
		SignInURL:         "/api/auth/signin",
		HomeURL:           "/",
	}
}

func signToken(t *testing.T, cfg *config.Config, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.SupabaseJWTSecret))
	assert.NoError(t, err)
	return tokenString
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-123"})
	tokenString, _ := token.SignedString([]byte("some-other-secret"))

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	tokenString := signToken(t, cfg, jwt.MapClaims{
		"sub":   "user-123",
		"email": "customer@example.com",
	})

	router := gin.New()
	router.Use(middleware.AuthMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		assert.True(t, ok)
		assert.Equal(t, "user-123", userID)

		email, ok := middleware.UserEmail(c)
		assert.True(t, ok)
		assert.Equal(t, "customer@example.com", email)

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOwnerGate_UnauthenticatedRedirectsToSignIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()

	router := gin.New()
	router.Use(middleware.OwnerGate(cfg, func(email string) (string, error) {
		return "owner", nil
	}))
	router.GET("/owner/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req, _ := http.NewRequest("GET", "/owner/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, cfg.SignInURL, w.Header().Get("Location"))
}

func TestOwnerGate_NonOwnerRedirectsHome(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	tokenString := signToken(t, cfg, jwt.MapClaims{
		"sub":   "user-123",
		"email": "customer@example.com",
	})

	router := gin.New()
	router.Use(middleware.OwnerGate(cfg, func(email string) (string, error) {
		return "customer", nil
	}))
	router.GET("/owner/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req, _ := http.NewRequest("GET", "/owner/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, cfg.HomeURL, w.Header().Get("Location"))
}

func TestOwnerGate_OwnerPasses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	tokenString := signToken(t, cfg, jwt.MapClaims{
		"sub":   "user-123",
		"email": "owner@example.com",
	})

	router := gin.New()
	router.Use(middleware.OwnerGate(cfg, func(email string) (string, error) {
		assert.Equal(t, "owner@example.com", email)
		return "owner", nil
	}))
	router.GET("/owner/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req, _ := http.NewRequest("GET", "/owner/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
