package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"pexl-backend/internal/config"
)

const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// RoleLookup resolves the role stored for an email address.
type RoleLookup func(email string) (string, error)

type tokenIdentity struct {
	UserID string
	Email  string
}

func parseToken(cfg *config.Config, c *gin.Context) (*tokenIdentity, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization header format")
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return nil, fmt.Errorf("empty token")
	}

	// Try URL decoding in case the token was URL-encoded
	decodedToken, err := url.QueryUnescape(tokenString)
	if err == nil && decodedToken != tokenString {
		tokenString = decodedToken
	}

	if len(strings.Split(tokenString, ".")) != 3 {
		return nil, fmt.Errorf("invalid token format: JWT must have 3 parts")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Supabase signs access tokens with HS256 (HMAC)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		if cfg.SupabaseJWTSecret == "" {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.SupabaseJWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if strings.Contains(err.Error(), "signature is invalid") {
			return nil, fmt.Errorf("token signature is invalid - check JWT secret")
		}
		if strings.Contains(err.Error(), "token is expired") {
			return nil, fmt.Errorf("token has expired")
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, fmt.Errorf("missing user id in token")
	}

	// Email is optional in the token; role checks need it, uploads don't.
	email, _ := claims["email"].(string)

	return &tokenIdentity{UserID: sub, Email: email}, nil
}

// AuthMiddleware validates the Supabase JWT and stores the user id and email
// in the request context. API routes respond with JSON 401 on failure.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := parseToken(cfg, c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": err.Error()})
			c.Abort()
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Set(UserEmailKey, identity.Email)
		c.Next()
	}
}

// OwnerGate protects the shop owner area. Unlike the JSON API it redirects:
// unauthenticated visitors go to the sign-in page and authenticated
// non-owners go back to the home page.
func OwnerGate(cfg *config.Config, lookup RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := parseToken(cfg, c)
		if err != nil {
			c.Redirect(http.StatusFound, cfg.SignInURL)
			c.Abort()
			return
		}

		role, err := lookup(identity.Email)
		if err != nil || role != "owner" {
			c.Redirect(http.StatusFound, cfg.HomeURL)
			c.Abort()
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Set(UserEmailKey, identity.Email)
		c.Next()
	}
}

// UserID returns the authenticated user's id from the context.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// UserEmail returns the authenticated user's email from the context.
func UserEmail(c *gin.Context) (string, bool) {
	v, ok := c.Get(UserEmailKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}
