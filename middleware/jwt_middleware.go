// middleware/jwt_middleware.go
package middleware

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/HSouheill/snapgram_backend/config"
)

// SessionCookieName is the cookie the session token is delivered in.
const SessionCookieName = "token"

// TokenLifetime is how long an issued session token stays valid.
const TokenLifetime = 24 * time.Hour

// JwtCustomClaims for JWT token
type JwtCustomClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.StandardClaims
}

// Valid implements the Claims interface for Echo's JWT middleware
func (c JwtCustomClaims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return errors.New("token is expired")
	}
	if c.NotBefore > 0 && time.Now().Unix() < c.NotBefore {
		return errors.New("token used before valid")
	}
	return nil
}

// Revoked tokens live in Redis so logout survives restarts and is shared
// between instances. When Redis is unavailable an in-process map takes over.
var (
	revokedTokens   = make(map[string]time.Time)
	revokedTokensMu sync.RWMutex
)

const revokedKeyPrefix = "revoked:"

// RevokeToken invalidates a token until its natural expiry.
func RevokeToken(token string, expiry time.Time) {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return
	}

	if client := config.GetRedisClient(); client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Set(ctx, revokedKeyPrefix+token, "1", ttl).Err(); err == nil {
			return
		}
		// Fall through to the in-process map on Redis errors
	}

	revokedTokensMu.Lock()
	revokedTokens[token] = expiry
	revokedTokensMu.Unlock()
}

// IsTokenRevoked checks whether a token has been invalidated by logout.
func IsTokenRevoked(token string) bool {
	if client := config.GetRedisClient(); client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := client.Exists(ctx, revokedKeyPrefix+token).Result()
		if err == nil && n > 0 {
			return true
		}
	}

	revokedTokensMu.RLock()
	_, exists := revokedTokens[token]
	revokedTokensMu.RUnlock()
	return exists
}

// CleanupRevokedTokens periodically removes expired tokens from the
// in-process fallback store. Redis entries expire on their own.
func CleanupRevokedTokens() {
	for {
		time.Sleep(1 * time.Hour)
		now := time.Now()
		revokedTokensMu.Lock()
		for token, expiry := range revokedTokens {
			if now.After(expiry) {
				delete(revokedTokens, token)
			}
		}
		revokedTokensMu.Unlock()
	}
}

// GetJWTSecret returns the JWT secret from environment variables
func GetJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
	return secret
}

// JWTMiddleware returns a configured JWT middleware. The token is read
// from the http-only session cookie or, failing that, the Authorization
// header. The revocation check runs between signature validation and the
// handler so a logged-out token never reaches it.
func JWTMiddleware() echo.MiddlewareFunc {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Printf("Warning: JWT_SECRET environment variable is not set")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "JWT configuration error")
			}
		}
	}

	validate := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:  []byte(secret),
		Claims:      &JwtCustomClaims{},
		TokenLookup: "cookie:" + SessionCookieName + ",header:Authorization",
		ErrorHandler: func(err error) error {
			log.Printf("JWT middleware error: %v", err)
			return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return validate(func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Please provide valid credentials")
			}

			if IsTokenRevoked(token.Raw) {
				return echo.NewHTTPError(echo.ErrUnauthorized.Code, "Token has been invalidated")
			}

			claims := token.Claims.(*JwtCustomClaims)

			// Store claims in context for easy access
			c.Set("userId", claims.UserID)
			c.Set("username", claims.Username)

			return next(c)
		})
	}
}

// GenerateJWT generates a new session token with a 24h expiry
func GenerateJWT(userID, username string) (string, error) {
	now := time.Now()
	claims := &JwtCustomClaims{
		UserID:   userID,
		Username: username,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(TokenLifetime).Unix(),
			IssuedAt:  now.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET environment variable is required")
	}

	return token.SignedString([]byte(secret))
}

// GetUserFromToken extracts user claims from the validated JWT token
func GetUserFromToken(c echo.Context) *JwtCustomClaims {
	user := c.Get("user")
	if user == nil {
		return nil
	}

	token, ok := user.(*jwt.Token)
	if !ok {
		return nil
	}

	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return nil
	}

	return claims
}

// ExtractUserID returns the authenticated caller's ID or an error
func ExtractUserID(c echo.Context) (string, error) {
	if userID, ok := c.Get("userId").(string); ok && userID != "" {
		return userID, nil
	}

	claims := GetUserFromToken(c)
	if claims != nil && claims.UserID != "" {
		return claims.UserID, nil
	}

	return "", errors.New("invalid user ID in token")
}
