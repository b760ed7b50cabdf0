package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yx118/MoonTVPlus/internal/httperror"
)

// User roles carried in session tokens.
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AuthCookieName is the session cookie set by the login flow.
const AuthCookieName = "auth"

const claimsKey = "auth_claims"

// Token validation failures.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the session token payload.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Elevated reports whether the role may use restricted features.
func (c *Claims) Elevated() bool {
	return c != nil && (c.Role == RoleOwner || c.Role == RoleAdmin)
}

// GenerateToken signs a session token for a user.
func GenerateToken(secret, username, role string, ttl time.Duration) (string, error) {
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "moontvplus",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies a session token.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SessionAuth extracts the session token from the bearer header or the
// auth cookie and stores the verified claims on the context. A missing
// token passes through without an identity; the handlers decide which
// routes require one. A present but invalid token is rejected here.
func SessionAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" || strings.TrimSpace(secret) == "" {
			c.Next()
			return
		}

		claims, err := ValidateToken(secret, tokenString)
		if err != nil {
			status, payload := httperror.Response(httperror.NewUnauthorized(err.Error()))
			c.AbortWithStatusJSON(status, payload)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the verified session claims, or nil for an
// anonymous request.
func GetClaims(c *gin.Context) *Claims {
	if c == nil {
		return nil
	}
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func extractToken(c *gin.Context) string {
	authValue := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(authValue), "bearer ") {
		if token := strings.TrimSpace(authValue[7:]); token != "" {
			return token
		}
	}

	if cookie, err := c.Cookie(AuthCookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}
