package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yx118/MoonTVPlus/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDGenerated(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		if GetRequestID(c) == "" {
			t.Errorf("expected generated request id")
		}
		c.Status(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected request id response header")
	}
}

func TestRequestIDPreserved(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Header().Get(RequestIDHeader) != "fixed-id" {
		t.Fatalf("expected caller id preserved, got %q", recorder.Header().Get(RequestIDHeader))
	}
}

func TestSessionAuthBearer(t *testing.T) {
	token, err := GenerateToken("secret", "alice", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	router := gin.New()
	router.Use(SessionAuth("secret"))
	router.GET("/api/ai/chat", func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || claims.Username != "alice" || !claims.Elevated() {
			t.Errorf("unexpected claims: %+v", claims)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ai/chat", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestSessionAuthCookie(t *testing.T) {
	token, _ := GenerateToken("secret", "bob", RoleUser, time.Hour)

	router := gin.New()
	router.Use(SessionAuth("secret"))
	router.GET("/", func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || claims.Username != "bob" || claims.Elevated() {
			t.Errorf("unexpected claims: %+v", claims)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestSessionAuthInvalidToken(t *testing.T) {
	router := gin.New()
	router.Use(SessionAuth("secret"))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestSessionAuthMissingTokenPassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(SessionAuth("secret"))
	router.GET("/", func(c *gin.Context) {
		if GetClaims(c) != nil {
			t.Errorf("expected anonymous request")
		}
		c.Status(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, _ := GenerateToken("secret", "old", RoleUser, -time.Minute)
	if _, err := ValidateToken("secret", token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret", "x", RoleUser, time.Hour)
	if _, err := ValidateToken("other", token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRateLimitEnforced(t *testing.T) {
	cfg := &config.Config{HTTPRateLimit: config.HTTPRateLimitConfig{
		RequestsPerMinute: 2, CacheSize: 16, CacheTTLSeconds: 120,
	}}

	router := gin.New()
	router.Use(RateLimit(cfg))
	router.GET("/api/ai/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/ai/chat", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		statuses = append(statuses, recorder.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("first requests must pass: %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third request: %v", statuses)
	}
}

func TestRateLimitSkipsUnprotectedPaths(t *testing.T) {
	cfg := &config.Config{HTTPRateLimit: config.HTTPRateLimitConfig{
		RequestsPerMinute: 1, CacheSize: 16, CacheTTLSeconds: 120,
	}}

	router := gin.New()
	router.Use(RateLimit(cfg))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
		if recorder.Code != http.StatusOK {
			t.Fatalf("health must not be limited, got %d", recorder.Code)
		}
	}
}
