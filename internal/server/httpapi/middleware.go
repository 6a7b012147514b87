package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/workboard/internal/common"
	"github.com/dmitrijs2005/workboard/internal/logging"
	"github.com/dmitrijs2005/workboard/internal/server/auth"
	"github.com/dmitrijs2005/workboard/internal/server/ratelimit"
	"github.com/dmitrijs2005/workboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// RequestLogger writes one line per request after it completes.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"ip", c.ClientIP(),
		)
	}
}

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer access token and stores its claims
// on the context.
func Authenticate(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader(common.AuthorizationHeaderName), " ")
		if !ok || !strings.EqualFold(scheme, common.BearerScheme) || strings.TrimSpace(token) == "" {
			c.Header("WWW-Authenticate", common.BearerScheme)
			respondError(c, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		claims, err := parser.Parse(strings.TrimSpace(token))
		if err != nil {
			c.Header("WWW-Authenticate", common.BearerScheme+` error="invalid_token"`)
			respondError(c, http.StatusUnauthorized, codeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role claim differs.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok || claims.Role != role {
			respondError(c, http.StatusForbidden, codeForbidden, "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

func principal(c *gin.Context) services.Principal {
	claims, _ := claimsFrom(c)
	if claims == nil {
		return services.Principal{}
	}
	return services.Principal{UserID: claims.UserID, Role: claims.Role}
}

// RateLimit admits requests per client IP. When the limiter itself fails
// the request is let through.
func RateLimit(l ratelimit.Limiter, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn(c.Request.Context(), "rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			secs := int(res.RetryAfter.Round(time.Second) / time.Second)
			c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
			respondError(c, http.StatusTooManyRequests, codeRateLimited, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
