package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/oshokin/emergency-dispatch/internal/logger"
)

// identityKey is the gin context key holding the authenticated identity.
const identityKey = "identity"

// bearerPrefix is the expected Authorization scheme.
const bearerPrefix = "Bearer "

// auth validates the Bearer token and stores the caller identity in the
// request context. Requests without a valid token are rejected with 401.
func auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Kind:  "UNAUTHORIZED",
				Error: "missing bearer token",
			})

			return
		}

		raw := strings.TrimPrefix(header, bearerPrefix)

		claims := new(jwt.RegisteredClaims)

		token, err := jwt.ParseWithClaims(raw, claims,
			func(_ *jwt.Token) (interface{}, error) {
				return secret, nil
			},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Kind:  "UNAUTHORIZED",
				Error: "invalid or expired token",
			})

			return
		}

		c.Set(identityKey, claims.Subject)
		c.Next()
	}
}

// callerIdentity returns the identity set by the auth middleware.
func callerIdentity(c *gin.Context) string {
	return c.GetString(identityKey)
}

// accessLog records every request with its status and latency.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.InfoKV(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}
