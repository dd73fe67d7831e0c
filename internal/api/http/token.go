package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// tokenRequest is the body of POST /api/tokens.
type tokenRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

// tokenResponse carries the signed bearer token and its expiry.
type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// issueToken exchanges the bootstrap secret for a signed bearer token.
// The endpoint is disabled when no bootstrap secret is configured.
func (s *Server) issueToken(c *gin.Context) {
	if s.bootstrapSecret == "" {
		c.JSON(http.StatusNotFound, errorResponse{
			Kind:  "NOT_FOUND",
			Error: "token issuance is disabled",
		})

		return
	}

	var request tokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidInput(c, "malformed request body")

		return
	}

	if request.Identity == "" {
		writeInvalidInput(c, "identity must not be empty")

		return
	}

	if subtle.ConstantTimeCompare([]byte(request.Secret), []byte(s.bootstrapSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, errorResponse{
			Kind:  "UNAUTHORIZED",
			Error: "invalid bootstrap secret",
		})

		return
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   request.Identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{
			Kind:  "INTERNAL",
			Error: "failed to sign token",
		})

		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
	})
}
