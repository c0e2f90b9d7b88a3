package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/askpair/api/internal/middleware"
)

// AuthHandler exchanges the operator admin key for a short-lived JWT
type AuthHandler struct {
	jwtSecret string
	adminKey  string
	logger    *zap.Logger
}

// NewAuthHandler creates a new auth handler. adminKey may be a bcrypt hash
// or a plain value for local development.
func NewAuthHandler(jwtSecret, adminKey string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{jwtSecret: jwtSecret, adminKey: adminKey, logger: logger}
}

// TokenRequest is the request body for /auth/token
type TokenRequest struct {
	AdminKey string `json:"admin_key" binding:"required"`
}

// TokenResponse is the response for /auth/token
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Token handles POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	if !h.keyMatches(req.AdminKey) {
		middleware.Unauthorized(c, "invalid admin key")
		return
	}

	expiresAt := time.Now().Add(12 * time.Hour)
	claims := middleware.OperatorClaims{
		Role: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   "operator",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		h.logger.Error("token signing failed", zap.Error(err))
		middleware.InternalError(c, "failed to issue token")
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: signed, ExpiresAt: expiresAt})
}

func (h *AuthHandler) keyMatches(presented string) bool {
	if strings.HasPrefix(h.adminKey, "$2a$") || strings.HasPrefix(h.adminKey, "$2b$") {
		return bcrypt.CompareHashAndPassword([]byte(h.adminKey), []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(h.adminKey), []byte(presented)) == 1
}
