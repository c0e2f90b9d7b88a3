package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims are the JWT claims issued to an authenticated operator
type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates a Bearer token and requires the operator role. Applied to
// the /admin route group.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims := &OperatorClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		if claims.Role != "operator" {
			Unauthorized(c, "insufficient role")
			c.Abort()
			return
		}

		c.Set("operator", claims.Subject)
		c.Next()
	}
}
