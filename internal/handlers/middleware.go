package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/najah-ai/learner-service/internal/models"
)

const (
	contextUserID   = "user_id"
	contextUserRole = "user_role"
)

// Claims are the JWT claims the service relies on: the subject is the user ID.
type Claims struct {
	Role models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates HS256 bearer tokens and stores the caller's ID and
// role in the gin context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	key := []byte(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
				Details: "missing bearer token",
			})
			return
		}

		claims := &Claims{}
		if _, err := parser.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}); err != nil {
			details := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				details = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
				Details: details,
			})
			return
		}

		if claims.Subject == "" || !claims.Role.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
				Details: "token lacks subject or role",
			})
			return
		}

		c.Set(contextUserID, claims.Subject)
		c.Set(contextUserRole, claims.Role)
		c.Next()
	}
}
