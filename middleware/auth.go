package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/genz-feed/api-go/utils"
)

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint, error)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "message": message})
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header and
// stores the caller as utils.UserClaims on the context.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		bearerToken := strings.Fields(authHeader)
		if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
			abortUnauthorized(c, "Invalid token format")
			return
		}

		userID, err := auth.Authenticate(c.Request.Context(), bearerToken[1])
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		utils.SetUser(c, &utils.UserClaims{UserID: userID})
		c.Next()
	}
}
