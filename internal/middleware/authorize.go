package middleware

import (
	"github.com/gin-gonic/gin"

	"learnhub/internal/models"
	"learnhub/internal/response"
)

func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Abort(c, response.Response{Kind: response.KindUnauthenticated})
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			response.Abort(c, response.Response{Kind: response.KindUnauthorized})
			return
		}

		c.Next()
	}
}
