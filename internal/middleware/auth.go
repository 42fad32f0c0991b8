package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"learnhub/internal/models"
	"learnhub/internal/response"
	"learnhub/internal/service"
)

const (
	ctxCurrentUser = "current_user"
	ctxIdentity    = "identity"
)

type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (models.User, service.Identity, error)
}

// Auth requires a bearer access token whose server-side record is still live.
func Auth(auth Authenticator, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Abort(c, response.Response{Kind: response.KindUnauthenticated})
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		user, identity, err := auth.Authenticate(c.Request.Context(), tokenStr)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrInactiveUser):
			response.Abort(c, response.Response{Kind: response.KindInactiveUser})
			return
		case errors.Is(err, service.ErrUnauthenticated):
			response.Abort(c, response.Response{Kind: response.KindUnauthenticated})
			return
		default:
			log.Error().Err(err).Msg("authenticate request failed")
			response.Abort(c, response.Response{Kind: response.KindError})
			return
		}

		c.Set(ctxCurrentUser, user)
		c.Set(ctxIdentity, identity)

		c.Next()
	}
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	val, ok := c.Get(ctxCurrentUser)
	if !ok {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

func CurrentIdentity(c *gin.Context) (service.Identity, bool) {
	val, ok := c.Get(ctxIdentity)
	if !ok {
		return service.Identity{}, false
	}
	identity, ok := val.(service.Identity)
	return identity, ok
}
