package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"learnhub/internal/response"
)

func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("error", r).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.Writer.Header().Get(requestIDHeader)).
					Msg("panic recovered")
				response.Abort(c, response.Response{Kind: response.KindError})
			}
		}()
		c.Next()
	}
}
