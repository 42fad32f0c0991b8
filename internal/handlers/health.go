package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"learnhub/internal/response"
)

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	data := gin.H{"environment": h.cfg.Environment}
	healthy := true
	for _, check := range h.checks {
		status := "ok"
		if err := check.Check(ctx); err != nil {
			status = "error"
			healthy = false
			h.log.Error().Err(err).Str("check", check.Name).Msg("health check failed")
		}
		data[check.Name] = status
	}

	if !healthy {
		response.Send(c, response.Response{
			Kind:   response.KindError,
			Status: http.StatusServiceUnavailable,
			Msg:    "Service Unavailable",
			Data:   data,
		})
		return
	}
	response.OK(c, "ok", data)
}
