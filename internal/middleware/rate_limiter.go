package middleware

import (
	"fmt"
	"net/http"

	"github.com/inkwell-labs/inkwell/internal/util"
	"github.com/gin-gonic/gin"
)

func (m Middleware) RateLimiterMiddleware(ctx *gin.Context) {
	if !m.rateLimiter.Enabled() {
		ctx.Next()
		return
	}

	allowed, retryAfter := m.rateLimiter.Allow(ctx.ClientIP())
	if !allowed {
		ctx.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
		util.ResponseFailed(ctx, http.StatusTooManyRequests, "Too many requests", nil, nil)
		ctx.Abort()
		return
	}

	ctx.Next()
}
