package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumenlearn/engage/engine"
	"github.com/lumenlearn/engage/utils"
)

// RateLimit admits or denies the request against the fixed-window budget of
// the given sensitivity class before the handler runs. Denials carry retry
// guidance and never reach the underlying operation.
func RateLimit(limiter *engine.RateLimiter, class engine.Class) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		d, err := limiter.Admit(ctx.Request.Context(), clientKey(ctx), class, time.Now())
		if err != nil {
			// fail-open: a broken limiter must not take the API down
			if utils.Sugar != nil {
				utils.Sugar.Warnf("rate limiter admit failed class=%s err=%v", class, err)
			}
			ctx.Next()
			return
		}

		if !d.Allowed {
			retryMs := d.RetryAfter.Milliseconds()
			ctx.Header("Retry-After", fmt.Sprintf("%d", (retryMs+999)/1000))
			utils.ErrorData(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded", gin.H{
				"retry_after_ms": retryMs,
			})
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}

// clientKey identifies the bucket owner: the authenticated user when known,
// otherwise the client IP.
func clientKey(ctx *gin.Context) string {
	if v, ok := ctx.Get(ContextUserIDKey); ok {
		if id, ok := v.(uint); ok {
			return fmt.Sprintf("user:%d", id)
		}
	}
	return "ip:" + ctx.ClientIP()
}
