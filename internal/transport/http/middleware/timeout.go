package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	resp "ats-pipeline/internal/transport/http/response"
)

// Timeout 给请求上下文加截止时间；handler 需把 *gin.Context 当 context 传下去
// （引擎要开 ContextWithFallback）。已写出响应的不再覆盖
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			resp.Abort(c, resp.Error(resp.CodeTimeout, "request timed out after "+d.String()))
		}
	}
}
