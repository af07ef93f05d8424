package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	resp "ats-pipeline/internal/transport/http/response"
)

// MaxBodyBytes 声明长度超限直接拒绝；未声明长度的由 MaxBytesReader 截断，读取方报 400
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, resp.Error(resp.CodeTooLarge,
				fmt.Sprintf("request body larger than %d MB", n>>20)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
