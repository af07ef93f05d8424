package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Resp 统一信封；HTTP 状态恒为 200，成败看 Code
type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// CtxKeyCode 写出的业务码记在 gin 上下文里，指标和访问日志从这里取
const CtxKeyCode = "respCode"

// Page 分页列表
type Page[T any] struct {
	Total int64 `json:"total"`
	Items []T   `json:"items"`
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

// OK 成功响应
func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

func JSON(c *gin.Context, r Resp) {
	c.Set(CtxKeyCode, r.Code)
	c.JSON(http.StatusOK, r)
}

// Abort 中间件拒绝请求时用
func Abort(c *gin.Context, r Resp) {
	c.Set(CtxKeyCode, r.Code)
	c.AbortWithStatusJSON(http.StatusOK, r)
}
