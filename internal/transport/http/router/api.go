package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ats-pipeline/internal/core/auth"
	"ats-pipeline/internal/core/server"
	mdw "ats-pipeline/internal/transport/http/middleware"
)

type Options struct {
	CORSOrigins  []string
	RatePerSec   float64
	RateBurst    int
	MaxInFlight  int64
	MaxBodyBytes int64
	Timeout      time.Duration
	// Ready 健康检查时探测下游（DB/Redis）；为空时只回 ok
	Ready func(*gin.Context) error
}

func (o Options) withDefaults() Options {
	if o.RatePerSec <= 0 {
		o.RatePerSec = 200
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 400
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 300
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 16 << 20
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return o
}

func newEngine(l *zap.Logger, o Options) *gin.Engine {
	o = o.withDefaults()
	r := server.NewRouter(l, o.CORSOrigins)
	// handler 里直接把 *gin.Context 当 context 用，需要跟随请求超时
	r.ContextWithFallback = true

	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(rate.Limit(o.RatePerSec), o.RateBurst, 10*time.Minute),
		mdw.ConcurrencyLimit(o.MaxInFlight, 2*time.Second),
		mdw.MaxBodyBytes(o.MaxBodyBytes),
		mdw.Timeout(o.Timeout),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if o.Ready != nil {
			if err := o.Ready(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// publicLimit 未登录接口（登录）共用一个令牌桶
func publicLimit() gin.HandlerFunc { return mdw.RateLimit(rate.Limit(5), 20) }

func NewAPIEngine(l *zap.Logger, o Options, jwter *auth.JWTer, reg *Registry) *gin.Engine {
	r := newEngine(l, o)

	api := r.Group("/api/v1")
	reg.MountPublic(api.Group("", publicLimit()))

	authUser := api.Group("")
	authUser.Use(mdw.AuthJWT(jwter, ""))
	reg.MountAPI(authUser)
	return r
}
