package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ats-pipeline/internal/core/auth"
	"ats-pipeline/internal/domain"
	mdw "ats-pipeline/internal/transport/http/middleware"
)

// NewAdminEngine 管理端 v1（统一要求 AdminHR 角色）
func NewAdminEngine(l *zap.Logger, o Options, jwter *auth.JWTer, reg *Registry) *gin.Engine {
	r := newEngine(l, o)

	admin := r.Group("/admin/v1")
	reg.MountPublic(admin.Group("", publicLimit()))

	authed := admin.Group("")
	authed.Use(mdw.AuthJWT(jwter, string(domain.RoleAdminHR)))
	reg.MountAdmin(authed)
	return r
}
