package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/service"
	httpez "ats-pipeline/internal/transport/http/ez"
	resp "ats-pipeline/internal/transport/http/response"
)

// UserHandler 管理端：账号与权限
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userListQ struct {
	Offset int `form:"offset,default=0"`
	Limit  int `form:"limit,default=20"`
}

func (h *UserHandler) MountAdmin(g *gin.RouterGroup) {
	ez := httpez.New(g)
	manage := []string{domain.PermManageUsers}

	httpez.RegisterAction(ez, httpez.Action[userListQ, resp.Page[domain.User]]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Perms:  manage,
		Handler: func(c *gin.Context, in *userListQ) (resp.Page[domain.User], error) {
			items, total, err := h.users.List(c, in.Offset, in.Limit)
			return resp.Page[domain.User]{Total: total, Items: items}, err
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.CreateUserInput, *domain.User]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: httpez.BindJSON,
		Perms:  manage,
		Handler: func(c *gin.Context, in *service.CreateUserInput) (*domain.User, error) {
			return h.users.Create(c, *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.UpdateAccessInput, *domain.User]{
		Method: http.MethodPut,
		Path:   "/users/:id/access",
		Binder: httpez.BindJSON,
		Perms:  manage,
		Handler: func(c *gin.Context, in *service.UpdateAccessInput) (*domain.User, error) {
			return h.users.UpdateAccess(c, c.Param("id"), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, idOut]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Perms:  manage,
		Handler: func(c *gin.Context, _ *none) (idOut, error) {
			if c.Param("id") == actorOf(c).ID {
				return idOut{}, httpez.BadRequest("cannot delete yourself")
			}
			return idOut{ID: c.Param("id")}, h.users.Delete(c, c.Param("id"))
		},
	})
}
