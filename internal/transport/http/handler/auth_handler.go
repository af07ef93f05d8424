package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ats-pipeline/internal/core/auth"
	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/service"
	httpez "ats-pipeline/internal/transport/http/ez"
	mdw "ats-pipeline/internal/transport/http/middleware"
)

type AuthHandler struct {
	users *service.UserService
	jwt   *auth.JWTer
}

func NewAuthHandler(users *service.UserService, jwt *auth.JWTer) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

func (h *AuthHandler) Priority() int { return 10 }

type loginIn struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginOut struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// MountPublic /auth/login 无需登录
func (h *AuthHandler) MountPublic(g *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(g), httpez.Action[loginIn, loginOut]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			u, err := h.users.Authenticate(c, in.Email, in.Password)
			if err != nil {
				return loginOut{}, err
			}
			tok, err := h.jwt.Issue(u)
			if err != nil {
				return loginOut{}, httpez.Internal("issue token failed", err)
			}
			return loginOut{Token: tok, User: u}, nil
		},
	})
}

func (h *AuthHandler) MountAPI(g *gin.RouterGroup) {
	httpez.RegisterAction(httpez.New(g), httpez.Action[none, *domain.User]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (*domain.User, error) {
			return h.users.Get(c, c.GetString(mdw.KeyUserID))
		},
	})
}
