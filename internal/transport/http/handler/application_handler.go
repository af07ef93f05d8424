package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/service"
	httpez "ats-pipeline/internal/transport/http/ez"
	resp "ats-pipeline/internal/transport/http/response"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ApplicationHandler struct {
	apps *service.ApplicationService
}

func NewApplicationHandler(apps *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps}
}

type appListQ struct {
	Status string `form:"status"`
	Q      string `form:"q"`
	Offset int    `form:"offset,default=0"`
	Limit  int    `form:"limit,default=20"`
}

type statusIn struct {
	Status domain.ApplicationStatus `json:"status" binding:"required"`
}

func (h *ApplicationHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)

	httpez.RegisterAction(ez, httpez.Action[appListQ, resp.Page[domain.Application]]{
		Method: http.MethodGet,
		Path:   "/applications",
		Binder: httpez.BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *appListQ) (resp.Page[domain.Application], error) {
			items, total, err := h.apps.List(c, domain.ApplicationFilter{
				Status: domain.ApplicationStatus(in.Status), Q: in.Q, Offset: in.Offset, Limit: in.Limit,
			})
			return resp.Page[domain.Application]{Total: total, Items: items}, err
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.ApplicationInput, *domain.Application]{
		Method: http.MethodPost,
		Path:   "/applications",
		Binder: httpez.BindJSON,
		Perms:  []string{domain.PermCreateApplications},
		Handler: func(c *gin.Context, in *service.ApplicationInput) (*domain.Application, error) {
			return h.apps.Create(c, actorOf(c), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, *domain.Application]{
		Method: http.MethodGet,
		Path:   "/applications/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (*domain.Application, error) {
			return h.apps.Get(c, c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[service.ApplicationInput, *domain.Application]{
		Method: http.MethodPut,
		Path:   "/applications/:id",
		Binder: httpez.BindJSON,
		Perms:  []string{domain.PermEditApplications},
		Handler: func(c *gin.Context, in *service.ApplicationInput) (*domain.Application, error) {
			return h.apps.Update(c, c.Param("id"), *in)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[statusIn, *domain.Application]{
		Method: http.MethodPatch,
		Path:   "/applications/:id/status",
		Binder: httpez.BindJSON,
		Perms:  []string{domain.PermEditApplications},
		Handler: func(c *gin.Context, in *statusIn) (*domain.Application, error) {
			return h.apps.SetStatus(c, c.Param("id"), in.Status)
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, idOut]{
		Method: http.MethodDelete,
		Path:   "/applications/:id",
		Binder: httpez.BindNone,
		Perms:  []string{domain.PermDeleteApplications},
		Handler: func(c *gin.Context, _ *none) (idOut, error) {
			return idOut{ID: c.Param("id")}, h.apps.Delete(c, c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, []domain.CandidateView]{
		Method: http.MethodGet,
		Path:   "/applications/:id/candidates",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) ([]domain.CandidateView, error) {
			return h.apps.Candidates(c, c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, none]{
		Method: http.MethodGet,
		Path:   "/applications/:id/export",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (none, error) {
			app, err := h.apps.Get(c, c.Param("id"))
			if err != nil {
				return none{}, err
			}
			// 先确认可导出，再写响应头
			var buf bytes.Buffer
			if err := h.apps.Export(c, app.ID, &buf); err != nil {
				return none{}, err
			}
			name := fmt.Sprintf("pipeline-%s.xlsx", app.Title)
			c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(name))
			c.Data(http.StatusOK, xlsxMime, buf.Bytes())
			return none{}, nil
		},
	})
}
