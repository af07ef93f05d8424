package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/service"
	httpez "ats-pipeline/internal/transport/http/ez"
)

type AttachmentHandler struct {
	atts *service.AttachmentService
}

func NewAttachmentHandler(atts *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{atts: atts}
}

func (h *AttachmentHandler) MountAPI(g *gin.RouterGroup) {
	ez := httpez.New(g)

	// multipart: file, description, analyze=true
	httpez.RegisterAction(ez, httpez.Action[none, *domain.Attachment]{
		Method: http.MethodPost,
		Path:   "/candidates/:id/attachments",
		Binder: httpez.BindNone,
		Perms:  []string{domain.PermEditCandidates},
		Handler: func(c *gin.Context, _ *none) (*domain.Attachment, error) {
			fh, err := formFile(c, "file")
			if err != nil {
				return nil, err
			}
			f, err := fh.Open()
			if err != nil {
				return nil, httpez.BadRequest("unreadable file")
			}
			defer f.Close()
			analyze, _ := strconv.ParseBool(c.PostForm("analyze"))
			return h.atts.Upload(c, actorOf(c), service.UploadInput{
				CandidateID: c.Param("id"),
				FileName:    fh.Filename,
				MimeType:    fh.Header.Get("Content-Type"),
				Description: c.PostForm("description"),
				Analyze:     analyze,
				Body:        f,
			})
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, []domain.Attachment]{
		Method: http.MethodGet,
		Path:   "/candidates/:id/attachments",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) ([]domain.Attachment, error) {
			return h.atts.List(c, c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, *domain.Attachment]{
		Method: http.MethodGet,
		Path:   "/attachments/:id",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (*domain.Attachment, error) {
			return h.atts.Get(c, c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, none]{
		Method: http.MethodGet,
		Path:   "/attachments/:id/download",
		Binder: httpez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *none) (none, error) {
			a, rc, err := h.atts.Open(c, c.Param("id"))
			if err != nil {
				return none{}, err
			}
			defer rc.Close()
			mime := a.MimeType
			if mime == "" {
				mime = "application/octet-stream"
			}
			c.DataFromReader(http.StatusOK, a.Size, mime, rc, map[string]string{
				"Content-Disposition": "attachment; filename*=UTF-8''" + url.PathEscape(a.FileName),
			})
			return none{}, nil
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, idOut]{
		Method: http.MethodDelete,
		Path:   "/attachments/:id",
		Binder: httpez.BindNone,
		Perms:  []string{domain.PermEditCandidates},
		Handler: func(c *gin.Context, _ *none) (idOut, error) {
			return idOut{ID: c.Param("id")}, h.atts.Delete(c, actorOf(c), c.Param("id"))
		},
	})

	httpez.RegisterAction(ez, httpez.Action[none, *domain.Attachment]{
		Method: http.MethodPost,
		Path:   "/attachments/:id/analyze",
		Binder: httpez.BindNone,
		Perms:  []string{domain.PermEditCandidates},
		Handler: func(c *gin.Context, _ *none) (*domain.Attachment, error) {
			return h.atts.Analyze(c, c.Param("id"))
		},
	})
}
