package handler

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"ats-pipeline/internal/domain"
	"ats-pipeline/internal/service"
	httpez "ats-pipeline/internal/transport/http/ez"
	mdw "ats-pipeline/internal/transport/http/middleware"
)

// 简历类上传的单文件上限
const maxUploadBytes = 10 << 20

type none = struct{}

type idOut struct {
	ID string `json:"id"`
}

func actorOf(c *gin.Context) service.Actor {
	return service.Actor{
		ID:    c.GetString(mdw.KeyUserID),
		Email: c.GetString(mdw.KeyEmail),
		Role:  domain.Role(c.GetString(mdw.KeyRole)),
	}
}

// formFile 取 multipart 里的单个文件
func formFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, httpez.BadRequest("missing file field " + field)
	}
	if fh.Size > maxUploadBytes {
		return nil, httpez.BadRequest(fmt.Sprintf("file larger than %d MB", maxUploadBytes>>20))
	}
	return fh, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, httpez.BadRequest("unreadable file")
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
}
