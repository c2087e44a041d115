package content

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/internal/manifest"
	"github.com/inkpress/inkpress/internal/server/handlers/api"
	"github.com/inkpress/inkpress/internal/server/sync"
	"github.com/inkpress/inkpress/internal/utils"
)

type ContentHandler struct {
	sync *sync.Service
}

func New(sync *sync.Service) *ContentHandler {
	return &ContentHandler{
		sync: sync,
	}
}

// Download serves the committed bytes of one path. The content hash rides as
// the ETag, so a client holding the same bytes gets a 304 and no body.
func (h *ContentHandler) Download(ctx *gin.Context) {
	var req DownloadRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest,
			fmt.Errorf("failed to bind query: %w", err))
		return
	}

	data, hash, err := h.sync.Download(req.Path)
	if err != nil {
		switch {
		case errors.Is(err, manifest.ErrInvalidPath), errors.Is(err, manifest.ErrReservedPath):
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeContentInvalidPath, err)
		case errors.Is(err, fs.ErrNotExist):
			api.AbortWithError(ctx, http.StatusNotFound, api.CodeContentNotFound,
				fmt.Errorf("no such content: %s", req.Path))
		default:
			api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError,
				fmt.Errorf("failed to read content: %w", err))
		}
		return
	}

	etag := `"` + hash + `"`
	if ctx.GetHeader("If-None-Match") == etag {
		ctx.Header("ETag", etag)
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Header("ETag", etag)
	ctx.Data(http.StatusOK, utils.DetectContentType(req.Path), data)
}
