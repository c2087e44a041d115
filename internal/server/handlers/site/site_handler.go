package site

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/internal/server/handlers/api"
	"github.com/inkpress/inkpress/internal/server/publish"
)

type SiteHandler struct {
	publish *publish.Service
}

func New(publish *publish.Service) *SiteHandler {
	return &SiteHandler{
		publish: publish,
	}
}

// ListPosts serves the published index, optionally filtered by label.
// Drafts never appear here; the publish pipeline drops them at index time.
func (h *SiteHandler) ListPosts(ctx *gin.Context) {
	posts, err := h.publish.List(ctx.Query("label"))
	if err != nil {
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError,
			fmt.Errorf("failed to list posts: %w", err))
		return
	}

	ctx.PureJSON(http.StatusOK, &PostListResponse{
		Posts: posts,
		Count: len(posts),
	})
}

// GetPost serves one rendered post by its content path.
func (h *SiteHandler) GetPost(ctx *gin.Context) {
	relPath := strings.TrimPrefix(ctx.Param("path"), "/")
	if relPath == "" {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest,
			errors.New("post path is required"))
		return
	}

	post, err := h.publish.Get(relPath)
	if err != nil {
		if errors.Is(err, publish.ErrPostNotFound) {
			api.AbortWithError(ctx, http.StatusNotFound, api.CodeContentNotFound,
				fmt.Errorf("no such post: %s", relPath))
			return
		}
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError,
			fmt.Errorf("failed to load post: %w", err))
		return
	}

	ctx.PureJSON(http.StatusOK, post)
}
