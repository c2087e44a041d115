package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkpress/inkpress/internal/manifest"
	"github.com/inkpress/inkpress/internal/server/handlers/api"
	"github.com/inkpress/inkpress/internal/server/sync"
)

const metaField = "meta"

type SyncHandler struct {
	sync *sync.Service
}

func New(sync *sync.Service) *SyncHandler {
	return &SyncHandler{
		sync: sync,
	}
}

// Status plans one sync round against the client's manifest.
func (h *SyncHandler) Status(ctx *gin.Context) {
	var req StatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest,
			fmt.Errorf("failed to bind json: %w", err))
		return
	}

	res, err := h.sync.Status(&sync.StatusArgs{
		LastKnownCommit: req.LastKnownCommit,
		Files:           req.Manifest,
	})
	if err != nil {
		if isValidationError(err) {
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidManifest, err)
			return
		}
		api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeInternalError,
			fmt.Errorf("failed to compute sync status: %w", err))
		return
	}

	// Both-modified paths go in ToUpload: the client sends bytes, the
	// server merges.
	toUpload := make([]string, 0, len(res.Plan.Uploads)+len(res.Plan.Conflicts))
	toUpload = append(toUpload, res.Plan.Uploads...)
	toUpload = append(toUpload, res.Plan.Conflicts...)

	ctx.PureJSON(http.StatusOK, &StatusResponse{
		ServerCommit:   res.ServerCommit,
		ToUpload:       toUpload,
		ToDownload:     res.Plan.Downloads,
		ToDeleteLocal:  res.Plan.LocalDeletes,
		ToDeleteRemote: res.Plan.RemoteDeletes,
	})
}

// Commit applies one commit round: a "meta" form value plus one file part
// per uploaded path, the field name carrying the relative path. A
// deletions-only round has no file parts and may arrive as a plain form.
func (h *SyncHandler) Commit(ctx *gin.Context) {
	metaValue := ctx.PostForm(metaField)
	if metaValue == "" {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest,
			fmt.Errorf("missing %q field", metaField))
		return
	}

	var meta CommitMeta
	if err := json.Unmarshal([]byte(metaValue), &meta); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest,
			fmt.Errorf("failed to parse %q field: %w", metaField, err))
		return
	}

	var uploads []sync.Upload
	if form, err := ctx.MultipartForm(); err == nil {
		uploads, err = readUploads(form.File)
		if err != nil {
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
			return
		}
	}

	res, err := h.sync.Commit(&sync.CommitArgs{
		LastKnownCommit: meta.LastKnownCommit,
		Message:         meta.Message,
		Deleted:         meta.DeletedFiles,
		Uploads:         uploads,
	})
	if err != nil {
		switch {
		case errors.Is(err, sync.ErrSyncInProgress):
			api.AbortWithError(ctx, http.StatusConflict, api.CodeSyncInProgress, err)
		case isValidationError(err):
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeContentInvalidPath, err)
		default:
			api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeSyncCommitFailed,
				fmt.Errorf("commit round failed: %w", err))
		}
		return
	}

	ctx.PureJSON(http.StatusOK, &CommitResponse{
		CommitHash: res.Commit,
		ToDownload: res.Downloads,
		Conflicts:  toConflictInfos(res.Conflicts),
	})
}

// readUploads collects every file part. The field name is the upload's
// relative path; multipart filenames are ignored since Go rewrites them to
// their base name.
func readUploads(files map[string][]*multipart.FileHeader) ([]sync.Upload, error) {
	uploads := make([]sync.Upload, 0, len(files))
	for path, headers := range files {
		if len(headers) != 1 {
			return nil, fmt.Errorf("want exactly one part for %q, got %d", path, len(headers))
		}
		fd, err := headers[0].Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %q: %w", path, err)
		}
		data, err := io.ReadAll(fd)
		fd.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %q: %w", path, err)
		}
		uploads = append(uploads, sync.Upload{Path: path, Data: data})
	}
	return uploads, nil
}

func isValidationError(err error) bool {
	return errors.Is(err, manifest.ErrInvalidPath) ||
		errors.Is(err, manifest.ErrReservedPath) ||
		errors.Is(err, manifest.ErrInvalidHash)
}
