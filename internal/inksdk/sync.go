package inksdk

import (
	"context"
	"fmt"
	"path"

	"github.com/imroc/req/v3"
)

const (
	v1SyncStatus = "/api/v1/sync/status"
	v1SyncCommit = "/api/v1/sync/commit"

	metaField = "meta"
)

type SyncAPI struct {
	client *req.Client
}

func newSyncAPI(client *req.Client) *SyncAPI {
	return &SyncAPI{
		client: client,
	}
}

// Status sends the local manifest and receives the sync plan.
func (s *SyncAPI) Status(ctx context.Context, params *SyncStatusRequest) (*SyncStatusResponse, error) {
	var resp SyncStatusResponse
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(params).
		SetSuccessResult(&resp).
		Post(v1SyncStatus)

	if err := handleAPIError(res, err, "sync status"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Commit pushes one round: deletions and last-known commit in the meta
// field, one file part per upload with the form field name carrying the
// relative path. A deletions-only round travels as a plain form since no
// file parts force multipart. Safe to retry; an identical round is a no-op
// on the server.
func (s *SyncAPI) Commit(ctx context.Context, params *SyncCommitParams) (*SyncCommitResponse, error) {
	metaJSON, err := jsonMarshal(&commitMeta{
		DeletedFiles:    params.DeletedFiles,
		LastKnownCommit: params.LastKnownCommit,
		Message:         params.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode commit meta: %w", err)
	}

	r := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{metaField: string(metaJSON)})
	for _, up := range params.Uploads {
		r.SetFileBytes(up.Path, path.Base(up.Path), up.Data)
	}

	var resp SyncCommitResponse
	res, err := r.SetSuccessResult(&resp).Post(v1SyncCommit)

	if err := handleAPIError(res, err, "sync commit"); err != nil {
		return nil, err
	}
	return &resp, nil
}
