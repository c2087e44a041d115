package inksdk

import (
	"context"

	"github.com/imroc/req/v3"
)

const (
	v1SitePosts = "/api/v1/site/posts"
)

type SiteAPI struct {
	client *req.Client
}

func newSiteAPI(client *req.Client) *SiteAPI {
	return &SiteAPI{
		client: client,
	}
}

// Posts lists the published index, optionally filtered by label.
func (s *SiteAPI) Posts(ctx context.Context, label string) (*PostListResponse, error) {
	r := s.client.R().SetContext(ctx)
	if label != "" {
		r.SetQueryParam("label", label)
	}

	var resp PostListResponse
	res, err := r.SetSuccessResult(&resp).Get(v1SitePosts)

	if err := handleAPIError(res, err, "site posts"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Post fetches one rendered post by its content path.
func (s *SiteAPI) Post(ctx context.Context, relPath string) (*RenderedPost, error) {
	var resp RenderedPost
	res, err := s.client.R().
		SetContext(ctx).
		SetSuccessResult(&resp).
		Get(v1SitePosts + "/" + relPath)

	if err := handleAPIError(res, err, "site post"); err != nil {
		return nil, err
	}
	return &resp, nil
}
