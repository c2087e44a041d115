package inksdk

import (
	"context"

	"github.com/imroc/req/v3"
)

const (
	v1ContentDownload = "/api/v1/content/download"
)

type ContentAPI struct {
	client *req.Client
}

func newContentAPI(client *req.Client) *ContentAPI {
	return &ContentAPI{
		client: client,
	}
}

// Download fetches the committed bytes of one path.
func (c *ContentAPI) Download(ctx context.Context, relPath string) ([]byte, error) {
	res, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("path", relPath).
		Get(v1ContentDownload)

	if err := handleAPIError(res, err, "content download"); err != nil {
		return nil, err
	}
	return res.ToBytes()
}
