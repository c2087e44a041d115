package site

import "github.com/inkpress/inkpress/internal/server/publish"

// PostListResponse wraps the published index.
type PostListResponse struct {
	Posts []*publish.PostInfo `json:"posts"`
	Count int                 `json:"count"`
}
