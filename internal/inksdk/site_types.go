package inksdk

// PostInfo is one entry of the published index.
type PostInfo struct {
	Path    string   `json:"path"`
	Title   string   `json:"title"`
	Author  string   `json:"author,omitempty"`
	Date    string   `json:"date,omitempty"`
	Updated string   `json:"updated,omitempty"`
	Labels  []string `json:"labels,omitempty"`
}

type PostListResponse struct {
	Posts []*PostInfo `json:"posts"`
	Count int         `json:"count"`
}

// RenderedPost is one published post with its rendered HTML body.
type RenderedPost struct {
	PostInfo
	HTML string `json:"html"`
}
